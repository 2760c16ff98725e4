package tradernet

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"BrokerSync/internal/broker"
	"BrokerSync/internal/domain/models"
	"BrokerSync/internal/domain/repository"
	"BrokerSync/pkg/util"
)

// PlatformID is the platform this provider is registered under.
const PlatformID = "tradernet"

const readDeadline = 30 * time.Second

// Provider speaks the Tradernet-style websocket request/response protocol:
// one connection per fetch, a single history command, one reply frame.
type Provider struct {
	wsURL  string
	apiKey string
}

// New builds a provider from platform config and resolved credentials.
// Suitable as a broker.ProviderBuilder.
func New(platform models.Platform, creds broker.Credentials) (repository.BrokerProvider, error) {
	apiKey := creds.Get("api_key")
	if apiKey == "" {
		return nil, fmt.Errorf("%w: api_key field required", broker.ErrMalformedCredentials)
	}
	if platform.URL == "" {
		return nil, fmt.Errorf("%w: platform %s has no url", broker.ErrMalformedCredentials, platform.ID)
	}
	return &Provider{wsURL: platform.URL, apiKey: apiKey}, nil
}

type historyRequest struct {
	Cmd    string `json:"cmd"`
	APIKey string `json:"apiKey"`
	Since  string `json:"since,omitempty"`
}

type wireActivity struct {
	Symbol    string           `json:"symbol"`
	Type      string           `json:"type"`
	Date      string           `json:"date"`
	Quantity  *decimal.Decimal `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unitPrice"`
	Currency  string           `json:"currency"`
	Fee       *decimal.Decimal `json:"fee"`
	Amount    *decimal.Decimal `json:"amount"`
	Comment   string           `json:"comment"`
}

type historyResponse struct {
	Status     string         `json:"status"` // ok, auth_error, rate_limited, error
	Message    string         `json:"message"`
	Activities []wireActivity `json:"activities"`
}

// FetchActivities opens a connection, requests history newer than since and
// closes. The since bound is also enforced client-side.
func (p *Provider) FetchActivities(ctx context.Context, since *time.Time) ([]models.ExternalActivity, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, p.wsURL, nil)
	if err != nil {
		return nil, broker.NewProviderError(broker.ProviderUnavailable, PlatformID, err)
	}
	defer conn.Close()

	req := historyRequest{Cmd: "getActivitiesHistory", APIKey: p.apiKey, Since: util.FormatSince(since)}
	if err := conn.WriteJSON(req); err != nil {
		return nil, broker.NewProviderError(broker.ProviderUnavailable, PlatformID, err)
	}

	deadline := readDeadline
	if d, ok := ctx.Deadline(); ok {
		if remaining := time.Until(d); remaining < deadline {
			deadline = remaining
		}
	}
	_ = conn.SetReadDeadline(time.Now().Add(deadline))

	var resp historyResponse
	if err := conn.ReadJSON(&resp); err != nil {
		return nil, broker.NewProviderError(broker.ProviderUnavailable, PlatformID, err)
	}

	switch resp.Status {
	case "ok":
	case "auth_error":
		return nil, broker.NewProviderError(broker.ProviderAuthFailed, PlatformID,
			fmt.Errorf("%s", resp.Message))
	case "rate_limited":
		return nil, broker.NewProviderError(broker.ProviderRateLimited, PlatformID,
			fmt.Errorf("%s", resp.Message))
	default:
		return nil, broker.NewProviderError(broker.ProviderMalformedResponse, PlatformID,
			fmt.Errorf("status %q: %s", resp.Status, resp.Message))
	}

	out := make([]models.ExternalActivity, 0, len(resp.Activities))
	for _, w := range resp.Activities {
		date, ok := util.ParseActivityDate(w.Date)
		if !ok {
			return nil, broker.NewProviderError(broker.ProviderMalformedResponse, PlatformID,
				fmt.Errorf("bad activity date %q", w.Date))
		}
		if since != nil && !date.After(*since) {
			continue
		}
		out = append(out, models.ExternalActivity{
			Symbol:       w.Symbol,
			ActivityType: w.Type,
			Date:         date,
			Quantity:     w.Quantity,
			UnitPrice:    w.UnitPrice,
			Currency:     w.Currency,
			Fee:          w.Fee,
			Amount:       w.Amount,
			Comment:      w.Comment,
		})
	}
	return out, nil
}
