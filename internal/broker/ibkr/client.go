package ibkr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"BrokerSync/internal/broker"
	"BrokerSync/internal/domain/models"
	"BrokerSync/internal/domain/repository"
	"BrokerSync/internal/service/ratelimit"
	xhttp "BrokerSync/pkg/http"
	"BrokerSync/pkg/util"
)

// PlatformID is the platform this provider is registered under.
const PlatformID = "ibkr"

const (
	defaultPageSize   = 500
	transientRetryMax = 3
	retryBackoff      = 500 * time.Millisecond

	// token bucket for outbound calls: IBKR throttles aggressively
	rateCapacity  = 5
	rateRefillSec = 2
)

// Provider fetches account activities from an IBKR-style REST gateway with
// token auth and page-based pagination.
type Provider struct {
	baseURL  string
	token    string
	client   *xhttp.Client
	limiter  *ratelimit.Limiter
	pageSize int
}

// New builds a provider from platform config and resolved credentials.
// Suitable as a broker.ProviderBuilder.
func New(platform models.Platform, creds broker.Credentials) (repository.BrokerProvider, error) {
	token := creds.Get("token")
	if token == "" {
		return nil, fmt.Errorf("%w: token field required", broker.ErrMalformedCredentials)
	}
	if platform.URL == "" {
		return nil, fmt.Errorf("%w: platform %s has no url", broker.ErrMalformedCredentials, platform.ID)
	}
	return &Provider{
		baseURL:  platform.URL,
		token:    token,
		client:   xhttp.NewClient(),
		limiter:  ratelimit.New(),
		pageSize: defaultPageSize,
	}, nil
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

type wirePage struct {
	Activities []wireActivity `json:"activities"`
	NextPage   int            `json:"nextPage"` // 0 = last page
}

// FetchActivities pulls all pages newer than since. Records at or before the
// watermark are dropped client-side as well, in case the gateway over-fetches
// near the boundary.
func (p *Provider) FetchActivities(ctx context.Context, since *time.Time) ([]models.ExternalActivity, error) {
	var out []models.ExternalActivity

	page := 1
	for {
		body, err := p.fetchPage(ctx, since, page)
		if err != nil {
			return nil, err
		}

		var wp wirePage
		if err := json.Unmarshal(body, &wp); err != nil {
			return nil, broker.NewProviderError(broker.ProviderMalformedResponse, PlatformID, err)
		}

		for _, w := range wp.Activities {
			ext, err := w.toExternal()
			if err != nil {
				return nil, broker.NewProviderError(broker.ProviderMalformedResponse, PlatformID, err)
			}
			if since != nil && !ext.Date.After(*since) {
				continue
			}
			out = append(out, ext)
		}

		if wp.NextPage == 0 {
			return out, nil
		}
		page = wp.NextPage
	}
}

func (w *wireActivity) toExternal() (models.ExternalActivity, error) {
	date, ok := util.ParseActivityDate(w.Date)
	if !ok {
		return models.ExternalActivity{}, fmt.Errorf("bad activity date %q", w.Date)
	}
	return models.ExternalActivity{
		Symbol:       w.Symbol,
		ActivityType: w.Type,
		Date:         date,
		Quantity:     w.Quantity,
		UnitPrice:    w.UnitPrice,
		Currency:     w.Currency,
		Fee:          w.Fee,
		Amount:       w.Amount,
		Comment:      w.Comment,
	}, nil
}

// fetchPage performs one rate-limited GET with transient-failure retries.
func (p *Provider) fetchPage(ctx context.Context, since *time.Time, page int) ([]byte, error) {
	if err := p.waitForToken(ctx); err != nil {
		return nil, err
	}

	query := map[string][]string{
		"page":     {strconv.Itoa(page)},
		"pageSize": {strconv.Itoa(p.pageSize)},
	}
	if s := util.FormatSince(since); s != "" {
		query["since"] = []string{s}
	}

	var lastErr error
	for attempt := 0; attempt <= transientRetryMax; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, broker.NewProviderError(broker.ProviderUnavailable, PlatformID, ctx.Err())
			case <-time.After(retryBackoff * time.Duration(attempt)):
			}
		}

		resp, err := p.client.SendRequest(ctx, &xhttp.RequestOptions{
			Method:      xhttp.MethodGet,
			URL:         p.baseURL + "/v1/activities",
			Headers:     map[string]string{"Authorization": "Bearer " + p.token},
			QueryParams: query,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, broker.NewProviderError(broker.ProviderUnavailable, PlatformID, ctx.Err())
			}
			lastErr = err
			continue
		}

		body, status, err := drain(resp)
		if err != nil {
			lastErr = err
			continue
		}

		switch {
		case status == http.StatusOK:
			return body, nil
		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			return nil, broker.NewProviderError(broker.ProviderAuthFailed, PlatformID,
				fmt.Errorf("status %d", status))
		case status == http.StatusTooManyRequests:
			lastErr = broker.NewProviderError(broker.ProviderRateLimited, PlatformID,
				fmt.Errorf("status %d", status))
		case status >= 500:
			lastErr = fmt.Errorf("status %d", status)
		default:
			return nil, broker.NewProviderError(broker.ProviderMalformedResponse, PlatformID,
				fmt.Errorf("unexpected status %d", status))
		}
	}

	if pe, ok := broker.AsProviderError(lastErr); ok {
		return nil, pe
	}
	return nil, broker.NewProviderError(broker.ProviderUnavailable, PlatformID, lastErr)
}

func (p *Provider) waitForToken(ctx context.Context) error {
	for !p.limiter.Allow(PlatformID, rateCapacity, rateRefillSec) {
		select {
		case <-ctx.Done():
			return broker.NewProviderError(broker.ProviderUnavailable, PlatformID, ctx.Err())
		case <-time.After(100 * time.Millisecond):
		}
	}
	return nil
}

func drain(resp *http.Response) ([]byte, int, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, nil
}
