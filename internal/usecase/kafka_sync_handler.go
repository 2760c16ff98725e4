package usecase

import (
	"context"
	"encoding/json"

	drepo "BrokerSync/internal/domain/repository"
	pkgkafka "BrokerSync/pkg/kafka"
	applogger "BrokerSync/pkg/logger"
)

// KafkaSyncHandler consumes sync request messages and triggers the
// orchestrator. An empty accountId requests a full pass.
type KafkaSyncHandler struct {
	topic   string
	svc     *SyncService
	metrics drepo.Metrics
	logger  *applogger.Logger
}

func NewKafkaSyncHandler(topic string, svc *SyncService, metrics drepo.Metrics, logger *applogger.Logger) *KafkaSyncHandler {
	return &KafkaSyncHandler{topic: topic, svc: svc, metrics: metrics, logger: logger}
}

func (h *KafkaSyncHandler) Topic() string { return h.topic }

// incoming message schema: {"accountId": "..."} or {} for all accounts
func (h *KafkaSyncHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		AccountID string `json:"accountId"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}

	if m.AccountID == "" {
		// enumeration failure is the only error worth redelivery
		_, err := h.svc.SyncAllAccounts(ctx)
		return err
	}

	// per-account failures are already reported through the result path;
	// redelivering would just repeat them
	if _, err := h.svc.SyncAccount(ctx, m.AccountID); err != nil {
		h.logger.Warn("requested account sync failed",
			applogger.String("account", m.AccountID),
			applogger.Error(err),
		)
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaSyncHandler)(nil)
