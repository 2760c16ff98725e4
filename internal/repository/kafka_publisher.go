package repository

import (
	"context"

	"BrokerSync/internal/domain/models"
	"BrokerSync/internal/domain/repository"
	pkgkafka "BrokerSync/pkg/kafka"
)

// KafkaSyncPublisher emits per-account sync results to a Kafka topic so other
// systems (alerting, dashboards) can follow broker sync health.
type KafkaSyncPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaSyncPublisher(producer *pkgkafka.Producer, topic string) repository.SyncPublisher {
	return &KafkaSyncPublisher{producer: producer, topic: topic}
}

func (p *KafkaSyncPublisher) PublishResult(ctx context.Context, res *models.SyncResult) error {
	// keyed by account so one account's results stay in order per partition
	return p.producer.Publish(ctx, p.topic, []byte(res.AccountID), res)
}

func (p *KafkaSyncPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
