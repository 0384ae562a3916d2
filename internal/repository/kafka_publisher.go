package repository

import (
	"context"

	"Certus/internal/domain/models"
	domrepo "Certus/internal/domain/repository"
	pkgkafka "Certus/pkg/kafka"
	"Certus/pkg/util"
)

// KafkaPublisher implements Publisher for Kafka. Observations are keyed by
// asset id so that one asset always lands on the same partition.
type KafkaPublisher struct {
	producer     *pkgkafka.Producer
	marketsTopic string
	scoresTopic  string
}

var _ domrepo.Publisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, marketsTopic, scoresTopic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, marketsTopic: marketsTopic, scoresTopic: scoresTopic}
}

func (p *KafkaPublisher) PublishObservations(ctx context.Context, obs []models.MarketObservation) error {
	if len(obs) == 0 {
		return nil
	}
	headers := runHeaders(ctx)
	msgs := make([]pkgkafka.Message, len(obs))
	for i, o := range obs {
		msgs[i] = pkgkafka.Message{Key: []byte(o.AssetID), Value: o, Headers: headers}
	}
	return p.producer.PublishBatch(ctx, p.marketsTopic, msgs)
}

func (p *KafkaPublisher) PublishScores(ctx context.Context, scores []models.ScoreRow) error {
	if len(scores) == 0 || p.scoresTopic == "" {
		return nil
	}
	headers := runHeaders(ctx)
	msgs := make([]pkgkafka.Message, len(scores))
	for i, s := range scores {
		msgs[i] = pkgkafka.Message{Key: []byte(s.AssetID), Value: s, Headers: headers}
	}
	return p.producer.PublishBatch(ctx, p.scoresTopic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

func runHeaders(ctx context.Context) map[string]string {
	if id := util.RunID(ctx); id != "" {
		return map[string]string{pkgkafka.HeaderRunID: id}
	}
	return nil
}
