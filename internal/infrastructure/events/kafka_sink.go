package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/suntan-superman/rydeiq-backend/internal/domain/ride"
)

// LifecycleEvent is the record emitted to the lifecycle topic on every
// committed ride change. Downstream consumers (analytics, driver payouts)
// key on ride_id so per-ride ordering holds within a partition.
type LifecycleEvent struct {
	RideID       string    `json:"ride_id"`
	RiderID      string    `json:"rider_id"`
	Status       string    `json:"status"`
	BidCount     int       `json:"bid_count"`
	Fare         string    `json:"fare"`
	CancelReason string    `json:"cancel_reason,omitempty"`
	CommittedAt  time.Time `json:"committed_at"`
}

// KafkaSink publishes lifecycle events to Kafka
type KafkaSink struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewKafkaSink creates a sink writing to the given brokers and topic
func NewKafkaSink(brokers []string, topic string, logger *zap.Logger) *KafkaSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Topic:    topic,
		Balancer: &kafka.Hash{},
	})
	return &KafkaSink{writer: w, logger: logger}
}

// Publish emits a lifecycle event for the snapshot. Failures are logged and
// swallowed; the broker is not on the request path.
func (s *KafkaSink) Publish(ctx context.Context, snap *ride.Snapshot) {
	evt := LifecycleEvent{
		RideID:       snap.Request.ID.String(),
		RiderID:      snap.Request.RiderID.String(),
		Status:       snap.Request.Status.String(),
		BidCount:     len(snap.Bids),
		Fare:         snap.Request.EstimatedFare.String(),
		CancelReason: snap.Request.CancelReason,
		CommittedAt:  snap.CommittedAt,
	}

	data, err := json.Marshal(evt)
	if err != nil {
		s.logger.Error("marshaling lifecycle event failed", zap.Error(err))
		return
	}

	err = s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(evt.RideID),
		Value: data,
	})
	if err != nil {
		s.logger.Error("publishing lifecycle event failed",
			zap.String("ride_id", evt.RideID), zap.Error(err))
	}
}

// Close flushes and closes the writer
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
