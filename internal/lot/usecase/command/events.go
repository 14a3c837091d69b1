package command

import (
	"context"

	"github.com/tair/rfid-textile/kafka"
	"github.com/tair/rfid-textile/pkg/logger"
)

// EventPublisher announces committed lot changes
type EventPublisher interface {
	PublishLotTransitioned(ctx context.Context, event kafka.LotTransitionedEvent) error
	PublishLotStored(ctx context.Context, event kafka.LotStoredEvent) error
	PublishDetectionDiscrepancy(ctx context.Context, event kafka.DetectionDiscrepancyEvent) error
}

func publisherOrNop(p EventPublisher) EventPublisher {
	if p == nil {
		return kafka.NopPublisher{}
	}
	return p
}

// publishCommitted sends an event for a change that is already committed.
// Failures are logged only: the change itself stands.
func publishCommitted(ctx context.Context, eventType, lotID string, publish func(context.Context) error) {
	if err := publish(ctx); err != nil {
		logger.Warn(ctx).
			Err(err).
			Str("event_type", eventType).
			Str("lot_id", lotID).
			Msg("Failed to publish event after commit")
	}
}
