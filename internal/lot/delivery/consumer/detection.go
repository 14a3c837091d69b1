package consumer

import (
	"context"

	"github.com/tair/rfid-textile/internal/lot/usecase/command"
	"github.com/tair/rfid-textile/kafka"
	"github.com/tair/rfid-textile/pkg/logger"
)

// Registrar is the part of the Kafka consumer the lots service hooks into
type Registrar interface {
	RegisterHandler(eventType string, handler kafka.EventHandler)
}

// DetectionHandler feeds portal counts published on Kafka into the detect count command
type DetectionHandler struct {
	record *command.RecordDetectionHandler
}

// NewDetectionHandler creates a new detection consumer handler
func NewDetectionHandler(record *command.RecordDetectionHandler) *DetectionHandler {
	return &DetectionHandler{record: record}
}

// Register subscribes the handler to detection.counted events
func (h *DetectionHandler) Register(r Registrar) {
	r.RegisterHandler(kafka.EventTypeDetectionCounted, h.Handle)
}

// Handle decodes one detection.counted payload and records it
func (h *DetectionHandler) Handle(ctx context.Context, payload []byte) error {
	event, err := kafka.DecodeDetectionCounted(payload)
	if err != nil {
		return err
	}

	result, err := h.record.Handle(ctx, command.RecordDetectionCommand{
		LotID:         event.LotID,
		DetectedCount: event.DetectedCount,
	})
	if err != nil {
		return err
	}

	logger.Info(ctx).
		Str("lot_id", event.LotID).
		Str("reader_id", event.ReaderID).
		Int("detected_count", *event.DetectedCount).
		Str("kind", string(result.Discrepancy.Kind)).
		Msg("Detection count consumed")
	return nil
}
