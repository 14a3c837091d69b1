package command

import (
	"context"
	"strings"

	"github.com/tair/rfid-textile/internal/lot/domain"
	"github.com/tair/rfid-textile/internal/lot/metrics"
	"github.com/tair/rfid-textile/kafka"
	"github.com/tair/rfid-textile/pkg/database"
	"github.com/tair/rfid-textile/pkg/logger"
)

// RecordDetectionCommand carries the number of tags a portal read on a stored lot.
// DetectedCount is a pointer so that a missing count is told apart from zero.
type RecordDetectionCommand struct {
	LotID         string
	DetectedCount *int
}

// DetectionResult is the updated history row and its reconciliation against quantite_finale
type DetectionResult struct {
	History     *domain.LotHistory `json:"lot_history"`
	Discrepancy domain.Discrepancy `json:"reconciliation"`
}

// RecordDetectionHandler handles detect count command
type RecordDetectionHandler struct {
	tx      database.TxRunner
	history domain.HistoryRepository
	events  EventPublisher
	metrics *metrics.Metrics
}

// NewRecordDetectionHandler creates a new detect count handler
func NewRecordDetectionHandler(
	tx database.TxRunner,
	history domain.HistoryRepository,
	events EventPublisher,
	m *metrics.Metrics,
) *RecordDetectionHandler {
	return &RecordDetectionHandler{
		tx:      tx,
		history: history,
		events:  publisherOrNop(events),
		metrics: m,
	}
}

// Handle stores the detected count, reads it back and reports the delta.
// A read-back that disagrees with the input rolls the write back.
func (h *RecordDetectionHandler) Handle(ctx context.Context, cmd RecordDetectionCommand) (*DetectionResult, error) {
	const op = "lot.detect_count"

	lotID := strings.TrimSpace(cmd.LotID)
	if lotID == "" || cmd.DetectedCount == nil {
		return nil, domain.NewValidationError(op, "lot_id and detected_count are required")
	}
	count := *cmd.DetectedCount
	if count < 0 {
		return nil, domain.NewValidationError(op, "detected_count must be a non-negative integer")
	}

	var result DetectionResult
	err := h.tx.InTx(ctx, func(dbc database.Context) error {
		notFound := domain.NewNotFoundError(op, "no stored lot %s", lotID)

		if _, err := h.history.FindStoredLot(dbc, lotID); err != nil {
			if domain.IsCode(err, domain.CodeNotFound) {
				return notFound
			}
			return err
		}

		affected, err := h.history.SetDetectedCount(dbc, lotID, count)
		if err != nil {
			return err
		}
		if affected == 0 {
			return notFound
		}

		stored, err := h.history.FindStoredLot(dbc, lotID)
		if err != nil {
			return err
		}
		if stored.DetectedCount == nil || *stored.DetectedCount != count {
			return domain.NewError(domain.CodePersistence, op, "detected_count was not persisted", nil)
		}

		result = DetectionResult{History: stored, Discrepancy: domain.NewDiscrepancy(stored, count)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	d := result.Discrepancy
	h.metrics.Detected(d)
	if d.Kind != domain.DiscrepancyMatch {
		publishCommitted(ctx, kafka.EventTypeDetectionDiscrepancy, lotID, func(ctx context.Context) error {
			return h.events.PublishDetectionDiscrepancy(ctx, kafka.DetectionDiscrepancyEvent{
				LotID:          d.LotID,
				ChaineID:       d.ChaineID,
				QuantiteFinale: d.QuantiteFinale,
				DetectedCount:  d.DetectedCount,
				Delta:          d.Delta,
				Kind:           string(d.Kind),
			})
		})
		logger.Warn(ctx).
			Str("lot_id", lotID).
			Int("quantite_finale", d.QuantiteFinale).
			Int("detected_count", d.DetectedCount).
			Int("delta", d.Delta).
			Str("kind", string(d.Kind)).
			Msg("Detection count disagrees with quantite_finale")
		return &result, nil
	}

	logger.Info(ctx).
		Str("lot_id", lotID).
		Int("detected_count", count).
		Msg("Detection count matches quantite_finale")
	return &result, nil
}
