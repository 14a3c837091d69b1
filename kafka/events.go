package kafka

import (
	"encoding/json"
	"fmt"
	"time"
)

// LotTransitionedEvent is published after a lot changes state
type LotTransitionedEvent struct {
	EventID          string    `json:"event_id"`
	EventType        string    `json:"event_type"`
	LotID            string    `json:"lot_id"`
	EPC              string    `json:"epc"`
	ChaineID         string    `json:"chaine_id"`
	FromStatut       string    `json:"from_statut"`
	ToStatut         string    `json:"to_statut"`
	QuantiteInitiale int       `json:"quantite_initiale"`
	JeansDefectueux  int       `json:"jeans_defectueux"`
	QuantiteFinale   *int      `json:"quantite_finale,omitempty"`
	OuvrierNom       string    `json:"ouvrier_nom,omitempty"`
	Localisation     string    `json:"localisation,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// LotStoredEvent is published after a lot has been archived and compacted
type LotStoredEvent struct {
	EventID        string    `json:"event_id"`
	EventType      string    `json:"event_type"`
	LotID          string    `json:"lot_id"`
	EPC            string    `json:"epc"`
	ChaineID       string    `json:"chaine_id"`
	GarmentCount   int       `json:"garment_count"`
	QuantiteFinale *int      `json:"quantite_finale,omitempty"`
	DateStockage   time.Time `json:"date_stockage"`
	Timestamp      time.Time `json:"timestamp"`
}

// DetectionDiscrepancyEvent is published when a detected count disagrees with quantite_finale
type DetectionDiscrepancyEvent struct {
	EventID        string    `json:"event_id"`
	EventType      string    `json:"event_type"`
	LotID          string    `json:"lot_id"`
	ChaineID       string    `json:"chaine_id"`
	QuantiteFinale int       `json:"quantite_finale"`
	DetectedCount  int       `json:"detected_count"`
	Delta          int       `json:"delta"`
	Kind           string    `json:"kind"`
	Timestamp      time.Time `json:"timestamp"`
}

// DetectionCountedEvent is emitted by portal readers after scanning a stored lot
type DetectionCountedEvent struct {
	EventID       string    `json:"event_id"`
	EventType     string    `json:"event_type"`
	LotID         string    `json:"lot_id"`
	DetectedCount *int      `json:"detected_count"`
	ReaderID      string    `json:"reader_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// DecodeDetectionCounted parses a detection.counted payload
func DecodeDetectionCounted(payload []byte) (DetectionCountedEvent, error) {
	var event DetectionCountedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return event, fmt.Errorf("failed to unmarshal detection counted event: %w", err)
	}
	if event.LotID == "" || event.DetectedCount == nil {
		return event, fmt.Errorf("detection counted event requires lot_id and detected_count")
	}
	return event, nil
}

// Event types
const (
	EventTypeLotTransitioned      = "lot.transitioned"
	EventTypeLotStored            = "lot.stored"
	EventTypeDetectionDiscrepancy = "detection.discrepancy"
	EventTypeDetectionCounted     = "detection.counted"
)

// Kafka topics
const (
	TopicLotLifecycle           = "lot-lifecycle"
	TopicDetectionDiscrepancies = "detection-discrepancies"
	TopicDetectionCounts        = "detection-counts"
)
