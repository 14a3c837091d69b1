package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
)

func TestPublishLotTransitioned(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var event LotTransitionedEvent
		if err := json.Unmarshal(val, &event); err != nil {
			return err
		}
		if event.EventType != EventTypeLotTransitioned || event.LotID != "LOT001" || event.EventID == "" {
			return errors.New("unexpected event payload")
		}
		return nil
	})

	p := NewPublisherWithProducer(producer, nil)
	err := p.PublishLotTransitioned(context.Background(), LotTransitionedEvent{
		LotID:      "LOT001",
		FromStatut: "en_cours",
		ToStatut:   "termine",
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestPublishReportsProducerFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewPublisherWithProducer(producer, nil)
	err := p.PublishDetectionDiscrepancy(context.Background(), DetectionDiscrepancyEvent{LotID: "LOT002", Delta: 1})
	if !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Fatalf("expected broker error, got %v", err)
	}
	_ = p.Close()
}

func TestDecodeDetectionCounted(t *testing.T) {
	event, err := DecodeDetectionCounted([]byte(`{"lot_id":"LOT001","detected_count":0,"reader_id":"portal-1"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if event.LotID != "LOT001" || event.DetectedCount == nil || *event.DetectedCount != 0 {
		t.Fatalf("unexpected event: %+v", event)
	}

	for _, payload := range []string{`{"lot_id":"LOT001"}`, `{"detected_count":3}`, `not json`} {
		if _, err := DecodeDetectionCounted([]byte(payload)); err == nil {
			t.Fatalf("payload %s: expected error", payload)
		}
	}
}

func TestConsumerDispatchesByEventType(t *testing.T) {
	c := &Consumer{handlers: make(map[string]EventHandler)}

	var got []byte
	c.RegisterHandler(EventTypeDetectionCounted, func(_ context.Context, payload []byte) error {
		got = payload
		return nil
	})

	h := &consumerGroupHandler{consumer: c}
	h.handleMessage(context.Background(), &sarama.ConsumerMessage{
		Topic: TopicDetectionCounts,
		Value: []byte(`{"lot_id":"LOT001","detected_count":4}`),
		Headers: []*sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(EventTypeDetectionCounted)},
			{Key: []byte("event_id"), Value: []byte("evt-1")},
		},
	})
	if string(got) != `{"lot_id":"LOT001","detected_count":4}` {
		t.Fatalf("handler not invoked with the payload, got %q", got)
	}

	if err := c.Dispatch(context.Background(), "unknown.event", nil); err == nil {
		t.Fatalf("expected error for an unregistered event type")
	}
}
