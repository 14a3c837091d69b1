package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/rfid-textile/pkg/logger"
)

// Publisher wraps a Kafka sync producer
type Publisher struct {
	producer sarama.SyncProducer
	brokers  []string
}

// NewPublisher creates a new Kafka publisher
func NewPublisher(brokers []string) (*Publisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Retry.Max = 3
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.MaxMessageBytes = 1000000

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	logger.Logger.Info().
		Strs("brokers", brokers).
		Msg("Kafka publisher initialized")

	return NewPublisherWithProducer(producer, brokers), nil
}

// NewPublisherWithProducer builds a publisher around an existing producer
func NewPublisherWithProducer(producer sarama.SyncProducer, brokers []string) *Publisher {
	return &Publisher{producer: producer, brokers: brokers}
}

// PublishLotTransitioned publishes a lot.transitioned event keyed by lot id
func (p *Publisher) PublishLotTransitioned(ctx context.Context, event LotTransitionedEvent) error {
	event.EventID = newEventID(event.EventID)
	event.EventType = EventTypeLotTransitioned
	event.Timestamp = time.Now().UTC()

	return p.publish(ctx, TopicLotLifecycle, event.EventType, event.EventID, event.LotID, event,
		attribute.String("lot.id", event.LotID),
		attribute.String("lot.from_statut", event.FromStatut),
		attribute.String("lot.to_statut", event.ToStatut),
	)
}

// PublishLotStored publishes a lot.stored event keyed by lot id
func (p *Publisher) PublishLotStored(ctx context.Context, event LotStoredEvent) error {
	event.EventID = newEventID(event.EventID)
	event.EventType = EventTypeLotStored
	event.Timestamp = time.Now().UTC()

	return p.publish(ctx, TopicLotLifecycle, event.EventType, event.EventID, event.LotID, event,
		attribute.String("lot.id", event.LotID),
		attribute.Int("lot.garment_count", event.GarmentCount),
	)
}

// PublishDetectionDiscrepancy publishes a detection.discrepancy alert keyed by lot id
func (p *Publisher) PublishDetectionDiscrepancy(ctx context.Context, event DetectionDiscrepancyEvent) error {
	event.EventID = newEventID(event.EventID)
	event.EventType = EventTypeDetectionDiscrepancy
	event.Timestamp = time.Now().UTC()

	return p.publish(ctx, TopicDetectionDiscrepancies, event.EventType, event.EventID, event.LotID, event,
		attribute.String("lot.id", event.LotID),
		attribute.Int("lot.detection_delta", event.Delta),
	)
}

func (p *Publisher) publish(ctx context.Context, topic, eventType, eventID, key string, event interface{}, attrs ...attribute.KeyValue) error {
	tracer := otel.Tracer("kafka-publisher")
	ctx, span := tracer.Start(ctx, "kafka.publish."+eventType,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", topic),
			attribute.String("messaging.destination_kind", "topic"),
			attribute.String("event.type", eventType),
			attribute.String("event.id", eventID),
		),
		trace.WithAttributes(attrs...),
	)
	defer span.End()

	eventBytes, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to marshal event")
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	headers := []sarama.RecordHeader{
		{Key: []byte("event_type"), Value: []byte(eventType)},
		{Key: []byte("event_id"), Value: []byte(eventID)},
	}
	for k, v := range carrier {
		headers = append(headers, sarama.RecordHeader{Key: []byte(k), Value: []byte(v)})
	}

	msg := &sarama.ProducerMessage{
		Topic:   topic,
		Key:     sarama.StringEncoder(key),
		Value:   sarama.ByteEncoder(eventBytes),
		Headers: headers,
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to send message")
		logger.Error(ctx).
			Err(err).
			Str("topic", topic).
			Str("event_type", eventType).
			Str("key", key).
			Msg("Failed to publish event")
		return fmt.Errorf("failed to send message to Kafka: %w", err)
	}

	span.SetAttributes(
		attribute.Int("messaging.kafka.partition", int(partition)),
		attribute.Int64("messaging.kafka.offset", offset),
	)
	span.SetStatus(codes.Ok, "Event published")

	logger.Info(ctx).
		Str("event_id", eventID).
		Str("event_type", eventType).
		Str("topic", topic).
		Str("key", key).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("Event published")
	return nil
}

// Close closes the Kafka producer
func (p *Publisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

func newEventID(id string) string {
	if id != "" {
		return id
	}
	return "evt_" + uuid.NewString()
}

// NopPublisher drops every event. It stands in when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishLotTransitioned(context.Context, LotTransitionedEvent) error { return nil }

func (NopPublisher) PublishLotStored(context.Context, LotStoredEvent) error { return nil }

func (NopPublisher) PublishDetectionDiscrepancy(context.Context, DetectionDiscrepancyEvent) error {
	return nil
}
