// Package events provides event publishing functionality.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"tone-monitor-service/internal/observability/metrics"
	"tone-monitor-service/internal/schema"
)

// Publisher publishes tone events to separate Kafka topics.
type Publisher struct {
	writerVerdict *kafka.Writer
	writerAlert   *kafka.Writer
	principal     string
	topicVerdict  string
	topicAlert    string
	enabled       bool
	validator     *schema.Validator
	metrics       *metrics.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers      []string
	TopicVerdict string
	TopicAlert   string
	Principal    string
	Enabled      bool
}

// New creates a Kafka event publisher with separate topics for verdicts and alerts.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics
	v := schema.New()

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{
			enabled:   false,
			validator: v,
			metrics:   m,
		}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal:    cfg.Principal,
			topicVerdict: cfg.TopicVerdict,
			topicAlert:   cfg.TopicAlert,
			enabled:      false,
			validator:    v,
			metrics:      m,
		}
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	p := &Publisher{
		writerVerdict: newWriter(cfg.Brokers, cfg.TopicVerdict, transport),
		writerAlert:   newWriter(cfg.Brokers, cfg.TopicAlert, transport),
		principal:     cfg.Principal,
		topicVerdict:  cfg.TopicVerdict,
		topicAlert:    cfg.TopicAlert,
		enabled:       true,
		validator:     v,
		metrics:       m,
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicVerdict", cfg.TopicVerdict).
		Str("topicAlert", cfg.TopicAlert).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return p
}

func newWriter(brokers []string, topic string, transport *kafka.Transport) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}
}

// Principal returns the principal stamped on published events.
func (p *Publisher) Principal() string {
	return p.principal
}

// PublishVerdict publishes a tone verdict event to the verdict topic.
func (p *Publisher) PublishVerdict(ctx context.Context, key string, event any) error {
	return p.publish(ctx, p.writerVerdict, p.topicVerdict, "verdict", key, event)
}

// PublishAlert publishes a tone alert event to the alert topic.
func (p *Publisher) PublishAlert(ctx context.Context, key string, event any) error {
	return p.publish(ctx, p.writerAlert, p.topicAlert, "alert", key, event)
}

func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, eventType, key string, event any) error {
	start := time.Now()

	if err := p.validator.Validate(event); err != nil {
		p.metrics.RecordKafkaPublish(topic, eventType, err, time.Since(start).Seconds())
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	// Log-only mode
	if !p.enabled || writer == nil {
		p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(topic)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.metrics.RecordKafkaPublish(topic, eventType, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
	return nil
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerVerdict != nil {
		if e := p.writerVerdict.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing verdict writer")
			err = e
		}
	}
	if p.writerAlert != nil {
		if e := p.writerAlert.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing alert writer")
			err = e
		}
	}
	return err
}
