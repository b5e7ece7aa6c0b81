package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/salondesk/libs/kafkax"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Invalidator drops cached results for a tenant.
type Invalidator interface {
	Invalidate(ctx context.Context, tenantID int64) error
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type ConsumerConfig struct {
	Brokers string
	GroupID string
	Topic   string
}

type Consumer struct {
	reader      messageReader
	logger      *slog.Logger
	invalidator Invalidator
}

// NewConsumer returns nil when no brokers are configured.
func NewConsumer(cfg ConsumerConfig, invalidator Invalidator, logger *slog.Logger) *Consumer {
	brokers := kafkax.SplitBrokers(cfg.Brokers)
	if len(brokers) == 0 {
		logger.Warn("appointment event consumer disabled (no kafka brokers configured)")
		return nil
	}
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupID:     cfg.GroupID,
		Topic:       cfg.Topic,
		MinBytes:    1,
		MaxBytes:    1e6,
		StartOffset: kafka.LastOffset,
	})
	return &Consumer{reader: reader, logger: logger, invalidator: invalidator}
}

func (c *Consumer) Run(ctx context.Context) {
	defer c.reader.Close()

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("kafka read error", "err", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		c.handle(ctx, msg)
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) {
	ctxMsg := kafkax.ExtractTraceContext(ctx, msg)
	ctxSpan, span := otel.Tracer("kafka").Start(ctxMsg, "kafka.consume",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", msg.Topic),
		),
	)
	defer span.End()

	meta := kafkax.ExtractEventMeta(msg)
	var evt AppointmentChanged
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		c.logger.Error("invalid appointment event payload", "err", err, "event_id", meta.EventID)
		return
	}
	if evt.TenantID <= 0 {
		c.logger.Error("appointment event missing tenant_id", "event_id", meta.EventID)
		return
	}
	span.SetAttributes(attribute.Int64("tenant_id", evt.TenantID))

	if err := c.invalidator.Invalidate(ctxSpan, evt.TenantID); err != nil {
		c.logger.Error("appointment cache invalidation failed", "err", err, "event_id", meta.EventID, "tenant_id", evt.TenantID)
		span.RecordError(err)
		return
	}
	c.logger.Debug("appointment event applied", "event_id", meta.EventID, "event_type", meta.EventType, "tenant_id", evt.TenantID)
}
