package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/md-rashed-zaman/salondesk/libs/kafkax"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type PublisherConfig struct {
	Brokers string
	Topic   string
}

type Publisher struct {
	writer messageWriter
	logger *slog.Logger
	now    func() time.Time
}

// NewPublisher returns a publisher; with no brokers configured it drops events.
func NewPublisher(cfg PublisherConfig, logger *slog.Logger) *Publisher {
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	p := &Publisher{logger: logger, now: time.Now}
	brokers := kafkax.SplitBrokers(cfg.Brokers)
	if len(brokers) == 0 {
		logger.Warn("appointment event publisher disabled (no kafka brokers configured)")
		return p
	}
	p.writer = &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
	return p
}

func (p *Publisher) AppointmentChanged(ctx context.Context, tenantID, appointmentID int64) error {
	if p.writer == nil {
		return nil
	}
	payload, err := json.Marshal(AppointmentChanged{
		TenantID:      tenantID,
		AppointmentID: appointmentID,
		ChangedAt:     p.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode appointment event: %w", err)
	}
	msg := kafka.Message{
		Key:     []byte(strconv.FormatInt(tenantID, 10)),
		Value:   payload,
		Headers: kafkax.InjectTraceHeaders(ctx, kafkax.NewEventHeaders(EventTypeAppointmentChanged)),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish appointment event: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
