package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/unit-converter/internal/core/domain"
	"github.com/kirillkom/unit-converter/internal/infrastructure/resilience"
)

const DefaultSubject = "unitconverter.conversions"

// EventStream publishes conversion events on one subject and lets workers
// consume them through a shared queue group.
type EventStream struct {
	conn    *nats.Conn
	subject string
	group   string
	guard   *resilience.Guard
}

type Options struct {
	Name           string
	ConnectTimeout time.Duration
	ReconnectWait  time.Duration
	MaxReconnects  int
	QueueGroup     string
	Guard          *resilience.Guard
}

func (o Options) withDefaults() Options {
	if o.Name == "" {
		o.Name = "unit-converter"
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 2 * time.Second
	}
	if o.ReconnectWait <= 0 {
		o.ReconnectWait = 2 * time.Second
	}
	if o.MaxReconnects <= 0 {
		o.MaxReconnects = 60
	}
	if o.QueueGroup == "" {
		o.QueueGroup = "audit-workers"
	}
	return o
}

func Connect(url, subject string, options Options) (*EventStream, error) {
	options = options.withDefaults()
	if subject == "" {
		subject = DefaultSubject
	}

	conn, err := nats.Connect(
		url,
		nats.Name(options.Name),
		nats.Timeout(options.ConnectTimeout),
		nats.ReconnectWait(options.ReconnectWait),
		nats.MaxReconnects(options.MaxReconnects),
		nats.RetryOnFailedConnect(true),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &EventStream{conn: conn, subject: subject, group: options.QueueGroup, guard: options.Guard}, nil
}

func (s *EventStream) Close() {
	if s.conn != nil {
		s.conn.Close()
	}
}

func (s *EventStream) PublishConversion(ctx context.Context, event domain.ConversionEvent) error {
	payload, err := encodeEvent(event)
	if err != nil {
		return err
	}
	err = s.guard.Do(ctx, "nats.publish", func(context.Context) error {
		if err := s.conn.Publish(s.subject, payload); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}, classifyNATSError)
	return temporaryIfNeeded(err)
}

// SubscribeConversions blocks until ctx is done, then drains the
// subscription. Messages that fail to decode are logged and dropped.
func (s *EventStream) SubscribeConversions(ctx context.Context, handler func(context.Context, domain.ConversionEvent) error) error {
	sub, err := s.conn.QueueSubscribe(s.subject, s.group, func(msg *nats.Msg) {
		if ctx.Err() != nil {
			return
		}
		event, err := decodeEvent(msg.Data)
		if err != nil {
			slog.Warn("conversion_event_decode_failed", "error", err, "bytes", len(msg.Data))
			return
		}
		if err := handler(ctx, event); err != nil {
			slog.Error("conversion_event_handler_failed", "error", err, "request_id", event.RequestID)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}
	if err := s.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := s.conn.FlushTimeout(5 * time.Second); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

func encodeEvent(event domain.ConversionEvent) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode conversion event: %w", err)
	}
	return payload, nil
}

func decodeEvent(data []byte) (domain.ConversionEvent, error) {
	var event domain.ConversionEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return domain.ConversionEvent{}, fmt.Errorf("decode conversion event: %w", err)
	}
	if event.Message == "" || event.Level == "" {
		return domain.ConversionEvent{}, fmt.Errorf("decode conversion event: missing level or message")
	}
	return event, nil
}
