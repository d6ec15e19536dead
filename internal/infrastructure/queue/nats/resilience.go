package nats

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/unit-converter/internal/core/domain"
	"github.com/kirillkom/unit-converter/internal/infrastructure/resilience"
)

func classifyNATSError(err error) resilience.Verdict {
	switch {
	case err == nil:
		return resilience.Verdict{}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return resilience.Verdict{}
	case resilience.IsOpen(err),
		errors.Is(err, nats.ErrNoServers),
		errors.Is(err, nats.ErrTimeout),
		errors.Is(err, nats.ErrConnectionClosed),
		errors.Is(err, nats.ErrConnectionReconnecting),
		errors.Is(err, nats.ErrDisconnected):
		return resilience.Verdict{Retry: true, CountsAsFault: true}
	default:
		return resilience.Verdict{CountsAsFault: true}
	}
}

func temporaryIfNeeded(err error) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if classifyNATSError(err).Retry {
		return domain.WrapError(domain.ErrTemporary, "nats publish", err)
	}
	return err
}
