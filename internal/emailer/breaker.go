package emailer

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/gfornaciari/ebook-subscribe-api/internal/config"
	"github.com/gfornaciari/ebook-subscribe-api/internal/models"
)

type sender interface {
	Configured() bool
	Send(ctx context.Context, msg models.Message) error
}

// BreakerSender fails fast while the relay keeps rejecting deliveries.
type BreakerSender struct {
	name    string
	cb      *gobreaker.CircuitBreaker
	wrapped sender
}

func NewBreakerSender(name string, wrapped sender, cfg config.Breaker) *BreakerSender {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Duration(cfg.TimeInterval) * time.Second,
		Timeout:     time.Duration(cfg.TimeTimeOut) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.RepeatNumber
		},
		IsSuccessful: func(err error) bool {
			// a missing configuration says nothing about the relay
			return err == nil || errors.Is(err, ErrNotConfigured)
		},
	}
	return &BreakerSender{
		name:    name,
		cb:      gobreaker.NewCircuitBreaker(settings),
		wrapped: wrapped,
	}
}

func (b *BreakerSender) Configured() bool {
	return b.wrapped.Configured()
}

func (b *BreakerSender) Send(ctx context.Context, msg models.Message) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.wrapped.Send(ctx, msg)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return NewMailError(b.name+" unavailable", err)
	}
	return err
}

func (b *BreakerSender) State() gobreaker.State {
	return b.cb.State()
}
