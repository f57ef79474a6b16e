package emailer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gfornaciari/ebook-subscribe-api/internal/config"
	"github.com/gfornaciari/ebook-subscribe-api/internal/emailer"
	"github.com/gfornaciari/ebook-subscribe-api/internal/models"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Configured() bool {
	return m.Called().Bool(0)
}

func (m *mockSender) Send(ctx context.Context, msg models.Message) error {
	return m.Called(ctx, msg).Error(0)
}

func breakerConfig() config.Breaker {
	return config.Breaker{TimeInterval: 60, TimeTimeOut: 30, RepeatNumber: 2}
}

func TestBreakerSender_OpensAfterConsecutiveFailures(t *testing.T) {
	m := &mockSender{}
	relayDown := emailer.NewMailError("dial", errors.New("connection refused"))
	m.On("Send", mock.Anything, mock.Anything).Return(relayDown).Twice()

	b := emailer.NewBreakerSender("smtp", m, breakerConfig())

	for range 2 {
		err := b.Send(context.Background(), welcome())
		assert.ErrorIs(t, err, relayDown)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	err := b.Send(context.Background(), welcome())
	var mailErr *emailer.MailError
	require.True(t, errors.As(err, &mailErr))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)

	m.AssertExpectations(t)
}

func TestBreakerSender_NotConfiguredDoesNotTrip(t *testing.T) {
	m := &mockSender{}
	m.On("Send", mock.Anything, mock.Anything).Return(emailer.ErrNotConfigured).Times(3)

	b := emailer.NewBreakerSender("smtp", m, breakerConfig())

	for range 3 {
		assert.ErrorIs(t, b.Send(context.Background(), welcome()), emailer.ErrNotConfigured)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
	m.AssertExpectations(t)
}

func TestBreakerSender_Configured(t *testing.T) {
	m := &mockSender{}
	m.On("Configured").Return(true).Once()

	b := emailer.NewBreakerSender("smtp", m, breakerConfig())
	assert.True(t, b.Configured())
	m.AssertExpectations(t)
}
