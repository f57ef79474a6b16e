package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/gfornaciari/ebook-subscribe-api/internal/models"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Upsert(ctx context.Context, email, name string) error {
	return m.Called(ctx, email, name).Error(0)
}

func (m *mockStore) FindByEmail(ctx context.Context, email string) (models.Subscriber, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(models.Subscriber), args.Error(1) //nolint:forcetypeassert
}

func (m *mockStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockCollector struct {
	mock.Mock
}

func (m *mockCollector) ObserveLatency(operation string, duration time.Duration) {
	m.Called(operation, duration)
}

func (m *mockCollector) IncrementCounter(metric string, labels ...string) {
	m.Called(metric, labels)
}

func TestMetricsDecorator_Upsert(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		counter string
	}{
		{"success", nil, "store_upsert_success"},
		{"failure", errors.New("write failed"), "store_upsert_errors"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &mockStore{}
			c := &mockCollector{}
			ctx := context.Background()

			s.On("Upsert", ctx, "ada@example.com", "Ada").Return(tc.err).Once()
			c.On("ObserveLatency", "store_upsert", mock.AnythingOfType("time.Duration")).Once()
			c.On("IncrementCounter", tc.counter, []string{"sqlite"}).Once()

			d := NewMetricsDecorator(s, "sqlite", c)
			err := d.Upsert(ctx, "ada@example.com", "Ada")

			assert.Equal(t, tc.err, err)
			s.AssertExpectations(t)
			c.AssertExpectations(t)
		})
	}
}

func TestMetricsDecorator_FindByEmail(t *testing.T) {
	s := &mockStore{}
	c := &mockCollector{}
	ctx := context.Background()

	want := models.Subscriber{Email: "ada@example.com", Name: "Ada"}
	s.On("FindByEmail", ctx, "ada@example.com").Return(want, nil).Once()
	c.On("ObserveLatency", "store_find", mock.AnythingOfType("time.Duration")).Once()

	got, err := NewMetricsDecorator(s, "mongo", c).FindByEmail(ctx, "ada@example.com")

	assert.NoError(t, err)
	assert.Equal(t, want, got)
	s.AssertExpectations(t)
	c.AssertExpectations(t)
}
