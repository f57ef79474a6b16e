package repository

import (
	"context"
	"time"

	"github.com/gfornaciari/ebook-subscribe-api/internal/models"
)

type store interface {
	Upsert(ctx context.Context, email, name string) error
	FindByEmail(ctx context.Context, email string) (models.Subscriber, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type metricsCollector interface {
	ObserveLatency(operation string, duration time.Duration)
	IncrementCounter(metric string, labels ...string)
}

// MetricsDecorator records latency and outcome of store calls.
type MetricsDecorator struct {
	next      store
	driver    string
	collector metricsCollector
}

func NewMetricsDecorator(next store, driver string, collector metricsCollector) *MetricsDecorator {
	return &MetricsDecorator{next: next, driver: driver, collector: collector}
}

func (m *MetricsDecorator) Upsert(ctx context.Context, email, name string) error {
	start := time.Now()
	err := m.next.Upsert(ctx, email, name)
	m.collector.ObserveLatency("store_upsert", time.Since(start))
	if err != nil {
		m.collector.IncrementCounter("store_upsert_errors", m.driver)
	} else {
		m.collector.IncrementCounter("store_upsert_success", m.driver)
	}
	return err
}

func (m *MetricsDecorator) FindByEmail(ctx context.Context, email string) (models.Subscriber, error) {
	start := time.Now()
	sub, err := m.next.FindByEmail(ctx, email)
	m.collector.ObserveLatency("store_find", time.Since(start))
	return sub, err
}

func (m *MetricsDecorator) Ping(ctx context.Context) error {
	return m.next.Ping(ctx)
}

func (m *MetricsDecorator) Close(ctx context.Context) error {
	return m.next.Close(ctx)
}
