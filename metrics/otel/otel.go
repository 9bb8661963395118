// Package otel exports policy.Metrics signals through an OpenTelemetry meter.
//
// Usage:
//
//	reader := sdkmetric.NewManualReader() // or an exporter-backed reader
//	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
//	m, err := otel.New(provider, otel.WithMeterName("orders-cache"))
//	if err != nil {
//	    return err
//	}
//	c := lru.New[string, Order](10_000, policy.Options[string, Order]{Metrics: m})
//
// Instruments:
//   - kvcache_hits_total, kvcache_misses_total, kvcache_aging_total (Int64Counter)
//   - kvcache_evictions_total (Int64Counter, attribute "reason")
//   - kvcache_size_entries (Int64Gauge)
package otel

import (
	"context"

	"github.com/agilira/go-errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/IvanBrykalov/kvcache/policy"
)

// ErrCodeNilMeterProvider is returned by New when no provider is given.
const ErrCodeNilMeterProvider errors.ErrorCode = "KVCACHE_NIL_METER_PROVIDER"

// DefaultMeterName is the instrumentation scope used when none is configured.
const DefaultMeterName = "github.com/IvanBrykalov/kvcache"

// Adapter implements policy.Metrics on top of OpenTelemetry instruments.
// All instruments are safe for concurrent use.
type Adapter struct {
	hits   metric.Int64Counter
	misses metric.Int64Counter
	evicts metric.Int64Counter
	agings metric.Int64Counter
	size   metric.Int64Gauge

	// Pre-built attribute sets keep Evict allocation-free.
	capacityAttrs metric.AddOption
	historyAttrs  metric.AddOption
}

type config struct {
	meterName string
}

// Option configures the adapter.
type Option func(*config)

// WithMeterName sets a custom meter name, e.g. to tell cache instances apart.
func WithMeterName(name string) Option {
	return func(c *config) { c.meterName = name }
}

// New creates the instruments on a meter from provider.
func New(provider metric.MeterProvider, opts ...Option) (*Adapter, error) {
	cfg := config{meterName: DefaultMeterName}
	for _, o := range opts {
		o(&cfg)
	}
	if provider == nil {
		return nil, errors.NewWithContext(ErrCodeNilMeterProvider, "meter provider cannot be nil", map[string]interface{}{
			"meter_name": cfg.meterName,
		})
	}
	meter := provider.Meter(cfg.meterName)

	a := &Adapter{
		capacityAttrs: metric.WithAttributes(attribute.String("reason", policy.EvictCapacity.String())),
		historyAttrs:  metric.WithAttributes(attribute.String("reason", policy.EvictHistory.String())),
	}
	var err error
	if a.hits, err = meter.Int64Counter("kvcache_hits_total",
		metric.WithDescription("Total number of cache hits")); err != nil {
		return nil, err
	}
	if a.misses, err = meter.Int64Counter("kvcache_misses_total",
		metric.WithDescription("Total number of cache misses")); err != nil {
		return nil, err
	}
	if a.evicts, err = meter.Int64Counter("kvcache_evictions_total",
		metric.WithDescription("Total number of evictions by reason")); err != nil {
		return nil, err
	}
	if a.agings, err = meter.Int64Counter("kvcache_aging_total",
		metric.WithDescription("Total number of LFU frequency aging passes")); err != nil {
		return nil, err
	}
	if a.size, err = meter.Int64Gauge("kvcache_size_entries",
		metric.WithDescription("Number of resident entries"),
		metric.WithUnit("{entry}")); err != nil {
		return nil, err
	}
	return a, nil
}

// Hit increments the hit counter.
func (a *Adapter) Hit() { a.hits.Add(context.Background(), 1) }

// Miss increments the miss counter.
func (a *Adapter) Miss() { a.misses.Add(context.Background(), 1) }

// Evict increments the eviction counter for reason r.
func (a *Adapter) Evict(r policy.EvictReason) {
	attrs := a.capacityAttrs
	if r == policy.EvictHistory {
		attrs = a.historyAttrs
	}
	a.evicts.Add(context.Background(), 1, attrs)
}

// Size records the resident entry count.
func (a *Adapter) Size(entries int) { a.size.Record(context.Background(), int64(entries)) }

// Aging increments the aging counter.
func (a *Adapter) Aging() { a.agings.Add(context.Background(), 1) }

var _ policy.Metrics = (*Adapter)(nil)
