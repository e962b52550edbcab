// Package sink appends processed records to their outputs. Every sink is
// append-only; persisting a record twice writes it twice.
package sink

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"call-insights-go/internal/logger"
	"call-insights-go/internal/metrics"
	"call-insights-go/internal/types"
)

type Sink interface {
	Name() string
	Persist(ctx context.Context, rec types.Record) error
	Close() error
}

// Multi fans a record out to every sink. Writes are serialized so shared
// files never interleave when several workers finish at once.
type Multi struct {
	mu      sync.Mutex
	sinks   []Sink
	metrics *metrics.Metrics
	log     *logger.Logger
}

func NewMulti(sinks []Sink, m *metrics.Metrics, log *logger.Logger) *Multi {
	return &Multi{sinks: sinks, metrics: m, log: log.Component("sink")}
}

func (m *Multi) Name() string {
	names := make([]string, 0, len(m.sinks))
	for _, s := range m.sinks {
		names = append(names, s.Name())
	}
	return strings.Join(names, ",")
}

// Persist writes to every sink even when one fails. Failures are joined and
// wrapped in types.ErrPersist; sinks that succeeded keep the record.
func (m *Multi) Persist(ctx context.Context, rec types.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for _, s := range m.sinks {
		if err := s.Persist(ctx, rec); err != nil {
			m.log.WithError(err).WithField("sink", s.Name()).WithField("source", rec.Source).Error("persist failed")
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		m.metrics.RecordPersisted(s.Name())
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", types.ErrPersist, errors.Join(errs...))
	}
	return nil
}

func (m *Multi) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
