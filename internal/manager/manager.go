package manager

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"upscaled/internal/cache"
	"upscaled/internal/catalog"
	"upscaled/internal/fetch"
	"upscaled/internal/upscaler"
)

type Manager struct {
	mu        sync.RWMutex
	catalog   *catalog.Catalog
	cache     *cache.Cache
	backend   upscaler.Backend
	fetcher   *fetch.Fetcher
	log       zerolog.Logger
	publisher EventPublisher

	cacheBackend    string
	cacheMaxEntries int

	// Pool: one instance per configuration key.
	instances     map[string]*Instance
	loads         singleflight.Group
	constructions uint64
	lastErr       string

	// Identical cache misses share one computation.
	computes singleflight.Group

	// Admission
	maxWorkers    int
	maxQueueDepth int
	maxWait       time.Duration
	workCh        chan struct{}
	queueCh       chan struct{}
	limits        upscaler.Limits

	// baseCtx outlives requests and is canceled by Close.
	baseCtx context.Context
	cancel  context.CancelFunc
	closed  bool

	startTime time.Time
}

// SetEventPublisher replaces the event publisher; nil restores the no-op one.
func (m *Manager) SetEventPublisher(p EventPublisher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p == nil {
		p = noopPublisher{}
	}
	m.publisher = p
}

func (m *Manager) publish(e Event) {
	m.mu.RLock()
	p := m.publisher
	m.mu.RUnlock()
	if e.Fields == nil {
		e.Fields = map[string]any{}
	}
	p.Publish(e)
}

// Ready reports whether the manager accepts work: it is open and at least
// one weight resource exists.
func (m *Manager) Ready() bool {
	m.mu.RLock()
	closed := m.closed
	m.mu.RUnlock()
	return !closed && m.catalog.AnyAvailable()
}

// Close cancels waiting admissions and releases every pooled instance. Work
// already running on an instance finishes first.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.cancel()
	insts := make([]*Instance, 0, len(m.instances))
	for _, inst := range m.instances {
		insts = append(insts, inst)
	}
	m.mu.Unlock()

	var errs []error
	for _, inst := range insts {
		// Wait for the in-flight computation, then keep the slot.
		inst.genCh <- struct{}{}
		m.mu.Lock()
		inst.State = StateClosed
		m.mu.Unlock()
		if err := inst.impl.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	poolInstances.Set(0)
	m.publish(Event{Name: EventClosed, Fields: map[string]any{"instances": len(insts)}})
	return errors.Join(errs...)
}
