package manager

import (
	"context"
	"fmt"
	"time"

	"upscaled/internal/catalog"
	"upscaled/internal/upscaler"
)

// getOrCreate returns the pooled instance for cfg, constructing it on first
// use. Concurrent first uses share one Backend.Load. A failed construction
// stores nothing, so a later call retries.
func (m *Manager) getOrCreate(ctx context.Context, cfg catalog.Configuration, weights string) (*Instance, error) {
	key := cfg.String()

	m.mu.RLock()
	inst, ok := m.instances[key]
	closed := m.closed
	m.mu.RUnlock()
	if closed {
		return nil, ErrShuttingDown
	}
	if ok {
		return inst, nil
	}

	v, err, shared := m.loads.Do(key, func() (any, error) {
		// Re-check: a flight that just finished may have stored it.
		m.mu.RLock()
		existing, ok := m.instances[key]
		m.mu.RUnlock()
		if ok {
			return existing, nil
		}
		return m.construct(ctx, key, cfg, weights)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		m.log.Debug().Str("key", key).Msg("instance construction shared")
	}
	return v.(*Instance), nil
}

func (m *Manager) construct(ctx context.Context, key string, cfg catalog.Configuration, weights string) (*Instance, error) {
	start := time.Now()
	m.publish(Event{Name: EventConstructStart, Key: key, Fields: map[string]any{"weights": weights}})
	m.log.Info().Str("key", key).Str("backend", m.backend.Name()).Msg("constructing instance")

	// The flight is shared: one caller going away must not fail the others.
	impl, err := m.backend.Load(context.WithoutCancel(ctx), upscaler.Options{
		Model:   cfg.Model,
		Scale:   cfg.Scale,
		Tile:    cfg.Tile,
		Weights: weights,
	})
	if err != nil {
		m.mu.Lock()
		m.lastErr = err.Error()
		m.mu.Unlock()
		m.log.Error().Err(err).Str("key", key).Msg("instance construction failed")
		m.publish(Event{Name: EventConstructFail, Key: key, Fields: map[string]any{"error": err.Error()}})
		return nil, fmt.Errorf("%w: %s: %v", ErrInstanceConstructionFailed, key, err)
	}

	inst := &Instance{
		Key:      key,
		Config:   cfg,
		Weights:  weights,
		State:    StateReady,
		LastUsed: time.Now(),
		genCh:    make(chan struct{}, 1),
		impl:     impl,
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		_ = impl.Close()
		return nil, ErrShuttingDown
	}
	m.instances[key] = inst
	m.constructions++
	n := len(m.instances)
	m.mu.Unlock()

	poolConstructionsTotal.WithLabelValues(cfg.Model).Inc()
	poolInstances.Set(float64(n))
	dur := time.Since(start)
	m.log.Info().Str("key", key).Dur("dur", dur).Msg("instance ready")
	m.publish(Event{Name: EventConstructReady, Key: key, Fields: map[string]any{"dur_ms": int(dur / time.Millisecond)}})
	return inst, nil
}

// poolSize returns the number of pooled instances.
func (m *Manager) poolSize() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.instances)
}
