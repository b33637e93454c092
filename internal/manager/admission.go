package manager

import (
	"context"
	"time"
)

// beginCompute reserves a queue slot, then the instance's single in-flight
// slot, then a worker slot. Each wait is bounded by maxWait. The queue slot is
// given back once a worker slot is held, so queueCh counts waiters only.
// Returns a release func to be deferred.
func (m *Manager) beginCompute(ctx context.Context, inst *Instance) (func(), error) {
	// Fast path: respect an already-canceled context
	if err := m.admissionErr(ctx); err != nil {
		return func() {}, err
	}

	if err := m.acquire(ctx, m.queueCh, inst, "queue"); err != nil {
		return func() {}, err
	}
	if err := m.acquire(ctx, inst.genCh, inst, "instance"); err != nil {
		<-m.queueCh
		return func() {}, err
	}
	if err := m.acquire(ctx, m.workCh, inst, "worker"); err != nil {
		<-inst.genCh
		<-m.queueCh
		return func() {}, err
	}
	<-m.queueCh

	m.mu.Lock()
	inst.LastUsed = time.Now()
	inst.served++
	m.mu.Unlock()
	return func() { <-m.workCh; <-inst.genCh }, nil
}

// acquire sends into slots, waiting at most maxWait.
func (m *Manager) acquire(ctx context.Context, slots chan struct{}, inst *Instance, stage string) error {
	// Try without allocating a timer first.
	select {
	case slots <- struct{}{}:
		return nil
	default:
	}
	timer := time.NewTimer(m.maxWait)
	defer timer.Stop()
	select {
	case slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return m.admissionErr(ctx)
	case <-m.baseCtx.Done():
		return ErrShuttingDown
	case <-timer.C:
		backpressureTotal.WithLabelValues(stage).Inc()
		m.publish(Event{Name: EventBackpressure, Key: inst.Key, Fields: map[string]any{"stage": stage}})
		return tooBusyError{stage: stage}
	}
}

func (m *Manager) admissionErr(ctx context.Context) error {
	if m.baseCtx.Err() != nil {
		return ErrShuttingDown
	}
	return ctx.Err()
}
