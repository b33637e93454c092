package manager

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"upscaled/internal/cache"
	"upscaled/internal/catalog"
	"upscaled/internal/upscaler"
)

// Scale runs one request through the pipeline: validate, fetch, fingerprint,
// cache lookup and, on a miss, dispatch to the pooled instance. Errors are
// *ScaleError values.
//
// The computation runs on its own goroutine under the manager's context, so
// a caller that goes away does not abort it and its result is still cached.
// Identical concurrent misses share one computation.
func (m *Manager) Scale(ctx context.Context, req ScaleRequest) (ScaleResult, error) {
	isURL := req.Source.IsURL()
	fail := func(err error) (ScaleResult, error) { return ScaleResult{}, classify(err, isURL) }

	cfg := catalog.Configuration{Model: req.Model, Scale: req.Scale, Tile: req.Tile}
	weights, err := m.catalog.Check(cfg)
	if err != nil {
		return fail(err)
	}
	format, err := upscaler.NormalizeFormat(req.Format)
	if err != nil {
		return fail(err)
	}
	if err := m.admissionErr(ctx); err != nil {
		return fail(err)
	}

	input, err := m.fetcher.Fetch(ctx, req.Source)
	if err != nil {
		return fail(err)
	}

	fp := cache.NewFingerprint(input, cache.Spec{
		Model:   cfg.Model,
		Scale:   cfg.Scale,
		Tile:    cfg.Tile,
		Weights: weights,
		Format:  format,
	})
	res := ScaleResult{ContentType: upscaler.ContentType(format), Format: format, Fingerprint: fp.String()}
	log := m.log.With().Str("key", cfg.String()).Str("fingerprint", fp.Key()).Logger()

	data, err := m.cache.Lookup(ctx, fp)
	switch {
	case err == nil:
		log.Debug().Msg("cache hit")
		res.Data, res.Cached = data, true
		return res, nil
	case !errors.Is(err, cache.ErrNotFound):
		// A broken read is served as a miss.
		log.Warn().Err(err).Msg("cache lookup failed")
	}

	ch := m.computes.DoChan(fp.Key(), func() (any, error) {
		return m.compute(m.baseCtx, cfg, weights, format, input, fp)
	})
	select {
	case r := <-ch:
		if r.Err != nil {
			return fail(r.Err)
		}
		res.Data = r.Val.([]byte)
		return res, nil
	case <-ctx.Done():
		log.Debug().Err(ctx.Err()).Msg("caller left; computation continues")
		return fail(ctx.Err())
	}
}

func (m *Manager) compute(ctx context.Context, cfg catalog.Configuration, weights, format string, input []byte, fp cache.Fingerprint) ([]byte, error) {
	// Header only: oversized images are rejected before any pixel buffer exists.
	if _, err := upscaler.CheckDimensions(input, cfg.Scale, m.limits); err != nil {
		return nil, err
	}
	inst, err := m.getOrCreate(ctx, cfg, weights)
	if err != nil {
		return nil, err
	}
	data, err := m.run(ctx, inst, format, input)
	if err != nil {
		return nil, err
	}
	if err := m.cache.Put(ctx, fp, data); err != nil {
		m.log.Warn().Err(err).Str("key", inst.Key).Str("fingerprint", fp.Key()).Msg("cache store failed")
		m.publish(Event{Name: EventCacheStoreFail, Key: inst.Key, Fields: map[string]any{"error": err.Error()}})
	}
	return data, nil
}

// run holds the admission slots for decode, upscale and encode only.
func (m *Manager) run(ctx context.Context, inst *Instance, format string, input []byte) ([]byte, error) {
	release, err := m.beginCompute(ctx, inst)
	if err != nil {
		return nil, err
	}
	defer release()
	computeInflight.Inc()
	defer computeInflight.Dec()
	start := time.Now()

	img, _, err := upscaler.Decode(input)
	if err != nil {
		return nil, err
	}
	out, err := inst.impl.Upscale(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("upscale %s: %w", inst.Key, err)
	}
	if out == nil || out.Bounds().Empty() {
		return nil, ErrEmptyOutput
	}
	data, err := upscaler.Encode(out, format)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmptyOutput
	}

	dur := time.Since(start)
	computeDuration.WithLabelValues(inst.Config.Model, strconv.Itoa(inst.Config.Scale)).Observe(dur.Seconds())
	m.publish(Event{Name: EventComputeDone, Key: inst.Key, Fields: map[string]any{
		"dur_ms": int(dur / time.Millisecond),
		"bytes":  len(data),
		"width":  out.Bounds().Dx(),
		"height": out.Bounds().Dy(),
	}})
	return data, nil
}
