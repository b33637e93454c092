package manager

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"upscaled/internal/cache"
	"upscaled/internal/catalog"
	"upscaled/internal/fetch"
	"upscaled/internal/upscaler"
)

// fakeBackend counts constructions and computations. Its instances return
// an image scale times the input size.
type fakeBackend struct {
	loads    atomic.Int64
	upscales atomic.Int64
	loadErr  atomic.Pointer[error]
	// loadDelay widens the window for concurrent first use.
	loadDelay time.Duration
	// block, when set, holds every Upscale until closed.
	block chan struct{}
	// empty makes Upscale return a zero-sized image.
	empty bool
}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) Load(ctx context.Context, opts upscaler.Options) (upscaler.Instance, error) {
	b.loads.Add(1)
	if b.loadDelay > 0 {
		time.Sleep(b.loadDelay)
	}
	if p := b.loadErr.Load(); p != nil {
		return nil, *p
	}
	return &fakeInstance{b: b, scale: opts.Scale}, nil
}

func (b *fakeBackend) failLoads(err error) { b.loadErr.Store(&err) }
func (b *fakeBackend) okLoads()            { b.loadErr.Store(nil) }

type fakeInstance struct {
	b      *fakeBackend
	scale  int
	active atomic.Int32
	closed atomic.Bool
}

func (i *fakeInstance) Upscale(ctx context.Context, img image.Image) (image.Image, error) {
	if i.active.Add(1) > 1 {
		panic("concurrent Upscale on one instance")
	}
	defer i.active.Add(-1)
	i.b.upscales.Add(1)
	if i.b.block != nil {
		<-i.b.block
	}
	if i.b.empty {
		return image.NewRGBA(image.Rect(0, 0, 0, 0)), nil
	}
	r := img.Bounds()
	return image.NewRGBA(image.Rect(0, 0, r.Dx()*i.scale, r.Dy()*i.scale)), nil
}

func (i *fakeInstance) Close() error {
	i.closed.Store(true)
	return nil
}

// failingStore accepts reads but refuses every write.
type failingStore struct{ cache.Store }

func (failingStore) Put(context.Context, string, []byte) error { return errors.New("disk full") }

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func upload(b []byte) fetch.Source {
	return fetch.Upload(func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(b)), nil })
}

type harness struct {
	m       *Manager
	backend *fakeBackend
	cache   *cache.Cache
	pub     *MemoryPublisher
	weights string
	cacheFS *cache.FSStore
}

type harnessOpt func(*ManagerConfig, *harness)

func withStore(wrap func(cache.Store) cache.Store) harnessOpt {
	return func(cfg *ManagerConfig, h *harness) {
		c, err := cache.New(context.Background(), wrap(h.cacheFS), cache.Options{})
		if err != nil {
			panic(err)
		}
		cfg.Cache = c
		h.cache = c
	}
}

func withPixelLimits(in, out int64) harnessOpt {
	return func(cfg *ManagerConfig, _ *harness) {
		cfg.MaxInputPixels = in
		cfg.MaxOutputPixels = out
	}
}

func newHarness(t *testing.T, b *fakeBackend, opts ...harnessOpt) *harness {
	t.Helper()
	weights := t.TempDir()
	cat, err := catalog.New(weights, "")
	require.NoError(t, err)
	for _, m := range catalog.Models {
		for _, s := range catalog.Scales {
			require.NoError(t, os.WriteFile(cat.PathFor(m, s), []byte("w"), 0o644))
		}
	}
	st, err := cache.NewFSStore(t.TempDir())
	require.NoError(t, err)
	c, err := cache.New(context.Background(), st, cache.Options{})
	require.NoError(t, err)

	h := &harness{backend: b, cache: c, pub: NewMemoryPublisher(), weights: weights, cacheFS: st}
	cfg := ManagerConfig{
		Catalog:   cat,
		Cache:     c,
		Backend:   b,
		Logger:    zerolog.Nop(),
		Publisher: h.pub,
		MaxWait:   2 * time.Second,
	}
	for _, o := range opts {
		o(&cfg, h)
	}
	m, err := NewWithConfig(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	h.m = m
	return h
}

func (h *harness) cacheLen(t *testing.T) int {
	t.Helper()
	n, err := h.cache.Len(context.Background())
	require.NoError(t, err)
	return n
}

// parallel runs fn n times concurrently and waits.
func parallel(n int, fn func(i int)) {
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			fn(i)
		}(i)
	}
	close(start)
	wg.Wait()
}
