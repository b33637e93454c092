package manager

import (
	"context"
	"errors"
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"upscaled/internal/cache"
	"upscaled/internal/catalog"
	"upscaled/internal/fetch"
	"upscaled/internal/upscaler"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultMaxQueueDepth = 32
	defaultMaxWait       = 30 * time.Second
)

func defaultMaxWorkers() int { return runtime.NumCPU() }

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	Catalog *catalog.Catalog
	Cache   *cache.Cache
	Backend upscaler.Backend
	// Fetcher defaults to fetch.New with zero Options.
	Fetcher *fetch.Fetcher

	// Reported by Status only.
	CacheBackend    string
	CacheMaxEntries int

	MaxWorkers    int
	MaxQueueDepth int
	MaxWait       time.Duration

	// Pixel bounds checked before decoding; zero selects the upscaler defaults.
	MaxInputPixels  int64
	MaxOutputPixels int64

	Logger    zerolog.Logger
	Publisher EventPublisher
}

// NewWithConfig constructs a Manager from ManagerConfig.
func NewWithConfig(cfg ManagerConfig) (*Manager, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("manager: catalog is required")
	}
	if cfg.Cache == nil {
		return nil, errors.New("manager: cache is required")
	}
	if cfg.Backend == nil {
		return nil, errors.New("manager: backend is required")
	}
	m := &Manager{
		catalog:         cfg.Catalog,
		cache:           cfg.Cache,
		backend:         cfg.Backend,
		fetcher:         cfg.Fetcher,
		cacheBackend:    cfg.CacheBackend,
		cacheMaxEntries: cfg.CacheMaxEntries,
		log:             cfg.Logger,
		publisher:       cfg.Publisher,
		instances:       make(map[string]*Instance),
		startTime:       time.Now(),
	}
	if m.fetcher == nil {
		m.fetcher = fetch.New(fetch.Options{Logger: cfg.Logger})
	}
	if m.publisher == nil {
		m.publisher = noopPublisher{}
	}
	if m.cacheBackend == "" {
		m.cacheBackend = cache.BackendFS
	}
	// Apply defaults if unset
	if cfg.MaxWorkers <= 0 {
		m.maxWorkers = defaultMaxWorkers()
	} else {
		m.maxWorkers = cfg.MaxWorkers
	}
	if cfg.MaxQueueDepth <= 0 {
		m.maxQueueDepth = defaultMaxQueueDepth
	} else {
		m.maxQueueDepth = cfg.MaxQueueDepth
	}
	if cfg.MaxWait <= 0 {
		m.maxWait = defaultMaxWait
	} else {
		m.maxWait = cfg.MaxWait
	}
	m.limits = upscaler.Limits{MaxInputPixels: cfg.MaxInputPixels, MaxOutputPixels: cfg.MaxOutputPixels}
	if m.limits.MaxInputPixels <= 0 {
		m.limits.MaxInputPixels = upscaler.DefaultMaxInputPixels
	}
	if m.limits.MaxOutputPixels <= 0 {
		m.limits.MaxOutputPixels = upscaler.DefaultMaxOutputPixels
	}
	m.workCh = make(chan struct{}, m.maxWorkers)
	m.queueCh = make(chan struct{}, m.maxQueueDepth)
	m.baseCtx, m.cancel = context.WithCancel(context.Background())
	return m, nil
}
