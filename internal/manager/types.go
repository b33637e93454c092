package manager

import (
	"time"

	"upscaled/internal/catalog"
	"upscaled/internal/fetch"
	"upscaled/internal/upscaler"
)

// State represents lifecycle state of an instance.
type State string

const (
	StateReady  State = "ready"
	StateClosed State = "closed"
)

// Instance is a constructed upscaler bound to one configuration. It lives in
// the pool until the manager is closed.
type Instance struct {
	Key      string
	Config   catalog.Configuration
	Weights  string
	State    State
	LastUsed time.Time
	served   uint64
	// genCh has one slot: the backend never runs twice at once on an instance.
	genCh chan struct{}
	impl  upscaler.Instance
}

// ScaleRequest is one upscale call.
type ScaleRequest struct {
	Model  string
	Scale  int
	Tile   int
	Format string
	Source fetch.Source
}

// ScaleResult carries the encoded output.
type ScaleResult struct {
	Data        []byte
	ContentType string
	Format      string
	// Cached is true when the bytes came from the result cache.
	Cached      bool
	Fingerprint string
}
