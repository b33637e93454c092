// Package upscaler adapts super-resolution runtimes to a small interface and
// provides the image codecs used around them.
//
// A Backend constructs Instances; an Instance is expensive to build and is
// reused for every request with the same configuration. Instances are not
// assumed to be safe for concurrent Upscale calls.
package upscaler

import (
	"context"
	"fmt"
	"image"
)

// Backend names accepted by NewBackend.
const (
	BackendResample = "resample"
	BackendExec     = "exec"
)

// Options identifies the configuration an Instance is built for.
type Options struct {
	Model   string
	Scale   int
	Tile    int
	Weights string
}

// Backend constructs configured instances.
type Backend interface {
	Name() string
	Load(ctx context.Context, opts Options) (Instance, error)
}

// Instance is a constructed model bound to one configuration.
type Instance interface {
	Upscale(ctx context.Context, img image.Image) (image.Image, error)
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Backend  string
	ExecBin  string
	ExecArgs []string
}

// NewBackend returns the backend named by cfg.Backend. An empty name selects
// the resample backend.
func NewBackend(cfg Config) (Backend, error) {
	switch cfg.Backend {
	case "", BackendResample:
		return NewResampleBackend(), nil
	case BackendExec:
		return NewExecBackend(cfg.ExecBin, cfg.ExecArgs)
	default:
		return nil, fmt.Errorf("unknown upscaler backend %q", cfg.Backend)
	}
}
