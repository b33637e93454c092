package upscaler

import (
	"context"
	"fmt"
	"image"
	"os"

	"golang.org/x/image/draw"
)

// resampleBackend is a pure Go stand-in for a neural upscaler. It checks that
// the weight resource is readable and scales with a classic kernel chosen by
// model variant. The tile setting splits the work into horizontal bands.
type resampleBackend struct{}

// NewResampleBackend returns the built-in backend.
func NewResampleBackend() Backend { return resampleBackend{} }

func (resampleBackend) Name() string { return BackendResample }

func (resampleBackend) Load(ctx context.Context, opts Options) (Instance, error) {
	if opts.Scale < 1 {
		return nil, fmt.Errorf("invalid scale %d", opts.Scale)
	}
	f, err := os.Open(opts.Weights)
	if err != nil {
		return nil, fmt.Errorf("open weights: %w", err)
	}
	_ = f.Close()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &resampleInstance{scale: opts.Scale, bands: max(opts.Tile, 1), kernel: kernelFor(opts.Model)}, nil
}

func kernelFor(model string) draw.Interpolator {
	switch model {
	case "denoise1x", "denoise2x", "denoise3x":
		return draw.BiLinear
	default:
		return draw.CatmullRom
	}
}

type resampleInstance struct {
	scale  int
	bands  int
	kernel draw.Interpolator
}

func (r *resampleInstance) Upscale(ctx context.Context, src image.Image) (image.Image, error) {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("empty image %dx%d", w, h)
	}
	dst := image.NewRGBA(image.Rect(0, 0, w*r.scale, h*r.scale))
	for i := 0; i < r.bands; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sy0 := i * h / r.bands
		sy1 := (i + 1) * h / r.bands
		if sy0 == sy1 {
			continue
		}
		sr := image.Rect(b.Min.X, b.Min.Y+sy0, b.Max.X, b.Min.Y+sy1)
		dr := image.Rect(0, sy0*r.scale, w*r.scale, sy1*r.scale)
		r.kernel.Scale(dst, dr, src, sr, draw.Src, nil)
	}
	return dst, nil
}

func (r *resampleInstance) Close() error { return nil }
