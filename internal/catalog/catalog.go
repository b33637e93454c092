// Package catalog validates upscale configurations and resolves them to
// weight resources on disk.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"upscaled/internal/common/fsutil"
)

// DefaultPattern names the weight resource for a model and scale relative to
// the weights directory.
const DefaultPattern = "{model}_{scale}x"

// Models lists the known model variants in display order.
var Models = []string{"conservative", "no-denoise", "denoise1x", "denoise2x", "denoise3x"}

// Scales lists the supported scale factors.
var Scales = []int{2, 3, 4}

// MaxTile is the exclusive upper bound of the tile setting.
const MaxTile = 9

var (
	ErrInvalidModel         = errors.New("no such model")
	ErrInvalidScale         = errors.New("no such scale")
	ErrInvalidTile          = errors.New("no such tile")
	ErrModelResourceMissing = errors.New("model weights missing")
)

// Configuration identifies one transformation variant.
type Configuration struct {
	Model string
	Scale int
	Tile  int
}

func (c Configuration) String() string {
	return c.Model + "/" + strconv.Itoa(c.Scale) + "x/t" + strconv.Itoa(c.Tile)
}

// Entry describes one model x scale combination and whether its weights are present.
type Entry struct {
	Model     string
	Scale     int
	Path      string
	Available bool
}

// Catalog resolves configurations against a weights directory.
type Catalog struct {
	dir     string
	pattern string
}

// New returns a Catalog rooted at weightsDir. An empty pattern selects DefaultPattern.
func New(weightsDir, pattern string) (*Catalog, error) {
	base, err := fsutil.ExpandHome(weightsDir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	if strings.TrimSpace(pattern) == "" {
		pattern = DefaultPattern
	}
	if !strings.Contains(pattern, "{model}") || !strings.Contains(pattern, "{scale}") {
		return nil, fmt.Errorf("weights pattern %q must contain {model} and {scale}", pattern)
	}
	return &Catalog{dir: abs, pattern: pattern}, nil
}

// Dir returns the absolute weights directory.
func (c *Catalog) Dir() string { return c.dir }

func (c *Catalog) ValidateModel(model string) error {
	for _, m := range Models {
		if m == model {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidModel, model)
}

func (c *Catalog) ValidateScale(scale int) error {
	for _, s := range Scales {
		if s == scale {
			return nil
		}
	}
	return fmt.Errorf("%w: %d", ErrInvalidScale, scale)
}

func (c *Catalog) ValidateTile(tile int) error {
	if tile < 0 || tile >= MaxTile {
		return fmt.Errorf("%w: %d", ErrInvalidTile, tile)
	}
	return nil
}

// PathFor returns the weight resource path for model and scale without
// checking that it exists.
func (c *Catalog) PathFor(model string, scale int) string {
	name := strings.NewReplacer("{model}", model, "{scale}", strconv.Itoa(scale)).Replace(c.pattern)
	return filepath.Join(c.dir, name)
}

// Resolve returns the weight resource path for model and scale, failing with
// ErrModelResourceMissing when it is absent.
func (c *Catalog) Resolve(model string, scale int) (string, error) {
	p := c.PathFor(model, scale)
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrModelResourceMissing, p)
		}
		return "", fmt.Errorf("%w: %v", ErrModelResourceMissing, err)
	}
	return p, nil
}

// Check validates cfg in the order model, scale, tile, resource and returns
// the weight resource path. It stops at the first failure.
func (c *Catalog) Check(cfg Configuration) (string, error) {
	if err := c.ValidateModel(cfg.Model); err != nil {
		return "", err
	}
	if err := c.ValidateScale(cfg.Scale); err != nil {
		return "", err
	}
	if err := c.ValidateTile(cfg.Tile); err != nil {
		return "", err
	}
	return c.Resolve(cfg.Model, cfg.Scale)
}

// Available lists every model x scale combination with its resolved path.
func (c *Catalog) Available() []Entry {
	out := make([]Entry, 0, len(Models)*len(Scales))
	for _, m := range Models {
		for _, s := range Scales {
			p := c.PathFor(m, s)
			out = append(out, Entry{Model: m, Scale: s, Path: p, Available: fsutil.PathExists(p)})
		}
	}
	return out
}

// AnyAvailable reports whether at least one weight resource is present.
func (c *Catalog) AnyAvailable() bool {
	for _, e := range c.Available() {
		if e.Available {
			return true
		}
	}
	return false
}
