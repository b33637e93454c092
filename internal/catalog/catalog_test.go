package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeWeights(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("w"), 0o644); err != nil {
			t.Fatalf("write %s: %v", n, err)
		}
	}
}

func TestCheck_AllValidCombinations(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir, "")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for _, m := range Models {
		for _, s := range Scales {
			writeWeights(t, dir, filepath.Base(c.PathFor(m, s)))
		}
	}
	for _, m := range Models {
		for _, s := range Scales {
			for tile := 0; tile < MaxTile; tile++ {
				p, err := c.Check(Configuration{Model: m, Scale: s, Tile: tile})
				if err != nil {
					t.Fatalf("check %s/%d/%d: %v", m, s, tile, err)
				}
				if p != c.PathFor(m, s) {
					t.Fatalf("path=%s", p)
				}
			}
		}
	}
}

func TestCheck_SingleInvalidField(t *testing.T) {
	dir := t.TempDir()
	writeWeights(t, dir, "no-denoise_2x")
	c, _ := New(dir, "")
	cases := []struct {
		name string
		cfg  Configuration
		want error
	}{
		{"model", Configuration{Model: "bogus", Scale: 2, Tile: 2}, ErrInvalidModel},
		{"scale", Configuration{Model: "no-denoise", Scale: 5, Tile: 2}, ErrInvalidScale},
		{"scale-low", Configuration{Model: "no-denoise", Scale: 1, Tile: 2}, ErrInvalidScale},
		{"tile-high", Configuration{Model: "no-denoise", Scale: 2, Tile: 9}, ErrInvalidTile},
		{"tile-neg", Configuration{Model: "no-denoise", Scale: 2, Tile: -1}, ErrInvalidTile},
		{"resource", Configuration{Model: "denoise3x", Scale: 4, Tile: 0}, ErrModelResourceMissing},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := c.Check(tc.cfg); !errors.Is(err, tc.want) {
				t.Fatalf("err=%v, want %v", err, tc.want)
			}
		})
	}
}

func TestCheck_OrderShortCircuits(t *testing.T) {
	// Everything is wrong; the model error must win.
	c, _ := New(t.TempDir(), "")
	_, err := c.Check(Configuration{Model: "bogus", Scale: 7, Tile: 99})
	if !errors.Is(err, ErrInvalidModel) {
		t.Fatalf("err=%v", err)
	}
	_, err = c.Check(Configuration{Model: "conservative", Scale: 7, Tile: 99})
	if !errors.Is(err, ErrInvalidScale) {
		t.Fatalf("err=%v", err)
	}
	_, err = c.Check(Configuration{Model: "conservative", Scale: 3, Tile: 99})
	if !errors.Is(err, ErrInvalidTile) {
		t.Fatalf("err=%v", err)
	}
}

func TestCustomPattern(t *testing.T) {
	dir := t.TempDir()
	writeWeights(t, dir, "up3x-latest-denoise1x.pth")
	c, err := New(dir, "up{scale}x-latest-{model}.pth")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	p, err := c.Resolve("denoise1x", 3)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if filepath.Base(p) != "up3x-latest-denoise1x.pth" {
		t.Fatalf("path=%s", p)
	}
	if _, err := New(dir, "weights.bin"); err == nil {
		t.Fatalf("expected pattern error")
	}
}

func TestAvailable(t *testing.T) {
	dir := t.TempDir()
	writeWeights(t, dir, "conservative_2x", "denoise3x_4x")
	c, _ := New(dir, "")
	var got []string
	for _, e := range c.Available() {
		if e.Available {
			got = append(got, Configuration{Model: e.Model, Scale: e.Scale}.String())
		}
	}
	want := []string{"conservative/2x/t0", "denoise3x/4x/t0"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("available mismatch (-want +got):\n%s", diff)
	}
	if !c.AnyAvailable() {
		t.Fatalf("AnyAvailable=false")
	}
	empty, _ := New(t.TempDir(), "")
	if empty.AnyAvailable() {
		t.Fatalf("empty dir reported available")
	}
}
