package upscaler

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 20), G: uint8(y * 20), B: 128, A: 255})
		}
	}
	return img
}

func weightsFile(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "no-denoise_2x")
	require.NoError(t, os.WriteFile(p, []byte("weights"), 0o644))
	return p
}

func TestNormalizeFormat(t *testing.T) {
	cases := map[string]string{"": "png", "PNG": "png", "jpg": "jpeg", "jpeg": "jpeg", "bmp": "bmp", "tif": "tiff", "tiff": "tiff"}
	for in, want := range cases {
		got, err := NormalizeFormat(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got)
	}
	for _, bad := range []string{"webp", "gif", "exe"} {
		_, err := NormalizeFormat(bad)
		require.ErrorIs(t, err, ErrUnsupportedFormat)
	}
	require.Equal(t, "image/png", ContentType("png"))
	require.Equal(t, "image/jpeg", ContentType("jpeg"))
}

func TestRoundTripScaledDimensions(t *testing.T) {
	ctx := context.Background()
	w := weightsFile(t)
	for _, scale := range []int{2, 3, 4} {
		inst, err := NewResampleBackend().Load(ctx, Options{Model: "no-denoise", Scale: scale, Tile: 2, Weights: w})
		require.NoError(t, err)
		out, err := inst.Upscale(ctx, testImage(10, 7))
		require.NoError(t, err)
		for _, format := range Formats() {
			b, err := Encode(out, format)
			require.NoError(t, err, format)
			require.NotEmpty(t, b)
			img, kind, err := Decode(b)
			require.NoError(t, err, format)
			require.Equal(t, format, kind)
			require.Equal(t, 10*scale, img.Bounds().Dx(), format)
			require.Equal(t, 7*scale, img.Bounds().Dy(), format)
		}
	}
}

func TestResample_TileBands(t *testing.T) {
	ctx := context.Background()
	w := weightsFile(t)
	for tile := 0; tile < 9; tile++ {
		for _, model := range []string{"conservative", "denoise2x"} {
			inst, err := NewResampleBackend().Load(ctx, Options{Model: model, Scale: 2, Tile: tile, Weights: w})
			require.NoError(t, err)
			out, err := inst.Upscale(ctx, testImage(5, 3))
			require.NoError(t, err)
			require.Equal(t, image.Rect(0, 0, 10, 6), out.Bounds())
			require.NoError(t, inst.Close())
		}
	}
}

func TestResample_LoadFailsWithoutWeights(t *testing.T) {
	_, err := NewResampleBackend().Load(context.Background(), Options{Model: "no-denoise", Scale: 2, Weights: filepath.Join(t.TempDir(), "missing")})
	require.Error(t, err)
}

func TestDecode_Garbage(t *testing.T) {
	_, _, err := Decode([]byte("not an image"))
	require.True(t, errors.Is(err, ErrUndecodable))
}

func TestCheckDimensions(t *testing.T) {
	b, err := Encode(testImage(100, 50), "png")
	require.NoError(t, err)

	cfg, err := CheckDimensions(b, 2, Limits{MaxInputPixels: 5000, MaxOutputPixels: 20000})
	require.NoError(t, err)
	require.Equal(t, 100, cfg.Width)

	_, err = CheckDimensions(b, 2, Limits{MaxInputPixels: 4999})
	require.ErrorIs(t, err, ErrTooManyPixels)
	_, err = CheckDimensions(b, 4, Limits{MaxOutputPixels: 20000})
	require.ErrorIs(t, err, ErrTooManyPixels)
	_, err = CheckDimensions(b, 4, Limits{})
	require.NoError(t, err)

	// a blank 5000x5000 image compresses to a few KiB
	bomb, err := Encode(image.NewGray(image.Rect(0, 0, 5000, 5000)), "png")
	require.NoError(t, err)
	require.Less(t, len(bomb), 64<<10)
	_, err = CheckDimensions(bomb, 2, Limits{MaxInputPixels: DefaultMaxInputPixels, MaxOutputPixels: DefaultMaxOutputPixels})
	require.ErrorIs(t, err, ErrTooManyPixels)

	_, err = CheckDimensions([]byte("not an image"), 2, Limits{})
	require.ErrorIs(t, err, ErrUndecodable)
}

func TestNewBackend(t *testing.T) {
	b, err := NewBackend(Config{})
	require.NoError(t, err)
	require.Equal(t, BackendResample, b.Name())
	_, err = NewBackend(Config{Backend: "cuda"})
	require.Error(t, err)
	_, err = NewBackend(Config{Backend: BackendExec})
	require.Error(t, err)
}

func TestExecBackend_RunsBinary(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake")
	}
	dir := t.TempDir()
	script := filepath.Join(dir, "fake-upscaler")
	// copies input to output, so dimensions stay the same
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\ncp \"$2\" \"$4\"\n"), 0o755))
	b, err := NewExecBackend(script, []string{"-i", "{input}", "-o", "{output}"})
	require.NoError(t, err)
	require.Equal(t, BackendExec, b.Name())
	inst, err := b.Load(context.Background(), Options{Model: "no-denoise", Scale: 2, Tile: 0, Weights: weightsFile(t)})
	require.NoError(t, err)
	out, err := inst.Upscale(context.Background(), testImage(4, 4))
	require.NoError(t, err)
	require.Equal(t, 4, out.Bounds().Dx())

	failing := filepath.Join(dir, "failing")
	require.NoError(t, os.WriteFile(failing, []byte("#!/bin/sh\necho boom >&2\nexit 3\n"), 0o755))
	fb, err := NewExecBackend(failing, nil)
	require.NoError(t, err)
	finst, err := fb.Load(context.Background(), Options{Scale: 2, Weights: weightsFile(t)})
	require.NoError(t, err)
	_, err = finst.Upscale(context.Background(), testImage(2, 2))
	require.ErrorContains(t, err, "boom")
}
