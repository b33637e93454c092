package e2e

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"upscaled/internal/cache"
	"upscaled/internal/catalog"
	"upscaled/internal/httpapi"
	"upscaled/internal/manager"
	"upscaled/internal/upscaler"
)

type stackOpts struct {
	weightsDir   string
	cacheDir     string
	cacheBackend string
	backend      upscaler.Backend
	noWeights    bool
	mcfg         manager.ManagerConfig
}

// newStack wires catalog, cache, manager and mux like the serve command does.
func newStack(t *testing.T, o stackOpts) (*httptest.Server, *manager.Manager) {
	t.Helper()
	if o.weightsDir == "" {
		o.weightsDir = t.TempDir()
	}
	if o.cacheDir == "" {
		o.cacheDir = t.TempDir()
	}
	if o.backend == nil {
		o.backend = upscaler.NewResampleBackend()
	}
	cat, err := catalog.New(o.weightsDir, "")
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if !o.noWeights {
		writeWeights(t, cat)
	}
	c, err := cache.Open(context.Background(), o.cacheBackend, o.cacheDir, cache.Options{})
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	cfg := o.mcfg
	cfg.Catalog = cat
	cfg.Cache = c
	cfg.Backend = o.backend
	cfg.CacheBackend = o.cacheBackend
	cfg.Logger = zerolog.Nop()
	mgr, err := manager.NewWithConfig(cfg)
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	srv := httptest.NewServer(httpapi.NewMux(mgr))
	t.Cleanup(func() {
		srv.Close()
		_ = mgr.Close()
		_ = c.Close()
	})
	return srv, mgr
}

func writeWeights(t *testing.T, cat *catalog.Catalog) {
	t.Helper()
	for _, m := range catalog.Models {
		for _, s := range catalog.Scales {
			if err := os.WriteFile(cat.PathFor(m, s), []byte("weights"), 0o644); err != nil {
				t.Fatalf("write weights: %v", err)
			}
		}
	}
}

// slowExecBackend returns an exec backend whose binary sleeps before
// copying its input to its output.
func slowExecBackend(t *testing.T, delay string) upscaler.Backend {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake")
	}
	script := filepath.Join(t.TempDir(), "slow-upscaler")
	body := "#!/bin/sh\nsleep " + delay + "\ncp \"$2\" \"$4\"\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	b, err := upscaler.NewExecBackend(script, nil)
	if err != nil {
		t.Fatalf("exec backend: %v", err)
	}
	return b
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 17), G: uint8(y * 31), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png: %v", err)
	}
	return buf.Bytes()
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func uploadRequest(ctx context.Context, url string, data []byte) (*http.Request, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "in.png")
	if err != nil {
		return nil, err
	}
	_, _ = fw.Write(data)
	_ = mw.Close()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req, nil
}

// uploadStatus posts data and returns only the status code; safe to call
// from goroutines other than the test's.
func uploadStatus(url string, data []byte) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	req, err := uploadRequest(ctx, url, data)
	if err != nil {
		return 0, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}

func httpUpload(t *testing.T, url string, data []byte) (*http.Response, []byte) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	req, err := uploadRequest(ctx, url, data)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}
