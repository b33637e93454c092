// Package fetch obtains raw input bytes from an uploaded payload or a remote URL.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var (
	ErrMissingURL        = errors.New("no url")
	ErrMissingUpload     = errors.New("no file")
	ErrRemoteFetchFailed = errors.New("url fetch failed")
	ErrEmptyInput        = errors.New("empty input")
	ErrInputTooLarge     = errors.New("input too large")
)

// Defaults applied when Options fields are unset.
const (
	defaultTimeout  = 30 * time.Second
	defaultMaxBytes = 32 << 20
)

// Source is where the input comes from: a URL or an upload.
type Source struct {
	url    string
	isURL  bool
	opener func() (io.ReadCloser, error)
}

// URL returns a Source retrieving rawURL over HTTP(S).
func URL(rawURL string) Source { return Source{url: rawURL, isURL: true} }

// Upload returns a Source reading the payload opened by open. open is called
// only when the fetch runs, so callers can defer parsing a request body until
// validation has passed.
func Upload(open func() (io.ReadCloser, error)) Source { return Source{opener: open} }

// IsURL reports whether the source is remote.
func (s Source) IsURL() bool { return s.isURL }

// Options configures a Fetcher.
type Options struct {
	Timeout  time.Duration
	MaxBytes int64
	Client   *http.Client
	Logger   zerolog.Logger
}

// Fetcher performs a single fetch attempt per call.
type Fetcher struct {
	client   *http.Client
	timeout  time.Duration
	maxBytes int64
	log      zerolog.Logger
}

// New returns a Fetcher with defaults applied.
func New(opts Options) *Fetcher {
	f := &Fetcher{client: opts.Client, timeout: opts.Timeout, maxBytes: opts.MaxBytes, log: opts.Logger}
	if f.client == nil {
		// Timeouts come from the per-fetch context.
		f.client = &http.Client{Timeout: 0}
	}
	if f.timeout <= 0 {
		f.timeout = defaultTimeout
	}
	if f.maxBytes <= 0 {
		f.maxBytes = defaultMaxBytes
	}
	return f
}

// Fetch reads the full payload of src.
func (f *Fetcher) Fetch(ctx context.Context, src Source) ([]byte, error) {
	if src.isURL {
		return f.fetchURL(ctx, src.url)
	}
	return f.fetchUpload(src.opener)
}

func (f *Fetcher) fetchURL(ctx context.Context, raw string) ([]byte, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrMissingURL
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid url %q", ErrRemoteFetchFailed, raw)
	}
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteFetchFailed, err)
	}
	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteFetchFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrRemoteFetchFailed, resp.StatusCode)
	}
	b, err := f.readAll(resp.Body)
	if err != nil {
		if errors.Is(err, ErrInputTooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrRemoteFetchFailed, err)
	}
	f.log.Debug().Str("host", u.Host).Int("bytes", len(b)).Dur("dur", time.Since(start)).Msg("url fetched")
	if len(b) == 0 {
		return nil, ErrEmptyInput
	}
	return b, nil
}

func (f *Fetcher) fetchUpload(open func() (io.ReadCloser, error)) ([]byte, error) {
	if open == nil {
		return nil, ErrMissingUpload
	}
	rc, err := open()
	if errors.Is(err, ErrInputTooLarge) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingUpload, err)
	}
	defer rc.Close()
	b, err := f.readAll(rc)
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, ErrEmptyInput
	}
	return b, nil
}

// readAll reads at most maxBytes and fails with ErrInputTooLarge beyond that.
func (f *Fetcher) readAll(r io.Reader) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, f.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > f.maxBytes {
		return nil, ErrInputTooLarge
	}
	return b, nil
}
