package fetch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func upload(b []byte) Source {
	return Upload(func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(b)), nil })
}

func TestFetchURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/img":
			_, _ = w.Write([]byte("image-bytes"))
		case "/empty":
			w.WriteHeader(http.StatusOK)
		case "/big":
			_, _ = w.Write(bytes.Repeat([]byte("a"), 2048))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	f := New(Options{MaxBytes: 1024})
	ctx := context.Background()

	b, err := f.Fetch(ctx, URL(srv.URL+"/img"))
	require.NoError(t, err)
	require.Equal(t, "image-bytes", string(b))

	_, err = f.Fetch(ctx, URL(srv.URL+"/empty"))
	require.ErrorIs(t, err, ErrEmptyInput)

	_, err = f.Fetch(ctx, URL(srv.URL+"/missing"))
	require.ErrorIs(t, err, ErrRemoteFetchFailed)

	_, err = f.Fetch(ctx, URL(srv.URL+"/big"))
	require.ErrorIs(t, err, ErrInputTooLarge)
}

func TestFetchURL_Invalid(t *testing.T) {
	f := New(Options{})
	ctx := context.Background()
	_, err := f.Fetch(ctx, URL(""))
	require.ErrorIs(t, err, ErrMissingURL)
	for _, u := range []string{"ftp://example/x.png", "not a url", "http://"} {
		_, err = f.Fetch(ctx, URL(u))
		require.ErrorIs(t, err, ErrRemoteFetchFailed, u)
	}
}

func TestFetchURL_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()
	_, err := New(Options{}).Fetch(context.Background(), URL(addr+"/img.png"))
	require.ErrorIs(t, err, ErrRemoteFetchFailed)
}

func TestFetchUpload(t *testing.T) {
	f := New(Options{MaxBytes: 8})
	b, err := f.Fetch(context.Background(), upload([]byte("abc")))
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), b)

	_, err = f.Fetch(context.Background(), upload(nil))
	require.ErrorIs(t, err, ErrEmptyInput)

	_, err = f.Fetch(context.Background(), upload([]byte("0123456789")))
	require.ErrorIs(t, err, ErrInputTooLarge)

	missing := Upload(func() (io.ReadCloser, error) { return nil, errors.New("http: no such file") })
	_, err = f.Fetch(context.Background(), missing)
	require.ErrorIs(t, err, ErrMissingUpload)

	capped := Upload(func() (io.ReadCloser, error) { return nil, ErrInputTooLarge })
	_, err = f.Fetch(context.Background(), capped)
	require.ErrorIs(t, err, ErrInputTooLarge)
	require.NotErrorIs(t, err, ErrMissingUpload)
	require.False(t, missing.IsURL())
	require.True(t, URL("x").IsURL())
}
