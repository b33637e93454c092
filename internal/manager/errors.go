package manager

import (
	"errors"
	"net/http"

	"upscaled/internal/cache"
	"upscaled/internal/catalog"
	"upscaled/internal/fetch"
	"upscaled/internal/upscaler"
)

// Kind classifies pipeline failures.
type Kind string

const (
	KindInvalidModel               Kind = "InvalidModel"
	KindInvalidScale               Kind = "InvalidScale"
	KindInvalidTile                Kind = "InvalidTile"
	KindInvalidFormat              Kind = "InvalidFormat"
	KindModelResourceMissing       Kind = "ModelResourceMissing"
	KindMissingURL                 Kind = "MissingUrl"
	KindMissingUpload              Kind = "MissingUpload"
	KindRemoteFetchFailed          Kind = "RemoteFetchFailed"
	KindEmptyInput                 Kind = "EmptyInput"
	KindInputTooLarge              Kind = "InputTooLarge"
	KindUndecodableInput           Kind = "UndecodableInput"
	KindTooBusy                    Kind = "TooBusy"
	KindInstanceConstructionFailed Kind = "InstanceConstructionFailed"
	KindEmptyOutput                Kind = "EmptyOutput"
	KindCacheStoreFailed           Kind = "CacheStoreFailed"
	KindShuttingDown               Kind = "ShuttingDown"
	KindInternal                   Kind = "Internal"
)

var (
	ErrInstanceConstructionFailed = errors.New("model load failed")
	ErrEmptyOutput                = errors.New("zero output data len")
	ErrShuttingDown               = errors.New("shutting down")
)

// ScaleError is returned by Manager.Scale. Reason is the client-facing
// message; Err keeps the cause for logs and errors.Is.
type ScaleError struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *ScaleError) Error() string {
	if e.Err == nil || e.Err.Error() == e.Reason {
		return e.Reason
	}
	return e.Reason + ": " + e.Err.Error()
}

func (e *ScaleError) Unwrap() error { return e.Err }

// StatusCode maps the kind to an HTTP status.
func (e *ScaleError) StatusCode() int {
	switch e.Kind {
	case KindTooBusy:
		return http.StatusTooManyRequests
	case KindShuttingDown:
		return http.StatusServiceUnavailable
	case KindInstanceConstructionFailed, KindEmptyOutput, KindCacheStoreFailed, KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// tooBusyError signals queue timeout/overflow for 429 mapping.
type tooBusyError struct{ stage string }

func (e tooBusyError) Error() string { return "too busy: " + e.stage }

// IsTooBusy reports whether err indicates backpressure (return 429).
func IsTooBusy(err error) bool {
	var tb tooBusyError
	if errors.As(err, &tb) {
		return true
	}
	return KindOf(err) == KindTooBusy
}

// KindOf returns the Kind carried by err, or KindInternal.
func KindOf(err error) Kind {
	var se *ScaleError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

func newError(kind Kind, reason string, err error) *ScaleError {
	return &ScaleError{Kind: kind, Reason: reason, Err: err}
}

// classify converts a component error into a ScaleError. urlSource selects
// the reason used for empty input.
func classify(err error, urlSource bool) *ScaleError {
	var se *ScaleError
	if errors.As(err, &se) {
		return se
	}
	var tb tooBusyError
	switch {
	case errors.As(err, &tb):
		return newError(KindTooBusy, "too busy", err)
	case errors.Is(err, catalog.ErrInvalidModel):
		return newError(KindInvalidModel, "no such model", err)
	case errors.Is(err, catalog.ErrInvalidScale):
		return newError(KindInvalidScale, "no such scale", err)
	case errors.Is(err, catalog.ErrInvalidTile):
		return newError(KindInvalidTile, "no such tile", err)
	case errors.Is(err, catalog.ErrModelResourceMissing):
		return newError(KindModelResourceMissing, "no such model", err)
	case errors.Is(err, upscaler.ErrUnsupportedFormat):
		return newError(KindInvalidFormat, "no such format", err)
	case errors.Is(err, fetch.ErrMissingURL):
		return newError(KindMissingURL, "no url", err)
	case errors.Is(err, fetch.ErrMissingUpload):
		return newError(KindMissingUpload, "no file", err)
	case errors.Is(err, fetch.ErrRemoteFetchFailed):
		return newError(KindRemoteFetchFailed, "url fetch failed", err)
	case errors.Is(err, fetch.ErrEmptyInput):
		if urlSource {
			return newError(KindEmptyInput, "url resp no data", err)
		}
		return newError(KindEmptyInput, "upload no data", err)
	case errors.Is(err, fetch.ErrInputTooLarge), errors.Is(err, upscaler.ErrTooManyPixels):
		return newError(KindInputTooLarge, "input too large", err)
	case errors.Is(err, upscaler.ErrUndecodable):
		return newError(KindUndecodableInput, "cannot decode image", err)
	case errors.Is(err, ErrInstanceConstructionFailed):
		return newError(KindInstanceConstructionFailed, "model load failed", err)
	case errors.Is(err, ErrEmptyOutput):
		return newError(KindEmptyOutput, "zero output data len", err)
	case errors.Is(err, cache.ErrEmptyPayload):
		return newError(KindCacheStoreFailed, "internal error", err)
	case errors.Is(err, ErrShuttingDown):
		return newError(KindShuttingDown, "shutting down", err)
	default:
		return newError(KindInternal, "internal error", err)
	}
}
