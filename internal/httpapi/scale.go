package httpapi

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"upscaled/internal/fetch"
	"upscaled/internal/manager"
)

// Query defaults for /scale.
const (
	defaultModel = "no-denoise"
	defaultScale = 2
	defaultTile  = 2
)

// parseScaleQuery reads model, scale, tile and format. A value that is not an
// integer is reported with the reason of the field it belongs to.
func parseScaleQuery(q url.Values) (manager.ScaleRequest, string) {
	req := manager.ScaleRequest{
		Model:  strings.TrimSpace(q.Get("model")),
		Scale:  defaultScale,
		Tile:   defaultTile,
		Format: strings.TrimSpace(q.Get("format")),
	}
	if req.Model == "" {
		req.Model = defaultModel
	}
	if v := strings.TrimSpace(q.Get("scale")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, "no such scale"
		}
		req.Scale = n
	}
	if v := strings.TrimSpace(q.Get("tile")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, "no such tile"
		}
		req.Tile = n
	}
	return req, ""
}

// scaleHandler serves GET /scale (url parameter) and POST /scale (multipart
// field "file").
//
//	@Summary	Upscale an image
//	@Param		model	query	string	false	"model variant"	default(no-denoise)
//	@Param		scale	query	int		false	"scale factor"	default(2)
//	@Param		tile	query	int		false	"tile setting 0-8"	default(2)
//	@Param		format	query	string	false	"output format"	default(png)
//	@Param		url		query	string	false	"input image URL (GET only)"
//	@Produce	png
//	@Success	200	{file}		binary
//	@Failure	400	{object}	types.ErrorResponse
//	@Failure	429	{object}	types.ErrorResponse
//	@Failure	500	{object}	types.ErrorResponse
//	@Router		/scale [get]
//	@Router		/scale [post]
func scaleHandler(svc Service, upload bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lvl := requestLogLevel(r)
		q := r.URL.Query()
		req, reason := parseScaleQuery(q)
		if reason != "" {
			recordScaleOutcome(http.StatusBadRequest, reason)
			writeJSONError(w, http.StatusBadRequest, reason)
			logScaleEnd(r, lvl, http.StatusBadRequest, start, "", nil)
			return
		}
		if upload {
			// Parsed lazily so invalid parameters never touch the body.
			req.Source = fetch.Upload(func() (io.ReadCloser, error) {
				r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
				if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
					var tooBig *http.MaxBytesError
					if errors.As(err, &tooBig) {
						return nil, fetch.ErrInputTooLarge
					}
					return nil, err
				}
				f, _, err := r.FormFile("file")
				if err != nil {
					return nil, err
				}
				return f, nil
			})
		} else {
			req.Source = fetch.URL(q.Get("url"))
		}

		ctx, cancel := joinContexts(r.Context(), serverBaseCtx)
		defer cancel()
		res, err := svc.Scale(ctx, req)
		if err != nil {
			// Client went away: nobody to answer.
			if r.Context().Err() != nil {
				return
			}
			status, reason := errorStatus(err)
			if serverBaseCtx.Err() != nil {
				status, reason = http.StatusServiceUnavailable, "shutting down"
			}
			recordScaleOutcome(status, reason)
			writeJSONError(w, status, reason)
			logScaleEnd(r, lvl, status, start, "", err)
			return
		}

		cacheState := "miss"
		if res.Cached {
			cacheState = "hit"
		}
		recordScaleOutcome(http.StatusOK, "ok")
		scaleBytesTotal.WithLabelValues(cacheState).Add(float64(len(res.Data)))
		h := w.Header()
		h.Set("Content-Type", res.ContentType)
		h.Set("Content-Length", strconv.Itoa(len(res.Data)))
		h.Set("X-Cache", cacheState)
		h.Set("X-Fingerprint", res.Fingerprint)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(res.Data)
		logScaleEnd(r, lvl, http.StatusOK, start, cacheState, nil)
	}
}
