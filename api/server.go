package api

import (
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/matt-g-everett/puppetx/metrics"
	"github.com/matt-g-everett/puppetx/motion"
	"github.com/matt-g-everett/puppetx/preview"
	"github.com/matt-g-everett/puppetx/stream"
	"github.com/rs/zerolog"
)

const (
	shutdownTimeout    = 10 * time.Second
	defaultCellSize    = 96
	defaultColumns     = 4
	maxCellSize        = 512
	maxPreviewFrames   = 64
	maxRequestBodySize = 1 << 20
)

// Api serves sequence generation and playback control over HTTP.
type Api struct {
	controller *stream.Controller
	metrics    *metrics.Metrics
	log        zerolog.Logger
	staticDir  string
}

// NewApi creates an instance of an Api. staticDir is served at / when set.
func NewApi(controller *stream.Controller, m *metrics.Metrics, logger zerolog.Logger, staticDir string) *Api {
	a := new(Api)
	a.controller = controller
	a.metrics = m
	a.log = logger.With().Str("component", "api").Logger()
	a.staticDir = staticDir
	return a
}

// Router builds the HTTP routes.
func (a *Api) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLogger(a.log))
	r.Use(metrics.RequestMiddleware(a.metrics))

	r.Get("/catalog", a.getCatalog)
	r.Handle("/metrics", a.metrics.Handler())
	r.Route("/sequences/{target}", func(r chi.Router) {
		r.Post("/", a.postSequence)
		r.Post("/preview.png", a.postPreview)
	})
	r.Route("/playback", func(r chi.Router) {
		r.Post("/", a.postPlayback)
		r.Get("/status", a.getStatus)
		r.Post("/stop", a.postStop)
		r.Post("/pause", a.postPause)
		r.Post("/skip", a.postSkip)
	})

	if a.staticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(a.staticDir)))
	}

	return r
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (a *Api) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: a.Router()}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *Api) getCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, motion.Catalog)
}

func (a *Api) postSequence(w http.ResponseWriter, r *http.Request) {
	seq, ok := a.generate(w, r, chi.URLParam(r, "target"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, seq)
}

func (a *Api) postPreview(w http.ResponseWriter, r *http.Request) {
	cellSize, err := queryInt(r, "cell", defaultCellSize)
	if err != nil || cellSize > maxCellSize {
		writeError(w, http.StatusBadRequest, "cell must be an integer up to 512")
		return
	}
	columns, err := queryInt(r, "columns", defaultColumns)
	if err != nil {
		writeError(w, http.StatusBadRequest, "columns must be an integer")
		return
	}

	seq, ok := a.generate(w, r, chi.URLParam(r, "target"))
	if !ok {
		return
	}
	if seq.Len() > maxPreviewFrames {
		writeError(w, http.StatusBadRequest, "preview is limited to 64 frames")
		return
	}

	img, err := preview.ContactSheet(seq, cellSize, columns)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, img); err != nil {
		a.log.Error().Err(err).Msg("failed to write preview")
	}
}

func (a *Api) postPlayback(w http.ResponseWriter, r *http.Request) {
	var req stream.Request
	if !a.decode(w, r, &req) {
		return
	}
	seq, ok := a.build(w, &req)
	if !ok {
		return
	}

	id, err := a.controller.Enqueue(req.Target, seq)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, stream.ErrQueueClosed) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"clipId": id})
}

func (a *Api) getStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.controller.Status())
}

func (a *Api) postStop(w http.ResponseWriter, r *http.Request) {
	a.controller.Stop()
	writeJSON(w, http.StatusOK, a.controller.Status())
}

func (a *Api) postPause(w http.ResponseWriter, r *http.Request) {
	a.controller.Pause()
	writeJSON(w, http.StatusOK, a.controller.Status())
}

func (a *Api) postSkip(w http.ResponseWriter, r *http.Request) {
	a.controller.Skip()
	writeJSON(w, http.StatusOK, a.controller.Status())
}

// generate decodes a request body for target and builds its sequence. On
// failure it has already written the response.
func (a *Api) generate(w http.ResponseWriter, r *http.Request, target string) (*stream.Sequence, bool) {
	var req stream.Request
	if !a.decode(w, r, &req) {
		return nil, false
	}
	req.Target = motion.Target(target)
	return a.build(w, &req)
}

func (a *Api) build(w http.ResponseWriter, req *stream.Request) (*stream.Sequence, bool) {
	seq, err := req.Generate()
	if err != nil {
		a.log.Debug().Err(err).Msg("rejected animation request")
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	a.metrics.IncSequences(string(req.Target))
	return seq, true
}

func (a *Api) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return fallback, nil
	}
	return strconv.Atoi(s)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
