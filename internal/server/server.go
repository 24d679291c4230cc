// Package server exposes the resolved schedule as JSON for lobby display
// screens.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/mosque-times/internal/datasync"
)

const shutdownTimeout = 5 * time.Second

// Provider returns the latest snapshot. *datasync.Sync implements it.
type Provider interface {
	Current() datasync.Snapshot
}

// Server serves the snapshot of a Provider.
type Server struct {
	provider   Provider
	timeFormat string
	now        func() time.Time
	router     chi.Router
}

// New builds the router.
func New(p Provider, timeFormat string) *Server {
	s := &Server{
		provider:   p,
		timeFormat: timeFormat,
		now:        time.Now,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLog)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.health)
	r.Route("/api", func(r chi.Router) {
		r.Get("/schedule", s.schedule)
		r.Get("/next", s.next)
		r.Get("/jumuah", s.jumuah)
		r.Get("/mosque", s.mosque)
	})

	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("display server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("display server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("display server shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type healthResponse struct {
	Status    string `json:"status"`
	Loading   bool   `json:"loading"`
	Updating  bool   `json:"updating"`
	FromCache bool   `json:"from_cache"`
	Error     string `json:"error,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	snap := s.provider.Current()
	resp := healthResponse{
		Status:    "ok",
		Loading:   snap.Loading,
		Updating:  snap.Updating,
		FromCache: snap.FromCache,
	}
	if snap.Err != nil {
		resp.Error = snap.Err.Error()
	}
	switch {
	case snap.Loading:
		resp.Status = "loading"
	case !snap.HasData():
		resp.Status = "unavailable"
	case snap.Err != nil:
		resp.Status = "degraded"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) schedule(w http.ResponseWriter, r *http.Request) {
	snap := s.provider.Current()
	if snap.PrayerTimes == nil {
		unavailable(w, snap, "prayer times")
		return
	}
	writeJSON(w, http.StatusOK, BuildSchedule(snap, s.now(), s.timeFormat))
}

func (s *Server) next(w http.ResponseWriter, r *http.Request) {
	snap := s.provider.Current()
	if snap.PrayerTimes == nil {
		unavailable(w, snap, "prayer times")
		return
	}
	v := BuildSchedule(snap, s.now(), s.timeFormat)
	if v.Next == nil {
		writeError(w, http.StatusNotFound, "no iqama time could be read")
		return
	}
	writeJSON(w, http.StatusOK, v.Next)
}

func (s *Server) jumuah(w http.ResponseWriter, r *http.Request) {
	snap := s.provider.Current()
	if snap.Jumuah == nil {
		unavailable(w, snap, "jumuah times")
		return
	}
	writeJSON(w, http.StatusOK, BuildJumuah(snap, s.now()))
}

func (s *Server) mosque(w http.ResponseWriter, r *http.Request) {
	snap := s.provider.Current()
	if snap.Settings == nil {
		unavailable(w, snap, "mosque settings")
		return
	}
	writeJSON(w, http.StatusOK, BuildMosque(snap, s.now()))
}

func unavailable(w http.ResponseWriter, snap datasync.Snapshot, doc string) {
	msg := doc + " not available"
	if snap.Loading {
		msg = doc + " still loading"
	}
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusServiceUnavailable, msg)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// statusWriter captures the response status for request logging.
type statusWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

func requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		log.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sw.status).
			Dur("duration", time.Since(start)).
			Int("size", sw.size).
			Msg("request")
	})
}
