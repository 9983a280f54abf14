// Package status provides the local HTTP status and control server.
package status

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/osa030/relaytune/internal/app/failover"
	"github.com/osa030/relaytune/internal/app/osmedia"
)

const shutdownTimeout = 5 * time.Second

// NowPlaying exposes published playback metadata and accepts transport
// intents.
type NowPlaying interface {
	NowPlaying() osmedia.NowPlaying
	Dispatch(intent osmedia.Intent) error
}

// Mirrors exposes the backend mirror rotation.
type Mirrors interface {
	Mirrors() []failover.Snapshot
}

// Server serves /healthz, /metrics, /nowplaying, /mirrors and
// /control/{action}.
type Server struct {
	addr    string
	media   NowPlaying
	mirrors Mirrors
	metrics http.Handler
}

// NewServer creates a status server. mirrors and metrics may be nil.
func NewServer(addr string, media NowPlaying, mirrors Mirrors, metrics http.Handler) *Server {
	if metrics == nil {
		metrics = http.NotFoundHandler()
	}
	return &Server{addr: addr, media: media, mirrors: mirrors, metrics: metrics}
}

// Handler returns the HTTP handler with HTTP/2 cleartext support.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics)
	mux.HandleFunc("GET /nowplaying", s.handleNowPlaying)
	mux.HandleFunc("GET /mirrors", s.handleMirrors)
	mux.HandleFunc("POST /control/{action}", s.handleControl)
	return h2c.NewHandler(mux, &http2.Server{})
}

// Run serves until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info().Msgf("Starting status server: addr=%s", s.addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return errors.Wrap(err, "status server failed")
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "failed to shutdown status server")
	}
	zlog.Info().Msg("Status server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleNowPlaying(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.media.NowPlaying())
}

func (s *Server) handleMirrors(w http.ResponseWriter, _ *http.Request) {
	if s.mirrors == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "mirrors not available"})
		return
	}
	writeJSON(w, http.StatusOK, s.mirrors.Mirrors())
}

func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	action := r.PathValue("action")
	intent, err := osmedia.ParseIntent(action)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	if err := s.media.Dispatch(intent); err != nil {
		zlog.Warn().Msgf("control rejected: action=%s, error=%v", action, err)
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"action": intent.String()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zlog.Warn().Msgf("failed to write response: error=%v", err)
	}
}
