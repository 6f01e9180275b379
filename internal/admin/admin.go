// Package admin is the authenticated control surface: status, mode
// override, manual save, and pause, distinct from the public broadcast
// fabric. Router shape (chi + middleware.RequestID/Recoverer, respondJSON/
// respondError helpers) is grounded on execution-hub's
// internal/api/http/server.go.
package admin

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jetsetilly/crowdcade/internal/arbiter"
	"github.com/jetsetilly/crowdcade/internal/supervisor"
)

// saveTimeout bounds how long POST /save waits for the snapshot to
// complete before reporting failure, per the design.
const saveTimeout = 2 * time.Second

// Supervisor is the narrow surface the admin handlers drive.
type Supervisor interface {
	SubmitCommand(supervisor.Command)
	FPS() float64
	Uptime() time.Duration
	Paused() bool
}

// Server holds the dependencies the admin handlers need.
type Server struct {
	arb   *arbiter.Arbiter
	sup   Supervisor
	token string
	nowMs func() int64
}

// New returns a Server guarded by token. nowMs supplies the monotonic
// millisecond clock used for arbiter snapshots and mode overrides; pass nil
// to fall back to the supervisor's Uptime in milliseconds.
func New(arb *arbiter.Arbiter, sup Supervisor, token string, nowMs func() int64) *Server {
	return &Server{arb: arb, sup: sup, token: token, nowMs: nowMs}
}

// Router builds the admin HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requireBearer)

	r.Get("/status", s.getStatus)
	r.Post("/mode", s.postMode)
	r.Post("/save", s.postSave)
	r.Post("/pause", s.postPause)

	return r
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]string{"error": code, "message": message})
}

type statusResponse struct {
	Mode       string         `json:"mode"`
	QueueDepth int            `json:"queue_depth"`
	FPS        float64        `json:"fps"`
	UptimeSecs float64        `json:"uptime_s"`
	ModeVotes  map[string]int `json:"mode_votes"`
	Paused     bool           `json:"paused"`
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.arb.Snapshot(s.clockMs())
	respondJSON(w, http.StatusOK, statusResponse{
		Mode:       snap.Mode.String(),
		QueueDepth: snap.QueueDepth,
		FPS:        s.sup.FPS(),
		UptimeSecs: s.sup.Uptime().Seconds(),
		ModeVotes:  snap.ModeVotes,
		Paused:     s.sup.Paused(),
	})
}

type modeRequest struct {
	Mode string `json:"mode"`
}

func (s *Server) postMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}

	var mode arbiter.Mode
	switch req.Mode {
	case "anarchy":
		mode = arbiter.Anarchy
	case "democracy":
		mode = arbiter.Democracy
	default:
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "mode must be anarchy or democracy")
		return
	}

	s.arb.SetMode(mode, s.clockMs())
	respondJSON(w, http.StatusOK, map[string]string{"mode": req.Mode})
}

func (s *Server) postSave(w http.ResponseWriter, r *http.Request) {
	errCh := make(chan error, 1)
	s.sup.SubmitCommand(supervisor.Command{Kind: supervisor.CmdSaveNow, Err: errCh})

	select {
	case err := <-errCh:
		if err != nil {
			respondError(w, http.StatusInternalServerError, "SAVE_FAILED", err.Error())
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "saved"})
	case <-time.After(saveTimeout):
		respondError(w, http.StatusGatewayTimeout, "SAVE_TIMEOUT", "snapshot did not complete in time")
	}
}

func (s *Server) postPause(w http.ResponseWriter, r *http.Request) {
	kind := supervisor.CmdPause
	if s.sup.Paused() {
		kind = supervisor.CmdResume
	}
	s.sup.SubmitCommand(supervisor.Command{Kind: kind})
	respondJSON(w, http.StatusOK, map[string]bool{"paused": kind == supervisor.CmdPause})
}

func (s *Server) clockMs() int64 {
	if s.nowMs != nil {
		return s.nowMs()
	}
	return s.sup.Uptime().Milliseconds()
}
