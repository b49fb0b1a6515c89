package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/doridoridoriand/pingtray/internal/probe"
	"github.com/doridoridoriand/pingtray/internal/state"
	"github.com/doridoridoriand/pingtray/internal/targets"
)

// Editor mutates the target list.
type Editor interface {
	AddTarget(address, label string) (targets.Target, error)
	RemoveTarget(address string) (bool, error)
	ListTargets() ([]targets.Target, error)
}

// Monitor exposes the scheduler's latest snapshot and the probe-now trigger.
type Monitor interface {
	Snapshot() state.Snapshot
	ProbeNow()
}

type Server struct {
	Logger  *zap.Logger
	Editor  Editor
	Monitor Monitor
	Metrics http.Handler
}

func NewServer(l *zap.Logger, editor Editor, monitor Monitor, metrics http.Handler) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{Logger: l, Editor: editor, Monitor: monitor, Metrics: metrics}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/status", s.handleStatus)
	r.Get("/targets", s.handleListTargets)
	r.Post("/targets", s.handleAddTarget)
	r.Delete("/targets", s.handleRemoveTarget)
	r.Delete("/targets/{address}", s.handleRemoveTarget)
	r.Post("/probe", s.handleProbe)
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}
	return r
}

type targetStatus struct {
	Address   string   `json:"address"`
	Label     string   `json:"label,omitempty"`
	Reachable bool     `json:"reachable"`
	LatencyMS *float64 `json:"latency_ms,omitempty"`
	Latency   string   `json:"latency,omitempty"`
	Detail    string   `json:"detail,omitempty"`
	CheckedAt string   `json:"checked_at,omitempty"`
}

type statusResponse struct {
	Overall     string         `json:"overall"`
	Cycle       uint64         `json:"cycle"`
	LastUpdated string         `json:"last_updated,omitempty"`
	DurationMS  float64        `json:"duration_ms"`
	Up          int            `json:"up"`
	Down        int            `json:"down"`
	Targets     []targetStatus `json:"targets"`
}

func toStatusResponse(snap state.Snapshot) statusResponse {
	resp := statusResponse{
		Overall:    string(snap.Overall),
		Cycle:      snap.Cycle,
		DurationMS: millis(snap.Duration),
		Targets:    make([]targetStatus, 0, len(snap.Targets)),
	}
	if snap.Initializing() {
		resp.Overall = string(state.Initializing)
	} else {
		resp.LastUpdated = snap.LastUpdated.UTC().Format(time.RFC3339)
		resp.Up = snap.Up()
		resp.Down = snap.Down()
	}
	for _, entry := range snap.Entries() {
		ts := targetStatus{
			Address:   entry.Target.Address,
			Label:     entry.Target.Label,
			Reachable: entry.Outcome.Reachable,
			Detail:    entry.Outcome.Detail,
		}
		if entry.Outcome.HasLatency() {
			ms := millis(entry.Outcome.Latency)
			ts.LatencyMS = &ms
			ts.Latency = probe.FormatLatency(entry.Outcome.Latency)
		}
		if !entry.Outcome.Timestamp.IsZero() {
			ts.CheckedAt = entry.Outcome.Timestamp.UTC().Format(time.RFC3339)
		}
		resp.Targets = append(resp.Targets, ts)
	}
	return resp
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toStatusResponse(s.Monitor.Snapshot()))
}

func (s *Server) handleListTargets(w http.ResponseWriter, r *http.Request) {
	ts, err := s.Editor.ListTargets()
	if err != nil {
		s.Logger.Error("list_targets_failed", zap.Error(err))
		http.Error(w, "list error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ts)
}

type addPayload struct {
	Address string `json:"address"`
	Label   string `json:"label"`
}

func (s *Server) handleAddTarget(w http.ResponseWriter, r *http.Request) {
	var p addPayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 8<<10)).Decode(&p); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	t, err := s.Editor.AddTarget(p.Address, p.Label)
	switch {
	case err == nil:
	case errors.Is(err, targets.ErrInvalidTarget):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, targets.ErrDuplicateTarget):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	default:
		s.Logger.Error("add_target_failed", zap.String("address", p.Address), zap.Error(err))
		http.Error(w, "could not add", http.StatusInternalServerError)
		return
	}

	s.Logger.Info("api_added_target", zap.String("address", t.Address))
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleRemoveTarget(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	if raw := chi.URLParam(r, "address"); raw != "" {
		decoded, err := url.PathUnescape(raw)
		if err != nil {
			http.Error(w, "bad address", http.StatusBadRequest)
			return
		}
		address = decoded
	}
	if address == "" {
		http.Error(w, "missing address", http.StatusBadRequest)
		return
	}

	removed, err := s.Editor.RemoveTarget(address)
	if err != nil {
		s.Logger.Error("remove_target_failed", zap.String("address", address), zap.Error(err))
		http.Error(w, "could not remove", http.StatusInternalServerError)
		return
	}
	if !removed {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	s.Monitor.ProbeNow()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
