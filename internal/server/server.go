// Package server exposes the training service over HTTP: session lifecycle
// for clients, scenario and override administration, health, and metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/callgym/callgym-core/core/realtime"
	"github.com/callgym/callgym-core/core/scenario"
	"github.com/callgym/callgym-core/core/transcript"
	"github.com/callgym/callgym-core/internal/metrics"
	"github.com/callgym/callgym-core/store"
	"github.com/callgym/callgym-core/training"
)

// userHeader carries the caller identity. Authentication proper sits in front
// of this service; the header is trusted as-is.
const userHeader = "X-User-ID"

// SecretMinter issues short-lived realtime credentials so clients can open
// the voice channel directly instead of relaying audio through this server.
type SecretMinter interface {
	MintClientSecret(ctx context.Context, opts ...realtime.SessionOption) (ClientSecret, error)
}

// ClientSecret is a short-lived realtime credential as returned to clients.
type ClientSecret struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Server struct {
	svc    *training.Service
	store  store.Store
	minter SecretMinter

	vad          realtime.VADConfig
	defaultVoice string
}

type Option func(*Server)

// WithVAD overrides the turn detection tuning minted into client secrets.
func WithVAD(vad realtime.VADConfig) Option {
	return func(s *Server) {
		s.vad = vad
	}
}

// WithDefaultVoice sets the voice used when a scenario does not name one.
func WithDefaultVoice(voice string) Option {
	return func(s *Server) {
		if voice != "" {
			s.defaultVoice = voice
		}
	}
}

func New(svc *training.Service, st store.Store, minter SecretMinter, opts ...Option) *Server {
	s := &Server{
		svc:          svc,
		store:        st,
		minter:       minter,
		vad:          realtime.DefaultVADConfig(),
		defaultVoice: realtime.DefaultVoice,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register mounts every route on the mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	mux.HandleFunc("POST /v1/sessions", s.handleStartSession)
	mux.HandleFunc("POST /v1/sessions/{id}/end", s.handleEndSession)
	mux.HandleFunc("GET /v1/sessions/{id}/report", s.handleGetReport)

	mux.HandleFunc("GET /v1/scenarios", s.handleListScenarios)
	mux.HandleFunc("PUT /v1/scenarios", s.handleUpsertScenario)
	mux.HandleFunc("GET /v1/overrides", s.handleGetOverrides)
	mux.HandleFunc("PUT /v1/overrides", s.handleSetOverrides)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type startSessionRequest struct {
	ScenarioID string `json:"scenario_id"`
}

type startSessionResponse struct {
	SessionID    string        `json:"session_id"`
	ScenarioID   string        `json:"scenario_id"`
	Instructions string        `json:"instructions"`
	Voice        string        `json:"voice"`
	ClientSecret *ClientSecret `json:"client_secret,omitempty"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userHeader)
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing "+userHeader+" header")
		return
	}

	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	setup, err := s.svc.StartSession(r.Context(), userID, req.ScenarioID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	voice := setup.Voice
	if voice == "" {
		voice = s.defaultVoice
	}

	resp := startSessionResponse{
		SessionID:    setup.Session.ID,
		ScenarioID:   setup.Scenario.ID,
		Instructions: setup.Instructions,
		Voice:        voice,
	}

	if s.minter != nil {
		secret, err := s.minter.MintClientSecret(r.Context(),
			realtime.WithInstructions(setup.Instructions),
			realtime.WithVoice(voice),
			realtime.WithVAD(s.vad),
		)
		if err != nil {
			writeError(w, http.StatusBadGateway, "failed to mint realtime credential")
			return
		}
		resp.ClientSecret = &secret
	}

	writeJSON(w, http.StatusCreated, resp)
}

type endSessionRequest struct {
	Turns []transcript.Turn `json:"turns"`
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userHeader)
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing "+userHeader+" header")
		return
	}

	var req endSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	report, err := s.svc.EndSession(r.Context(), userID, r.PathValue("id"), req.Turns)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userHeader)
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing "+userHeader+" header")
		return
	}

	report, err := s.svc.Report(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	scenarios, err := s.svc.ListScenarios(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if scenarios == nil {
		scenarios = []scenario.Scenario{}
	}
	writeJSON(w, http.StatusOK, scenarios)
}

func (s *Server) handleUpsertScenario(w http.ResponseWriter, r *http.Request) {
	var record scenario.Scenario
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.store.UpsertScenario(r.Context(), record); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetOverrides(w http.ResponseWriter, r *http.Request) {
	overrides, err := s.store.GetGlobalOverrides(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overrides)
}

func (s *Server) handleSetOverrides(w http.ResponseWriter, r *http.Request) {
	var overrides scenario.GlobalOverrides
	if err := json.NewDecoder(r.Body).Decode(&overrides); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.store.SetGlobalOverrides(r.Context(), overrides); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, training.ErrNotOwner):
		writeError(w, http.StatusForbidden, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
