// Package http exposes the control API used by a presentation layer.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"tone-monitor-service/internal/observability/logging"
	"tone-monitor-service/internal/service/monitor"
)

// Monitor is the part of the tone monitor the API drives.
type Monitor interface {
	State() monitor.State
	Toggle(ctx context.Context) (monitor.State, error)
	Subscribe() (<-chan monitor.State, func())
	Flagged() []monitor.FlaggedTranscript
	ClearFlagged() int
	Alive() bool
}

// Prompts is the preference store for the classifier question.
type Prompts interface {
	Prompt() string
	Custom() (string, bool)
	SetPrompt(prompt string) error
	ResetPrompt() error
}

// PromptResponse is the body of the prompt endpoints.
type PromptResponse struct {
	Prompt string `json:"prompt"`
	Custom bool   `json:"custom"`
}

// PromptRequest is the body of PUT /v1/preferences/prompt.
type PromptRequest struct {
	Prompt string `json:"prompt"`
}

type flaggedResponse struct {
	Items []monitor.FlaggedTranscript `json:"items"`
}

type clearedResponse struct {
	Cleared int `json:"cleared"`
}

type errorResponse struct {
	Error string `json:"error"`
}

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Local control API
	},
}

type handlers struct {
	monitor Monitor
	prompts Prompts
	logger  zerolog.Logger
}

// NewRouter constructs the HTTP router for the service.
func NewRouter(m Monitor, p Prompts) http.Handler {
	h := &handlers{
		monitor: m,
		prompts: p,
		logger:  logging.WithComponent("http"),
	}

	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Health endpoints
	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		if !m.Alive() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("monitor not running"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	// API routes
	r.Route("/v1", func(r chi.Router) {
		r.Route("/monitor", func(r chi.Router) {
			r.Get("/", h.getState)
			r.Post("/toggle", h.toggle)
			r.Get("/stream", h.stream)
		})
		r.Route("/preferences/prompt", func(r chi.Router) {
			r.Get("/", h.getPrompt)
			r.Put("/", h.putPrompt)
			r.Delete("/", h.resetPrompt)
		})
		r.Route("/transcripts/flagged", func(r chi.Router) {
			r.Get("/", h.listFlagged)
			r.Delete("/", h.clearFlagged)
		})
	})

	return r
}

func (h *handlers) getState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.monitor.State())
}

func (h *handlers) toggle(w http.ResponseWriter, r *http.Request) {
	st, err := h.monitor.Toggle(r.Context())
	if err != nil {
		status := http.StatusServiceUnavailable
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		h.logger.Warn().Err(err).Msg("Toggle failed")
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// stream pushes every state change to a WebSocket client.
func (h *handlers) stream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	states, unsubscribe := h.monitor.Subscribe()
	defer unsubscribe()

	// Reader detects client disconnects.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	h.logger.Debug().Str("remote", r.RemoteAddr).Msg("State stream opened")
	for {
		select {
		case <-closed:
			h.logger.Debug().Str("remote", r.RemoteAddr).Msg("State stream closed")
			return
		case <-r.Context().Done():
			return
		case st := <-states:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(st); err != nil {
				h.logger.Debug().Err(err).Msg("State stream write failed")
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (h *handlers) promptResponse() PromptResponse {
	_, custom := h.prompts.Custom()
	return PromptResponse{Prompt: h.prompts.Prompt(), Custom: custom}
}

func (h *handlers) getPrompt(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.promptResponse())
}

func (h *handlers) putPrompt(w http.ResponseWriter, r *http.Request) {
	var req PromptRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if err := h.prompts.SetPrompt(req.Prompt); err != nil {
		h.logger.Error().Err(err).Msg("Failed to save prompt")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, h.promptResponse())
}

func (h *handlers) resetPrompt(w http.ResponseWriter, _ *http.Request) {
	if err := h.prompts.ResetPrompt(); err != nil {
		h.logger.Error().Err(err).Msg("Failed to reset prompt")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, h.promptResponse())
}

func (h *handlers) listFlagged(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, flaggedResponse{Items: h.monitor.Flagged()})
}

func (h *handlers) clearFlagged(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, clearedResponse{Cleared: h.monitor.ClearFlagged()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
