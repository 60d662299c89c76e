// Package httpapi exposes the bot over plain HTTP for local and
// self-hosted use, e.g. against a channel emulator.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"welcome-bot/internal/domain"
	"welcome-bot/internal/usecase"
)

// Dispatcher is the turn-handling contract consumed by the HTTP surface.
type Dispatcher interface {
	HandleTurn(ctx context.Context, activity domain.Activity, sender usecase.Sender) error
}

// Handler serves the activities endpoint.
type Handler struct {
	dispatcher Dispatcher
	sender     usecase.Sender
}

// New creates the activities handler.
func New(d Dispatcher, s usecase.Sender) *Handler {
	return &Handler{dispatcher: d, sender: s}
}

// RegisterRoutes registers the activity delivery endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/messages", h.handleActivity)
}

// NewRouter wires middleware and routes for the local server.
func NewRouter(d Dispatcher, s usecase.Sender) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	h := New(d, s)
	r.Route("/api", func(api chi.Router) {
		h.RegisterRoutes(api)
	})

	return r
}

func (h *Handler) handleActivity(w http.ResponseWriter, r *http.Request) {
	var activity domain.Activity
	if err := json.NewDecoder(r.Body).Decode(&activity); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(activity.Type) == "" {
		respondError(w, http.StatusBadRequest, "activity type is required")
		return
	}

	if err := h.dispatcher.HandleTurn(r.Context(), activity, h.sender); err != nil {
		code, status := mapError(err)
		slog.Error("turn failed",
			"activityType", activity.Type,
			"conversationId", activity.Conversation.ID,
			"code", code,
			"err", err,
		)
		// The full error is logged above; the client gets the stable code only.
		respondError(w, status, string(code))
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status":         "processed",
		"conversationId": activity.Conversation.ID,
	})
}

func mapError(err error) (usecase.ErrorCode, int) {
	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		return usecase.ErrorInternal, http.StatusInternalServerError
	}
	switch ucErr.Code {
	case usecase.ErrorInvalidInput:
		return ucErr.Code, http.StatusBadRequest
	case usecase.ErrorSend:
		return ucErr.Code, http.StatusBadGateway
	case usecase.ErrorState, usecase.ErrorConfig:
		return ucErr.Code, http.StatusInternalServerError
	default:
		return usecase.ErrorInternal, http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "err", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
