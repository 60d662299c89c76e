// Package handler adapts API Gateway proxy events to bot turns for the
// Lambda deployment.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"welcome-bot/internal/domain"
	"welcome-bot/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

// Dispatcher is the turn-handling contract consumed by the handler.
type Dispatcher interface {
	HandleTurn(ctx context.Context, activity domain.Activity, sender usecase.Sender) error
}

// Handler decodes inbound activities and maps dispatch errors onto HTTP
// statuses. It owns no bot logic.
type Handler struct {
	dispatcher Dispatcher
	sender     usecase.Sender
}

// NewHandler validates its collaborators up front.
func NewHandler(d Dispatcher, s usecase.Sender) (*Handler, error) {
	if d == nil {
		return nil, errors.New("handler: dispatcher must not be nil")
	}
	if s == nil {
		return nil, errors.New("handler: sender must not be nil")
	}
	return &Handler{dispatcher: d, sender: s}, nil
}

type turnResponse struct {
	Status         string `json:"status"`
	ConversationID string `json:"conversationId,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handle processes one inbound activity delivered via API Gateway.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := resolveCorrelationID(event.Headers)
	headers := map[string]string{
		"Content-Type":    "application/json",
		correlationHeader: correlationID,
	}

	var activity domain.Activity
	if err := json.Unmarshal([]byte(event.Body), &activity); err != nil {
		return respond(http.StatusBadRequest, errorResponse{Error: string(usecase.ErrorInvalidInput)}, headers), nil
	}
	if strings.TrimSpace(activity.Type) == "" {
		return respond(http.StatusBadRequest, errorResponse{Error: string(usecase.ErrorInvalidInput)}, headers), nil
	}

	if err := h.dispatcher.HandleTurn(ctx, activity, h.sender); err != nil {
		code, status := mapError(err)
		slog.Error("turn failed",
			"correlationId", correlationID,
			"activityType", activity.Type,
			"conversationId", activity.Conversation.ID,
			"code", code,
			"err", err,
		)
		return respond(status, errorResponse{Error: string(code)}, headers), nil
	}

	return respond(http.StatusOK, turnResponse{
		Status:         "processed",
		ConversationID: activity.Conversation.ID,
	}, headers), nil
}

// mapError translates dispatch errors into a stable code plus HTTP status.
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

func respond(status int, body any, headers map[string]string) events.APIGatewayProxyResponse {
	raw, err := json.Marshal(body)
	if err != nil {
		// Marshal of these small structs cannot realistically fail.
		raw = []byte(`{"error":"INTERNAL_ERROR"}`)
		status = http.StatusInternalServerError
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    headers,
		Body:       string(raw),
	}
}

// resolveCorrelationID echoes a caller-supplied correlation id header
// (case-insensitive) or generates one.
func resolveCorrelationID(headers map[string]string) string {
	for k, v := range headers {
		if strings.EqualFold(k, correlationHeader) && v != "" {
			return v
		}
	}
	return uuid.NewString()
}
