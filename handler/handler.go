package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"suggest-combiner/internal/domain"
	"suggest-combiner/internal/observe"
	"suggest-combiner/internal/usecase"
)

const (
	pathCombine = "/chat/suggests/combine"
	pathHealth  = "/health"

	headerCorrelationID = "X-Correlation-Id"
	codeNotFound        = "NOT_FOUND"
)

type CombineUseCase interface {
	Combine(ctx context.Context, in domain.CombineInput) (domain.CombinationResult, error)
}

type HealthUseCase interface {
	Check(ctx context.Context) domain.HealthStatus
}

type combineResponse struct {
	CombinedMessage string `json:"combined_message"`
	OriginalCount   int    `json:"original_count"`
	UsedLLM         bool   `json:"used_llm"`
}

type environmentInfo struct {
	APIKeySet bool   `json:"api_key_set"`
	BaseURL   string `json:"base_url"`
	ModelName string `json:"model_name"`
}

type healthResponse struct {
	Status          string          `json:"status"`
	LLMAvailable    bool            `json:"llm_available"`
	EnvironmentInfo environmentInfo `json:"environment_info"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Handler serves the combine and health operations as API Gateway proxy
// events. It never returns a Go error: every outcome is an HTTP response.
type Handler struct {
	combiner    CombineUseCase
	health      HealthUseCase
	allowOrigin string
}

type Option func(*Handler)

// WithAllowedOrigin sets Access-Control-Allow-Origin. Empty keeps "*".
func WithAllowedOrigin(origin string) Option {
	return func(h *Handler) {
		if origin = strings.TrimSpace(origin); origin != "" {
			h.allowOrigin = origin
		}
	}
}

func NewHandler(combiner CombineUseCase, health HealthUseCase, opts ...Option) (*Handler, error) {
	if combiner == nil {
		return nil, errors.New("handler: combine use case must not be nil")
	}
	if health == nil {
		return nil, errors.New("handler: health use case must not be nil")
	}
	h := &Handler{combiner: combiner, health: health, allowOrigin: "*"}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (resp events.APIGatewayProxyResponse, err error) {
	cid := correlationID(req.Headers)
	ctx = observe.WithCorrelationID(ctx, cid)
	logger := observe.Logger(ctx)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "panic while handling request", "panic", r)
			resp = h.errorResponse(cid, usecase.Internal("panic", fmt.Errorf("%v", r)))
			err = nil
		}
		logger.InfoContext(ctx, "request completed",
			"method", req.HTTPMethod,
			"path", req.Path,
			"status", resp.StatusCode,
			"duration", time.Since(start),
		)
	}()

	path := strings.TrimRight(req.Path, "/")
	switch {
	case req.HTTPMethod == http.MethodOptions:
		return h.respond(cid, http.StatusNoContent, nil), nil
	case path == pathCombine && req.HTTPMethod == http.MethodPost:
		return h.combine(ctx, cid, req), nil
	case path == pathHealth && req.HTTPMethod == http.MethodGet:
		return h.checkHealth(ctx, cid), nil
	}
	return h.respond(cid, http.StatusNotFound, errorResponse{
		Error:   codeNotFound,
		Message: fmt.Sprintf("no route for %s %s", req.HTTPMethod, req.Path),
	}), nil
}

func (h *Handler) combine(ctx context.Context, cid string, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	body, err := requestBody(req)
	if err != nil {
		return h.errorResponse(cid, usecase.Internal("malformed_body", err))
	}
	in, err := decodeCombineInput(body)
	if err != nil {
		return h.errorResponse(cid, err)
	}

	out, err := h.combiner.Combine(ctx, in)
	if err != nil {
		observe.Logger(ctx).WarnContext(ctx, "combine rejected", "err", err)
		return h.errorResponse(cid, err)
	}
	return h.respond(cid, http.StatusOK, combineResponse{
		CombinedMessage: out.CombinedMessage,
		OriginalCount:   out.OriginalCount,
		UsedLLM:         out.UsedLLM,
	})
}

func (h *Handler) checkHealth(ctx context.Context, cid string) events.APIGatewayProxyResponse {
	status := h.health.Check(ctx)
	return h.respond(cid, http.StatusOK, healthResponse{
		Status:       status.Status,
		LLMAvailable: status.LLMAvailable,
		EnvironmentInfo: environmentInfo{
			APIKeySet: status.Config.APIKeySet,
			BaseURL:   status.Config.BaseURL,
			ModelName: status.Config.Model,
		},
	})
}

func requestBody(req events.APIGatewayProxyRequest) (string, error) {
	if !req.IsBase64Encoded {
		return req.Body, nil
	}
	raw, err := base64.StdEncoding.DecodeString(req.Body)
	if err != nil {
		return "", fmt.Errorf("decode base64 body: %w", err)
	}
	return string(raw), nil
}

// decodeCombineInput extracts the messages field. An absent or null field
// yields a nil slice so the service reports it as missing; a present array
// always yields a non-nil slice.
func decodeCombineInput(body string) (domain.CombineInput, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return domain.CombineInput{}, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			// valid JSON that is not an object has no messages field
			return domain.CombineInput{}, nil
		}
		return domain.CombineInput{}, usecase.Internal("malformed_body", err)
	}

	field, ok := fields["messages"]
	if !ok || string(field) == "null" {
		return domain.CombineInput{}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(field, &items); err != nil {
		return domain.CombineInput{}, usecase.InvalidInput("messages_not_array")
	}
	msgs := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err != nil || string(item) == "null" {
			return domain.CombineInput{}, usecase.InvalidInput("messages_not_strings")
		}
		msgs = append(msgs, s)
	}
	return domain.CombineInput{Messages: msgs}, nil
}

func (h *Handler) errorResponse(cid string, err error) events.APIGatewayProxyResponse {
	status, body := mapError(err)
	return h.respond(cid, status, body)
}

func mapError(err error) (int, errorResponse) {
	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		return http.StatusInternalServerError, errorResponse{
			Error:   string(usecase.ErrorInternal),
			Message: "internal server error: " + err.Error(),
		}
	}
	switch ucErr.Code {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest, errorResponse{Error: string(ucErr.Code), Message: invalidInputMessage(ucErr.Reason)}
	default:
		msg := "internal server error"
		if ucErr.Err != nil {
			msg += ": " + ucErr.Err.Error()
		}
		return http.StatusInternalServerError, errorResponse{Error: string(usecase.ErrorInternal), Message: msg}
	}
}

func invalidInputMessage(reason string) string {
	switch reason {
	case "missing_messages":
		return "field 'messages' is required"
	case "empty_messages", "messages_not_array":
		return "field 'messages' must be a non-empty array"
	case "messages_not_strings":
		return "field 'messages' must contain only strings"
	}
	return "invalid request: " + reason
}

func (h *Handler) respond(cid string, status int, body any) events.APIGatewayProxyResponse {
	resp := events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":                 "application/json",
			headerCorrelationID:            cid,
			"Access-Control-Allow-Origin":  h.allowOrigin,
			"Access-Control-Allow-Methods": "GET, POST, OPTIONS",
			"Access-Control-Allow-Headers": "Content-Type, " + headerCorrelationID,
		},
	}
	if body == nil {
		return resp
	}
	raw, err := json.Marshal(body)
	if err != nil {
		resp.StatusCode = http.StatusInternalServerError
		raw = []byte(`{"error":"INTERNAL_ERROR","message":"internal server error: encode response"}`)
	}
	resp.Body = string(raw)
	return resp
}

func correlationID(headers map[string]string) string {
	for k, v := range headers {
		if strings.EqualFold(k, headerCorrelationID) && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return newUUID()
}

var newUUID = func() string {
	return uuid.NewString()
}
