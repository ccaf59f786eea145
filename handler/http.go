package handler

import (
	"io"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"suggest-combiner/internal/usecase"
)

const maxBodyBytes = 1 << 20

// ServeHTTP adapts a plain HTTP request into the proxy event served by
// Handle, so the local server and Lambda share one code path.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := h.serve(r)
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.WriteString(w, resp.Body)
}

func (h *Handler) serve(r *http.Request) events.APIGatewayProxyResponse {
	headers := make(map[string]string, len(r.Header))
	for k := range r.Header {
		headers[k] = r.Header.Get(k)
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return h.errorResponse(correlationID(headers), usecase.Internal("read_body", err))
	}
	if len(body) > maxBodyBytes {
		return h.errorResponse(correlationID(headers), usecase.InvalidInput("body_too_large"))
	}

	resp, _ := h.Handle(r.Context(), events.APIGatewayProxyRequest{
		HTTPMethod: r.Method,
		Path:       r.URL.Path,
		Headers:    headers,
		Body:       string(body),
	})
	return resp
}
