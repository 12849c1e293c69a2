package handlers_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"strings"

	"github.com/bench-hub/bench-hub/internal/executioncontext"
)

type MockRequest struct {
	method  string
	uri     string
	headers map[string]string
	body    []byte
}

func createMockRequest(method string, uri string) *MockRequest {
	return &MockRequest{method: method, uri: uri, headers: map[string]string{}}
}

func (r *MockRequest) Method() string { return r.method }
func (r *MockRequest) URI() string    { return r.uri }

func (r *MockRequest) Header(key string) string {
	return r.headers[key]
}

func (r *MockRequest) SetHeader(key string, value string) {
	r.headers[key] = value
}

func (r *MockRequest) Path() string {
	if idx := strings.Index(r.uri, "?"); idx >= 0 {
		return r.uri[:idx]
	}
	return r.uri
}

func (r *MockRequest) Query(key string) []string {
	return []string{}
}

func (r *MockRequest) BodyAsBytes() ([]byte, error) {
	return r.body, nil
}

type MockResponseWrapper struct {
	recorder *httptest.ResponseRecorder
}

func (w MockResponseWrapper) Error(errorMessage string, code int, requestId string) {
	w.recorder.WriteHeader(code)
	payload := map[string]any{"error": errorMessage, "request_id": requestId}
	data, _ := json.Marshal(payload)
	_, _ = w.recorder.Write(data)
}

func (w MockResponseWrapper) SetHeader(key string, value string) {
	w.recorder.Header().Set(key, value)
}

func (w MockResponseWrapper) DeleteHeader(key string) {
	w.recorder.Header().Del(key)
}

func (w MockResponseWrapper) SetStatusCode(code int) {
	w.recorder.WriteHeader(code)
}

func (w MockResponseWrapper) Write(buf []byte) (n int, err error) {
	return w.recorder.Write(buf)
}

func (w MockResponseWrapper) WriteJSON(v any, code int) {
	w.recorder.Header().Set("Content-Type", "application/json")
	w.recorder.WriteHeader(code)
	data, _ := json.Marshal(v)
	_, _ = w.recorder.Write(data)
}

func createExecutionContext() *executioncontext.ExecutionContext {
	return executioncontext.NewExecutionContext(context.Background(), "test-request", slog.Default())
}
