package http_wrappers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/bench-hub/bench-hub/pkg/api"
)

// netHTTPRequest adapts *http.Request to the RequestWrapper contract.
type netHTTPRequest struct {
	request *http.Request
}

func NewRequestWrapper(request *http.Request) RequestWrapper {
	return &netHTTPRequest{request: request}
}

func (r *netHTTPRequest) Method() string {
	return r.request.Method
}

func (r *netHTTPRequest) URI() string {
	return r.request.RequestURI
}

func (r *netHTTPRequest) Header(key string) string {
	return r.request.Header.Get(key)
}

func (r *netHTTPRequest) SetHeader(key string, value string) {
	r.request.Header.Set(key, value)
}

func (r *netHTTPRequest) Path() string {
	return r.request.URL.Path
}

func (r *netHTTPRequest) Query(key string) []string {
	return r.request.URL.Query()[key]
}

func (r *netHTTPRequest) BodyAsBytes() ([]byte, error) {
	defer r.request.Body.Close()
	return io.ReadAll(r.request.Body)
}

// PathValue exposes the mux path parameters of the wrapped request.
func (r *netHTTPRequest) PathValue(name string) string {
	return r.request.PathValue(name)
}

// netHTTPResponse adapts http.ResponseWriter to the ResponseWrapper contract.
type netHTTPResponse struct {
	writer http.ResponseWriter
}

func NewResponseWrapper(writer http.ResponseWriter) ResponseWrapper {
	return &netHTTPResponse{writer: writer}
}

// Error writes the standard error payload with the request id so callers
// can correlate the failure with the service logs.
func (r *netHTTPResponse) Error(errorMessage string, code int, requestId string) {
	r.WriteJSON(map[string]any{
		"error":      api.MessageInfo{Message: errorMessage},
		"request_id": requestId,
	}, code)
}

func (r *netHTTPResponse) SetHeader(key string, value string) {
	r.writer.Header().Set(key, value)
}

func (r *netHTTPResponse) DeleteHeader(key string) {
	r.writer.Header().Del(key)
}

func (r *netHTTPResponse) SetStatusCode(code int) {
	r.writer.WriteHeader(code)
}

func (r *netHTTPResponse) Write(buf []byte) (n int, err error) {
	return r.writer.Write(buf)
}

func (r *netHTTPResponse) WriteJSON(v any, code int) {
	r.writer.Header().Set("Content-Type", "application/json")
	r.writer.WriteHeader(code)

	encoded, err := json.Marshal(v)
	if err != nil {
		// The status code is already written; the body is the best we can do.
		_, _ = r.writer.Write([]byte(`{"error":{"message":"failed to encode response"}}`))
		return
	}
	_, _ = r.writer.Write(encoded)
}
