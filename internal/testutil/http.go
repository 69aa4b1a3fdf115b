package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// HTTPTestHelper provides utilities for HTTP testing
type HTTPTestHelper struct {
	t      *testing.T
	router *gin.Engine
}

// NewHTTPTestHelper creates a new HTTP test helper
func NewHTTPTestHelper(t *testing.T) *HTTPTestHelper {
	gin.SetMode(gin.TestMode)
	return &HTTPTestHelper{
		t:      t,
		router: gin.New(),
	}
}

// SetRouter sets the gin router to use for testing
func (h *HTTPTestHelper) SetRouter(router *gin.Engine) {
	h.router = router
}

// PostJSON performs a POST request with JSON payload
func (h *HTTPTestHelper) PostJSON(url string, payload interface{}) *httptest.ResponseRecorder {
	body, err := json.Marshal(payload)
	require.NoError(h.t, err, "Failed to marshal JSON payload")

	req, err := http.NewRequest("POST", url, bytes.NewBuffer(body))
	require.NoError(h.t, err, "Failed to create HTTP request")

	req.Header.Set("Content-Type", "application/json")

	recorder := httptest.NewRecorder()
	h.router.ServeHTTP(recorder, req)

	return recorder
}

// GetJSON performs a GET request expecting JSON response
func (h *HTTPTestHelper) GetJSON(url string) *httptest.ResponseRecorder {
	req, err := http.NewRequest("GET", url, nil)
	require.NoError(h.t, err, "Failed to create HTTP request")

	req.Header.Set("Accept", "application/json")

	recorder := httptest.NewRecorder()
	h.router.ServeHTTP(recorder, req)

	return recorder
}

// PostJSONWithHeaders performs a POST request with JSON payload and extra headers
func (h *HTTPTestHelper) PostJSONWithHeaders(url string, payload interface{}, headers map[string]string) *httptest.ResponseRecorder {
	body, err := json.Marshal(payload)
	require.NoError(h.t, err, "Failed to marshal JSON payload")

	req, err := http.NewRequest("POST", url, bytes.NewBuffer(body))
	require.NoError(h.t, err, "Failed to create HTTP request")

	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	recorder := httptest.NewRecorder()
	h.router.ServeHTTP(recorder, req)

	return recorder
}

// PostRaw performs a POST request with an arbitrary body
func (h *HTTPTestHelper) PostRaw(url, contentType, body string) *httptest.ResponseRecorder {
	req, err := http.NewRequest("POST", url, bytes.NewBufferString(body))
	require.NoError(h.t, err, "Failed to create HTTP request")

	req.Header.Set("Content-Type", contentType)

	recorder := httptest.NewRecorder()
	h.router.ServeHTTP(recorder, req)

	return recorder
}

// GetWithHeaders performs a GET request with custom headers
func (h *HTTPTestHelper) GetWithHeaders(url string, headers map[string]string) *httptest.ResponseRecorder {
	req, err := http.NewRequest("GET", url, nil)
	require.NoError(h.t, err, "Failed to create HTTP request")

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	recorder := httptest.NewRecorder()
	h.router.ServeHTTP(recorder, req)

	return recorder
}

// AssertJSONResponse asserts that the response is valid JSON and unmarshals it
func (h *HTTPTestHelper) AssertJSONResponse(recorder *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	require.Equal(h.t, expectedStatus, recorder.Code, "Unexpected status code")
	require.Equal(h.t, "application/json; charset=utf-8", recorder.Header().Get("Content-Type"), "Expected JSON content type")

	err := json.Unmarshal(recorder.Body.Bytes(), target)
	require.NoError(h.t, err, "Failed to unmarshal JSON response")
}

// AssertTextResponse asserts status and content type prefix, returning the body
func (h *HTTPTestHelper) AssertTextResponse(recorder *httptest.ResponseRecorder, expectedStatus int, contentType string) string {
	require.Equal(h.t, expectedStatus, recorder.Code, "Unexpected status code")
	require.Contains(h.t, recorder.Header().Get("Content-Type"), contentType, "Unexpected content type")

	return recorder.Body.String()
}

// AssertErrorResponse asserts that the response contains an error
func (h *HTTPTestHelper) AssertErrorResponse(recorder *httptest.ResponseRecorder, expectedStatus int, expectedErrorSubstring string) {
	require.Equal(h.t, expectedStatus, recorder.Code, "Unexpected status code")

	var errorResponse map[string]interface{}
	err := json.Unmarshal(recorder.Body.Bytes(), &errorResponse)
	require.NoError(h.t, err, "Failed to unmarshal error response")

	errorMessage, exists := errorResponse["error"]
	require.True(h.t, exists, "Expected error field in response")
	require.Contains(h.t, errorMessage, expectedErrorSubstring, "Error message should contain expected substring")
}

// MockHTTPServer provides a mock HTTP server standing in for the target site
type MockHTTPServer struct {
	server   *httptest.Server
	handlers map[string]http.HandlerFunc
}

// NewMockHTTPServer creates a new mock HTTP server
func NewMockHTTPServer() *MockHTTPServer {
	mock := &MockHTTPServer{
		handlers: make(map[string]http.HandlerFunc),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", mock.routeRequest)

	mock.server = httptest.NewServer(mux)
	return mock
}

// URL returns the mock server URL
func (m *MockHTTPServer) URL() string {
	return m.server.URL
}

// Close closes the mock server
func (m *MockHTTPServer) Close() {
	m.server.Close()
}

// On registers a handler for a specific path
func (m *MockHTTPServer) On(path string, handler http.HandlerFunc) {
	m.handlers[path] = handler
}

// routeRequest routes requests to registered handlers
func (m *MockHTTPServer) routeRequest(w http.ResponseWriter, r *http.Request) {
	if handler, exists := m.handlers[r.URL.Path]; exists {
		handler(w, r)
		return
	}

	// Default handler returns 404
	http.NotFound(w, r)
}

// ServeHTML registers a handler that returns body as an HTML page
func (m *MockHTTPServer) ServeHTML(path, body string) {
	m.On(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body))
	})
}
