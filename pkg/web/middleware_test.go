package web

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_RequestIDInjector(t *testing.T) {
	testCases := []struct {
		name     string
		incoming string
	}{
		{name: "uses the id set by chi", incoming: "abc-123"},
		{name: "generates an id when missing"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			var seen string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				id, ok := GetRequestID(r.Context())
				require.True(t, ok)
				seen = id
			})
			var handler http.Handler = RequestIDInjector(next)
			if tc.incoming != "" {
				handler = middleware.RequestID(handler)
			}
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.incoming != "" {
				req.Header.Set(middleware.RequestIDHeader, tc.incoming)
			}
			rr := httptest.NewRecorder()
			// when
			handler.ServeHTTP(rr, req)
			// then
			assert.NotEmpty(t, seen)
			assert.Equal(t, seen, rr.Header().Get(RequestIDHeader))
			if tc.incoming != "" {
				assert.Equal(t, tc.incoming, seen)
			}
		})
	}
}

func Test_Recoverer(t *testing.T) {
	// given
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	handler := Recoverer(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	// when
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	// then
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, rr.Body.String())
	assert.Contains(t, logs.String(), "Panic recovered")
}

func Test_StructuredLogger(t *testing.T) {
	// given
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	handler := StructuredLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	// when
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPatch, "/products/1", nil))
	// then
	var record map[string]any
	require.NoError(t, json.Unmarshal(logs.Bytes(), &record))
	assert.Equal(t, "Request completed", record["msg"])
	assert.Equal(t, http.MethodPatch, record["method"])
	assert.Equal(t, "/products/1", record["path"])
	assert.EqualValues(t, http.StatusTeapot, record["status"])
}

func Test_RouteNotFound(t *testing.T) {
	rr := httptest.NewRecorder()
	RouteNotFound(slog.Default())(rr, httptest.NewRequest(http.MethodPut, "/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"Route not found"}`, rr.Body.String())
}
