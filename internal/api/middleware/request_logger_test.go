package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestRequestLogger_LevelFollowsStatus(t *testing.T) {
	cases := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "info"},
		{http.StatusNotFound, "warn"},
		{http.StatusInternalServerError, "error"},
	}

	for _, tc := range cases {
		var buf bytes.Buffer
		e := echo.New()
		e.Use(RequestLogger(zerolog.New(&buf)))
		e.GET("/tasks", func(c echo.Context) error {
			return c.NoContent(tc.status)
		})

		req := httptest.NewRequest(http.MethodGet, "/tasks?uid=u1", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("status %d: expected a JSON log line, got %q", tc.status, buf.String())
		}
		if entry["level"] != tc.level {
			t.Errorf("status %d: expected level %s, got %v", tc.status, tc.level, entry["level"])
		}
		if entry["path"] != "/tasks" || entry["status"] != float64(tc.status) {
			t.Errorf("unexpected entry: %v", entry)
		}
	}
}

func TestRequestLogger_SkipsProbes(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(RequestLogger(zerolog.New(&buf)))
	e.GET("/health", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	if buf.Len() != 0 {
		t.Errorf("probe requests must not be logged, got %q", buf.String())
	}
}
