package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"backoffice_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func newEngine(seen *string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) {
		*seen = c.GetString(utils.RequestIDKey)
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestRequestIDGenerated(t *testing.T) {
	var seen string
	r := newEngine(&seen)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	got := rec.Header().Get(RequestIDHeader)
	if got == "" || got != seen {
		t.Fatalf("header %q, context %q", got, seen)
	}
	if _, err := uuid.Parse(got); err != nil {
		t.Fatalf("generated id is not a uuid: %v", err)
	}
}

func TestRequestIDPropagated(t *testing.T) {
	var seen string
	r := newEngine(&seen)
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if seen != "abc-123" || rec.Header().Get(RequestIDHeader) != "abc-123" {
		t.Fatalf("request id not propagated: %q / %q", seen, rec.Header().Get(RequestIDHeader))
	}
}
