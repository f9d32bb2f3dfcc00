package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func TestRequestIDMiddleware_GeneratesWhenMissing(t *testing.T) {
	router := gin.New()
	router.Use(RequestIDMiddleware())

	var stored string
	router.GET("/", func(c *gin.Context) {
		stored = c.GetString(RequestIDKey)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	router.ServeHTTP(w, req)

	echoed := w.Header().Get(RequestIDHeader)
	if echoed == "" {
		t.Fatal("response is missing the request ID header")
	}
	if _, err := uuid.Parse(echoed); err != nil {
		t.Errorf("generated ID is not a UUID: %q", echoed)
	}
	if stored != echoed {
		t.Errorf("context ID %q differs from header %q", stored, echoed)
	}
}

func TestRequestIDMiddleware_ReusesInboundID(t *testing.T) {
	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "gateway-abc-123")
	router.ServeHTTP(w, req)

	if got := w.Header().Get(RequestIDHeader); got != "gateway-abc-123" {
		t.Errorf("inbound ID not reused: %q", got)
	}
}
