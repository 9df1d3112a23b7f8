package middleware

import (
	"bytes"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func newLoggerTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.Use(Logger())
	r.GET("/documents", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

func TestRequestID_MintsWhenAbsent(t *testing.T) {
	r := newLoggerTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	r.ServeHTTP(w, req)

	got := w.Header().Get("X-Request-ID")
	_, err := uuid.Parse(got)
	assert.NoError(t, err)
}

func TestRequestID_PropagatesCallerHeader(t *testing.T) {
	r := newLoggerTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	req.Header.Set("X-Request-ID", "gateway-7f3a")
	r.ServeHTTP(w, req)

	assert.Equal(t, "gateway-7f3a", w.Header().Get("X-Request-ID"))
}

func TestLogger_WritesAccessLine(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(prev) })

	r := newLoggerTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/documents?status=queued", nil)
	req.Header.Set("X-Request-ID", "req-42")
	r.ServeHTTP(w, req)

	line := buf.String()
	assert.Contains(t, line, "http: [req-42]")
	assert.Contains(t, line, "GET /documents?status=queued")
	assert.Contains(t, line, " 200 ")
	assert.Contains(t, line, "2B")
}
