package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"attendance/services/logger"

	"github.com/gin-gonic/gin"
)

type captureSink struct {
	mu     sync.Mutex
	fields []logger.Fields
	levels []string
}

type captureLogger struct {
	sink *captureSink
	base logger.Fields
}

func newCaptureLogger() *captureLogger {
	return &captureLogger{sink: &captureSink{}}
}

func (l *captureLogger) record(level string) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.levels = append(l.sink.levels, level)
	l.sink.fields = append(l.sink.fields, l.base)
}

func (l *captureLogger) Info(string, ...interface{})  { l.record("info") }
func (l *captureLogger) Warn(string, ...interface{})  { l.record("warn") }
func (l *captureLogger) Error(string, ...interface{}) { l.record("error") }
func (l *captureLogger) Debug(string, ...interface{}) { l.record("debug") }

func (l *captureLogger) WithFields(f logger.Fields) logger.Logger {
	return &captureLogger{sink: l.sink, base: f}
}

func newRouter(log logger.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware(), LoggerMiddleware(log))
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextRequestID)) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	return r
}

func TestRequestIDGenerated(t *testing.T) {
	r := newRouter(logger.NewNop())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

	id := w.Header().Get(HeaderRequestID)
	if id == "" {
		t.Fatal("no request id header")
	}
	if w.Body.String() != id {
		t.Errorf("context request id = %q, header %q", w.Body.String(), id)
	}
}

func TestRequestIDPropagated(t *testing.T) {
	r := newRouter(logger.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get(HeaderRequestID); got != "abc-123" {
		t.Errorf("request id = %q, want abc-123", got)
	}
}

func TestLoggerMiddleware(t *testing.T) {
	log := newCaptureLogger()
	r := newRouter(log)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	levels, fields := log.sink.levels, log.sink.fields
	if len(levels) != 2 || levels[0] != "info" || levels[1] != "error" {
		t.Fatalf("levels = %v, want [info error]", levels)
	}
	if fields[0]["path"] != "/ok" || fields[0]["status"] != http.StatusOK {
		t.Errorf("fields = %v", fields[0])
	}
	if fields[0]["request_id"] == "" {
		t.Error("request_id not logged")
	}
}
