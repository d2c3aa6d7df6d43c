// Package logging provides the structured logger shared by the app's HTTP
// layer, registration flow and installation stores.
package logging

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type contextKey string

const (
	// TraceIDKey carries the per-request trace identifier.
	TraceIDKey contextKey = "trace_id"
	// APIURLKey carries the Saleor API URL a request is acting for.
	APIURLKey contextKey = "saleor_api_url"
)

// Logger is a logrus logger that stamps every entry with the service name.
type Logger struct {
	*logrus.Logger
	service string
}

// New builds a logger. level is any logrus level name (unknown names fall back
// to info); format is "json" or "text".
func New(service, level, format string) *Logger {
	base := logrus.New()
	base.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	base.SetLevel(lvl)

	if strings.EqualFold(strings.TrimSpace(format), "text") {
		base.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	} else {
		base.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	}

	return &Logger{Logger: base, service: service}
}

var (
	defaultOnce   sync.Once
	defaultLogger *Logger
)

// Default returns a process-wide info-level JSON logger.
func Default() *Logger {
	defaultOnce.Do(func() {
		defaultLogger = New("saleor-app", "info", "json")
	})
	return defaultLogger
}

// Service returns the service name attached to every entry.
func (l *Logger) Service() string { return l.service }

func (l *Logger) entry() *logrus.Entry {
	return l.Logger.WithField("service", l.service)
}

// WithContext returns an entry carrying the trace ID and Saleor API URL found
// in ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *logrus.Entry {
	e := l.entry().WithContext(ctx)
	if traceID := GetTraceID(ctx); traceID != "" {
		e = e.WithField(string(TraceIDKey), traceID)
	}
	if apiURL := GetAPIURL(ctx); apiURL != "" {
		e = e.WithField(string(APIURLKey), apiURL)
	}
	return e
}

func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.entry().WithField(key, value)
}

func (l *Logger) WithFields(fields map[string]interface{}) *logrus.Entry {
	return l.entry().WithFields(fields)
}

func (l *Logger) WithError(err error) *logrus.Entry {
	return l.entry().WithError(err)
}

// LogRequest writes one access-log line. Server errors log at error level and
// client errors at warn.
func (l *Logger) LogRequest(ctx context.Context, method, path string, status int, duration time.Duration) {
	e := l.WithContext(ctx).WithFields(logrus.Fields{
		"method":      method,
		"path":        path,
		"status":      status,
		"duration_ms": float64(duration.Microseconds()) / 1000,
	})
	switch {
	case status >= 500:
		e.Error("request completed")
	case status >= 400:
		e.Warn("request completed")
	default:
		e.Info("request completed")
	}
}

// LogSecurityEvent records a rejected or throttled request.
func (l *Logger) LogSecurityEvent(ctx context.Context, event string, fields map[string]interface{}) {
	e := l.WithContext(ctx).WithField("security_event", event)
	if len(fields) > 0 {
		e = e.WithFields(fields)
	}
	e.Warn("security event")
}

// NewTraceID returns a fresh random trace identifier.
func NewTraceID() string {
	return uuid.NewString()
}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

func GetTraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(TraceIDKey).(string)
	return v
}

func WithAPIURL(ctx context.Context, apiURL string) context.Context {
	return context.WithValue(ctx, APIURLKey, apiURL)
}

func GetAPIURL(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(APIURLKey).(string)
	return v
}
