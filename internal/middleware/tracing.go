package middleware

import (
	"net/http"
	"time"

	"github.com/logistiker/saleor-app/internal/logging"
)

// TraceHeader carries the request trace ID in both directions.
const TraceHeader = "X-Trace-ID"

// TracingMiddleware adds a trace ID to every request and writes one access
// log line when it completes.
type TracingMiddleware struct {
	logger *logging.Logger
}

func NewTracingMiddleware(logger *logging.Logger) *TracingMiddleware {
	return &TracingMiddleware{
		logger: logger,
	}
}

func (m *TracingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(TraceHeader)
		if traceID == "" || len(traceID) > 128 {
			traceID = logging.NewTraceID()
		}

		ctx := logging.WithTraceID(r.Context(), traceID)
		w.Header().Set(TraceHeader, traceID)

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		start := time.Now()
		next.ServeHTTP(rw, r.WithContext(ctx))

		m.logger.LogRequest(ctx, r.Method, r.URL.Path, rw.statusCode, time.Since(start))
	})
}
