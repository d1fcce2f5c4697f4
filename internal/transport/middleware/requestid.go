package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/frahmantamala/rti-filing/pkg/logger"
)

const TraceIDHeader = "X-Trace-ID"

// RequestID attaches a trace id to the request logger and echoes it back.
// A client supplied X-Trace-ID is kept so support tickets can be correlated.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(TraceIDHeader)
		if traceID == "" || len(traceID) > 64 {
			traceID = uuid.NewString()
		}

		ctx := logger.WithTraceID(r.Context(), traceID)
		w.Header().Set(TraceIDHeader, traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
