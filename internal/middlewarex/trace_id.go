// Package middlewarex holds HTTP middleware shared by the server.
package middlewarex

import (
	"context"
	"net/http"

	"github.com/rs/xid"
)

const HeaderTraceID = "X-Trace-Id"

type traceIDKey struct{}

// TraceID propagates the caller's X-Trace-Id, or mints one, and echoes it
// on the response.
func TraceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(HeaderTraceID)
		if traceID == "" {
			traceID = xid.New().String()
		}

		ctx := context.WithValue(r.Context(), traceIDKey{}, traceID)
		w.Header().Set(HeaderTraceID, traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TraceIDFrom returns the trace ID set by TraceID, or "".
func TraceIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey{}).(string)
	return id
}
