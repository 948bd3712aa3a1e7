package middlewarex_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/xid"
	"github.com/stretchr/testify/require"

	"github.com/vouchify/deals-engine/internal/middlewarex"
)

func TestTraceID(t *testing.T) {
	rq := require.New(t)

	var seen string
	h := middlewarex.TraceID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = middlewarex.TraceIDFrom(r.Context())
	}))

	t.Run("Propagates incoming header", func(*testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/deals", nil)
		req.Header.Set(middlewarex.HeaderTraceID, "abc123")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		rq.Equal("abc123", seen)
		rq.Equal("abc123", w.Header().Get(middlewarex.HeaderTraceID))
	})

	t.Run("Mints one when absent", func(*testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/deals", nil))

		rq.NotEmpty(seen)
		rq.Equal(seen, w.Header().Get(middlewarex.HeaderTraceID))
		_, err := xid.FromString(seen)
		rq.NoError(err)
	})
}

func TestTraceIDFromEmptyContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Empty(t, middlewarex.TraceIDFrom(req.Context()))
}
