package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTP(t *testing.T) {
	t.Run("Should be ready on 2xx", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		defer srv.Close()

		p := &HTTP{URL: srv.URL}
		require.NoError(t, p.Probe(context.Background()))
	})

	t.Run("Should not be ready on 503", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		err := (&HTTP{URL: srv.URL}).Probe(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotReady)
		assert.Contains(t, err.Error(), "503")
	})

	t.Run("Should accept listed status codes only", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		require.NoError(t, (&HTTP{URL: srv.URL, ExpectStatus: []int{401}}).Probe(context.Background()))
		assert.ErrorIs(t, (&HTTP{URL: srv.URL, ExpectStatus: []int{200}}).Probe(context.Background()), ErrNotReady)
	})

	t.Run("Should send method and headers", func(t *testing.T) {
		var gotMethod, gotHeader atomic.Value
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod.Store(r.Method)
			gotHeader.Store(r.Header.Get("X-Probe"))
		}))
		defer srv.Close()

		p := &HTTP{URL: srv.URL, Method: http.MethodHead, Headers: map[string]string{"X-Probe": "recheck"}}
		require.NoError(t, p.Probe(context.Background()))
		assert.Equal(t, http.MethodHead, gotMethod.Load())
		assert.Equal(t, "recheck", gotHeader.Load())
	})

	t.Run("Should wrap transport errors without marking them not ready", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		err := (&HTTP{URL: url}).Probe(context.Background())
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotReady)
	})
}
