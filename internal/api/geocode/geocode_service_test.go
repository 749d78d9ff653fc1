package geocode

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/travelx-planner/internal/types"
)

func setupGeocodeServiceTest(t *testing.T, handler http.HandlerFunc) (*ServiceImpl, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	svc := NewServiceImpl(Options{BaseURL: srv.URL + "/search", Timeout: 500 * time.Millisecond}, logger)
	return svc, &calls
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		svc, calls := setupGeocodeServiceTest(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/search", r.URL.Path)
			assert.Equal(t, "Mumbai", r.URL.Query().Get("q"))
			assert.Equal(t, "json", r.URL.Query().Get("format"))
			assert.Equal(t, "1", r.URL.Query().Get("limit"))
			assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
			_, _ = w.Write([]byte(`[{"lat":"19.0760","lon":"72.8777","display_name":"Mumbai"}]`))
		})

		res := svc.Resolve(ctx, "Mumbai")
		require.True(t, res.Ok())
		assert.Equal(t, types.GeoPoint{Lat: 19.076, Lon: 72.8777}, res.Value)
		assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	})

	t.Run("no matches", func(t *testing.T) {
		svc, _ := setupGeocodeServiceTest(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[]`))
		})

		res := svc.Resolve(ctx, "Atlantis")
		assert.False(t, res.Ok())
		assert.Equal(t, types.AbsenceNoData, res.Reason)
	})

	t.Run("server error", func(t *testing.T) {
		svc, calls := setupGeocodeServiceTest(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		res := svc.Resolve(ctx, "Mumbai")
		assert.Equal(t, types.AbsenceCallFailed, res.Reason)
		assert.Equal(t, int32(1), atomic.LoadInt32(calls), "no retries")
	})

	t.Run("unparseable coordinates", func(t *testing.T) {
		svc, _ := setupGeocodeServiceTest(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[{"lat":"north","lon":"72.8"}]`))
		})

		res := svc.Resolve(ctx, "Mumbai")
		assert.Equal(t, types.AbsenceCallFailed, res.Reason)
	})

	t.Run("malformed body", func(t *testing.T) {
		svc, _ := setupGeocodeServiceTest(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		})

		res := svc.Resolve(ctx, "Mumbai")
		assert.Equal(t, types.AbsenceCallFailed, res.Reason)
	})

	t.Run("timeout", func(t *testing.T) {
		svc, _ := setupGeocodeServiceTest(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(2 * time.Second):
			case <-r.Context().Done():
			}
		})

		res := svc.Resolve(ctx, "Mumbai")
		assert.Equal(t, types.AbsenceCallFailed, res.Reason)
		assert.Error(t, res.Err)
	})
}
