package clinics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"PawTriage/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const overpassBody = `{
  "elements": [
    {"type": "node", "id": 1, "lat": 0.0, "lon": 0.05, "tags": {"amenity": "veterinary", "name": "Far Vets", "addr:housenumber": "12", "addr:street": "Main St", "addr:city": "Springfield", "phone": "+1 555 0100"}},
    {"type": "way", "id": 2, "center": {"lat": 0.0, "lon": 0.01}, "tags": {"amenity": "veterinary"}},
    {"type": "way", "id": 3, "tags": {"amenity": "veterinary", "name": "No Geometry"}},
    {"type": "node", "id": 4, "lat": 0.0, "lon": 0.02, "tags": {"amenity": "veterinary", "name": "Middle Clinic", "addr:postcode": "12345", "addr:city": "Shelbyville"}}
  ]
}`

func newTestFinder(t *testing.T, h http.HandlerFunc) *Finder {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	logger := zerolog.Nop()
	return NewFinder(config.OverpassConfig{URL: srv.URL, CacheSize: 8, CacheTTL: time.Minute}, &logger)
}

func TestFindNearby(t *testing.T) {
	var query string
	f := newTestFinder(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		query = r.PostForm.Get("data")
		_, _ = w.Write([]byte(overpassBody))
	})

	got, err := f.FindNearby(context.Background(), 0, 0, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "way/2", got[0].ID)
	assert.Equal(t, DefaultName, got[0].Name)
	assert.Equal(t, 1.1, got[0].DistanceKm)

	assert.Equal(t, "Middle Clinic", got[1].Name)
	assert.Equal(t, "12345 Shelbyville", got[1].Address)
	assert.Equal(t, 2.2, got[1].DistanceKm)

	assert.Equal(t, "Far Vets", got[2].Name)
	assert.Equal(t, "12 Main St, Springfield", got[2].Address)
	assert.Equal(t, "+1 555 0100", got[2].Phone)
	assert.Equal(t, 5.6, got[2].DistanceKm)

	assert.Contains(t, query, `node["amenity"="veterinary"](around:5000,`)
	assert.Contains(t, query, "out center tags;")
}

func TestFindNearbyCachesResults(t *testing.T) {
	var calls int32
	f := newTestFinder(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(overpassBody))
	})

	_, err := f.FindNearby(context.Background(), 51.5, -0.12, 3000)
	require.NoError(t, err)
	_, err = f.FindNearby(context.Background(), 51.5001, -0.1201, 3000)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	_, err = f.FindNearby(context.Background(), 51.5, -0.12, 4000)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestFindNearbyCapsRadius(t *testing.T) {
	var query string
	f := newTestFinder(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		query = r.PostForm.Get("data")
		_, _ = w.Write([]byte(`{"elements":[]}`))
	})

	got, err := f.FindNearby(context.Background(), 10, 10, 1_000_000)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.True(t, strings.Contains(query, "around:50000,"), query)
}

func TestFindNearbyInvalidLocation(t *testing.T) {
	var calls int32
	f := newTestFinder(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	for _, c := range [][2]float64{{91, 0}, {0, 181}, {-90.5, 10}} {
		_, err := f.FindNearby(context.Background(), c[0], c[1], 1000)
		assert.ErrorIs(t, err, ErrInvalidLocation)
	}
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestFindNearbyUpstreamFailure(t *testing.T) {
	f := newTestFinder(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	_, err := f.FindNearby(context.Background(), 1, 1, 1000)
	assert.ErrorIs(t, err, ErrLocationFailed)

	f = newTestFinder(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	})
	_, err = f.FindNearby(context.Background(), 1, 1, 1000)
	assert.ErrorIs(t, err, ErrLocationFailed)
}

func TestHaversine(t *testing.T) {
	assert.InDelta(t, 111.19, Haversine(0, 0, 0, 1), 0.01)
	assert.InDelta(t, 0, Haversine(48.85, 2.35, 48.85, 2.35), 1e-9)
	// Paris to London
	assert.InDelta(t, 343.5, Haversine(48.8566, 2.3522, 51.5074, -0.1278), 1.0)
}
