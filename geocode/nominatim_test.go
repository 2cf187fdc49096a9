package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	client, err := NewClient(Options{BaseURL: serverURL, UserAgent: "catalog-test/1.0", CacheSize: 4})
	require.NoError(t, err)
	return client
}

func TestNewClient_RequiresUserAgent(t *testing.T) {
	_, err := NewClient(Options{BaseURL: "http://nominatim.test"})

	assert.Error(t, err)
}

func TestSearch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Hôtel du Port, Nice, France", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "0", r.URL.Query().Get("addressdetails"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "catalog-test/1.0", r.Header.Get("User-Agent"))

		w.Write([]byte(`[{"lat":"43.6959","lon":"7.2868","display_name":"Hôtel du Port"}]`))
	}))
	defer server.Close()

	coords, err := newTestClient(t, server.URL).Search(context.Background(), "Hôtel du Port, Nice, France")

	require.NoError(t, err)
	assert.InDelta(t, 43.6959, coords.Lat, 1e-9)
	assert.InDelta(t, 7.2868, coords.Lon, 1e-9)
}

func TestSearch_CachesResults(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Query().Get("q") == "nowhere" {
			w.Write([]byte(`[]`))
			return
		}
		w.Write([]byte(`[{"lat":"1.5","lon":"2.5"}]`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := client.Search(ctx, "somewhere")
		require.NoError(t, err)
		_, err = client.Search(ctx, "nowhere")
		assert.ErrorIs(t, err, ErrNotFound)
	}

	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	assert.Equal(t, 2, client.CacheLen())
}

func TestSearch_FailureNotCached(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.Search(context.Background(), "Paris")
	assert.ErrorIs(t, err, ErrAPIFailure)
	_, err = client.Search(context.Background(), "Paris")
	assert.ErrorIs(t, err, ErrAPIFailure)

	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	assert.Equal(t, 0, client.CacheLen())
}

func TestSearch_BadCoordinates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"lat":"north","lon":"2.5"}]`))
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).Search(context.Background(), "Paris")

	assert.ErrorIs(t, err, ErrAPIFailure)
}
