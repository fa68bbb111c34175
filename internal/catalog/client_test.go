package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const volumeJSON = `{
	"id": "zyTCAlFPjgYC",
	"volumeInfo": {
		"title": "The Google Story",
		"authors": ["David A. Vise", "Mark Malseed"],
		"pageCount": 207,
		"categories": ["Business & Economics / Entrepreneurship"],
		"averageRating": 3.5,
		"ratingsCount": 136,
		"imageLinks": {"thumbnail": "http://books.google.com/books/content?id=zyTCAlFPjgYC&zoom=1"}
	}
}`

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func newTestClient(t *testing.T, handler http.Handler, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts = append([]Option{WithRetry(2, time.Millisecond, 5*time.Millisecond)}, opts...)
	return NewClient(Config{BaseURL: server.URL, Timeout: time.Second, RateLimit: 1000}, opts...)
}

func TestGetVolume_Success(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/volumes/zyTCAlFPjgYC", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(volumeJSON))
	})
	client := newTestClient(t, mux)

	v, err := client.GetVolume(context.Background(), "zyTCAlFPjgYC")
	require.NoError(t, err)

	assert.Equal(t, "zyTCAlFPjgYC", v.ID)
	assert.Equal(t, "The Google Story", v.Title)
	assert.Equal(t, "David A. Vise", v.Author)
	assert.Equal(t, 207, v.PageCount)
	assert.Equal(t, 3.5, v.AverageRating)
	assert.Equal(t, 136, v.RatingsCount)
	assert.Equal(t, []string{"Business & Economics / Entrepreneurship"}, v.Categories)
	assert.Equal(t, "https://books.google.com/books/content?id=zyTCAlFPjgYC&zoom=1", v.Thumbnail)
}

func TestGetVolume_NotFound(t *testing.T) {
	client := newTestClient(t, http.NotFoundHandler())

	_, err := client.GetVolume(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrVolumeNotFound)
}

func TestGetVolume_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(volumeJSON))
	}))

	v, err := client.GetVolume(context.Background(), "zyTCAlFPjgYC")
	require.NoError(t, err)
	assert.Equal(t, "The Google Story", v.Title)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetVolume_GivesUpAfterRetryBudget(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := client.GetVolume(context.Background(), "zyTCAlFPjgYC")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetVolume_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))

	_, err := client.GetVolume(context.Background(), "zyTCAlFPjgYC")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetVolume_UsesCache(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(volumeJSON))
	}), WithCache(newMemoryCache()))

	for i := 0; i < 3; i++ {
		v, err := client.GetVolume(context.Background(), "zyTCAlFPjgYC")
		require.NoError(t, err)
		assert.Equal(t, 207, v.PageCount)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestSearch_SendsPagingParams(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/volumes", r.URL.Path)
		assert.Equal(t, "highly rated fantasy books", r.URL.Query().Get("q"))
		assert.Equal(t, "12", r.URL.Query().Get("startIndex"))
		assert.Equal(t, "6", r.URL.Query().Get("maxResults"))
		_, _ = w.Write([]byte(`{"totalItems": 1, "items": [` + volumeJSON + `]}`))
	}))

	res, err := client.Search(context.Background(), "highly rated fantasy books", 12, 6)
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalItems)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "zyTCAlFPjgYC", res.Items[0].ID)
}

func TestSearch_NoItems(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"kind": "books#volumes", "totalItems": 0}`))
	}))

	res, err := client.Search(context.Background(), "nothing matches this", 0, 20)
	require.NoError(t, err)
	assert.Equal(t, 0, res.TotalItems)
	assert.Empty(t, res.Items)
}

func TestClient_SendsAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret-key", r.URL.Query().Get("key"))
		_, _ = w.Write([]byte(volumeJSON))
	}))
	t.Cleanup(server.Close)

	client := NewClient(Config{BaseURL: server.URL, APIKey: "secret-key"})
	_, err := client.GetVolume(context.Background(), "zyTCAlFPjgYC")
	require.NoError(t, err)
}

func TestClient_HonoursCancellation(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}), WithRetry(5, time.Second, time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := client.GetVolume(ctx, "zyTCAlFPjgYC")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 900*time.Millisecond)
}

func TestBuildSearchParams(t *testing.T) {
	params := BuildSearchParams("dune", -3, 100)
	assert.Equal(t, "dune", params.Get("q"))
	assert.Equal(t, "0", params.Get("startIndex"))
	assert.Equal(t, "40", params.Get("maxResults"))
}
