package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/require"

	"github.com/gmllt/kanvan/board"
)

// fakeTasks serves the /tasks surface from memory. failWith forces every
// request to answer with that status.
type fakeTasks struct {
	mu       sync.Mutex
	cards    []board.Card
	failWith int
	requests int
}

func (f *fakeTasks) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /tasks", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.requests++
		if f.failWith != 0 {
			w.WriteHeader(f.failWith)
			return
		}
		_ = json.NewEncoder(w).Encode(f.cards)
	})
	mux.HandleFunc("POST /tasks", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.requests++
		if f.failWith != 0 {
			w.WriteHeader(f.failWith)
			return
		}
		var c board.Card
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		c.Title = c.Title + " (saved)"
		f.cards = append(f.cards, c)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(c)
	})
	mux.HandleFunc("DELETE /tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.requests++
		if f.failWith != 0 {
			w.WriteHeader(f.failWith)
			return
		}
		id := r.PathValue("id")
		for i, c := range f.cards {
			if c.ID == id {
				f.cards = append(f.cards[:i], f.cards[i+1:]...)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	})
	return mux
}

func (f *fakeTasks) setFail(status int) {
	f.mu.Lock()
	f.failWith = status
	f.mu.Unlock()
}

func (f *fakeTasks) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests
}

func newFakeClient(t *testing.T, f *fakeTasks) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, 5*time.Second,
		WithFetchRetries(2),
		WithFetchBackOff(func() backoff.BackOff { return backoff.NewConstantBackOff(time.Millisecond) }),
	)
	require.NoError(t, err)
	return c
}
