package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"roster-sync/core/reconcile"
	"roster-sync/feature/players/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func intp(i int) *int { return &i }

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, srv.Client(), zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestNewClient_RejectsBadURL(t *testing.T) {
	_, err := NewClient("ftp://example.com", nil, nil)
	assert.Error(t, err)

	_, err = NewClient("://", nil, nil)
	assert.Error(t, err)
}

func TestListPlayers(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/players", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1,"name":"Ann","age":30},{"id":2,"name":"Bob","age":null}]`))
	})

	players, err := c.ListPlayers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Player{
		{ID: 1, Name: "Ann", Age: intp(30)},
		{ID: 2, Name: "Bob"},
	}, players)
}

func TestListPlayers_EmptyIsNotNil(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	})

	players, err := c.ListPlayers(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, players)
	assert.Empty(t, players)
}

func TestListPlayers_CoalescesConcurrentCalls(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		_, _ = w.Write([]byte(`[{"id":1,"name":"Ann"}]`))
	})

	var wg sync.WaitGroup
	results := make([][]models.Player, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			players, err := c.ListPlayers(context.Background())
			assert.NoError(t, err)
			results[i] = players
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), hits.Load())
	for _, players := range results {
		assert.Len(t, players, 1)
	}
	results[0][0].Name = "changed"
	assert.Equal(t, "Ann", results[1][0].Name)
}

func TestFetch_WrapsFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "database down", http.StatusInternalServerError)
	})

	_, err := c.Fetch(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, reconcile.ErrSnapshotFetchFailed)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
	assert.Equal(t, "database down", statusErr.Body)
}

func TestCreatePlayer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/players", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Ann", body["name"])
		assert.Nil(t, body["age"])
		assert.Contains(t, body, "age")

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":10,"name":"Ann","age":null}`))
	})

	created, err := c.CreatePlayer(context.Background(), models.NewPlayer{Name: "Ann"})
	require.NoError(t, err)
	assert.Equal(t, models.Player{ID: 10, Name: "Ann"}, created)
}

func TestUpdateAndDeletePlayer(t *testing.T) {
	var calls []string
	var mu sync.Mutex
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, r.Method+" "+r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, c.UpdatePlayer(context.Background(), 3, models.NewPlayer{Name: "Cy", Age: intp(40)}))
	require.NoError(t, c.DeletePlayer(context.Background(), 3))
	assert.Equal(t, []string{"PUT /players/3", "DELETE /players/3"}, calls)
}

func TestDeletePlayer_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	err := c.DeletePlayer(context.Background(), 99)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Equal(t, "DELETE /players/99: unexpected status 404", err.Error())
}

func TestRegisterFCMToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/register_fcm_token", r.URL.Path)
		var body models.FCMToken
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, models.FCMToken{UserID: "ann@example.com", Token: "tok"}, body)
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, c.RegisterFCMToken(context.Background(), models.FCMToken{UserID: "ann@example.com", Token: "tok"}))
}

func TestClient_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	t.Cleanup(func() { close(release) })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.ListPlayers(ctx)
	assert.Error(t, err)
}

func TestListPlayers_CancelledCallerDoesNotFailOthers(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		_, _ = w.Write([]byte(`[{"id":1,"name":"Ann"}]`))
	})

	first, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.ListPlayers(first)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return hits.Load() == 1 }, time.Second, 5*time.Millisecond)

	type result struct {
		players []models.Player
		err     error
	}
	second := make(chan result, 1)
	go func() {
		players, err := c.ListPlayers(context.Background())
		second <- result{players, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	select {
	case res := <-second:
		require.NoError(t, res.err)
		assert.Equal(t, []models.Player{{ID: 1, Name: "Ann"}}, res.players)
	case <-time.After(2 * time.Second):
		t.Fatal("second caller never returned")
	}
	assert.Equal(t, int32(1), hits.Load())
}
