package players

import (
	"context"
	"sync"
	"testing"
	"time"

	"roster-sync/core/reconcile"
	"roster-sync/feature/players/models"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockRemote struct {
	mock.Mock
}

func (m *mockRemote) CreatePlayer(ctx context.Context, p models.NewPlayer) (models.Player, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(models.Player), args.Error(1)
}

func (m *mockRemote) UpdatePlayer(ctx context.Context, id int, p models.NewPlayer) error {
	return m.Called(ctx, id, p).Error(0)
}

func (m *mockRemote) DeletePlayer(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRemote) RegisterFCMToken(ctx context.Context, t models.FCMToken) error {
	return m.Called(ctx, t).Error(0)
}

type stubSnapshots struct {
	players []models.Player
	err     error
}

func (s stubSnapshots) Fetch(context.Context) ([]models.Player, error) {
	return s.players, s.err
}

// stubEvents hands the engine a channel the test feeds.
type stubEvents struct {
	mu sync.Mutex
	ch chan models.Event
}

func (s *stubEvents) Subscribe(context.Context) (<-chan models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ch == nil {
		s.ch = make(chan models.Event, 16)
	}
	return s.ch, nil
}

func (s *stubEvents) send(ev models.Event) {
	s.mu.Lock()
	if s.ch == nil {
		s.ch = make(chan models.Event, 16)
	}
	ch := s.ch
	s.mu.Unlock()
	ch <- ev
}

func startEngine(t *testing.T, snaps stubSnapshots, events *stubEvents) *Engine {
	t.Helper()
	e := NewEngine(context.Background(), snaps, events, reconcile.Config{}, zap.NewNop())
	e.Start()
	t.Cleanup(e.Stop)
	require.Eventually(t, func() bool { return !e.View().Loading }, time.Second, 5*time.Millisecond)
	return e
}

func intp(i int) *int { return &i }
