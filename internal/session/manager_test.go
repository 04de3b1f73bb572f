package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contentforge/internal/provider"
)

func TestManager_GetEachEvict(t *testing.T) {
	c := &clock{t: time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)}
	m := NewManager(provider.NewMock(), Options{Now: c.Now, Location: time.UTC})
	t.Cleanup(func() { _ = m.Close() })
	ctx := context.Background()

	a, err := m.Get(ctx, 42)
	require.NoError(t, err)
	again, err := m.Get(ctx, 42)
	require.NoError(t, err)
	assert.Same(t, a, again)

	b, err := m.Get(ctx, 7)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, m.Len())

	var keys []int64
	m.Each(func(key int64, _ *State) { keys = append(keys, key) })
	assert.Equal(t, []int64{7, 42}, keys)

	c.Advance(2 * time.Hour)
	_, err = m.Get(ctx, 42)
	require.NoError(t, err)

	assert.Equal(t, 1, m.Evict(time.Hour))
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 0, m.Evict(0))
}

func TestManager_SessionsAreIsolated(t *testing.T) {
	c := &clock{t: time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)}
	m := NewManager(provider.NewMock(), Options{Now: c.Now, Location: time.UTC})
	t.Cleanup(func() { _ = m.Close() })
	ctx := context.Background()

	a, err := m.Get(ctx, 1)
	require.NoError(t, err)
	b, err := m.Get(ctx, 2)
	require.NoError(t, err)

	got, err := a.Generate(ctx, GenerateInput{Message: "promo"})
	require.NoError(t, err)
	_, err = a.Commit(ctx, got[0], a.Today(), "18:00", "")
	require.NoError(t, err)

	tasks, err := b.Planner.ListByDate(ctx, b.Today())
	require.NoError(t, err)
	assert.Empty(t, tasks)
	assert.Equal(t, 0, b.Quota.Used())
	assert.Equal(t, 1, a.Quota.Used())
}

func TestManager_GetCancelled(t *testing.T) {
	m := NewManager(provider.NewMock(), Options{})
	t.Cleanup(func() { _ = m.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.Get(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestManager_EvictWaitsForEach(t *testing.T) {
	c := &clock{t: time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)}
	m := NewManager(provider.NewMock(), Options{Now: c.Now, Location: time.UTC})
	t.Cleanup(func() { _ = m.Close() })
	ctx := context.Background()

	s, err := m.Get(ctx, 1)
	require.NoError(t, err)
	c.Advance(2 * time.Hour)
	today := s.Today()

	entered := make(chan struct{})
	release := make(chan struct{})
	listed := make(chan error, 1)
	go m.Each(func(_ int64, st *State) {
		close(entered)
		<-release
		_, err := st.Planner.ListByDate(ctx, today)
		listed <- err
	})
	<-entered

	evicted := make(chan int, 1)
	go func() { evicted <- m.Evict(time.Hour) }()

	select {
	case <-evicted:
		t.Fatal("evict closed a session still in use")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-listed)
	assert.Equal(t, 1, <-evicted)
	assert.True(t, s.Closed())
}

func TestManager_EachSkipsClosedSessions(t *testing.T) {
	m := NewManager(provider.NewMock(), Options{Location: time.UTC})
	t.Cleanup(func() { _ = m.Close() })
	ctx := context.Background()

	a, err := m.Get(ctx, 1)
	require.NoError(t, err)
	_, err = m.Get(ctx, 2)
	require.NoError(t, err)

	require.NoError(t, a.Close())
	require.NoError(t, a.Close())

	var keys []int64
	m.Each(func(key int64, _ *State) { keys = append(keys, key) })
	assert.Equal(t, []int64{2}, keys)
}
