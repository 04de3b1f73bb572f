package service

import (
	"math/rand"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"contentforge/internal/decorator"
	"contentforge/internal/repository"
)

// clock is a settable time source for tests.
type clock struct {
	t time.Time
}

func (c *clock) Now() time.Time { return c.t }

func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestRepo(t *testing.T) *repository.TaskRepository {
	t.Helper()
	db, err := repository.NewDB(repository.MemoryDSN("test-"+uuid.NewString()), nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = repository.CloseDB(db)
	})
	return repository.NewTaskRepository(db)
}

func newTestPlanner(t *testing.T, c *clock) (*PlannerService, *repository.TaskRepository) {
	t.Helper()
	repo := newTestRepo(t)
	dec := decorator.New(rand.New(rand.NewSource(1)))
	return NewPlannerService(repo, dec, c.Now), repo
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func longCaption(n int) string {
	return strings.TrimSpace(strings.Repeat("peça ", n))
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
