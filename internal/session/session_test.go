package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contentforge/internal/model"
	"contentforge/internal/provider"
	"contentforge/internal/service"
)

type clock struct {
	t time.Time
}

func (c *clock) Now() time.Time { return c.t }

func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestState(t *testing.T, p provider.Provider, c *clock) *State {
	t.Helper()
	s, err := New(p, Options{
		Tier:     model.PlanStarter,
		Limits:   service.QuotaLimits{Starter: 5, Pro: 50},
		Location: time.UTC,
		Now:      c.Now,
		Seed:     7,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	s.Profile = Profile{Brand: "Atelier Lua", Niche: "moda", Tone: "próximo", Platform: model.PlatformInstagram}
	return s
}

func TestGenerate_ScoresAndRecommendsOne(t *testing.T) {
	c := &clock{t: time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)}
	s := newTestState(t, provider.NewMock(), c)

	got, err := s.Generate(context.Background(), GenerateInput{Message: "coleção de outono"})
	require.NoError(t, err)
	require.Len(t, got, provider.MaxVariations)

	recommended := 0
	best := got[0].Metrics.Score
	for _, v := range got {
		if v.Metrics.Score > best {
			best = v.Metrics.Score
		}
	}
	for _, v := range got {
		assert.NotEmpty(t, v.DecoratedTitle)
		assert.GreaterOrEqual(t, v.Metrics.Score, 6.0)
		assert.LessOrEqual(t, v.Metrics.Score, 9.5)
		if v.Recommended {
			recommended++
			assert.Equal(t, best, v.Metrics.Score)
		}
	}
	assert.Equal(t, 1, recommended)
	assert.Equal(t, 1, s.Quota.Used())
}

func TestGenerate_StarterQuotaAndRollover(t *testing.T) {
	c := &clock{t: time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)}
	mock := provider.NewMock()
	s := newTestState(t, mock, c)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := s.Generate(ctx, GenerateInput{Message: "promo"})
		require.NoError(t, err)
	}
	assert.False(t, s.Quota.CanGenerate())

	_, err := s.Generate(ctx, GenerateInput{Message: "promo"})
	require.ErrorIs(t, err, service.ErrQuotaExceeded)
	assert.Equal(t, 5, mock.Calls, "refused generation must not reach the provider")

	c.Advance(24 * time.Hour)
	assert.True(t, s.Quota.CanGenerate())
	assert.Equal(t, 0, s.Quota.Used())
}

func TestGenerate_ProviderFailureLeavesStateUntouched(t *testing.T) {
	c := &clock{t: time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)}
	mock := provider.NewMock()
	mock.Err = &provider.Error{Op: "generate", Message: "upstream unavailable"}
	s := newTestState(t, mock, c)

	_, err := s.Generate(context.Background(), GenerateInput{Message: "promo"})
	require.Error(t, err)

	var perr *provider.Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 0, s.Quota.Used())

	week, err := s.Planner.ListWeek(context.Background(), s.Today())
	require.NoError(t, err)
	for _, day := range week {
		assert.Empty(t, day.Tasks)
	}

	mock.Err = nil
	_, err = s.Generate(context.Background(), GenerateInput{Message: "promo"})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Quota.Used())
}

func TestGenerate_EmptyResultDoesNotConsumeQuota(t *testing.T) {
	c := &clock{t: time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)}
	mock := provider.NewMock()
	mock.Count = -1
	s := newTestState(t, mock, c)

	got, err := s.Generate(context.Background(), GenerateInput{Message: "promo"})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 0, s.Quota.Used())
}

func TestGenerate_ValidatesBeforeProvider(t *testing.T) {
	c := &clock{t: time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)}
	mock := provider.NewMock()
	s := newTestState(t, mock, c)

	tests := []struct {
		name  string
		input GenerateInput
	}{
		{name: "empty message", input: GenerateInput{Message: "   "}},
		{name: "unknown platform", input: GenerateInput{Message: "promo", Platform: "Myspace"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Generate(context.Background(), tt.input)
			assert.ErrorIs(t, err, service.ErrValidation)
		})
	}
	assert.Equal(t, 0, mock.Calls)
	assert.Equal(t, 0, s.Quota.Used())
}

func TestCommit_KeepsDecoratedTitleAndScore(t *testing.T) {
	c := &clock{t: time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)}
	s := newTestState(t, provider.NewMock(), c)
	ctx := context.Background()

	got, err := s.Generate(ctx, GenerateInput{Message: "novo vestido", Platform: "tiktok"})
	require.NoError(t, err)
	require.NotEmpty(t, got)

	task, err := s.Commit(ctx, got[0], s.Today(), "9:05", "TikTok")
	require.NoError(t, err)
	assert.Equal(t, got[0].DecoratedTitle, task.Title)
	assert.Equal(t, got[0].Metrics.Score, task.Score)
	assert.Equal(t, "09:05", task.ScheduledTime)
	assert.Equal(t, model.PlatformTikTok, task.Platform)
	assert.Equal(t, "2025-03-12", task.ScheduledDate)
	assert.Equal(t, model.StatusPlanned, task.Status)
}

func TestShowAnalysis_ProOnly(t *testing.T) {
	c := &clock{t: time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)}
	s := newTestState(t, provider.NewMock(), c)

	assert.False(t, s.ShowAnalysis())
	s.Quota.SetTier(model.PlanPro)
	assert.True(t, s.ShowAnalysis())
}

func TestGenerate_QuotaDayFollowsSessionLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	c := &clock{t: time.Date(2024, 3, 4, 14, 0, 0, 0, time.UTC)}
	s, err := New(provider.NewMock(), Options{
		Tier:     model.PlanStarter,
		Limits:   service.QuotaLimits{Starter: 5, Pro: 50},
		Location: tokyo,
		Now:      c.Now,
		Seed:     7,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	for i := 0; i < 5; i++ {
		_, err := s.Generate(context.Background(), GenerateInput{Message: "promo"})
		require.NoError(t, err)
	}
	assert.False(t, s.Quota.CanGenerate())

	c.Advance(2 * time.Hour)
	assert.Equal(t, "2024-03-05", s.Today().Format("2006-01-02"))
	assert.True(t, s.Quota.CanGenerate())
	assert.Equal(t, 0, s.Quota.Used())
}
