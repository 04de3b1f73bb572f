package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"contentforge/internal/model"
)

func TestQuotaService_StarterLimitAndRollover(t *testing.T) {
	c := &clock{t: time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)}
	quota := NewQuotaService(model.PlanStarter, QuotaLimits{Starter: 5, Pro: 50}, time.UTC, c.Now)

	for i := 0; i < 5; i++ {
		assert.True(t, quota.CanGenerate(), "generation %d", i+1)
		quota.RecordGeneration()
	}
	assert.False(t, quota.CanGenerate())
	assert.Equal(t, 5, quota.Used())
	assert.Equal(t, 0, quota.Remaining())

	c.Advance(14 * time.Hour) // 23:00, same day
	assert.False(t, quota.CanGenerate())

	c.Advance(2 * time.Hour) // next day
	assert.True(t, quota.CanGenerate())
	assert.Equal(t, 0, quota.Used())
	assert.Equal(t, 5, quota.Remaining())
}

func TestQuotaService_LimitFor(t *testing.T) {
	quota := NewQuotaService(model.PlanStarter, QuotaLimits{}, nil, nil)
	assert.Equal(t, DefaultStarterLimit, quota.LimitFor(model.PlanStarter))
	assert.Equal(t, DefaultProLimit, quota.LimitFor(model.PlanPro))

	quota = NewQuotaService(model.PlanStarter, QuotaLimits{Starter: 9999, Pro: 10}, nil, nil)
	assert.Equal(t, 9999, quota.LimitFor(model.PlanStarter))
	assert.GreaterOrEqual(t, quota.LimitFor(model.PlanPro), 50)
}

func TestQuotaService_SetTier(t *testing.T) {
	c := &clock{t: time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)}
	quota := NewQuotaService("", QuotaLimits{Starter: 1, Pro: 50}, time.UTC, c.Now)
	assert.Equal(t, model.PlanStarter, quota.Tier())

	quota.RecordGeneration()
	assert.False(t, quota.CanGenerate())

	quota.SetTier(model.PlanPro)
	assert.True(t, quota.CanGenerate())
	assert.Equal(t, 1, quota.Used())
	assert.Equal(t, 49, quota.Remaining())
}

func TestQuotaService_RolloverFollowsLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	// 23:00 on 2024-03-04 in Tokyo, still the 4th in UTC.
	c := &clock{t: time.Date(2024, 3, 4, 14, 0, 0, 0, time.UTC)}
	quota := NewQuotaService(model.PlanStarter, QuotaLimits{Starter: 5, Pro: 50}, tokyo, c.Now)

	for i := 0; i < 5; i++ {
		quota.RecordGeneration()
	}
	assert.False(t, quota.CanGenerate())

	c.Advance(2 * time.Hour) // 01:00 on the 5th in Tokyo, 16:00 on the 4th in UTC
	assert.True(t, quota.CanGenerate())
	assert.Equal(t, 0, quota.Used())
}
