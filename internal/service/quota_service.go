package service

import (
	"time"

	"contentforge/internal/calendar"
	"contentforge/internal/model"
)

const (
	DefaultStarterLimit = 5
	DefaultProLimit     = 50
)

// QuotaLimits sets the daily generation ceiling per plan tier.
type QuotaLimits struct {
	Starter int
	Pro     int
}

// QuotaService counts generations per calendar day in loc. The counter resets
// the first time it is touched on a new day; nothing runs in the background.
type QuotaService struct {
	limits QuotaLimits
	tier   model.PlanTier
	loc    *time.Location
	now    func() time.Time

	day  string
	used int
}

func NewQuotaService(tier model.PlanTier, limits QuotaLimits, loc *time.Location, now func() time.Time) *QuotaService {
	if limits.Starter <= 0 {
		limits.Starter = DefaultStarterLimit
	}
	if limits.Pro < DefaultProLimit {
		limits.Pro = DefaultProLimit
	}
	if tier == "" {
		tier = model.PlanStarter
	}
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	s := &QuotaService{limits: limits, tier: tier, loc: loc, now: now}
	s.day = s.today()
	return s
}

// LimitFor returns the daily limit of a tier.
func (s *QuotaService) LimitFor(tier model.PlanTier) int {
	if tier == model.PlanPro {
		return s.limits.Pro
	}
	return s.limits.Starter
}

// CanGenerate reports whether another generation fits in today's quota.
func (s *QuotaService) CanGenerate() bool {
	s.rollover()
	return s.used < s.LimitFor(s.tier)
}

// RecordGeneration counts one successful provider call.
func (s *QuotaService) RecordGeneration() {
	s.rollover()
	s.used++
}

func (s *QuotaService) Used() int {
	s.rollover()
	return s.used
}

func (s *QuotaService) Remaining() int {
	left := s.LimitFor(s.tier) - s.Used()
	if left < 0 {
		return 0
	}
	return left
}

func (s *QuotaService) Tier() model.PlanTier {
	return s.tier
}

// SetTier switches plans; usage already counted today is kept.
func (s *QuotaService) SetTier(tier model.PlanTier) {
	s.tier = tier
}

func (s *QuotaService) rollover() {
	today := s.today()
	if today != s.day {
		s.day = today
		s.used = 0
	}
}

func (s *QuotaService) today() string {
	return calendar.FormatDate(s.now().In(s.loc))
}
