// Package session bundles the per-chat planner, quota and stats so nothing
// lives in package-level state.
package session

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"contentforge/internal/calendar"
	"contentforge/internal/decorator"
	"contentforge/internal/model"
	"contentforge/internal/provider"
	"contentforge/internal/repository"
	"contentforge/internal/scoring"
	"contentforge/internal/service"
)

// Profile is what the user told us about their brand.
type Profile struct {
	Brand    string
	Niche    string
	Tone     string
	Mode     string
	Platform model.Platform
}

// Options configure new sessions.
type Options struct {
	Tier         model.PlanTier
	Limits       service.QuotaLimits
	RoundMinutes int
	// Timeout bounds one provider call; zero leaves ctx as is.
	Timeout  time.Duration
	Location *time.Location
	Now      func() time.Time
	// Seed fixes the title decorator's random source; zero seeds from the clock.
	Seed int64
	Log  *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Tier == "" {
		o.Tier = model.PlanStarter
	}
	if o.RoundMinutes <= 0 {
		o.RoundMinutes = service.DefaultRoundMinutes
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Log == nil {
		o.Log = zap.NewNop()
	}
	return o
}

// GenerateInput is one generation request; brand, niche, tone and mode come
// from the session profile.
type GenerateInput struct {
	Platform  string
	Message   string
	ExtraInfo string
}

// State is everything one chat owns.
type State struct {
	ID          string
	Profile     Profile
	Anchor      time.Time
	LastSeen    time.Time
	Planner     *service.PlannerService
	Quota       *service.QuotaService
	Performance *service.PerformanceService

	db        *gorm.DB
	provider  provider.Provider
	decorator *decorator.Decorator
	opts      Options

	// mu is held for reading by Manager.Each callbacks and for writing by Close.
	mu     sync.RWMutex
	closed bool
}

// New opens a private in-memory store and wires the services around it.
func New(p provider.Provider, opts Options) (*State, error) {
	opts = opts.withDefaults()
	id := uuid.NewString()

	db, err := repository.NewDB(repository.MemoryDSN("session-"+id), opts.Log)
	if err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}

	var rng *rand.Rand
	if opts.Seed != 0 {
		rng = rand.New(rand.NewSource(opts.Seed))
	}
	dec := decorator.New(rng)
	repo := repository.NewTaskRepository(db)
	now := opts.Now()

	return &State{
		ID:          id,
		Profile:     Profile{Platform: model.PlatformInstagram},
		Anchor:      calendar.Day(now.In(opts.Location)),
		LastSeen:    now,
		Planner:     service.NewPlannerService(repo, dec, opts.Now),
		Quota:       service.NewQuotaService(opts.Tier, opts.Limits, opts.Location, opts.Now),
		Performance: service.NewPerformanceService(repo, opts.RoundMinutes),
		db:          db,
		provider:    p,
		decorator:   dec,
		opts:        opts,
	}, nil
}

// Generate asks the provider for variations, then scores and decorates them.
// A refused or failed call leaves the quota and the planner untouched.
func (s *State) Generate(ctx context.Context, input GenerateInput) ([]model.ScoredVariation, error) {
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", service.ErrValidation)
	}
	platform, err := s.platform(input.Platform)
	if err != nil {
		return nil, err
	}
	if !s.Quota.CanGenerate() {
		return nil, fmt.Errorf("%w: %d of %d used today", service.ErrQuotaExceeded,
			s.Quota.Used(), s.Quota.LimitFor(s.Quota.Tier()))
	}

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	variations, err := s.provider.Generate(ctx, provider.Request{
		Brand:     s.Profile.Brand,
		Niche:     s.Profile.Niche,
		Tone:      s.Profile.Tone,
		Mode:      s.Profile.Mode,
		Platform:  string(platform),
		Message:   message,
		ExtraInfo: strings.TrimSpace(input.ExtraInfo),
	})
	if err != nil {
		return nil, err
	}

	scored := s.score(variations, platform)
	if len(scored) > 0 {
		s.Quota.RecordGeneration()
	}
	s.opts.Log.Debug("generated variations",
		zap.String("session", s.ID),
		zap.String("provider", s.provider.Name()),
		zap.Int("count", len(scored)),
		zap.Int("used", s.Quota.Used()))
	return scored, nil
}

func (s *State) score(variations []model.Variation, platform model.Platform) []model.ScoredVariation {
	out := make([]model.ScoredVariation, 0, len(variations))
	best := -1
	for _, v := range variations {
		caption := strings.TrimSpace(v.Caption)
		if caption == "" {
			continue
		}
		title := strings.TrimSpace(v.Title)
		if title == "" {
			title = service.DefaultTitle
		}
		hashtags := service.CleanHashtags(v.Hashtags)
		sv := model.ScoredVariation{
			Variation:      model.Variation{Title: title, Caption: caption, Hashtags: hashtags},
			DecoratedTitle: s.decorator.Decorate(title, s.Profile.Niche, platform),
			Metrics:        scoring.Score(caption, hashtags),
		}
		out = append(out, sv)
		if best < 0 || sv.Metrics.Score > out[best].Metrics.Score {
			best = len(out) - 1
		}
	}
	if best >= 0 {
		out[best].Recommended = true
	}
	return out
}

// Commit schedules a generated variation in the planner.
func (s *State) Commit(ctx context.Context, v model.ScoredVariation, date time.Time, clock, platform string) (*model.Task, error) {
	p, err := s.platform(platform)
	if err != nil {
		return nil, err
	}
	variation := v.Variation
	if v.DecoratedTitle != "" {
		variation.Title = v.DecoratedTitle
	}
	return s.Planner.AddTask(ctx, service.AddTaskInput{
		Variation: variation,
		Date:      date,
		Time:      clock,
		Niche:     s.Profile.Niche,
		Platform:  string(p),
	})
}

// ShowAnalysis reports whether per-variation metrics are visible on this plan.
func (s *State) ShowAnalysis() bool {
	return s.Quota.Tier() == model.PlanPro
}

// Today is the current date in the session's time zone.
func (s *State) Today() time.Time {
	return calendar.Day(s.opts.Now().In(s.opts.Location))
}

// Location is the time zone dates are entered in.
func (s *State) Location() *time.Location {
	return s.opts.Location
}

// Close drops the session's database. It waits for running Each callbacks
// and is safe to call twice.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return repository.CloseDB(s.db)
}

// Closed reports whether Close has run.
func (s *State) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *State) platform(raw string) (model.Platform, error) {
	if strings.TrimSpace(raw) == "" {
		return s.Profile.Platform, nil
	}
	p, err := model.ParsePlatform(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", service.ErrValidation, err)
	}
	return p, nil
}
