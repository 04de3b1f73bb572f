package service

import (
	"context"
	"math"

	"contentforge/internal/calendar"
	"contentforge/internal/model"
	"contentforge/internal/repository"
)

// DefaultRoundMinutes rounds recommended times to the quarter hour.
const DefaultRoundMinutes = 15

// PerformanceSummary is what the stats view shows in one go.
type PerformanceSummary struct {
	Completed       int
	AverageScore    float64
	HasData         bool
	RecommendedTime string
}

// PerformanceService derives insights from completed tasks only.
type PerformanceService struct {
	repo         *repository.TaskRepository
	roundMinutes int
}

func NewPerformanceService(repo *repository.TaskRepository, roundMinutes int) *PerformanceService {
	if roundMinutes <= 0 {
		roundMinutes = 1
	}
	return &PerformanceService{repo: repo, roundMinutes: roundMinutes}
}

// AverageScore is the mean score of done tasks; ok is false when there are none.
func (s *PerformanceService) AverageScore(ctx context.Context) (avg float64, ok bool, err error) {
	done, err := s.done(ctx)
	if err != nil {
		return 0, false, err
	}
	avg, ok = averageScore(done)
	return avg, ok, nil
}

// RecommendedTime averages the posting time of done tasks. Without data it
// returns the default 18:00.
func (s *PerformanceService) RecommendedTime(ctx context.Context) (string, error) {
	done, err := s.done(ctx)
	if err != nil {
		return "", err
	}
	return s.recommendedTime(done), nil
}

// RecentCompleted returns up to n done tasks, latest schedule first.
func (s *PerformanceService) RecentCompleted(ctx context.Context, n int) ([]model.Task, error) {
	if n <= 0 {
		return []model.Task{}, nil
	}
	done, err := s.done(ctx)
	if err != nil {
		return nil, err
	}
	if len(done) > n {
		done = done[:n]
	}
	return done, nil
}

func (s *PerformanceService) Summary(ctx context.Context) (PerformanceSummary, error) {
	done, err := s.done(ctx)
	if err != nil {
		return PerformanceSummary{}, err
	}
	avg, ok := averageScore(done)
	return PerformanceSummary{
		Completed:       len(done),
		AverageScore:    avg,
		HasData:         ok,
		RecommendedTime: s.recommendedTime(done),
	}, nil
}

func (s *PerformanceService) done(ctx context.Context) ([]model.Task, error) {
	return s.repo.ListByStatus(ctx, model.StatusDone)
}

func averageScore(done []model.Task) (float64, bool) {
	if len(done) == 0 {
		return 0, false
	}
	var sum float64
	for _, task := range done {
		sum += task.Score
	}
	return math.Round(sum/float64(len(done))*100) / 100, true
}

func (s *PerformanceService) recommendedTime(done []model.Task) string {
	if len(done) == 0 {
		return calendar.DefaultPostAt
	}
	var sum int
	for _, task := range done {
		sum += calendar.ClockMinutes(task.ScheduledTime)
	}
	mean := float64(sum) / float64(len(done))
	step := float64(s.roundMinutes)
	rounded := int(math.Round(mean/step) * step)
	return calendar.FormatMinutes(rounded)
}
