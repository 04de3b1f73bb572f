package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"contentforge/internal/calendar"
	"contentforge/internal/decorator"
	"contentforge/internal/model"
	"contentforge/internal/repository"
	"contentforge/internal/scoring"
)

// DefaultTitle is used when the provider returned a variation without a title.
const DefaultTitle = "Legenda"

// AddTaskInput carries a generated variation and where to schedule it.
type AddTaskInput struct {
	Variation model.Variation
	Date      time.Time
	Time      string
	Niche     string
	Platform  string
}

// DayPlan is one day of the weekly planner.
type DayPlan struct {
	Date  time.Time
	Tasks []model.Task
}

// PlannerService owns the scheduled tasks of one session.
type PlannerService struct {
	repo      *repository.TaskRepository
	decorator *decorator.Decorator
	now       func() time.Time

	lastID   uint
	idLoaded bool
}

func NewPlannerService(repo *repository.TaskRepository, dec *decorator.Decorator, now func() time.Time) *PlannerService {
	if dec == nil {
		dec = decorator.New(nil)
	}
	if now == nil {
		now = time.Now
	}
	return &PlannerService{repo: repo, decorator: dec, now: now}
}

// AddTask decorates and scores a variation and schedules it as a planned task.
func (s *PlannerService) AddTask(ctx context.Context, input AddTaskInput) (*model.Task, error) {
	caption := strings.TrimSpace(input.Variation.Caption)
	if caption == "" {
		return nil, fmt.Errorf("%w: caption is required", ErrValidation)
	}
	if input.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrValidation)
	}
	clock, err := calendar.ParseClock(input.Time)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	platform, err := model.ParsePlatform(input.Platform)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	title := strings.TrimSpace(input.Variation.Title)
	if title == "" {
		title = DefaultTitle
	}
	hashtags := CleanHashtags(input.Variation.Hashtags)
	metrics := scoring.Score(caption, hashtags)

	id, err := s.nextID(ctx)
	if err != nil {
		return nil, err
	}

	task := model.Task{
		ID:              id,
		Title:           s.decorator.Decorate(title, input.Niche, platform),
		Caption:         caption,
		Hashtags:        hashtags,
		Niche:           strings.TrimSpace(input.Niche),
		Platform:        platform,
		ScheduledDate:   calendar.FormatDate(input.Date),
		ScheduledTime:   clock,
		Score:           metrics.Score,
		EngagementScore: metrics.Engagement,
		ConversionScore: metrics.Conversion,
		Status:          model.StatusPlanned,
		CreatedAt:       s.now(),
	}

	if err := s.repo.Create(ctx, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// Get returns a task by id or ErrNotFound.
func (s *PlannerService) Get(ctx context.Context, taskID uint) (*model.Task, error) {
	task, err := s.repo.FindByID(ctx, taskID)
	if err != nil {
		return nil, notFound(err, taskID)
	}
	return task, nil
}

// ListByDate returns one day's tasks ordered by time; ties keep insertion order.
func (s *PlannerService) ListByDate(ctx context.Context, date time.Time) ([]model.Task, error) {
	return s.repo.ListByDate(ctx, calendar.FormatDate(date))
}

// ListWeek returns Monday through Sunday of the week containing anchor.
func (s *PlannerService) ListWeek(ctx context.Context, anchor time.Time) ([]DayPlan, error) {
	days := calendar.WeekOf(anchor)
	tasks, err := s.repo.ListBetween(ctx, calendar.FormatDate(days[0]), calendar.FormatDate(days[len(days)-1]))
	if err != nil {
		return nil, err
	}

	byDate := make(map[string][]model.Task, len(days))
	for _, task := range tasks {
		byDate[task.ScheduledDate] = append(byDate[task.ScheduledDate], task)
	}

	week := make([]DayPlan, len(days))
	for i, day := range days {
		week[i] = DayPlan{Date: day, Tasks: byDate[calendar.FormatDate(day)]}
	}
	return week, nil
}

// MarkDone moves a task to done. Marking a done task again is a no-op.
func (s *PlannerService) MarkDone(ctx context.Context, taskID uint) (*model.Task, error) {
	task, err := s.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.IsDone() {
		return task, nil
	}
	if err := s.repo.MarkDone(ctx, task, s.now()); err != nil {
		return nil, err
	}
	return task, nil
}

// Remove deletes a task permanently.
func (s *PlannerService) Remove(ctx context.Context, taskID uint) error {
	ok, err := s.repo.Delete(ctx, taskID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: #%d", ErrNotFound, taskID)
	}
	return nil
}

// nextID hands out ids from a counter that never goes back, so ids of
// deleted tasks are not reused.
func (s *PlannerService) nextID(ctx context.Context) (uint, error) {
	if !s.idLoaded {
		maxID, err := s.repo.MaxID(ctx)
		if err != nil {
			return 0, err
		}
		if maxID > s.lastID {
			s.lastID = maxID
		}
		s.idLoaded = true
	}
	s.lastID++
	return s.lastID, nil
}

// CleanHashtags trims entries and drops empty ones, keeping order.
func CleanHashtags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

func notFound(err error, taskID uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: #%d", ErrNotFound, taskID)
	}
	return fmt.Errorf("find task: %w", err)
}
