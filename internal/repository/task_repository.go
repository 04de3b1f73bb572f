package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorm.io/gorm"

	"contentforge/internal/model"
)

// TaskRepository handles CRUD for planner tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, taskID uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("id = ?", taskID).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// ListByDate returns the tasks of one day by time, then insertion order.
func (r *TaskRepository) ListByDate(ctx context.Context, date string) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("scheduled_date = ?", date).
		Order("scheduled_time ASC, id ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListBetween returns tasks scheduled within [from, to], both YYYY-MM-DD.
func (r *TaskRepository) ListBetween(ctx context.Context, from, to string) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("scheduled_date >= ? AND scheduled_date <= ?", from, to).
		Order("scheduled_date ASC, scheduled_time ASC, id ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListByStatus returns tasks in the given state, most recent schedule first.
func (r *TaskRepository) ListByStatus(ctx context.Context, status model.TaskStatus) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("status = ?", status).
		Order("scheduled_date DESC, scheduled_time DESC, id DESC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepository) MarkDone(ctx context.Context, task *model.Task, completedAt time.Time) error {
	task.Status = model.StatusDone
	task.CompletedAt = &completedAt
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	return nil
}

// Delete removes a task and reports whether a row existed.
func (r *TaskRepository) Delete(ctx context.Context, taskID uint) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", taskID).Delete(&model.Task{})
	if res.Error != nil {
		return false, fmt.Errorf("delete task: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// MaxID returns the largest stored id, zero when empty.
func (r *TaskRepository) MaxID(ctx context.Context) (uint, error) {
	var maxID sql.NullInt64
	if err := r.db.WithContext(ctx).Model(&model.Task{}).Select("MAX(id)").Row().Scan(&maxID); err != nil {
		return 0, fmt.Errorf("max task id: %w", err)
	}
	if !maxID.Valid {
		return 0, nil
	}
	return uint(maxID.Int64), nil
}
