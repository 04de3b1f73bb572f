package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"contentforge/internal/calendar"
	"contentforge/internal/model"
)

const (
	iconPlanned = "⏳"
	iconDone    = "✅"
)

// AgendaService builds the daily agenda message sent to each chat.
type AgendaService struct{}

func NewAgendaService() *AgendaService {
	return &AgendaService{}
}

// DailyAgenda lists the posts scheduled for now's day and what is still
// planned for the rest of the week. empty is true when nothing is scheduled
// from today until Sunday.
func (s *AgendaService) DailyAgenda(ctx context.Context, planner *PlannerService, now time.Time) (text string, empty bool, err error) {
	week, err := planner.ListWeek(ctx, now)
	if err != nil {
		return "", false, err
	}

	today := calendar.FormatDate(now)
	var todays []model.Task
	upcoming := 0
	for _, day := range week {
		date := calendar.FormatDate(day.Date)
		switch {
		case date == today:
			todays = day.Tasks
		case date > today:
			for _, task := range day.Tasks {
				if !task.IsDone() {
					upcoming++
				}
			}
		}
	}

	if len(todays) == 0 && upcoming == 0 {
		return "", true, nil
	}

	var builder strings.Builder
	builder.WriteString("📅 <b>Agenda de hoje</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("02.01.2006")))

	if len(todays) == 0 {
		builder.WriteString("— sem publicações para hoje\n")
	} else {
		for _, task := range todays {
			builder.WriteString(FormatAgendaLine(task))
		}
	}

	if upcoming > 0 {
		builder.WriteString(fmt.Sprintf("\n🔜 Ainda planeadas esta semana: %d\n", upcoming))
	}

	return strings.TrimSpace(builder.String()), false, nil
}

// FormatAgendaLine renders one task as a single HTML line.
func FormatAgendaLine(task model.Task) string {
	icon := iconPlanned
	if task.IsDone() {
		icon = iconDone
	}
	return fmt.Sprintf("%s %s · %s — <b>#%d</b> %s\n",
		icon, task.ScheduledTime, task.Platform, task.ID, html.EscapeString(strings.TrimSpace(task.Title)))
}
