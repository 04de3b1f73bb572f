// Package calendar holds the date and time-of-day arithmetic used by the planner.
package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"

	DaysPerWeek    = 7
	MinutesPerDay  = 24 * 60
	DefaultPostAt  = "18:00"
	defaultPostMin = 18 * 60
)

// Day truncates t to midnight in its own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// WeekOf returns the seven days, Monday through Sunday, of the week containing anchor.
func WeekOf(anchor time.Time) []time.Time {
	day := Day(anchor)
	// time.Weekday starts on Sunday; shift so Monday is 0.
	offset := (int(day.Weekday()) + 6) % DaysPerWeek
	monday := day.AddDate(0, 0, -offset)

	days := make([]time.Time, DaysPerWeek)
	for i := range days {
		days[i] = monday.AddDate(0, 0, i)
	}
	return days
}

// ShiftWeek moves anchor by n weeks; negative n goes back.
func ShiftWeek(anchor time.Time, n int) time.Time {
	return anchor.AddDate(0, 0, n*DaysPerWeek)
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate reads a YYYY-MM-DD date in loc.
func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(raw), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return t, nil
}

// ParseClock validates an HH:MM time of day and returns it zero-padded.
func ParseClock(raw string) (string, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", raw)
	}
	if !digits(parts[0], 1, 2) {
		return "", fmt.Errorf("invalid hour in %q", raw)
	}
	if !digits(parts[1], 2, 2) {
		return "", fmt.Errorf("invalid minute in %q", raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour in %q", raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 || len(parts[1]) != 2 {
		return "", fmt.Errorf("invalid minute in %q", raw)
	}
	return FormatMinutes(hour*60 + minute), nil
}

// ClockMinutes converts HH:MM to minutes since midnight. Unparseable input
// counts as the default posting time.
func ClockMinutes(clock string) int {
	normalized, err := ParseClock(clock)
	if err != nil {
		return defaultPostMin
	}
	hour, _ := strconv.Atoi(normalized[:2])
	minute, _ := strconv.Atoi(normalized[3:])
	return hour*60 + minute
}

// FormatMinutes renders minutes since midnight as HH:MM, wrapping into one day.
func FormatMinutes(minutes int) string {
	minutes %= MinutesPerDay
	if minutes < 0 {
		minutes += MinutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// digits reports whether s is lo to hi ASCII digits and nothing else.
func digits(s string, lo, hi int) bool {
	if len(s) < lo || len(s) > hi {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
