package model

import (
	"fmt"
	"strings"
	"time"
)

// TaskStatus is the planner state of a scheduled post.
type TaskStatus string

const (
	StatusPlanned TaskStatus = "planned"
	StatusDone    TaskStatus = "done"
)

// Platform is a social network a post is scheduled for.
type Platform string

const (
	PlatformInstagram Platform = "Instagram"
	PlatformTikTok    Platform = "TikTok"
)

// Platforms lists the supported platforms in display order.
var Platforms = []Platform{PlatformInstagram, PlatformTikTok}

// ParsePlatform normalizes a case-insensitive platform name.
func ParsePlatform(raw string) (Platform, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	for _, p := range Platforms {
		if strings.ToLower(string(p)) == value {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown platform %q", raw)
}

// Task represents a single post scheduled on the planner.
type Task struct {
	ID              uint     `gorm:"primaryKey;autoIncrement:false"`
	Title           string
	Caption         string
	Hashtags        []string `gorm:"serializer:json;type:text"`
	Niche           string
	Platform        Platform
	ScheduledDate   string `gorm:"index"` // YYYY-MM-DD
	ScheduledTime   string // HH:MM
	Score           float64
	EngagementScore float64
	ConversionScore float64
	Status          TaskStatus `gorm:"index;default:planned"`
	CompletedAt     *time.Time
	CreatedAt       time.Time
}

func (t Task) IsDone() bool {
	return t.Status == StatusDone
}
