package model

import (
	"fmt"
	"strings"
)

// PlanTier is the subscription tier that sets the daily generation limit.
type PlanTier string

const (
	PlanStarter PlanTier = "Starter"
	PlanPro     PlanTier = "Pro"
)

func ParsePlanTier(raw string) (PlanTier, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "starter":
		return PlanStarter, nil
	case "pro":
		return PlanPro, nil
	default:
		return "", fmt.Errorf("unknown plan %q", raw)
	}
}
