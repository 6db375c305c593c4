package domain

import (
	"fmt"
	"strings"
	"time"
)

// Priority tier of a delivery stop.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityUrgent
)

// Weight returns the fixed urgency weight used by the sequencing strategies.
func (p Priority) Weight() float64 {
	switch p {
	case PriorityUrgent:
		return 100
	case PriorityHigh:
		return 75
	case PriorityLow:
		return 25
	default:
		return 50
	}
}

func (p Priority) String() string {
	switch p {
	case PriorityUrgent:
		return "urgent"
	case PriorityHigh:
		return "high"
	case PriorityLow:
		return "low"
	default:
		return "normal"
	}
}

// ParsePriority maps a priority label to its tier. Unknown or empty labels
// resolve to normal so caller input never aborts an optimization.
func ParsePriority(s string) Priority {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "urgent":
		return PriorityUrgent
	case "high":
		return PriorityHigh
	case "low":
		return PriorityLow
	default:
		return PriorityNormal
	}
}

// TimeWindow is an allowed delivery interval for a stop.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// Represents a single delivery destination handled by the engine.
// Coords stays nil until the address has been geocoded. A DeliveryStop is
// immutable during one optimization run; the engine only reorders references.
type DeliveryStop struct {
	ID          string
	Address     string
	Coords      *Coordinates
	Window      *TimeWindow
	ServiceTime time.Duration
	WeightKg    float64
	Priority    Priority
	Tags        []string
}

// HasValidCoords reports whether the stop has been geocoded to a usable
// position.
func (s DeliveryStop) HasValidCoords() bool {
	return s.Coords != nil && s.Coords.Valid()
}

func (s DeliveryStop) String() string {
	return fmt.Sprintf("stop %s (%s)", s.ID, s.Priority)
}
