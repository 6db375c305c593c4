package domain

// CongestionLevel is a coarse classification of a segment's traffic state.
type CongestionLevel int

const (
	CongestionLight CongestionLevel = iota
	CongestionModerate
	CongestionHeavy
)

func (l CongestionLevel) String() string {
	switch l {
	case CongestionHeavy:
		return "heavy"
	case CongestionModerate:
		return "moderate"
	default:
		return "light"
	}
}

// TrafficCondition is the delay state of one origin-destination segment.
// DelayFactor 1.0 means free flow; values above it stretch travel time.
type TrafficCondition struct {
	DelayFactor float64
	Level       CongestionLevel
}

// LevelForFactor buckets a delay factor into a congestion level.
func LevelForFactor(factor float64) CongestionLevel {
	switch {
	case factor >= 1.4:
		return CongestionHeavy
	case factor >= 1.15:
		return CongestionModerate
	default:
		return CongestionLight
	}
}
