package domain

import "time"

// OptimizationResult is the planned stop order for one optimization call.
// Route holds indices into the caller's delivery slice; when IsValid is true
// it is an exact permutation of the considered deliveries. After validation
// only the local-improvement pass may replace Route and TotalDistanceKm;
// ETAs and TrafficFactors always describe Route's final order.
type OptimizationResult struct {
	Route           []int
	TotalDistanceKm float64
	TotalTime       time.Duration
	Algorithm       string
	AlgorithmsTried []string
	Iterations      int
	ETAs            []time.Time
	TrafficFactors  []float64
	IsValid         bool
	Errors          []string
	Warnings        []string
}

// AddWarning records a non-fatal degradation.
func (r *OptimizationResult) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// AddError records an integrity or validation failure.
func (r *OptimizationResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// ClampNonNegative forces numeric totals back into the valid range. Used
// after result validation so a degraded result can still be returned.
func (r *OptimizationResult) ClampNonNegative() {
	if r.TotalDistanceKm < 0 {
		r.TotalDistanceKm = 0
	}
	if r.TotalTime < 0 {
		r.TotalTime = 0
	}
	if r.Iterations < 0 {
		r.Iterations = 0
	}
}
