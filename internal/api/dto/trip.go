package dto

type TripRequest struct {
	Waypoints  []CoordinatesDTO `json:"waypoints"`
	Profile    string           `json:"profile"`
	FixedStart bool             `json:"fixed_start"`
	FixedEnd   bool             `json:"fixed_end"`
	RoundTrip  bool             `json:"round_trip"`
	Geometry   string           `json:"geometry"`
}

type TripLegResponse struct {
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds float64 `json:"duration_seconds"`
	Steps           int     `json:"steps"`
}

type TripResponse struct {
	Order           []int             `json:"order"`
	Waypoints       []CoordinatesDTO  `json:"waypoints"`
	DistanceMeters  float64           `json:"distance_meters"`
	DurationSeconds float64           `json:"duration_seconds"`
	Geometry        string            `json:"geometry,omitempty"`
	Legs            []TripLegResponse `json:"legs"`
}
