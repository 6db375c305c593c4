package dto

import "time"

type CoordinatesDTO struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type TimeWindowDTO struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type DeliveryStopRequest struct {
	ID                 string          `json:"id"`
	Address            string          `json:"address"`
	Coords             *CoordinatesDTO `json:"coords"`
	Window             *TimeWindowDTO  `json:"window"`
	ServiceTimeMinutes int             `json:"service_time_minutes"`
	WeightKg           float64         `json:"weight_kg"`
	Priority           string          `json:"priority"`
	Tags               []string        `json:"tags"`
}

type VehicleConstraintsRequest struct {
	MaxCapacityKg float64    `json:"max_capacity_kg"`
	CurrentLoadKg float64    `json:"current_load_kg"`
	MaxDeliveries int        `json:"max_deliveries"`
	WorkStart     *time.Time `json:"work_start"`
	WorkEnd       *time.Time `json:"work_end"`
}

type OptimizeRequest struct {
	Driver     CoordinatesDTO             `json:"driver"`
	Deliveries []DeliveryStopRequest      `json:"deliveries"`
	Vehicle    *VehicleConstraintsRequest `json:"vehicle"`
	DepartAt   *time.Time                 `json:"depart_at"`
}

type OptimizeResponse struct {
	Route           []int       `json:"route"`
	TotalDistanceKm float64     `json:"total_distance_km"`
	TotalTimeMin    float64     `json:"total_time_minutes"`
	Algorithm       string      `json:"algorithm"`
	AlgorithmsTried []string    `json:"algorithms_tried"`
	ETAs            []time.Time `json:"etas"`
	TrafficFactors  []float64   `json:"traffic_factors"`
	IsValid         bool        `json:"is_valid"`
	Errors          []string    `json:"errors,omitempty"`
	Warnings        []string    `json:"warnings,omitempty"`
}
