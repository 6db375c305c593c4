package domain

import (
	"errors"
	"time"
)

// VehicleConstraints describe the capacity and availability of the vehicle
// an optimization call plans for. Supplied per call; never persisted here.
type VehicleConstraints struct {
	MaxCapacityKg float64
	CurrentLoadKg float64
	MaxDeliveries int
	WorkStart     time.Time
	WorkEnd       time.Time
}

// Validate rejects missing or inconsistent constraint sets.
func (v VehicleConstraints) Validate() error {
	if v.MaxCapacityKg <= 0 {
		return errors.New("vehicle constraints: max capacity must be positive")
	}
	if v.CurrentLoadKg < 0 {
		return errors.New("vehicle constraints: current load must not be negative")
	}
	if v.CurrentLoadKg > v.MaxCapacityKg {
		return errors.New("vehicle constraints: current load exceeds max capacity")
	}
	if v.MaxDeliveries < 0 {
		return errors.New("vehicle constraints: max deliveries must not be negative")
	}
	if !v.WorkStart.IsZero() && !v.WorkEnd.IsZero() && !v.WorkEnd.After(v.WorkStart) {
		return errors.New("vehicle constraints: working hours end must be after start")
	}
	return nil
}

// RemainingCapacityKg is the load still available on the vehicle.
func (v VehicleConstraints) RemainingCapacityKg() float64 {
	return v.MaxCapacityKg - v.CurrentLoadKg
}
