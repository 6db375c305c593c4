package handlers

import (
	"context"
	"net/http"
	"time"

	"route-optimizer-service/internal/api/dto"
	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/engine"
	"route-optimizer-service/internal/geocode"
)

const (
	defaultCapacityKg    = 1000
	defaultMaxDeliveries = 100
)

type OptimizeHandler struct {
	Engine   *engine.Optimizer
	Resolver *geocode.Resolver
}

// Optimize plans a stop order for the submitted deliveries. Deliveries that
// arrive with an address but no coordinates are geocoded first; unresolvable
// ones stay in the request and surface as warnings in the result.
func (h *OptimizeHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	var req dto.OptimizeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if len(req.Deliveries) == 0 {
		writeError(w, r, http.StatusBadRequest, "deliveries is required")
		return
	}

	stops := make([]domain.DeliveryStop, 0, len(req.Deliveries))
	for _, d := range req.Deliveries {
		stop := domain.DeliveryStop{
			ID:          d.ID,
			Address:     d.Address,
			ServiceTime: time.Duration(d.ServiceTimeMinutes) * time.Minute,
			WeightKg:    d.WeightKg,
			Priority:    domain.ParsePriority(d.Priority),
			Tags:        d.Tags,
		}
		if d.Coords != nil {
			stop.Coords = &domain.Coordinates{Lat: d.Coords.Lat, Lon: d.Coords.Lon}
		}
		if d.Window != nil {
			stop.Window = &domain.TimeWindow{Start: d.Window.Start, End: d.Window.End}
		}
		stops = append(stops, stop)
	}

	h.geocodeMissing(r.Context(), stops)

	vc := domain.VehicleConstraints{
		MaxCapacityKg: defaultCapacityKg,
		MaxDeliveries: defaultMaxDeliveries,
	}
	if req.Vehicle != nil {
		vc.MaxCapacityKg = req.Vehicle.MaxCapacityKg
		vc.CurrentLoadKg = req.Vehicle.CurrentLoadKg
		vc.MaxDeliveries = req.Vehicle.MaxDeliveries
		if req.Vehicle.WorkStart != nil {
			vc.WorkStart = *req.Vehicle.WorkStart
		}
		if req.Vehicle.WorkEnd != nil {
			vc.WorkEnd = *req.Vehicle.WorkEnd
		}
	}

	depart := time.Now()
	if req.DepartAt != nil {
		depart = *req.DepartAt
	}

	driver := domain.Coordinates{Lat: req.Driver.Lat, Lon: req.Driver.Lon}
	res := h.Engine.Optimize(r.Context(), driver, stops, vc, depart)

	status := http.StatusOK
	if len(res.Errors) > 0 && len(res.Route) == 0 {
		status = http.StatusBadRequest
	}

	writeJSON(w, r, status, dto.OptimizeResponse{
		Route:           res.Route,
		TotalDistanceKm: res.TotalDistanceKm,
		TotalTimeMin:    res.TotalTime.Minutes(),
		Algorithm:       res.Algorithm,
		AlgorithmsTried: res.AlgorithmsTried,
		ETAs:            res.ETAs,
		TrafficFactors:  res.TrafficFactors,
		IsValid:         res.IsValid,
		Errors:          res.Errors,
		Warnings:        res.Warnings,
	})
}

// geocodeMissing fills in coordinates for address-only deliveries, batching
// lookups within the resolver's batch limit. Resolution failures leave the
// stop without coordinates rather than failing the request.
func (h *OptimizeHandler) geocodeMissing(ctx context.Context, stops []domain.DeliveryStop) {
	if h.Resolver == nil {
		return
	}

	pending := make([]int, 0)
	for i := range stops {
		if !stops[i].HasValidCoords() && stops[i].Address != "" {
			pending = append(pending, i)
		}
	}

	for len(pending) > 0 {
		n := len(pending)
		if n > geocode.MaxBatchSize {
			n = geocode.MaxBatchSize
		}
		chunk := pending[:n]
		pending = pending[n:]

		addrs := make([]string, 0, n)
		for _, idx := range chunk {
			addrs = append(addrs, stops[idx].Address)
		}

		results, err := h.Resolver.ResolveBatch(ctx, addrs)
		if err != nil {
			return
		}
		for j, res := range results {
			if res.Coords != nil && res.Coords.Valid() {
				stops[chunk[j]].Coords = res.Coords
			}
		}
	}
}
