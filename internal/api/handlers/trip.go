package handlers

import (
	"errors"
	"log"
	"net/http"

	"route-optimizer-service/internal/adapters/trip"
	"route-optimizer-service/internal/api/dto"
	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/ports"
)

type TripHandler struct {
	Optimizer ports.TripOptimizer
}

// Trip forwards waypoints to the hosted trip-optimization service and maps
// its failure classes onto HTTP statuses: caller mistakes are 400, upstream
// failures are 502.
func (h *TripHandler) Trip(w http.ResponseWriter, r *http.Request) {
	if h.Optimizer == nil {
		writeError(w, r, http.StatusServiceUnavailable, "trip optimization is not configured")
		return
	}

	var req dto.TripRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	waypoints := make([]domain.Coordinates, 0, len(req.Waypoints))
	for _, c := range req.Waypoints {
		waypoints = append(waypoints, domain.Coordinates{Lat: c.Lat, Lon: c.Lon})
	}

	res, err := h.Optimizer.OptimizeTrip(r.Context(), ports.TripRequest{
		Waypoints:  waypoints,
		Profile:    req.Profile,
		FixedStart: req.FixedStart,
		FixedEnd:   req.FixedEnd,
		RoundTrip:  req.RoundTrip,
		Geometry:   req.Geometry,
	})
	if err != nil {
		switch {
		case errors.Is(err, trip.ErrBadWaypoints):
			writeError(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, trip.ErrUpstream):
			log.Printf("trip upstream failed: %v", err)
			writeError(w, r, http.StatusBadGateway, "trip service unavailable")
		default:
			log.Printf("trip failed: %v", err)
			writeError(w, r, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	out := dto.TripResponse{
		Order:           res.Order,
		Waypoints:       make([]dto.CoordinatesDTO, 0, len(res.Waypoints)),
		DistanceMeters:  res.DistanceMeters,
		DurationSeconds: res.DurationSeconds,
		Geometry:        res.Geometry,
		Legs:            make([]dto.TripLegResponse, 0, len(res.Legs)),
	}
	for _, c := range res.Waypoints {
		out.Waypoints = append(out.Waypoints, dto.CoordinatesDTO{Lat: c.Lat, Lon: c.Lon})
	}
	for _, leg := range res.Legs {
		out.Legs = append(out.Legs, dto.TripLegResponse{
			DistanceMeters:  leg.DistanceMeters,
			DurationSeconds: leg.DurationSeconds,
			Steps:           leg.Steps,
		})
	}

	writeJSON(w, r, http.StatusOK, out)
}
