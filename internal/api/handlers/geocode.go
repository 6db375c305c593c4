package handlers

import (
	"net/http"

	"route-optimizer-service/internal/api/dto"
	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/geocode"
)

type GeocodeHandler struct {
	Resolver *geocode.Resolver
}

// Geocode resolves one address or a batch. A single address uses the
// "address" field; batches use "addresses" and are capped at the resolver's
// batch limit.
func (h *GeocodeHandler) Geocode(w http.ResponseWriter, r *http.Request) {
	var req dto.GeocodeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	addrs := req.Addresses
	if req.Address != "" {
		if len(addrs) > 0 {
			writeError(w, r, http.StatusBadRequest, "use either address or addresses, not both")
			return
		}
		addrs = []string{req.Address}
	}
	if len(addrs) == 0 {
		writeError(w, r, http.StatusBadRequest, "address or addresses is required")
		return
	}

	results, err := h.Resolver.ResolveBatch(r.Context(), addrs)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	res := dto.GeocodeResponse{Results: make([]dto.GeocodeResultResponse, 0, len(results))}
	for i, g := range results {
		res.Results = append(res.Results, toGeocodeDTO(addrs[i], g))
	}
	writeJSON(w, r, http.StatusOK, res)
}

// Stats reports cache size, hit counts and accuracy distribution.
func (h *GeocodeHandler) Stats(w http.ResponseWriter, r *http.Request) {
	s := h.Resolver.Stats(r.Context())

	byAcc := make(map[string]uint64, len(s.ByAccuracy))
	for k, v := range s.ByAccuracy {
		byAcc[string(k)] = v
	}

	var hitRate float64
	if total := s.Hits + s.Misses; total > 0 {
		hitRate = float64(s.Hits) / float64(total)
	}

	writeJSON(w, r, http.StatusOK, dto.GeocodeStatsResponse{
		Entries:       s.Entries,
		Hits:          s.Hits,
		Misses:        s.Misses,
		HitRate:       hitRate,
		ByAccuracy:    byAcc,
		AvgConfidence: s.AvgConfidence,
	})
}

func toGeocodeDTO(address string, g domain.GeocodeResult) dto.GeocodeResultResponse {
	out := dto.GeocodeResultResponse{
		Address:          address,
		Accuracy:         string(g.Accuracy),
		Confidence:       g.Confidence,
		City:             g.City,
		Country:          g.Country,
		FormattedAddress: g.FormattedAddress,
		FromCache:        g.FromCache,
	}
	if g.Coords != nil {
		out.Coords = &dto.CoordinatesDTO{Lat: g.Coords.Lat, Lon: g.Coords.Lon}
	}
	return out
}
