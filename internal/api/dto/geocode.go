package dto

type GeocodeRequest struct {
	Address   string   `json:"address,omitempty"`
	Addresses []string `json:"addresses,omitempty"`
}

type GeocodeResultResponse struct {
	Address          string          `json:"address"`
	Coords           *CoordinatesDTO `json:"coords"`
	Accuracy         string          `json:"accuracy"`
	Confidence       float64         `json:"confidence"`
	City             string          `json:"city,omitempty"`
	Country          string          `json:"country,omitempty"`
	FormattedAddress string          `json:"formatted_address,omitempty"`
	FromCache        bool            `json:"from_cache"`
}

type GeocodeResponse struct {
	Results []GeocodeResultResponse `json:"results"`
}

type GeocodeStatsResponse struct {
	Entries       int               `json:"entries"`
	Hits          uint64            `json:"hits"`
	Misses        uint64            `json:"misses"`
	HitRate       float64           `json:"hit_rate"`
	ByAccuracy    map[string]uint64 `json:"by_accuracy"`
	AvgConfidence float64           `json:"avg_confidence"`
}
