package models

import id "github.com/youssefloay/comebac-sub002/pkg/domain"

// CapacityLimit is the per-match ceiling on simultaneous admission claims.
// A match without a row falls back to the configured default limit.
type CapacityLimit struct {
	Match id.MatchRef
	Limit int
}

// Availability is a point-in-time capacity snapshot. Used counts requests in
// pending or approved; rejected requests release their slot.
type Availability struct {
	Limit     int `json:"limit"`
	Used      int `json:"used"`
	Available int `json:"available"`
}

// NewAvailability derives the snapshot, clamping Available at zero so an
// over-admitted match reads as full rather than negative.
func NewAvailability(limit, used int) Availability {
	available := limit - used
	if available < 0 {
		available = 0
	}
	return Availability{Limit: limit, Used: used, Available: available}
}
