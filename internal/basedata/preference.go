package basedata

import (
	"github.com/moznion/go-optional"

	"github.com/Checker-Finance/basedata-adapter/pkg/model"
)

// PreferredVenue picks the preferred venue id of one trading channel.
//
// No venues yields None. A single venue without liquidity data is preferred
// outright. Otherwise the venue with the strictly highest metric wins.
// Candidates are ranked in liquidity row order, followed by unsampled venues
// at liquidity 0 in discovery order, so ties go to the venue encountered
// first. Samples for ids not in venues are ignored; an id sampled twice
// keeps its first sample.
func PreferredVenue(venues []model.Venue, samples []model.LiquiditySample) optional.Option[string] {
	if len(venues) == 0 {
		return optional.None[string]()
	}
	if len(venues) == 1 && len(samples) == 0 {
		return optional.Some(venues[0].ID)
	}

	known := make(map[string]struct{}, len(venues))
	for _, v := range venues {
		known[v.ID] = struct{}{}
	}

	candidates := make([]model.LiquiditySample, 0, len(venues))
	seen := make(map[string]struct{}, len(venues))
	for _, s := range samples {
		if _, ok := known[s.VenueID]; !ok {
			continue
		}
		if _, dup := seen[s.VenueID]; dup {
			continue
		}
		seen[s.VenueID] = struct{}{}
		candidates = append(candidates, s)
	}
	for _, v := range venues {
		if _, ok := seen[v.ID]; !ok {
			candidates = append(candidates, model.LiquiditySample{VenueName: v.Name, VenueID: v.ID})
		}
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Metric > best.Metric {
			best = c
		}
	}
	return optional.Some(best.VenueID)
}
