package service

import "lendhub-backend/internal/domain"

// maxRentDuration resolves the duration cap in days for a holder with the
// given tier prio. An exact tier match wins. Without one, the holder inherits
// the policy of the nearest tier above it in the ordering (the greatest prio
// not exceeding the holder's). Types without any applicable policy fall back
// to the configured default.
//
// policies must be ordered by tier prio ascending, as the repository returns
// them.
func maxRentDuration(policies []domain.DurationPolicy, tierPrio, defaultDays int) int {
	best := -1
	for _, p := range policies {
		if p.TierPrio == tierPrio {
			return p.DurationDays
		}
		if p.TierPrio < tierPrio {
			best = p.DurationDays
		}
	}
	if best >= 0 {
		return best
	}
	return defaultDays
}
