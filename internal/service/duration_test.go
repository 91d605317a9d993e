package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"lendhub-backend/internal/domain"
)

func TestMaxRentDuration(t *testing.T) {
	policies := []domain.DurationPolicy{
		{TierPrio: 10, DurationDays: 14},
		{TierPrio: 50, DurationDays: 5},
	}

	t.Run("exact tier match wins", func(t *testing.T) {
		assert.Equal(t, 14, maxRentDuration(policies, 10, 7))
		assert.Equal(t, 5, maxRentDuration(policies, 50, 7))
	})

	t.Run("lower tier inherits the nearest policy above it", func(t *testing.T) {
		// A prio-99 holder has no own policy and falls back to the prio-50
		// one, not the more generous prio-10 one.
		assert.Equal(t, 5, maxRentDuration(policies, 99, 7))
		assert.Equal(t, 14, maxRentDuration(policies, 30, 7))
	})

	t.Run("no applicable policy falls back to the default", func(t *testing.T) {
		// The best tier of all sits above every policy tier.
		assert.Equal(t, 7, maxRentDuration(policies, 5, 7))
		assert.Equal(t, 7, maxRentDuration(nil, 50, 7))
	})
}
