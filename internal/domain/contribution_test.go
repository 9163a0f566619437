package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTarget(t *testing.T) {
	tests := []struct {
		kind     TargetType
		expected Target
	}{
		{TargetPlace, PlaceRef{7}},
		{TargetRestriction, RestrictionRef{7}},
		{TargetRoute, RouteRef{7}},
		{TargetHelper, HelperRef{7}},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			target, err := NewTarget(tt.kind, 7)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, target)
			assert.Equal(t, tt.kind, target.Type())
			assert.Equal(t, int64(7), target.ID())
		})
	}

	_, err := NewTarget("help_request", 1)
	assert.Error(t, err)
}

func TestContributionEntry_ToContribution(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	oldV, newV := "Taller Pepe", "Taller Pepe 24h"
	name := "Pepe"

	c := ContributionEntry{
		Target:     PlaceRef{42},
		TargetName: "Taller Pepe",
		Action:     ActionUpdate,
		Actor:      Actor{UserID: "user_abc123", UserName: &name},
		Change:     &FieldChange{Field: "name", OldValue: &oldV, NewValue: &newV},
	}.ToContribution(now)

	assert.Equal(t, TargetPlace, c.TargetType)
	assert.Equal(t, int64(42), c.TargetID)
	assert.Equal(t, "Taller Pepe", *c.TargetName)
	assert.Equal(t, "name", *c.FieldChanged)
	assert.Equal(t, "Taller Pepe 24h", *c.NewValue)
	assert.Nil(t, c.Notes)
	assert.False(t, c.IsSynced)
	assert.Equal(t, now, c.CreatedAt)

	target, err := c.Target()
	require.NoError(t, err)
	assert.Equal(t, PlaceRef{42}, target)
}

func TestIsValidAction(t *testing.T) {
	assert.True(t, IsValidAction(ActionDownvote))
	assert.False(t, IsValidAction("like"))
}
