package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContributionBatchEvent(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	items := []Contribution{
		{ID: 1, TargetType: TargetPlace, TargetID: 10, Action: ActionCreate, UserID: "user_abc123", CreatedAt: now},
	}

	event := NewContributionBatchEvent("user_abc123", items, now)

	assert.NotEqual(t, uuid.Nil, event.BatchID)
	assert.False(t, event.IsEmpty())
	assert.True(t, NewContributionBatchEvent("user_abc123", nil, now).IsEmpty())

	data, err := json.Marshal(event)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"device_user_id":"user_abc123"`)
	assert.Contains(t, string(data), `"action":"create"`)
}
