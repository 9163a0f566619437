package domain

import (
	"time"

	"github.com/google/uuid"
)

// Stream names
const (
	StreamContributions = "stream:contributions"
)

// ContributionBatchEvent - пачка несинхронизированных вкладов, публикуемая в stream
type ContributionBatchEvent struct {
	BatchID       uuid.UUID      `json:"batch_id"`
	DeviceUserID  string         `json:"device_user_id"`
	Contributions []Contribution `json:"contributions"`
	PublishedAt   time.Time      `json:"published_at"`
}

// NewContributionBatchEvent собирает событие с новым идентификатором пачки
func NewContributionBatchEvent(deviceUserID string, items []Contribution, now time.Time) ContributionBatchEvent {
	return ContributionBatchEvent{
		BatchID:       uuid.New(),
		DeviceUserID:  deviceUserID,
		Contributions: items,
		PublishedAt:   now,
	}
}

// IsEmpty - в пачке нет записей
func (e ContributionBatchEvent) IsEmpty() bool {
	return len(e.Contributions) == 0
}

// StreamMessage - сообщение из Redis Stream
type StreamMessage struct {
	ID   string
	Data string
}
