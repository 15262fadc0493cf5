package mirror

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// EventRecord is the relational projection of a settlement event. The mirror
// is read-only from the analytics side and append-only from ours.
type EventRecord struct {
	ID         uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	Operation  string         `json:"operation" gorm:"not null;index"`
	Entity     string         `json:"entity" gorm:"not null;index"`
	EntityID   int64          `json:"entity_id" gorm:"index"`
	Actors     datatypes.JSON `json:"actors" gorm:"default:'{}'"`
	Amounts    datatypes.JSON `json:"amounts" gorm:"default:'{}'"`
	Asset      string         `json:"asset"`
	OccurredAt time.Time      `json:"occurred_at" gorm:"not null;index"`
	CreatedAt  time.Time      `json:"created_at" gorm:"autoCreateTime"`
}

func (EventRecord) TableName() string {
	return "marketplace_events"
}
