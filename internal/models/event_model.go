package models

import (
	"time"

	"gorm.io/datatypes"
)

// Event is an outbox copy of every domain event published to the broker.
type Event struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"size:100;index" json:"name"`
	Payload   datatypes.JSON `json:"payload"`
	Published bool           `gorm:"default:false" json:"published"`
	CreatedAt time.Time      `json:"created_at"`
}
