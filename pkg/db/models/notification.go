package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/galatadergisi/galata-backend/pkg/enums"
)

// Notification is a queued outbound message. Rows are append-only from the
// producers' point of view; the relay owns PublishedAt/AttemptCount/LastError.
type Notification struct {
	ID           uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	Kind         enums.NotificationKind `gorm:"column:kind;type:varchar(32);not null"`
	Recipient    string                 `gorm:"column:recipient;type:text;not null"`
	Payload      json.RawMessage        `gorm:"column:payload;type:jsonb;not null"`
	CreatedAt    time.Time              `gorm:"column:created_at;autoCreateTime"`
	PublishedAt  *time.Time             `gorm:"column:published_at"`
	AttemptCount int                    `gorm:"column:attempt_count;not null;default:0"`
	LastError    *string                `gorm:"column:last_error"`
}

func (Notification) TableName() string { return "notifications" }
