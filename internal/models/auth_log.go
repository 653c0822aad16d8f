package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AuthLog stores structured auth failure records for operator review.
type AuthLog struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Timestamp time.Time      `gorm:"not null;index" json:"timestamp"`
	Level     string         `gorm:"size:10;not null;index" json:"level"`
	Kind      string         `gorm:"size:40;index" json:"kind"`
	Message   string         `gorm:"type:text" json:"message"`
	UserID    *string        `gorm:"size:36" json:"user_id"`
	Email     string         `gorm:"size:255" json:"email"`
	Provider  string         `gorm:"size:50" json:"provider"`
	Route     string         `gorm:"size:255" json:"route"`
	Error     string         `gorm:"type:text" json:"error"`
	Extra     datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"extra"`
	CreatedAt time.Time      `json:"created_at"`
}
