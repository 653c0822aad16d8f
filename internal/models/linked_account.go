package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// LinkedAccount ties a user to one external-provider identity.
// The (provider, provider_account_id) pair is unique across the table.
type LinkedAccount struct {
	ID                uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID            uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Provider          string         `gorm:"size:50;not null;uniqueIndex:idx_accounts_provider_account" json:"provider"`
	ProviderAccountID string         `gorm:"size:255;not null;uniqueIndex:idx_accounts_provider_account" json:"provider_account_id"`
	Profile           datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"-"`
	CreatedAt         time.Time      `json:"created_at"`
	User              User           `gorm:"foreignKey:UserID" json:"-"`
}
