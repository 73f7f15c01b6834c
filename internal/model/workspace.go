package model

import (
	"time"

	"github.com/google/uuid"
)

// Workspace is the tenant boundary. Every other row carries a WorkspaceID.
type Workspace struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
