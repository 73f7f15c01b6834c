package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User roles. Dashboards exist for every role except staff.
const (
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleSupervisor = "supervisor"
	RoleGM         = "gm"
	RoleDireksi    = "direksi"
	RoleStaff      = "staff"
)

// Roles lists every assignable role.
var Roles = []string{RoleAdmin, RoleManager, RoleSupervisor, RoleGM, RoleDireksi, RoleStaff}

// IsValidRole reports whether role is one of Roles.
func IsValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// CanApprove reports whether users with role may decide approval requests.
// It mirrors the roles granted role:approver in the authz policy.
func CanApprove(role string) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleSupervisor, RoleGM, RoleDireksi:
		return true
	}
	return false
}

// User is a member of exactly one workspace.
type User struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	WorkspaceID uuid.UUID      `gorm:"type:uuid;not null;index" json:"workspace_id"`
	Email       string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	FullName    string         `gorm:"type:varchar(255);not null" json:"full_name"`
	Password    string         `gorm:"type:varchar(255);not null" json:"-"`
	Role        string         `gorm:"type:varchar(20);not null;index" json:"role"`
	IsActive    bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
