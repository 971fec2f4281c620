package roles

import (
	"time"

	"github.com/vantage-hq/vantage/internal/permissions"
)

// Role is a named, described bundle of permissions. The slug is the immutable
// policy identity; system-protected roles cannot be deleted through normal
// authorization paths.
type Role struct {
	ID          int64                    `json:"id"`
	Name        string                   `json:"name"`
	Slug        string                   `json:"slug"`
	Description string                   `json:"description"`
	IsSystem    bool                     `json:"is_system"`
	Permissions []permissions.Permission `json:"permissions"`
	UsersCount  int                      `json:"users_count"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
}

// ListFilters narrows and pages the role listing.
type ListFilters struct {
	Search  string
	Page    int
	PerPage int
}

// CreateParams carries the allow-listed fields for role creation. New roles
// are never system-protected.
type CreateParams struct {
	Name          string
	Slug          string
	Description   string
	PermissionIDs []int64
}

// UpdateParams carries the allow-listed fields for role updates. A nil
// PermissionIDs leaves the permission set untouched.
type UpdateParams struct {
	ID            int64
	Name          string
	Slug          string
	Description   string
	PermissionIDs []int64
}
