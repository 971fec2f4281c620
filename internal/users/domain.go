package users

import (
	"time"

	"github.com/vantage-hq/vantage/internal/roles"
)

// User represents a managed account (a Subject in authorization terms).
// The credential hash never leaves this package through the API surface.
type User struct {
	ID              int64        `json:"id"`
	Name            string       `json:"name"`
	Email           string       `json:"email"`
	PasswordHash    string       `json:"-"`
	EmailVerifiedAt *time.Time   `json:"email_verified_at"`
	Roles           []roles.Role `json:"roles"`
	PermissionSlugs []string     `json:"permission_slugs"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// ListFilters narrows and pages the user listing.
type ListFilters struct {
	Search   string
	RoleSlug string
	Page     int
	PerPage  int
}

// CreateParams carries the allow-listed fields for user creation.
type CreateParams struct {
	Name         string
	Email        string
	PasswordHash string
	RoleIDs      []int64
}

// UpdateParams carries the allow-listed fields for user updates. An empty
// PasswordHash leaves the stored credential untouched; a nil RoleIDs leaves
// the role assignments untouched.
type UpdateParams struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	RoleIDs      []int64
}

// collectPermissionSlugs deduplicates permission slugs across held roles.
func collectPermissionSlugs(held []roles.Role) []string {
	seen := make(map[string]struct{})
	slugs := []string{}
	for _, role := range held {
		for _, perm := range role.Permissions {
			if _, ok := seen[perm.Slug]; ok {
				continue
			}
			seen[perm.Slug] = struct{}{}
			slugs = append(slugs, perm.Slug)
		}
	}
	return slugs
}
