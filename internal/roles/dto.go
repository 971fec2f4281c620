package roles

// StoreRoleRequest is the allow-listed payload for role creation. Request
// fields outside this set are never forwarded into persistence.
type StoreRoleRequest struct {
	Name          string  `json:"name" validate:"required,max=255"`
	Slug          string  `json:"slug" validate:"required,max=255,slug"`
	Description   *string `json:"description" validate:"omitempty,max=255"`
	PermissionIDs []int64 `json:"permission_ids" validate:"required,min=1,dive,gt=0"`
}

// UpdateRoleRequest is the allow-listed payload for role updates. The
// permission set is replaced only when the field is present.
type UpdateRoleRequest struct {
	Name          string   `json:"name" validate:"required,max=255"`
	Slug          string   `json:"slug" validate:"required,max=255,slug"`
	Description   *string  `json:"description" validate:"omitempty,max=255"`
	PermissionIDs *[]int64 `json:"permission_ids" validate:"omitempty,min=1,dive,gt=0"`
}
