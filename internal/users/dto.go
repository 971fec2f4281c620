package users

// StoreUserRequest is the allow-listed payload for user creation. Password
// strength is enforced by the service-level policy, not tags.
type StoreUserRequest struct {
	Name     string  `json:"name" validate:"required,max=255"`
	Email    string  `json:"email" validate:"required,email,max=255"`
	Password string  `json:"password" validate:"required"`
	RoleIDs  []int64 `json:"role_ids" validate:"required,min=1,dive,gt=0"`
}

// UpdateUserRequest is the allow-listed payload for user updates. A nil
// password keeps the stored hash; the role set is replaced only when present,
// and must then be non-empty.
type UpdateUserRequest struct {
	Name     string   `json:"name" validate:"required,max=255"`
	Email    string   `json:"email" validate:"required,email,max=255"`
	Password *string  `json:"password" validate:"omitempty"`
	RoleIDs  *[]int64 `json:"role_ids" validate:"omitempty,min=1,dive,gt=0"`
}
