package authz

// Action enumerates the target-policy operations.
type Action string

// Actions understood by the target policies.
const (
	ActionViewAny     Action = "view-any"
	ActionView        Action = "view"
	ActionCreate      Action = "create"
	ActionUpdate      Action = "update"
	ActionDelete      Action = "delete"
	ActionRestore     Action = "restore"
	ActionForceDelete Action = "force-delete"
)

// TargetKind identifies which policy variant applies.
type TargetKind string

// Target kinds with registered policies.
const (
	TargetRole TargetKind = "role"
	TargetUser TargetKind = "user"
)

// Target carries the attributes a policy may consult. Policies dispatch on the
// (Action, Kind) pair; there is no runtime type inspection.
type Target struct {
	Kind     TargetKind
	ID       int64
	IsSystem bool
}

// RoleTarget builds a Target for a role.
func RoleTarget(id int64, isSystem bool) Target {
	return Target{Kind: TargetRole, ID: id, IsSystem: isSystem}
}

// UserTarget builds a Target for a user.
func UserTarget(id int64) Target {
	return Target{Kind: TargetUser, ID: id}
}

// Subject describes the authenticated actor.
type Subject interface {
	GetID() int64
}

// SubjectID is the minimal Subject implementation.
type SubjectID int64

// GetID implements Subject.
func (s SubjectID) GetID() int64 { return int64(s) }
