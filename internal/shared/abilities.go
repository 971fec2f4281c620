package shared

// Core platform abilities. Policy code compares these slugs, never numeric ids.
const (
	AbilityViewDashboard  = "view-dashboard"
	AbilityManageUsers    = "manage-users"
	AbilityManageRoles    = "manage-roles"
	AbilityManageSettings = "manage-settings"
)

// SuperAdminRoleSlug is the distinguished role that bypasses every ability
// and target policy check.
const SuperAdminRoleSlug = "super-admin"

// CoreAbilities lists all abilities known to the platform.
func CoreAbilities() []string {
	return []string{
		AbilityViewDashboard,
		AbilityManageUsers,
		AbilityManageRoles,
		AbilityManageSettings,
	}
}
