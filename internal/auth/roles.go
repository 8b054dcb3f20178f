package auth

import "github.com/smartrental/rental-web/internal/session"

// Page paths the role router and guard redirect to.
const (
	PathLogin        = "/login"
	PathUnauthorized = "/unauthorized"
)

var destinations = map[session.Role]string{
	session.RoleAdmin:  "/admin-dashboard",
	session.RoleOwner:  "/owner-dashboard",
	session.RoleTenant: "/tenant-dashboard",
}

// DestinationFor returns the dashboard path for a role. Unknown and empty
// roles go to the unauthorized page.
func DestinationFor(role session.Role) string {
	if path, ok := destinations[session.NormalizeRole(string(role))]; ok {
		return path
	}
	return PathUnauthorized
}
