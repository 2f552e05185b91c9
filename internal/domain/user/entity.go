package user

type Role string

const (
	RoleAdmin    Role = "admin"    // Manages attendance records and reads every report
	RoleManager  Role = "manager"  // Reads every record and report
	RoleEmployee Role = "employee" // Checks in and out, reads own records
)

func ParseRole(s string) (Role, bool) {
	r := Role(s)
	_, ok := RolePermissions[r]
	return r, ok
}

// Principal is the authenticated caller, taken from the access token.
type Principal struct {
	EmployeeID string
	Role       Role
}

// IsAdmin checks if the caller may change attendance data
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanViewAll checks if the caller may read other employees' attendance
func (p Principal) CanViewAll() bool {
	return HasPermission(p.Role, PermissionAttendanceViewAll)
}
