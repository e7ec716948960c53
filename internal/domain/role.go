package domain

// AdminRoleName is the protected administrator role. The last user holding
// it cannot be deleted or demoted.
const AdminRoleName = "admin"

// Role is a named set of global permissions. Users reference a role by id;
// permissions are always derived from the role on read, never copied onto
// the user record.
type Role struct {
	RoleID      string             `json:"role_id" db:"role_id"`
	Name        string             `json:"name" db:"name"`
	Permissions []GlobalPermission `json:"permissions"`
}

// IsAdmin reports whether this is the protected administrator role.
func (r *Role) IsAdmin() bool {
	return r != nil && r.Name == AdminRoleName
}
