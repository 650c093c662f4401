package enums

import "fmt"

// UserRole is the resolved actor role carried by the identity context.
// master_admin operates across tenants, super_admin administers one tenant,
// distributor places orders for itself.
type UserRole string

const (
	UserRoleMasterAdmin UserRole = "master_admin"
	UserRoleSuperAdmin  UserRole = "super_admin"
	UserRoleDistributor UserRole = "distributor"
)

var validUserRoles = []UserRole{
	UserRoleMasterAdmin,
	UserRoleSuperAdmin,
	UserRoleDistributor,
}

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known UserRole.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the role may run tenant administration operations.
func (r UserRole) IsAdmin() bool {
	return r == UserRoleMasterAdmin || r == UserRoleSuperAdmin
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
