package auth

import "github.com/nileshbarai/distrokhata-backend/pkg/enums"

// Identity is the resolved actor for a request: who they are, what they may
// do, and which tenant they act within. A nil TenantID means the platform
// scope (master admin).
type Identity struct {
	UserID   int64
	Role     enums.UserRole
	TenantID *int64
}

// IsAdmin reports whether the identity may run administration operations.
func (i Identity) IsAdmin() bool {
	return i.Role.IsAdmin()
}

// CrossTenant reports whether the identity sees data across all tenants.
func (i Identity) CrossTenant() bool {
	return i.Role == enums.UserRoleMasterAdmin
}

// IdentityFromClaims converts verified token claims into an Identity.
func IdentityFromClaims(claims *AccessTokenClaims) Identity {
	if claims == nil {
		return Identity{}
	}
	return Identity{
		UserID:   claims.UserID,
		Role:     claims.Role,
		TenantID: claims.TenantID,
	}
}
