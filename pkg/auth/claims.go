package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/nileshbarai/distrokhata-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID   int64
	Role     enums.UserRole
	TenantID *int64
}

// AccessTokenClaims is the typed JWT consumed by the identity middleware.
// The platform never authenticates users itself; it only trusts the resolved
// (user, role, tenant) triple carried here.
type AccessTokenClaims struct {
	UserID   int64          `json:"user_id"`
	Role     enums.UserRole `json:"role"`
	TenantID *int64         `json:"tenant_id,omitempty"`
	jwt.RegisteredClaims
}
