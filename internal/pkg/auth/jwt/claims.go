package jwt

import "github.com/golang-jwt/jwt"

// RoleStaff is the only role allowed on staff routes.
const RoleStaff = "staff"

// Payload defines the structure of the JSON Web Token (JWT) claims carried by staff tokens.
type Payload struct {
	// StandardClaims embeds the necessary JWT standard fields such as Exp (Expiration),
	// Iat (Issued At), and Iss (Issuer). These are crucial for token validity checks.
	jwt.StandardClaims `json:"standard_claims"`

	// StaffID identifies the restaurant employee the token was issued to.
	StaffID string `json:"staff_id"`

	// Role defines the permissions of the holder. Staff routes require RoleStaff.
	Role string `json:"role"`
}
