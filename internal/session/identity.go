package session

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is what the client can derive from a stored token without the
// server's signing key. The signature is not verified here; the backend is
// the authority and rejects bad tokens with 401.
type Identity struct {
	Subject string
	Email   string
	Role    string
	Admin   bool
}

type identityClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// ErrMalformedToken reports a credential that does not parse as a JWT.
var ErrMalformedToken = errors.New("malformed token")

// IdentityFromToken extracts the subject and role claims from a bearer
// token. Admin tokens carry role=admin or an "admin:" subject prefix.
func IdentityFromToken(token string) (Identity, error) {
	claims := &identityClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return Identity{}, errors.Join(ErrMalformedToken, err)
	}

	id := Identity{
		Subject: claims.Subject,
		Role:    claims.Role,
	}
	if claims.Role == "admin" || strings.HasPrefix(claims.Subject, "admin:") {
		id.Admin = true
	} else {
		id.Email = claims.Subject
	}
	return id, nil
}
