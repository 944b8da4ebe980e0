package auth

import (
	"fmt"

	"github.com/garagehub/dispatch/identity"
	"github.com/golang-jwt/jwt"
)

// Claims is the payload of a bearer token. ID is nil for tokens that
// are not bound to an identity, such as password reset tokens
type Claims struct {
	ID             *int64   `json:"id"`
	UserType       string   `json:"usertype,omitempty"`
	Username       string   `json:"username,omitempty"`
	Authorisations []string `json:"authorisations"`
	jwt.StandardClaims
}

// Kind returns the kind of the identity the token was issued for
func (c *Claims) Kind() identity.Kind {
	return identity.Kind(c.UserType)
}

// validateShape checks that the claims carry the fields every token
// issued by this service has
func (c *Claims) validateShape(issuer string) error {
	if c.Authorisations == nil {
		return fmt.Errorf("authorisations claim missing")
	}

	if c.ID != nil && len(c.UserType) == 0 {
		return fmt.Errorf("usertype claim missing")
	}

	if c.ExpiresAt == 0 {
		return fmt.Errorf("exp claim missing")
	}

	if c.Issuer != issuer {
		return fmt.Errorf("unexpected issuer %s", c.Issuer)
	}

	return nil
}

// validateTime checks the token time window at unix second
// granularity. A token is valid from nbf included until exp excluded
func (c *Claims) validateTime(now int64) error {
	if now < c.NotBefore {
		return fmt.Errorf("token not yet valid")
	}

	if now >= c.ExpiresAt {
		return fmt.Errorf("token expired")
	}

	return nil
}
