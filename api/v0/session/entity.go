package session

import (
	"fmt"
	"strings"
)

// CreateSessionResponse is the response to a successful sign in
type CreateSessionResponse struct {
	// Token is the bearer token to authenticate further requests
	Token string `json:"token"`

	// TokenType is the authorization scheme the token is used with
	TokenType string `json:"tokenType"`
}

func (r CreateSessionResponse) String() string {
	return fmt.Sprintf("%s %s", r.TokenType, r.Token)
}

// GetSessionResponse describes the principal of the request
type GetSessionResponse struct {
	ID             int64    `json:"id"`
	UserType       string   `json:"usertype"`
	Username       string   `json:"username"`
	Authorisations []string `json:"authorisations"`
}

func (r GetSessionResponse) String() string {
	return fmt.Sprintf("%s %s (%d) authorised for [%s]",
		r.UserType, r.Username, r.ID, strings.Join(r.Authorisations, ", "))
}
