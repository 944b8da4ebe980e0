package client

import (
	"text/template"
)

// Callback is the definition of how a callback
// will be sent and what data along with it
type Callback struct {
	// Enabled if set the callback will be send by the
	// client, otherwise it will be ignored
	Enabled bool

	// Name is a human readable name to identify the callback
	Name string

	// Method is the http method send in the http request
	Method string

	// URL is the complete http url where the request will
	// be sent
	URL string

	// BodyFormat is the template of the body of the http request. If
	// it is not set the body is the JSON encoding of the callback body
	BodyFormat *template.Template

	// Headers a slice of http headers (':' separated)
	// that will be sent through the client
	Headers []string

	// Sync if set the callback is delivered before Callback returns,
	// otherwise it is delivered in the background
	Sync bool
}

// PasswordResetRequestedBody is the body sent on a PasswordResetRequested
// to the mail relay
type PasswordResetRequestedBody struct {
	// UserType is the kind of the identity that requested the reset
	UserType string `json:"usertype"`

	// Username is the principal name of the identity
	Username string `json:"username"`

	// Token is the short lived token that authorises the reset
	Token string `json:"token"`

	// ExpiresAt is the unix timestamp at which the token expires
	ExpiresAt int64 `json:"expiresAt"`
}
