package transport

import (
	"net/http"
)

// Authenticator applies authentication to HTTP requests.
type Authenticator interface {
	Apply(req *http.Request, token string)
}

// NoAuth implements no authentication.
type NoAuth struct{}

// Apply implements the Authenticator interface for NoAuth.
func (a *NoAuth) Apply(_ *http.Request, _ string) {}

// BearerAuth sends the token in the Authorization header with the Bearer
// scheme.
type BearerAuth struct{}

// Apply implements the Authenticator interface for BearerAuth.
func (a *BearerAuth) Apply(req *http.Request, token string) {
	req.Header.Set("Authorization", "Bearer "+token)
}

// HeaderAuth sends the token in an arbitrary header, optionally prefixed
// with a scheme. ClickUp personal tokens go in Authorization with no scheme.
type HeaderAuth struct {
	Header string
	Scheme string
}

// Apply implements the Authenticator interface for HeaderAuth.
func (a *HeaderAuth) Apply(req *http.Request, token string) {
	header := a.Header
	if header == "" {
		header = "Authorization"
	}
	value := token
	if a.Scheme != "" {
		value = a.Scheme + " " + token
	}
	req.Header.Set(header, value)
}

// AuthForScheme returns the authenticator for a configured scheme name:
// "bearer" → BearerAuth, "" or "direct" → raw token in Authorization,
// "none" → NoAuth.
func AuthForScheme(scheme string) Authenticator {
	switch scheme {
	case "bearer", "Bearer":
		return &BearerAuth{}
	case "none":
		return &NoAuth{}
	default:
		return &HeaderAuth{Header: "Authorization"}
	}
}
