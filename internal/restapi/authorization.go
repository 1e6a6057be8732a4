package restapi

import (
	"encoding/base64"
	"strings"
)

// Authorization carries the outcome of an authorization check. Data
// typically holds the authenticated principal (a user or API token
// record) for downstream handlers to use.
type Authorization struct {
	Authorized bool
	Data       any
}

// Credentials is the parsed form of an inbound Authorization header.
// The two implementations are BasicCredentials and BearerCredentials.
type Credentials interface {
	credentials()
}

// BasicCredentials holds a decoded Basic scheme username and password.
type BasicCredentials struct {
	Username string
	Password string
}

func (BasicCredentials) credentials() {}

// BearerCredentials holds an opaque Bearer scheme token.
type BearerCredentials struct {
	Token string
}

func (BearerCredentials) credentials() {}

// AuthFunc resolves parsed credentials and the scopes required for the
// inbound method into an Authorization. creds is nil when the header was
// missing or not parseable; the resolver decides what that means, which
// is invariably "not authorized".
type AuthFunc func(creds Credentials, requiredScopes []string) *Authorization

// parseAuthorizationHeader parses an Authorization header value into
// credentials. Any scheme other than Basic or Bearer, and any malformed
// value, yields nil: an unauthenticated attempt, not an error.
func parseAuthorizationHeader(header string) Credentials {
	scheme, value, found := strings.Cut(header, " ")
	if !found || value == "" {
		return nil
	}

	switch strings.ToLower(scheme) {
	case "basic":
		decoded, err := base64.StdEncoding.DecodeString(value)
		if err != nil {
			return nil
		}
		username, password, ok := strings.Cut(string(decoded), ":")
		if !ok {
			return nil
		}
		return BasicCredentials{Username: username, Password: password}
	case "bearer":
		return BearerCredentials{Token: value}
	default:
		return nil
	}
}
