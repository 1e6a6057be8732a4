package restapi

import (
	"fmt"
	"net/http"
)

// httpMethods is the closed set of methods an endpoint may declare.
var httpMethods = map[string]bool{
	"GET":    true,
	"POST":   true,
	"PUT":    true,
	"PATCH":  true,
	"DELETE": true,
}

// EndpointScopes maps an HTTP method to the scopes that may invoke it.
// At least one of the listed scopes must be held by the caller. A method
// without an entry has no scope requirement.
type EndpointScopes map[string][]string

// ForMethod returns the required scopes for the given method, or nil.
func (s EndpointScopes) ForMethod(method string) []string {
	if s == nil {
		return nil
	}
	return s[method]
}

// validate checks that every key is a known HTTP method. Called during
// registration so a typo fails at setup, not at serve time.
func (s EndpointScopes) validate() error {
	for method := range s {
		if !httpMethods[method] {
			return fmt.Errorf("unknown HTTP method in endpoint scopes: %q", method)
		}
	}
	return nil
}

// HandlerFunc is the signature of an endpoint handler. The request is
// passed through for body and query access, auth is nil when the
// endpoint does not require authorization, and match holds the URL
// capture groups. Errors returned from a handler are mapped onto HTTP
// statuses by the dispatcher.
type HandlerFunc func(r *http.Request, auth *Authorization, match *URLMatch) (*Response, error)

// Endpoint is a declarative endpoint descriptor. It is immutable once
// registered on a Group. Multiple URL suffixes may map to the same
// handler, typically the variants with and without a trailing slash.
type Endpoint struct {
	URLSuffixes []string
	Handler     HandlerFunc
	HTTPMethods []string

	// Name and Description are used in help output only.
	Name        string
	Description string

	AuthNeeded bool
	AuthScopes EndpointScopes
}

// allowsMethod reports whether the endpoint lists the given HTTP method.
func (e *Endpoint) allowsMethod(method string) bool {
	for _, m := range e.HTTPMethods {
		if m == method {
			return true
		}
	}
	return false
}

// EndpointURL is a resolved (absolute URL pattern, endpoint) pair, the
// flattened join of a Group tree.
type EndpointURL struct {
	URL      string
	Endpoint *Endpoint
}
