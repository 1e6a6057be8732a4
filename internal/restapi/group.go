package restapi

import (
	"fmt"
	"strings"
)

// Group is a named collection of endpoints (and nested subgroups)
// sharing a URL prefix. Groups form a tree; prefixes concatenate from
// root to leaf. A Group is mutable during registration and must not be
// modified once a Generator starts serving it.
type Group struct {
	URLPrefix   string
	Name        string
	Description string

	endpoints []*Endpoint
	subgroups []*Group
}

// NewGroup creates a Group for the given URL prefix. A trailing slash is
// appended to the prefix if missing.
func NewGroup(urlPrefix, name, description string) *Group {
	if !strings.HasSuffix(urlPrefix, "/") {
		urlPrefix += "/"
	}
	if name == "" {
		name = urlPrefix
	}
	return &Group{
		URLPrefix:   urlPrefix,
		Name:        name,
		Description: description,
	}
}

// AddEndpoint registers an endpoint descriptor on the group and returns
// the group for chaining. It panics on a descriptor that could never be
// served; registration runs at startup, so this is a programmer error,
// not a runtime condition.
func (g *Group) AddEndpoint(e Endpoint) *Group {
	if len(e.URLSuffixes) == 0 {
		panic(fmt.Sprintf("endpoint %q has no URL suffixes", e.Name))
	}
	if e.Handler == nil {
		panic(fmt.Sprintf("endpoint %q has no handler", e.Name))
	}
	for _, m := range e.HTTPMethods {
		if !httpMethods[m] {
			panic(fmt.Sprintf("endpoint %q lists unknown HTTP method %q", e.Name, m))
		}
	}
	if err := e.AuthScopes.validate(); err != nil {
		panic(fmt.Sprintf("endpoint %q: %v", e.Name, err))
	}
	if len(e.HTTPMethods) == 0 {
		e.HTTPMethods = []string{"GET"}
	}
	g.endpoints = append(g.endpoints, &e)
	return g
}

// AddSubgroup appends a child group. Nesting depth is unbounded but
// expected shallow.
func (g *Group) AddSubgroup(sub *Group) *Group {
	g.subgroups = append(g.subgroups, sub)
	return g
}

// Endpoints returns one EndpointURL per (endpoint, URL suffix) pair in
// this group and all subgroups, with this group's prefix prepended.
func (g *Group) Endpoints() []EndpointURL {
	var urls []EndpointURL

	for _, endpoint := range g.endpoints {
		for _, suffix := range endpoint.URLSuffixes {
			urls = append(urls, EndpointURL{
				URL:      g.URLPrefix + suffix,
				Endpoint: endpoint,
			})
		}
	}

	for _, sub := range g.subgroups {
		for _, entry := range sub.Endpoints() {
			urls = append(urls, EndpointURL{
				URL:      g.URLPrefix + entry.URL,
				Endpoint: entry.Endpoint,
			})
		}
	}

	return urls
}
