package restapi

import (
	"log/slog"
	"math"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/schema"
)

// DefaultPageLimit is the page size used when the request does not carry
// a limit query parameter.
const DefaultPageLimit = 25

// URLMatch holds the capture groups of the URL pattern that matched the
// request path.
type URLMatch struct {
	// Groups are the positional capture groups, excluding the full match.
	Groups []string

	// Named maps named capture groups such as (?P<resource_id>[0-9]+) to
	// their matched value.
	Named map[string]string
}

// Group returns positional capture group i, or "" when out of range.
func (m *URLMatch) Group(i int) string {
	if m == nil || i < 0 || i >= len(m.Groups) {
		return ""
	}
	return m.Groups[i]
}

// resolvedRoute is a cached (endpoint, match) pair for one request path.
type resolvedRoute struct {
	endpoint *Endpoint
	match    *URLMatch
}

// Config holds the dependencies for a Generator.
type Config struct {
	// BasePath is the URL prefix the generator is mounted under, e.g.
	// "/api/v1/". It is stripped from inbound paths before resolution.
	BasePath string

	// Authorize resolves credentials for endpoints with AuthNeeded set.
	// When nil, no authorization is performed at all.
	Authorize AuthFunc

	// DefaultLimit is the page size when the request carries no limit
	// parameter. Zero means DefaultPageLimit.
	DefaultLimit int

	Logger *slog.Logger
}

// Generator resolves inbound request paths to registered endpoints,
// authorizes and invokes them, paginates resource sets, and serializes
// responses to JSON. It implements http.Handler and is safe for
// concurrent use once all groups are registered.
type Generator struct {
	basePath     string
	authorize    AuthFunc
	defaultLimit int
	logger       *slog.Logger
	decoder      *schema.Decoder

	groups []*Group

	// Route resolution cache, populated on miss and never invalidated:
	// the route table is static after startup.
	mu     sync.RWMutex
	routes map[string]*resolvedRoute
}

// NewGenerator creates a Generator. Groups are registered afterwards
// with RegisterGroup; registration must finish before serving starts.
func NewGenerator(cfg Config) *Generator {
	basePath := cfg.BasePath
	if !strings.HasSuffix(basePath, "/") {
		basePath += "/"
	}
	limit := cfg.DefaultLimit
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	return &Generator{
		basePath:     basePath,
		authorize:    cfg.Authorize,
		defaultLimit: limit,
		logger:       logger,
		decoder:      decoder,
		routes:       make(map[string]*resolvedRoute),
	}
}

// RegisterGroup adds a top-level endpoint group.
func (g *Generator) RegisterGroup(group *Group) {
	g.groups = append(g.groups, group)
}

// AllEndpoints returns the flattened (URL, endpoint) list over all
// registered groups.
func (g *Generator) AllEndpoints() []EndpointURL {
	var urls []EndpointURL
	for _, group := range g.groups {
		urls = append(urls, group.Endpoints()...)
	}
	return urls
}

// paginationParams are the query parameters the dispatcher itself
// consumes. The pretty flag is presence-only and read separately.
type paginationParams struct {
	Page  int `schema:"page"`
	Limit int `schema:"limit"`
}

// ServeHTTP dispatches one API request: resolve, method check,
// authorization, handler invocation, pagination, serialization.
func (g *Generator) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	pretty := r.URL.Query().Has("pretty")

	resp := g.dispatch(r)
	resp.Runtime = float64(time.Since(start).Microseconds()) / 1000.0

	status := http.StatusOK
	if resp.ErrorCode != 0 {
		status = resp.ErrorCode
	}

	body, err := MarshalResponse(resp, pretty)
	if err != nil {
		g.logger.Error("response serialization failed",
			slog.String("path", r.URL.Path), slog.Any("error", err))
		errResp := errorResponse(http.StatusInternalServerError, "Internal server error")
		errResp.Runtime = resp.Runtime
		body, _ = MarshalResponse(errResp, pretty)
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// dispatch runs the request through the dispatch state machine and
// always returns a Response, never an error: every failure kind has
// already been folded into the error taxonomy here.
func (g *Generator) dispatch(r *http.Request) *Response {
	entry := g.resolve(r.URL.Path)
	if entry == nil {
		return errorResponse(http.StatusNotFound, "Resource not found")
	}
	endpoint := entry.endpoint

	if !endpoint.allowsMethod(r.Method) {
		return errorResponse(http.StatusMethodNotAllowed,
			"Method not allowed. Supported methods: "+strings.Join(endpoint.HTTPMethods, ", "))
	}

	var auth *Authorization
	if endpoint.AuthNeeded && g.authorize != nil {
		creds := parseAuthorizationHeader(r.Header.Get("Authorization"))
		auth = g.authorize(creds, endpoint.AuthScopes.ForMethod(r.Method))
		if auth == nil || !auth.Authorized {
			return errorResponse(http.StatusForbidden, "Not authorized")
		}
	}

	params := paginationParams{Page: 1, Limit: g.defaultLimit}
	if err := g.decoder.Decode(&params, r.URL.Query()); err != nil {
		return errorResponse(http.StatusBadRequest, "Invalid pagination parameters")
	}
	if params.Limit < 1 {
		return errorResponse(http.StatusBadRequest, "Limit should be 1 or higher")
	}

	resp, err := g.invoke(endpoint, r, auth, entry.match)
	if err != nil {
		return g.errorFor(r, err)
	}
	if resp == nil {
		g.logger.Error("endpoint returned no response",
			slog.String("endpoint", endpoint.Name), slog.String("path", r.URL.Path))
		return errorResponse(http.StatusInternalServerError, "Internal server error")
	}

	g.paginate(resp, params.Page, params.Limit)
	return resp
}

// invoke calls the endpoint handler, converting a panic into a server
// error so one misbehaving endpoint cannot take the process down.
func (g *Generator) invoke(endpoint *Endpoint, r *http.Request, auth *Authorization, match *URLMatch) (resp *Response, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			g.logger.Error("endpoint panicked",
				slog.String("endpoint", endpoint.Name), slog.Any("panic", rec))
			resp = nil
			err = ServerError("internal server error")
		}
	}()
	return endpoint.Handler(r, auth, match)
}

// errorFor maps a handler error onto the error taxonomy. Server errors
// and unrecognized errors are logged with the real cause and surfaced
// with a generic message only.
func (g *Generator) errorFor(r *http.Request, err error) *Response {
	if apiErr, ok := err.(*Error); ok {
		switch apiErr.Kind {
		case KindServer:
			g.logger.Error("endpoint server error",
				slog.String("path", r.URL.Path), slog.Any("error", err))
			return errorResponse(http.StatusInternalServerError, "Internal server error")
		default:
			return errorResponse(apiErr.HTTPStatus(), apiErr.Message)
		}
	}

	g.logger.Error("endpoint failed with unrecognized error",
		slog.String("path", r.URL.Path), slog.Any("error", err))
	return errorResponse(http.StatusInternalServerError, "Internal server error")
}

// resolve looks the request path up in the route cache, flattening the
// group tree and matching URL patterns on a miss. Zero or multiple
// matching patterns both resolve to nil: ambiguous registrations are a
// configuration bug and are folded into "not found".
func (g *Generator) resolve(path string) *resolvedRoute {
	relative, found := strings.CutPrefix(path, g.basePath)
	if !found {
		return nil
	}

	g.mu.RLock()
	entry, hit := g.routes[relative]
	g.mu.RUnlock()
	if hit {
		return entry
	}

	var matched *resolvedRoute
	for _, endpointURL := range g.AllEndpoints() {
		re, err := regexp.Compile("^" + endpointURL.URL + "$")
		if err != nil {
			g.logger.Error("invalid endpoint URL pattern",
				slog.String("pattern", endpointURL.URL), slog.Any("error", err))
			continue
		}
		m := re.FindStringSubmatch(relative)
		if m == nil {
			continue
		}
		if matched != nil {
			// More than one pattern matches: treat as not found.
			return nil
		}

		named := make(map[string]string)
		for i, name := range re.SubexpNames() {
			if i > 0 && name != "" {
				named[name] = m[i]
			}
		}
		matched = &resolvedRoute{
			endpoint: endpointURL.Endpoint,
			match:    &URLMatch{Groups: m[1:], Named: named},
		}
	}

	if matched == nil {
		return nil
	}

	g.mu.Lock()
	g.routes[relative] = matched
	g.mu.Unlock()
	return matched
}

// paginate slices a resource set down to the requested page. Only
// responses that opted in, are resource sets, and carry a sized
// collection are touched. The page is clamped into [1, last_page].
func (g *Generator) paginate(resp *Response, page, limit int) {
	if !resp.Paginate || resp.Type != ResponseTypeResourceSet {
		return
	}
	rv := reflect.ValueOf(resp.Data)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return
	}
	// Arrays unpacked from an interface are not addressable; Slice
	// would panic on them without this copy.
	if rv.Kind() == reflect.Array {
		addressable := reflect.New(rv.Type()).Elem()
		addressable.Set(rv)
		rv = addressable
	}

	total := rv.Len()
	lastPage := int(math.Ceil(float64(total) / float64(limit)))
	if lastPage < 1 {
		lastPage = 1
	}
	if page < 1 {
		page = 1
	}
	if page > lastPage {
		page = lastPage
	}

	offset := (page - 1) * limit
	end := offset + limit
	if offset > total {
		offset = total
	}
	if end > total {
		end = total
	}

	resp.Data = rv.Slice(offset, end).Interface()
	resp.Page = page
	resp.Limit = limit
	resp.TotalItems = total
	resp.LastPage = lastPage
}

// errorResponse builds the standard error Response for an HTTP status.
func errorResponse(status int, message string) *Response {
	return &Response{
		Type:         ResponseTypeError,
		Success:      false,
		ErrorCode:    status,
		ErrorMessage: message,
	}
}
