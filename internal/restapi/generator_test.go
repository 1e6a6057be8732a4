package restapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// newTestGenerator builds a generator with a "tags" group that mirrors a
// typical resource group: a paginated list endpoint, a single-resource
// endpoint with a named capture group, and a write endpoint.
func newTestGenerator(authorize AuthFunc) *Generator {
	gen := NewGenerator(Config{BasePath: "/api/v1/", Authorize: authorize, DefaultLimit: 25})

	items := make([]string, 100)
	for i := range items {
		items[i] = fmt.Sprintf("item_%03d", i)
	}

	tags := NewGroup("tags", "tags", "Tag endpoints")
	tags.AddEndpoint(Endpoint{
		Name:        "tags",
		URLSuffixes: []string{"tags", "tags/"},
		HTTPMethods: []string{"GET"},
		Handler: func(r *http.Request, auth *Authorization, match *URLMatch) (*Response, error) {
			resp := NewResponse(ResponseTypeResourceSet)
			resp.Data = items
			return resp, nil
		},
	})
	tags.AddEndpoint(Endpoint{
		Name:        "tag",
		URLSuffixes: []string{`tag/(?P<resource_id>[0-9]+)`},
		HTTPMethods: []string{"GET", "DELETE"},
		Handler: func(r *http.Request, auth *Authorization, match *URLMatch) (*Response, error) {
			resp := NewResponse(ResponseTypeSingleResource)
			resp.Data = map[string]any{"id": match.Named["resource_id"]}
			return resp, nil
		},
	})
	gen.RegisterGroup(tags)
	return gen
}

func doRequest(gen *Generator, method, target string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	gen.ServeHTTP(rec, req)

	var decoded map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	return rec, decoded
}

func TestDispatch_UnknownPathIs404(t *testing.T) {
	gen := newTestGenerator(nil)
	rec, decoded := doRequest(gen, "GET", "/api/v1/nope")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if decoded["success"] != false {
		t.Error("success should be false")
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Errorf("content type = %q", rec.Header().Get("Content-Type"))
	}
}

func TestDispatch_NamedCaptureGroup(t *testing.T) {
	gen := newTestGenerator(nil)
	rec, decoded := doRequest(gen, "GET", "/api/v1/tags/tag/42")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %v", rec.Code, decoded)
	}
	data := decoded["data"].(map[string]any)
	if data["id"] != "42" {
		t.Errorf("id = %v, want 42", data["id"])
	}
}

func TestDispatch_MethodNotAllowedListsSupported(t *testing.T) {
	gen := newTestGenerator(nil)
	rec, decoded := doRequest(gen, "POST", "/api/v1/tags/tags")

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	msg, _ := decoded["error_message"].(string)
	if !strings.Contains(msg, "GET") {
		t.Errorf("error_message = %q, want the supported methods listed", msg)
	}
}

func TestDispatch_AmbiguousRouteIs404(t *testing.T) {
	gen := NewGenerator(Config{BasePath: "/api/v1/"})
	group := NewGroup("amb", "amb", "")
	group.AddEndpoint(Endpoint{
		Name:        "first",
		URLSuffixes: []string{`thing/([0-9]+)`},
		Handler:     noopHandler,
	})
	group.AddEndpoint(Endpoint{
		Name:        "second",
		URLSuffixes: []string{`thing/(.*)`},
		Handler:     noopHandler,
	})
	gen.RegisterGroup(group)

	rec, _ := doRequest(gen, "GET", "/api/v1/amb/thing/7")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for ambiguous registrations", rec.Code)
	}
}

func TestDispatch_ResolutionCacheIsPopulated(t *testing.T) {
	gen := newTestGenerator(nil)

	if rec, _ := doRequest(gen, "GET", "/api/v1/tags/tags"); rec.Code != http.StatusOK {
		t.Fatalf("first request failed: %d", rec.Code)
	}

	gen.mu.RLock()
	_, cached := gen.routes["tags/tags"]
	gen.mu.RUnlock()
	if !cached {
		t.Error("route cache should hold the resolved path after a hit")
	}

	if rec, _ := doRequest(gen, "GET", "/api/v1/tags/tags"); rec.Code != http.StatusOK {
		t.Errorf("cached request failed: %d", rec.Code)
	}
}

func TestDispatch_AuthorizationShortCircuit(t *testing.T) {
	handlerCalls := 0
	authorize := func(creds Credentials, scopes []string) *Authorization {
		return &Authorization{Authorized: false}
	}

	gen := NewGenerator(Config{BasePath: "/api/v1/", Authorize: authorize})
	group := NewGroup("secure", "secure", "")
	group.AddEndpoint(Endpoint{
		Name:        "secret",
		URLSuffixes: []string{"secret"},
		AuthNeeded:  true,
		AuthScopes:  EndpointScopes{"GET": {"secure.read"}},
		Handler: func(r *http.Request, auth *Authorization, match *URLMatch) (*Response, error) {
			handlerCalls++
			return NewResponse(ResponseTypeSingleResource), nil
		},
	})
	gen.RegisterGroup(group)

	rec, decoded := doRequest(gen, "GET", "/api/v1/secure/secret")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if decoded["success"] != false {
		t.Error("success should be false")
	}
	if handlerCalls != 0 {
		t.Errorf("handler called %d times, want 0", handlerCalls)
	}
}

func TestDispatch_AuthorizationPassesScopesAndPrincipal(t *testing.T) {
	var gotScopes []string
	authorize := func(creds Credentials, scopes []string) *Authorization {
		gotScopes = scopes
		if bearer, ok := creds.(BearerCredentials); ok && bearer.Token == "valid" {
			return &Authorization{Authorized: true, Data: "principal"}
		}
		return &Authorization{Authorized: false}
	}

	var gotPrincipal any
	gen := NewGenerator(Config{BasePath: "/api/v1/", Authorize: authorize})
	group := NewGroup("secure", "secure", "")
	group.AddEndpoint(Endpoint{
		Name:        "secret",
		URLSuffixes: []string{"secret"},
		AuthNeeded:  true,
		AuthScopes:  EndpointScopes{"GET": {"secure.read", "secure.admin"}},
		Handler: func(r *http.Request, auth *Authorization, match *URLMatch) (*Response, error) {
			gotPrincipal = auth.Data
			return NewResponse(ResponseTypeSingleResource), nil
		},
	})
	gen.RegisterGroup(group)

	req := httptest.NewRequest("GET", "/api/v1/secure/secret", nil)
	req.Header.Set("Authorization", "Bearer valid")
	rec := httptest.NewRecorder()
	gen.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(gotScopes) != 2 || gotScopes[0] != "secure.read" {
		t.Errorf("scopes = %v, want the GET scopes for the endpoint", gotScopes)
	}
	if gotPrincipal != "principal" {
		t.Errorf("principal = %v, want the resolver's data", gotPrincipal)
	}
}

func TestDispatch_ErrorKindMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"invalid input", InvalidInputError("field missing"), 400, "field missing"},
		{"unauthorized", UnauthorizedError("bad credentials"), 401, "bad credentials"},
		{"forbidden", ForbiddenError("not yours"), 403, "not yours"},
		{"not found", NotFoundError("no such tag"), 404, "no such tag"},
		{"integrity", IntegrityError("tag already exists"), 500, "tag already exists"},
		{"server", ServerError("db exploded"), 500, "Internal server error"},
		{"unrecognized", errors.New("wild error"), 500, "Internal server error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gen := NewGenerator(Config{BasePath: "/api/v1/"})
			group := NewGroup("fail", "fail", "")
			group.AddEndpoint(Endpoint{
				Name:        "boom",
				URLSuffixes: []string{"boom"},
				Handler: func(r *http.Request, auth *Authorization, match *URLMatch) (*Response, error) {
					return nil, tc.err
				},
			})
			gen.RegisterGroup(group)

			rec, decoded := doRequest(gen, "GET", "/api/v1/fail/boom")
			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if decoded["success"] != false {
				t.Error("success should be false")
			}
			if decoded["error_message"] != tc.wantMsg {
				t.Errorf("error_message = %q, want %q", decoded["error_message"], tc.wantMsg)
			}
		})
	}
}

func TestDispatch_PanicBecomesServerError(t *testing.T) {
	gen := NewGenerator(Config{BasePath: "/api/v1/"})
	group := NewGroup("fail", "fail", "")
	group.AddEndpoint(Endpoint{
		Name:        "panic",
		URLSuffixes: []string{"panic"},
		Handler: func(r *http.Request, auth *Authorization, match *URLMatch) (*Response, error) {
			panic("handler bug")
		},
	})
	gen.RegisterGroup(group)

	rec, decoded := doRequest(gen, "GET", "/api/v1/fail/panic")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if decoded["error_message"] != "Internal server error" {
		t.Errorf("error_message = %q, want generic", decoded["error_message"])
	}
}

func TestDispatch_PaginationPartitionsWithoutOverlap(t *testing.T) {
	gen := newTestGenerator(nil)
	const total, limit = 100, 30

	seen := make(map[string]bool)
	lastPage := (total + limit - 1) / limit
	for page := 1; page <= lastPage; page++ {
		rec, decoded := doRequest(gen, "GET",
			fmt.Sprintf("/api/v1/tags/tags?page=%d&limit=%d", page, limit))
		if rec.Code != http.StatusOK {
			t.Fatalf("page %d: status = %d", page, rec.Code)
		}

		data := decoded["data"].([]any)
		wantLen := limit
		if remaining := total - (page-1)*limit; remaining < limit {
			wantLen = remaining
		}
		if len(data) != wantLen {
			t.Errorf("page %d: len(data) = %d, want %d", page, len(data), wantLen)
		}
		if decoded["total_items"] != float64(total) {
			t.Errorf("page %d: total_items = %v", page, decoded["total_items"])
		}
		if decoded["last_page"] != float64(lastPage) {
			t.Errorf("page %d: last_page = %v", page, decoded["last_page"])
		}
		for _, item := range data {
			name := item.(string)
			if seen[name] {
				t.Errorf("item %q appears on more than one page", name)
			}
			seen[name] = true
		}
	}
	if len(seen) != total {
		t.Errorf("pages covered %d items, want %d", len(seen), total)
	}
}

func TestDispatch_PaginationClamping(t *testing.T) {
	gen := newTestGenerator(nil)

	_, first := doRequest(gen, "GET", "/api/v1/tags/tags?page=1&limit=25")
	_, zero := doRequest(gen, "GET", "/api/v1/tags/tags?page=0&limit=25")
	if fmt.Sprint(zero["data"]) != fmt.Sprint(first["data"]) || zero["page"] != float64(1) {
		t.Error("page=0 should behave exactly like page=1")
	}

	_, last := doRequest(gen, "GET", "/api/v1/tags/tags?page=4&limit=25")
	_, beyond := doRequest(gen, "GET", "/api/v1/tags/tags?page=99&limit=25")
	if fmt.Sprint(beyond["data"]) != fmt.Sprint(last["data"]) || beyond["page"] != float64(4) {
		t.Error("page beyond last_page should behave exactly like the last page")
	}
}

func TestDispatch_PaginationHandlesArrayData(t *testing.T) {
	gen := NewGenerator(Config{BasePath: "/api/v1/", DefaultLimit: 2})

	group := NewGroup("colors", "colors", "")
	group.AddEndpoint(Endpoint{
		Name:        "colors",
		URLSuffixes: []string{"colors"},
		Handler: func(r *http.Request, auth *Authorization, match *URLMatch) (*Response, error) {
			resp := NewResponse(ResponseTypeResourceSet)
			resp.Data = [3]string{"red", "green", "blue"}
			return resp, nil
		},
	})
	gen.RegisterGroup(group)

	rec, decoded := doRequest(gen, "GET", "/api/v1/colors/colors?page=2&limit=2")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %v", rec.Code, decoded)
	}
	data, _ := decoded["data"].([]any)
	if len(data) != 1 || data[0] != "blue" {
		t.Errorf("data = %v, want the second page of the array", decoded["data"])
	}
	if decoded["total_items"] != float64(3) || decoded["last_page"] != float64(2) {
		t.Errorf("pagination fields = %v", decoded)
	}
}

func TestDispatch_MalformedPaginationIs400(t *testing.T) {
	gen := newTestGenerator(nil)

	for _, target := range []string{
		"/api/v1/tags/tags?page=banana",
		"/api/v1/tags/tags?limit=banana",
		"/api/v1/tags/tags?limit=0",
	} {
		rec, decoded := doRequest(gen, "GET", target)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, rec.Code)
		}
		if decoded["success"] != false {
			t.Errorf("%s: success should be false", target)
		}
	}
}

func TestDispatch_RuntimeIsStamped(t *testing.T) {
	gen := newTestGenerator(nil)
	_, decoded := doRequest(gen, "GET", "/api/v1/tags/tag/1")

	if _, ok := decoded["runtime"].(float64); !ok {
		t.Errorf("runtime = %v, want a number", decoded["runtime"])
	}
}
