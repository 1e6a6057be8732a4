package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/dstark/my/internal/store"
)

func TestTagLifecycle(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser("daryl", store.RoleUser)
	token := env.seedToken(user, "tags.retrieve", "tags.create", "tags.update", "tags.delete")

	// Create.
	status, body := env.do(http.MethodPost, "/api/v1/tags/tags", token, map[string]any{"title": "golang"})
	if status != http.StatusOK {
		t.Fatalf("create status = %d (body %v)", status, body)
	}
	data := body["data"].(map[string]any)
	if data["title"] != "golang" {
		t.Fatalf("title = %v, want golang", data["title"])
	}
	id := int64(data["id"].(float64))

	// Retrieve.
	status, body = env.do(http.MethodGet, fmt.Sprintf("/api/v1/tags/tags/%d", id), token, nil)
	if status != http.StatusOK {
		t.Fatalf("get status = %d (body %v)", status, body)
	}
	if body["data"].(map[string]any)["title"] != "golang" {
		t.Errorf("retrieved title = %v", body["data"].(map[string]any)["title"])
	}

	// Rename.
	status, body = env.do(http.MethodPut, fmt.Sprintf("/api/v1/tags/tags/%d", id), token, map[string]any{"title": "go"})
	if status != http.StatusOK {
		t.Fatalf("update status = %d (body %v)", status, body)
	}
	if body["data"].(map[string]any)["title"] != "go" {
		t.Errorf("renamed title = %v, want go", body["data"].(map[string]any)["title"])
	}

	// List.
	status, body = env.do(http.MethodGet, "/api/v1/tags/tags", token, nil)
	if status != http.StatusOK {
		t.Fatalf("list status = %d", status)
	}
	items := body["data"].([]any)
	if len(items) != 1 {
		t.Fatalf("list has %d items, want 1", len(items))
	}
	if body["total_items"].(float64) != 1 {
		t.Errorf("total_items = %v, want 1", body["total_items"])
	}

	// Delete.
	status, _ = env.do(http.MethodDelete, fmt.Sprintf("/api/v1/tags/tags/%d", id), token, nil)
	if status != http.StatusOK {
		t.Fatalf("delete status = %d", status)
	}
	status, _ = env.do(http.MethodGet, fmt.Sprintf("/api/v1/tags/tags/%d", id), token, nil)
	if status != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", status)
	}
}

func TestTagDuplicateTitle(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser("daryl", store.RoleUser)
	token := env.seedToken(user, "tags.create")

	status, _ := env.do(http.MethodPost, "/api/v1/tags/tags", token, map[string]any{"title": "golang"})
	if status != http.StatusOK {
		t.Fatalf("first create status = %d", status)
	}

	status, body := env.do(http.MethodPost, "/api/v1/tags/tags", token, map[string]any{"title": "golang"})
	if status != http.StatusInternalServerError {
		t.Fatalf("duplicate create status = %d, want 500", status)
	}
	if body["error_message"] == "" {
		t.Error("duplicate create has no error message")
	}
}

func TestTagInvalidInput(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser("daryl", store.RoleUser)
	token := env.seedToken(user, "tags.create")

	status, _ := env.do(http.MethodPost, "/api/v1/tags/tags", token, map[string]any{"title": ""})
	if status != http.StatusBadRequest {
		t.Fatalf("empty title status = %d, want 400", status)
	}

	status, _ = env.do(http.MethodPost, "/api/v1/tags/tags", token, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("no body status = %d, want 400", status)
	}
}

func TestTagUserIsolation(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedUser("daryl", store.RoleUser)
	other := env.seedUser("marge", store.RoleUser)
	ownerToken := env.seedToken(owner, "tags.retrieve", "tags.create")
	otherToken := env.seedToken(other, "tags.retrieve", "tags.create")

	status, body := env.do(http.MethodPost, "/api/v1/tags/tags", ownerToken, map[string]any{"title": "private"})
	if status != http.StatusOK {
		t.Fatalf("create status = %d", status)
	}
	id := int64(body["data"].(map[string]any)["id"].(float64))

	status, _ = env.do(http.MethodGet, fmt.Sprintf("/api/v1/tags/tags/%d", id), otherToken, nil)
	if status != http.StatusNotFound {
		t.Fatalf("cross-user get status = %d, want 404", status)
	}

	status, body = env.do(http.MethodGet, "/api/v1/tags/tags", otherToken, nil)
	if status != http.StatusOK {
		t.Fatalf("cross-user list status = %d", status)
	}
	if n := len(body["data"].([]any)); n != 0 {
		t.Fatalf("cross-user list has %d items, want 0", n)
	}
}

func TestTagListPagination(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser("daryl", store.RoleUser)
	token := env.seedToken(user, "tags.retrieve", "tags.create")

	for i := 0; i < 30; i++ {
		status, _ := env.do(http.MethodPost, "/api/v1/tags/tags", token, map[string]any{"title": fmt.Sprintf("tag-%02d", i)})
		if status != http.StatusOK {
			t.Fatalf("create %d status = %d", i, status)
		}
	}

	status, body := env.do(http.MethodGet, "/api/v1/tags/tags?page=2&limit=10", token, nil)
	if status != http.StatusOK {
		t.Fatalf("list status = %d", status)
	}
	if n := len(body["data"].([]any)); n != 10 {
		t.Errorf("page size = %d, want 10", n)
	}
	if body["page"].(float64) != 2 {
		t.Errorf("page = %v, want 2", body["page"])
	}
	if body["total_items"].(float64) != 30 {
		t.Errorf("total_items = %v, want 30", body["total_items"])
	}
	if body["last_page"].(float64) != 3 {
		t.Errorf("last_page = %v, want 3", body["last_page"])
	}

	status, _ = env.do(http.MethodGet, "/api/v1/tags/tags?page=oops", token, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("malformed page status = %d, want 400", status)
	}
}
