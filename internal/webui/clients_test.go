package webui

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/dstark/my/internal/store"
)

func (s *testServer) seedAPIToken(user *store.User, scopes ...string) *store.APIToken {
	s.t.Helper()
	ctx := context.Background()

	client, err := s.apiClients.Create(ctx, &store.APIClient{
		UserID:       user.ID,
		Enabled:      true,
		AppName:      "test harness",
		AppPublisher: "test",
	})
	if err != nil {
		s.t.Fatalf("seed client: %v", err)
	}

	token, err := s.apiTokens.Create(ctx, &store.APIToken{
		ClientID: client.ID,
		UserID:   user.ID,
		Enabled:  true,
	})
	if err != nil {
		s.t.Fatalf("seed token: %v", err)
	}

	for _, name := range scopes {
		module, subject, _ := strings.Cut(name, ".")
		scope, err := s.apiTokens.UpsertScope(ctx, module, subject)
		if err != nil {
			s.t.Fatalf("upsert scope %s: %v", name, err)
		}
		if err := s.apiTokens.GrantScope(ctx, token.ID, scope.ID); err != nil {
			s.t.Fatalf("grant scope %s: %v", name, err)
		}
	}
	return token
}

func TestAPIClientManagement(t *testing.T) {
	s := newTestServer(t)
	s.seedUser("daryl", "hunter2", "")
	s.login("daryl", "hunter2")

	// The one response that carries the client token.
	status, body := s.do(http.MethodPost, "/data/api_clients", map[string]any{
		"app_name":      "mobile app",
		"app_publisher": "daryl",
	})
	if status != http.StatusOK {
		t.Fatalf("create status = %d (body %v)", status, body)
	}
	created := body["data"].(map[string]any)
	token, _ := created["token"].(string)
	if len(token) != 32 {
		t.Errorf("token = %q, want the 32-character opaque value", token)
	}
	clientID := created["id"].(float64)

	status, body = s.do(http.MethodGet, "/data/api_clients", nil)
	if status != http.StatusOK {
		t.Fatalf("list status = %d", status)
	}
	listed := body["data"].([]any)
	if len(listed) != 1 {
		t.Fatalf("clients = %d, want 1", len(listed))
	}
	if _, leaked := listed[0].(map[string]any)["token"]; leaked {
		t.Error("client token leaked into the list response")
	}

	status, body = s.do(http.MethodPost, "/data/api_clients/enabled", map[string]any{
		"client_id": clientID,
		"enabled":   false,
	})
	if status != http.StatusOK {
		t.Fatalf("disable status = %d (body %v)", status, body)
	}
	if body["data"].(map[string]any)["enabled"] != false {
		t.Error("client should be disabled")
	}
}

func TestAPIClientToggleScopedToOwner(t *testing.T) {
	s := newTestServer(t)
	owner := s.seedUser("daryl", "hunter2", "")
	s.seedUser("eve", "hunter2", "")

	client, err := s.apiClients.Create(context.Background(), &store.APIClient{
		UserID:       owner.ID,
		Enabled:      true,
		AppName:      "mobile app",
		AppPublisher: "daryl",
	})
	if err != nil {
		t.Fatalf("seed client: %v", err)
	}

	s.login("eve", "hunter2")
	status, _ := s.do(http.MethodPost, "/data/api_clients/enabled", map[string]any{
		"client_id": client.ID,
		"enabled":   false,
	})
	if status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 for another user's client", status)
	}

	reloaded, err := s.apiClients.Get(context.Background(), client.ID)
	if err != nil {
		t.Fatalf("reload client: %v", err)
	}
	if !reloaded.Enabled {
		t.Error("client should still be enabled")
	}
}

func TestAPITokenManagement(t *testing.T) {
	s := newTestServer(t)
	user := s.seedUser("daryl", "hunter2", "")
	token := s.seedAPIToken(user, "api.ping")
	s.login("daryl", "hunter2")

	status, body := s.do(http.MethodGet, "/data/api_tokens", nil)
	if status != http.StatusOK {
		t.Fatalf("list status = %d (body %v)", status, body)
	}
	listed := body["data"].([]any)
	if len(listed) != 1 {
		t.Fatalf("tokens = %d, want 1", len(listed))
	}
	if _, leaked := listed[0].(map[string]any)["token"]; leaked {
		t.Error("token value leaked into the list response")
	}

	if status, _ := s.doBearer(token.Token); status != http.StatusOK {
		t.Fatalf("ping with enabled token status = %d, want 200", status)
	}

	status, body = s.do(http.MethodPost, "/data/api_tokens/enabled", map[string]any{
		"token_id": token.ID,
		"enabled":  false,
	})
	if status != http.StatusOK {
		t.Fatalf("disable status = %d (body %v)", status, body)
	}
	if body["data"].(map[string]any)["enabled"] != false {
		t.Error("token should be disabled")
	}

	// The API refuses the token on the next request.
	if status, _ := s.doBearer(token.Token); status != http.StatusForbidden {
		t.Fatalf("ping with disabled token status = %d, want 403", status)
	}
}

func (s *testServer) doBearer(token string) (int, map[string]any) {
	s.t.Helper()

	req, err := http.NewRequest(http.MethodGet, s.server.URL+"/api/v1/api/ping", nil)
	if err != nil {
		s.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		s.t.Fatalf("ping: %v", err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		s.t.Fatalf("decode response: %v", err)
	}
	return resp.StatusCode, decoded
}
