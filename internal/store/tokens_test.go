package store

import (
	"context"
	"errors"
	"testing"

	"github.com/dstark/my/internal/testutil"
)

func seedClient(t *testing.T, s *APIClientStore, userID int64) *APIClient {
	t.Helper()
	client, err := s.Create(context.Background(), &APIClient{
		UserID:       userID,
		Enabled:      true,
		AppName:      "test harness",
		AppPublisher: "test",
		Token:        NewOpaqueToken(),
	})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	return client
}

func TestOpaqueTokenShape(t *testing.T) {
	a, b := NewOpaqueToken(), NewOpaqueToken()
	if len(a) != 32 {
		t.Errorf("token length = %d, want 32", len(a))
	}
	if a == b {
		t.Error("two tokens are identical")
	}
	for _, r := range a {
		if r == '-' {
			t.Errorf("token %q contains a dash", a)
		}
	}
}

func TestTokenCreateAndLookup(t *testing.T) {
	conn := testutil.NewTestDB(t)
	users := NewUserStore(conn)
	clients := NewAPIClientStore(conn)
	tokens := NewAPITokenStore(conn)
	ctx := context.Background()

	user := seedUser(t, users, "daryl", RoleUser)
	client := seedClient(t, clients, user.ID)

	created, err := tokens.Create(ctx, &APIToken{
		ClientID: client.ID,
		UserID:   user.ID,
		Enabled:  true,
		Token:    NewOpaqueToken(),
	})
	if err != nil {
		t.Fatalf("create token: %v", err)
	}

	byValue, err := tokens.GetByToken(ctx, created.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if byValue.ID != created.ID {
		t.Errorf("id = %d, want %d", byValue.ID, created.ID)
	}

	if _, err := tokens.GetByToken(ctx, "nosuchtoken"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing token error = %v, want ErrNotFound", err)
	}

	listed, err := tokens.ListByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(listed) != 1 {
		t.Errorf("list has %d tokens, want 1", len(listed))
	}
}

func TestTokenScopes(t *testing.T) {
	conn := testutil.NewTestDB(t)
	users := NewUserStore(conn)
	clients := NewAPIClientStore(conn)
	tokens := NewAPITokenStore(conn)
	ctx := context.Background()

	user := seedUser(t, users, "daryl", RoleUser)
	client := seedClient(t, clients, user.ID)
	token, err := tokens.Create(ctx, &APIToken{
		ClientID: client.ID,
		UserID:   user.ID,
		Enabled:  true,
		Token:    NewOpaqueToken(),
	})
	if err != nil {
		t.Fatalf("create token: %v", err)
	}

	first, err := tokens.UpsertScope(ctx, "tags", "retrieve")
	if err != nil {
		t.Fatalf("upsert scope: %v", err)
	}
	if first.FullName() != "tags.retrieve" {
		t.Errorf("full name = %q, want tags.retrieve", first.FullName())
	}

	// Upserting the same scope again returns the existing row.
	again, err := tokens.UpsertScope(ctx, "tags", "retrieve")
	if err != nil {
		t.Fatalf("upsert again: %v", err)
	}
	if again.ID != first.ID {
		t.Errorf("second upsert id = %d, want %d", again.ID, first.ID)
	}

	second, err := tokens.UpsertScope(ctx, "tags", "create")
	if err != nil {
		t.Fatalf("upsert second scope: %v", err)
	}

	for _, scope := range []*APIScope{first, second} {
		if err := tokens.GrantScope(ctx, token.ID, scope.ID); err != nil {
			t.Fatalf("grant %s: %v", scope.FullName(), err)
		}
	}

	names, err := tokens.ScopeNames(ctx, token.ID)
	if err != nil {
		t.Fatalf("scope names: %v", err)
	}
	if len(names) != 2 || names[0] != "tags.create" || names[1] != "tags.retrieve" {
		t.Errorf("scope names = %v, want [tags.create tags.retrieve]", names)
	}
}

func TestTokenSetEnabled(t *testing.T) {
	conn := testutil.NewTestDB(t)
	users := NewUserStore(conn)
	clients := NewAPIClientStore(conn)
	tokens := NewAPITokenStore(conn)
	ctx := context.Background()

	user := seedUser(t, users, "daryl", RoleUser)
	client := seedClient(t, clients, user.ID)
	token, err := tokens.Create(ctx, &APIToken{
		ClientID: client.ID,
		UserID:   user.ID,
		Enabled:  true,
		Token:    NewOpaqueToken(),
	})
	if err != nil {
		t.Fatalf("create token: %v", err)
	}

	if err := tokens.SetEnabled(ctx, token.ID, false); err != nil {
		t.Fatalf("disable: %v", err)
	}
	got, err := tokens.Get(ctx, token.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Enabled {
		t.Error("token still enabled after disable")
	}

	if err := tokens.SetEnabled(ctx, 99999, false); !errors.Is(err, ErrNotFound) {
		t.Errorf("disable missing token error = %v, want ErrNotFound", err)
	}
}
