package store

import (
	"context"
	"errors"
	"testing"

	"github.com/dstark/my/internal/testutil"
)

func TestTagCRUD(t *testing.T) {
	conn := testutil.NewTestDB(t)
	users := NewUserStore(conn)
	tags := NewTagStore(conn)
	ctx := context.Background()

	owner := seedUser(t, users, "daryl", RoleUser)

	created, err := tags.Create(ctx, &Tag{UserID: owner.ID, Title: "golang"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("created tag has no id")
	}

	got, err := tags.Get(ctx, owner.ID, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "golang" {
		t.Errorf("title = %q, want golang", got.Title)
	}

	renamed, err := tags.Update(ctx, owner.ID, created.ID, "go")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if renamed.Title != "go" {
		t.Errorf("renamed title = %q, want go", renamed.Title)
	}

	if err := tags.Delete(ctx, owner.ID, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := tags.Get(ctx, owner.ID, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete error = %v, want ErrNotFound", err)
	}
}

func TestTagDuplicatePerUser(t *testing.T) {
	conn := testutil.NewTestDB(t)
	users := NewUserStore(conn)
	tags := NewTagStore(conn)
	ctx := context.Background()

	daryl := seedUser(t, users, "daryl", RoleUser)
	marge := seedUser(t, users, "marge", RoleUser)

	if _, err := tags.Create(ctx, &Tag{UserID: daryl.ID, Title: "golang"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := tags.Create(ctx, &Tag{UserID: daryl.ID, Title: "golang"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("same-user duplicate error = %v, want ErrDuplicate", err)
	}

	// The same title under a different user is fine.
	if _, err := tags.Create(ctx, &Tag{UserID: marge.ID, Title: "golang"}); err != nil {
		t.Fatalf("cross-user create: %v", err)
	}
}

func TestTagListScopedToUser(t *testing.T) {
	conn := testutil.NewTestDB(t)
	users := NewUserStore(conn)
	tags := NewTagStore(conn)
	ctx := context.Background()

	daryl := seedUser(t, users, "daryl", RoleUser)
	marge := seedUser(t, users, "marge", RoleUser)

	for _, title := range []string{"beta", "alpha"} {
		if _, err := tags.Create(ctx, &Tag{UserID: daryl.ID, Title: title}); err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
	}

	mine, err := tags.List(ctx, daryl.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("list has %d tags, want 2", len(mine))
	}
	if mine[0].Title != "alpha" {
		t.Errorf("list not sorted by title: first = %q", mine[0].Title)
	}

	theirs, err := tags.List(ctx, marge.ID)
	if err != nil {
		t.Fatalf("list other user: %v", err)
	}
	if len(theirs) != 0 {
		t.Errorf("other user sees %d tags, want 0", len(theirs))
	}

	// Cross-user get misses even with a valid id.
	if _, err := tags.Get(ctx, marge.ID, mine[0].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-user get error = %v, want ErrNotFound", err)
	}
}
