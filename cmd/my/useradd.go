package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/dstark/my/internal/api"
	"github.com/dstark/my/internal/config"
	"github.com/dstark/my/internal/db"
	"github.com/dstark/my/internal/store"
)

func newUserAddCmd() *cobra.Command {
	var (
		fullname  string
		email     string
		password  string
		role      int
		withToken bool
	)

	cmd := &cobra.Command{
		Use:   "useradd <username>",
		Short: "Create a user account",
		Long:  "Create a user account, typically the initial root account of a fresh install.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			database, err := db.New(cfg.DB.Driver, cfg.DB.DSN)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			if err := db.Migrate(database, cfg.DB.Driver); err != nil {
				return err
			}

			ctx := context.Background()
			users := store.NewUserStore(database)

			u := &store.User{
				Fullname: fullname,
				Username: args[0],
				Email:    email,
				Role:     store.UserRole(role),
			}
			if u.Fullname == "" {
				u.Fullname = args[0]
			}
			if err := u.SetPassword(password); err != nil {
				return err
			}

			created, err := users.Create(ctx, u)
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			fmt.Printf("created user %s (id %d)\n", created.Username, created.ID)

			if withToken {
				token, err := mintToken(ctx, database, created.ID)
				if err != nil {
					return err
				}
				fmt.Printf("api token: %s\n", token)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&fullname, "fullname", "", "full name (defaults to the username)")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "login password")
	cmd.Flags().IntVar(&role, "role", int(store.RoleRoot), "role: 1 root, 2 admin, 3 user")
	cmd.Flags().BoolVar(&withToken, "with-token", false, "also mint an API token granted every scope")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

// mintToken creates an enabled API client and token for the user and
// grants it every scope any registered endpoint requires.
func mintToken(ctx context.Context, database *sqlx.DB, userID int64) (string, error) {
	clients := store.NewAPIClientStore(database)
	tokens := store.NewAPITokenStore(database)

	client, err := clients.Create(ctx, &store.APIClient{
		UserID:       userID,
		Enabled:      true,
		AppName:      "my cli",
		AppPublisher: "my",
		Token:        store.NewOpaqueToken(),
	})
	if err != nil {
		return "", fmt.Errorf("create client: %w", err)
	}

	token, err := tokens.Create(ctx, &store.APIToken{
		ClientID: client.ID,
		UserID:   userID,
		Enabled:  true,
		Token:    store.NewOpaqueToken(),
	})
	if err != nil {
		return "", fmt.Errorf("create token: %w", err)
	}

	for _, name := range allScopeNames(database) {
		module, subject, ok := strings.Cut(name, ".")
		if !ok {
			continue
		}
		scope, err := tokens.UpsertScope(ctx, module, subject)
		if err != nil {
			return "", fmt.Errorf("upsert scope %s: %w", name, err)
		}
		if err := tokens.GrantScope(ctx, token.ID, scope.ID); err != nil {
			return "", fmt.Errorf("grant scope %s: %w", name, err)
		}
	}

	return token.Token, nil
}

// allScopeNames collects the distinct scope names across every
// registered endpoint, sorted.
func allScopeNames(database *sqlx.DB) []string {
	seen := map[string]bool{}
	for _, e := range api.New(database, nil).Endpoints() {
		for _, scopes := range e.Endpoint.AuthScopes {
			for _, name := range scopes {
				seen[name] = true
			}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
