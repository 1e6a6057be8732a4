package api

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dstark/my/internal/restapi"
	"github.com/dstark/my/internal/store"
)

// Principal is the authenticated identity attached to a dispatched
// request: the API token that was presented and the user it acts for.
type Principal struct {
	Token *store.APIToken
	User  *store.User
}

// Authorizer resolves Bearer tokens against the token, client, and user
// tables. Basic credentials are rejected outright; the web UI handles
// password logins through its own session flow.
type Authorizer struct {
	tokens  *store.APITokenStore
	clients *store.APIClientStore
	users   *store.UserStore
	logger  *slog.Logger
}

func NewAuthorizer(tokens *store.APITokenStore, clients *store.APIClientStore, users *store.UserStore, logger *slog.Logger) *Authorizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authorizer{tokens: tokens, clients: clients, users: users, logger: logger}
}

// Authorize implements restapi.AuthFunc. A request is authorized when it
// presents an enabled, unexpired Bearer token whose client is enabled
// and that was granted at least one of the required scopes.
func (a *Authorizer) Authorize(creds restapi.Credentials, requiredScopes []string) *restapi.Authorization {
	denied := &restapi.Authorization{Authorized: false}

	bearer, ok := creds.(restapi.BearerCredentials)
	if !ok {
		return denied
	}

	ctx := context.Background()

	token, err := a.tokens.GetByToken(ctx, bearer.Token)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			a.logger.Error("token lookup failed", "error", err)
		}
		return denied
	}

	if !token.Enabled {
		return denied
	}
	if token.Expires.Valid && token.Expires.Time.Before(time.Now()) {
		return denied
	}

	client, err := a.clients.Get(ctx, token.ClientID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			a.logger.Error("client lookup failed", "error", err)
		}
		return denied
	}
	if !client.Enabled {
		return denied
	}
	if client.Expires.Valid && client.Expires.Time.Before(time.Now()) {
		return denied
	}

	granted, err := a.tokens.ScopeNames(ctx, token.ID)
	if err != nil {
		a.logger.Error("scope lookup failed", "error", err, "token_id", token.ID)
		return denied
	}
	if !anyScopeGranted(granted, requiredScopes) {
		return denied
	}

	user, err := a.users.GetByID(ctx, token.UserID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			a.logger.Error("user lookup failed", "error", err, "user_id", token.UserID)
		}
		return denied
	}

	return &restapi.Authorization{
		Authorized: true,
		Data:       &Principal{Token: token, User: user},
	}
}

// anyScopeGranted reports whether at least one required scope appears in
// granted. An empty required list always passes.
func anyScopeGranted(granted, required []string) bool {
	if len(required) == 0 {
		return true
	}
	have := make(map[string]bool, len(granted))
	for _, s := range granted {
		have[s] = true
	}
	for _, s := range required {
		if have[s] {
			return true
		}
	}
	return false
}

// principal extracts the authenticated principal from an Authorization.
// Handlers behind AuthNeeded can rely on it being present.
func principal(auth *restapi.Authorization) *Principal {
	if auth == nil || auth.Data == nil {
		return nil
	}
	p, _ := auth.Data.(*Principal)
	return p
}
