package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/dstark/my/internal/restapi"
	"github.com/dstark/my/internal/store"
)

// BasePath is the URL prefix all API endpoints are served under.
const BasePath = "/api/v1/"

// Service owns the stores and the generated dispatcher for the REST API.
type Service struct {
	users    *store.UserStore
	tags     *store.TagStore
	notes    *store.NoteStore
	settings *store.SettingStore
	clients  *store.APIClientStore
	tokens   *store.APITokenStore

	logger    *slog.Logger
	generator *restapi.Generator
}

// New wires the stores into a Service and registers every endpoint
// group with the dispatcher.
func New(db *sqlx.DB, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		users:    store.NewUserStore(db),
		tags:     store.NewTagStore(db),
		notes:    store.NewNoteStore(db),
		settings: store.NewSettingStore(db),
		clients:  store.NewAPIClientStore(db),
		tokens:   store.NewAPITokenStore(db),
		logger:   logger,
	}

	authorizer := NewAuthorizer(s.tokens, s.clients, s.users, logger)

	s.generator = restapi.NewGenerator(restapi.Config{
		BasePath:  BasePath,
		Authorize: authorizer.Authorize,
		Logger:    logger,
	})

	s.generator.RegisterGroup(s.pingGroup())
	s.generator.RegisterGroup(s.usersGroup())
	s.generator.RegisterGroup(s.tagsGroup())
	s.generator.RegisterGroup(s.notesGroup())
	s.generator.RegisterGroup(s.settingsGroup())

	return s
}

// Handler returns the http.Handler that serves the whole API.
func (s *Service) Handler() http.Handler {
	return s.generator
}

// Endpoints returns every registered endpoint with its full URL pattern,
// for listing in diagnostics and the CLI.
func (s *Service) Endpoints() []restapi.EndpointURL {
	return s.generator.AllEndpoints()
}

// resourceID parses the resource_id capture from a matched URL.
func resourceID(match *restapi.URLMatch) (int64, error) {
	raw, ok := match.Named["resource_id"]
	if !ok {
		return 0, restapi.NotFoundError("no resource id in url")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, restapi.NotFoundError("invalid resource id %q", raw)
	}
	return id, nil
}

// decodeBody decodes a JSON request body into dst.
func decodeBody(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return restapi.InvalidInputError("could not read request body")
	}
	if len(body) == 0 {
		return restapi.InvalidInputError("request body is required")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return restapi.InvalidInputError("malformed request body: %s", err)
	}
	return nil
}

// storeError translates store sentinel errors into API errors.
func storeError(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return restapi.NotFoundError("%s not found", resource)
	case errors.Is(err, store.ErrDuplicate):
		return restapi.IntegrityError("%s already exists", resource)
	case errors.Is(err, store.ErrInvalidInput):
		return restapi.InvalidInputError("%s", err)
	default:
		return err
	}
}
