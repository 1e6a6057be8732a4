package webui

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dstark/my/internal/restapi"
	"github.com/dstark/my/internal/store"
)

// encodeWithToken serializes a freshly created client and re-attaches
// the opaque token that the record's field hiding would strip.
func encodeWithToken(client *store.APIClient, token string) (any, error) {
	encoded, err := restapi.EncodeData(client)
	if err != nil {
		return nil, err
	}
	record, ok := encoded.(map[string]any)
	if !ok {
		return encoded, nil
	}
	record["token"] = token
	return record, nil
}

// APIClients lists the logged-in user's registered API clients.
func (h *Handlers) APIClients(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	clients, err := h.clients.ListByUser(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("list api clients", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.writeData(w, clients)
}

type clientRequest struct {
	AppName      string `json:"app_name"`
	AppPublisher string `json:"app_publisher"`
}

// CreateAPIClient registers a new API client for the logged-in user.
// The generated client token is returned once, in this response only;
// later reads hide it.
func (h *Handlers) CreateAPIClient(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	var req clientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	client, err := h.clients.Create(r.Context(), &store.APIClient{
		UserID:       user.ID,
		Enabled:      true,
		AppName:      req.AppName,
		AppPublisher: req.AppPublisher,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrInvalidInput):
			h.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, store.ErrDuplicate):
			h.writeError(w, http.StatusBadRequest, "client already registered")
		default:
			h.logger.Error("create api client", "error", err)
			h.writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	encoded, err := encodeWithToken(client, client.Token)
	if err != nil {
		h.logger.Error("serialize api client", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.writeJSON(w, http.StatusOK, envelope{Success: true, Data: encoded})
}

type clientEnabledRequest struct {
	ClientID int64 `json:"client_id"`
	Enabled  *bool `json:"enabled"`
}

// SetAPIClientEnabled enables or disables one of the logged-in user's
// API clients.
func (h *Handlers) SetAPIClientEnabled(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	var req clientEnabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.ClientID == 0 || req.Enabled == nil {
		h.writeError(w, http.StatusBadRequest, "client_id and enabled are required")
		return
	}

	client, err := h.clients.Get(r.Context(), req.ClientID)
	if err != nil || client.UserID != user.ID {
		h.writeError(w, http.StatusNotFound, "client not found")
		return
	}

	if err := h.clients.SetEnabled(r.Context(), client.ID, *req.Enabled); err != nil {
		h.logger.Error("toggle api client", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	updated, err := h.clients.Get(r.Context(), client.ID)
	if err != nil {
		h.logger.Error("reload api client", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.writeData(w, updated)
}

// APITokens lists the logged-in user's API tokens.
func (h *Handlers) APITokens(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	tokens, err := h.tokens.ListByUser(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("list api tokens", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.writeData(w, tokens)
}

type tokenEnabledRequest struct {
	TokenID int64 `json:"token_id"`
	Enabled *bool `json:"enabled"`
}

// SetAPITokenEnabled enables or disables one of the logged-in user's
// API tokens. A disabled token is refused by the API authorizer on the
// next request.
func (h *Handlers) SetAPITokenEnabled(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	var req tokenEnabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.TokenID == 0 || req.Enabled == nil {
		h.writeError(w, http.StatusBadRequest, "token_id and enabled are required")
		return
	}

	token, err := h.tokens.Get(r.Context(), req.TokenID)
	if err != nil || token.UserID != user.ID {
		h.writeError(w, http.StatusNotFound, "token not found")
		return
	}

	if err := h.tokens.SetEnabled(r.Context(), token.ID, *req.Enabled); err != nil {
		h.logger.Error("toggle api token", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	updated, err := h.tokens.Get(r.Context(), token.ID)
	if err != nil {
		h.logger.Error("reload api token", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.writeData(w, updated)
}
