package webui

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/dstark/my/internal/metrics"
	"github.com/dstark/my/internal/restapi"
	"github.com/dstark/my/internal/store"
)

// Handlers provides the JSON data endpoints backing the web UI.
type Handlers struct {
	sessions *scs.SessionManager
	users    *store.UserStore
	settings *store.SettingStore
	clients  *store.APIClientStore
	tokens   *store.APITokenStore
	logger   *slog.Logger
}

func NewHandlers(sm *scs.SessionManager, users *store.UserStore, settings *store.SettingStore,
	clients *store.APIClientStore, tokens *store.APITokenStore, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		sessions: sm,
		users:    users,
		settings: settings,
		clients:  clients,
		tokens:   tokens,
		logger:   logger,
	}
}

// envelope is the web UI response shape. It is flatter than the API
// envelope: the UI only needs success, an error code, and the payload.
type envelope struct {
	Success   bool   `json:"success"`
	ErrorCode int    `json:"error_code"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		h.logger.Error("encode web ui response", "error", err)
	}
}

func (h *Handlers) writeData(w http.ResponseWriter, data any) {
	encoded, err := restapi.EncodeData(data)
	if err != nil {
		h.logger.Error("serialize web ui data", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.writeJSON(w, http.StatusOK, envelope{Success: true, Data: encoded})
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, envelope{Success: false, ErrorCode: status, Error: message})
}

type loginRequest struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	SecondFactor string `json:"second_factor"`
}

// Login authenticates a username and password and starts a session.
// Accounts with a second factor configured must also present it.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		h.writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := h.users.GetByUsername(r.Context(), req.Username)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.logger.Error("login lookup failed", "error", err)
		}
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		h.writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if !user.VerifyPassword(req.Password) {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		h.writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if user.SecondFactor.Valid {
		if req.SecondFactor == "" {
			h.writeError(w, http.StatusUnauthorized, "second factor required")
			return
		}
		if subtle.ConstantTimeCompare([]byte(req.SecondFactor), []byte(user.SecondFactor.String)) != 1 {
			metrics.LoginsTotal.WithLabelValues("failure").Inc()
			h.writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
	}

	// Rotate the session token on privilege change.
	if err := h.sessions.RenewToken(r.Context()); err != nil {
		h.logger.Error("renew session token", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.sessions.Put(r.Context(), sessionUserIDKey, user.ID)

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	h.writeData(w, user)
}

// Logout destroys the session.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(r.Context()); err != nil {
		h.logger.Error("destroy session", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.writeJSON(w, http.StatusOK, envelope{Success: true})
}

// Account returns the logged-in user's account record.
func (h *Handlers) Account(w http.ResponseWriter, r *http.Request) {
	h.writeData(w, UserFromContext(r.Context()))
}

// Settings lists the logged-in user's web UI settings.
func (h *Handlers) Settings(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	settings, err := h.settings.List(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("list settings", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.writeData(w, settings)
}

type settingRequest struct {
	Setting string `json:"setting"`
	Value   string `json:"value"`
}

// SetSetting creates or overwrites one named setting for the logged-in
// user.
func (h *Handlers) SetSetting(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	var req settingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	setting, err := h.settings.Set(r.Context(), &store.Setting{
		UserID:  user.ID,
		Setting: req.Setting,
		Value:   req.Value,
	})
	if err != nil {
		if errors.Is(err, store.ErrInvalidInput) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("set setting", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.writeData(w, setting)
}
