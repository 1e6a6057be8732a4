package api

import (
	"net/http"

	"github.com/dstark/my/internal/metrics"
	"github.com/dstark/my/internal/restapi"
	"github.com/dstark/my/internal/store"
)

func (s *Service) usersGroup() *restapi.Group {
	g := restapi.NewGroup("users", "users", "User accounts")

	g.AddEndpoint(restapi.Endpoint{
		URLSuffixes: []string{"users", "users/"},
		Handler:     s.handleUserList,
		HTTPMethods: []string{http.MethodGet},
		Name:        "list users",
		Description: "List accounts visible to the caller",
		AuthNeeded:  true,
		AuthScopes:  restapi.EndpointScopes{http.MethodGet: {"users.retrieve"}},
	}).AddEndpoint(restapi.Endpoint{
		URLSuffixes: []string{"users", "users/"},
		Handler:     s.handleUserCreate,
		HTTPMethods: []string{http.MethodPost},
		Name:        "create user",
		Description: "Create a new account",
		AuthNeeded:  true,
		AuthScopes:  restapi.EndpointScopes{http.MethodPost: {"users.create"}},
	}).AddEndpoint(restapi.Endpoint{
		URLSuffixes: []string{`users/(?P<resource_id>[0-9]+)`},
		Handler:     s.handleUser,
		HTTPMethods: []string{http.MethodGet, http.MethodPut, http.MethodDelete},
		Name:        "user",
		Description: "Retrieve, update, or delete one account",
		AuthNeeded:  true,
		AuthScopes: restapi.EndpointScopes{
			http.MethodGet:    {"users.retrieve"},
			http.MethodPut:    {"users.update"},
			http.MethodDelete: {"users.delete"},
		},
	})

	return g
}

func (s *Service) handleUserList(r *http.Request, auth *restapi.Authorization, match *restapi.URLMatch) (*restapi.Response, error) {
	p := principal(auth)

	users, err := s.users.List(r.Context(), p.User, 0)
	if err != nil {
		return nil, err
	}

	resp := restapi.NewResponse(restapi.ResponseTypeResourceSet)
	resp.Data = users
	return resp, nil
}

type userInput struct {
	Fullname string `json:"fullname"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     int    `json:"role"`
	Password string `json:"password"`
}

func (s *Service) handleUserCreate(r *http.Request, auth *restapi.Authorization, match *restapi.URLMatch) (*restapi.Response, error) {
	p := principal(auth)
	if !p.User.IsAdmin() {
		return nil, restapi.UnauthorizedError("only admins can create accounts")
	}

	var in userInput
	if err := decodeBody(r, &in); err != nil {
		return nil, err
	}

	role := store.UserRole(in.Role)
	if role == 0 {
		role = store.RoleUser
	}
	// Only root may mint another root account.
	if role == store.RoleRoot && p.User.Role != store.RoleRoot {
		return nil, restapi.UnauthorizedError("only root can create root accounts")
	}

	u := &store.User{
		Fullname: in.Fullname,
		Username: in.Username,
		Email:    in.Email,
		Role:     role,
	}
	if in.Password == "" {
		return nil, restapi.InvalidInputError("password is required")
	}
	if err := u.SetPassword(in.Password); err != nil {
		return nil, err
	}

	created, err := s.users.Create(r.Context(), u)
	if err != nil {
		return nil, storeError(err, "user")
	}
	metrics.UsersTotal.Inc()

	resp := restapi.NewResponse(restapi.ResponseTypeSingleResource)
	resp.Data = created
	return resp, nil
}

func (s *Service) handleUser(r *http.Request, auth *restapi.Authorization, match *restapi.URLMatch) (*restapi.Response, error) {
	p := principal(auth)

	id, err := resourceID(match)
	if err != nil {
		return nil, err
	}

	// Non-admins can only operate on their own account.
	if !p.User.IsAdmin() && id != p.User.ID {
		return nil, restapi.NotFoundError("user not found")
	}

	switch r.Method {
	case http.MethodGet:
		u, err := s.users.GetByID(r.Context(), id)
		if err != nil {
			return nil, storeError(err, "user")
		}
		if p.User.Role == store.RoleAdmin && u.Role == store.RoleRoot {
			return nil, restapi.NotFoundError("user not found")
		}
		resp := restapi.NewResponse(restapi.ResponseTypeSingleResource)
		resp.Data = u
		return resp, nil

	case http.MethodPut:
		u, err := s.users.GetByID(r.Context(), id)
		if err != nil {
			return nil, storeError(err, "user")
		}
		// Root accounts are invisible to admins, here as in GET.
		if p.User.Role == store.RoleAdmin && u.Role == store.RoleRoot {
			return nil, restapi.NotFoundError("user not found")
		}

		var in userInput
		if err := decodeBody(r, &in); err != nil {
			return nil, err
		}

		if in.Fullname != "" {
			u.Fullname = in.Fullname
		}
		if in.Email != "" {
			u.Email = in.Email
		}
		if in.Password != "" {
			if err := u.SetPassword(in.Password); err != nil {
				return nil, err
			}
		}
		// Role changes are an admin operation, and nobody can promote
		// past their own role.
		if in.Role != 0 && store.UserRole(in.Role) != u.Role {
			if !p.User.IsAdmin() || store.UserRole(in.Role) < p.User.Role {
				return nil, restapi.UnauthorizedError("cannot assign that role")
			}
			u.Role = store.UserRole(in.Role)
		}

		updated, err := s.users.Update(r.Context(), u)
		if err != nil {
			return nil, storeError(err, "user")
		}
		resp := restapi.NewResponse(restapi.ResponseTypeSingleResource)
		resp.Data = updated
		return resp, nil

	case http.MethodDelete:
		if !p.User.IsAdmin() {
			return nil, restapi.UnauthorizedError("only admins can delete accounts")
		}
		if id == p.User.ID {
			return nil, restapi.InvalidInputError("cannot delete your own account")
		}
		target, err := s.users.GetByID(r.Context(), id)
		if err != nil {
			return nil, storeError(err, "user")
		}
		if target.Role == store.RoleRoot {
			return nil, restapi.UnauthorizedError("root accounts cannot be deleted")
		}
		if err := s.users.Delete(r.Context(), id); err != nil {
			return nil, storeError(err, "user")
		}
		metrics.UsersTotal.Dec()
		resp := restapi.NewResponse(restapi.ResponseTypeSingleResource)
		resp.Data = map[string]any{"deleted": true}
		return resp, nil
	}

	return nil, restapi.ServerError("unreachable method %s", r.Method)
}
