package api

import (
	"net/http"

	"github.com/dstark/my/internal/restapi"
	"github.com/dstark/my/internal/store"
)

func (s *Service) tagsGroup() *restapi.Group {
	g := restapi.NewGroup("tags", "tags", "Tags attached to a user's resources")

	g.AddEndpoint(restapi.Endpoint{
		URLSuffixes: []string{"tags", "tags/"},
		Handler:     s.handleTagList,
		HTTPMethods: []string{http.MethodGet},
		Name:        "list tags",
		Description: "List the caller's tags",
		AuthNeeded:  true,
		AuthScopes:  restapi.EndpointScopes{http.MethodGet: {"tags.retrieve"}},
	}).AddEndpoint(restapi.Endpoint{
		URLSuffixes: []string{"tags", "tags/"},
		Handler:     s.handleTagCreate,
		HTTPMethods: []string{http.MethodPost},
		Name:        "create tag",
		Description: "Create a tag for the caller",
		AuthNeeded:  true,
		AuthScopes:  restapi.EndpointScopes{http.MethodPost: {"tags.create"}},
	}).AddEndpoint(restapi.Endpoint{
		URLSuffixes: []string{`tags/(?P<resource_id>[0-9]+)`},
		Handler:     s.handleTag,
		HTTPMethods: []string{http.MethodGet, http.MethodPut, http.MethodDelete},
		Name:        "tag",
		Description: "Retrieve, rename, or delete one tag",
		AuthNeeded:  true,
		AuthScopes: restapi.EndpointScopes{
			http.MethodGet:    {"tags.retrieve"},
			http.MethodPut:    {"tags.update"},
			http.MethodDelete: {"tags.delete"},
		},
	})

	return g
}

func (s *Service) handleTagList(r *http.Request, auth *restapi.Authorization, match *restapi.URLMatch) (*restapi.Response, error) {
	p := principal(auth)

	tags, err := s.tags.List(r.Context(), p.User.ID)
	if err != nil {
		return nil, err
	}

	resp := restapi.NewResponse(restapi.ResponseTypeResourceSet)
	resp.Data = tags
	return resp, nil
}

type tagInput struct {
	Title string `json:"title"`
}

func (s *Service) handleTagCreate(r *http.Request, auth *restapi.Authorization, match *restapi.URLMatch) (*restapi.Response, error) {
	p := principal(auth)

	var in tagInput
	if err := decodeBody(r, &in); err != nil {
		return nil, err
	}

	tag, err := s.tags.Create(r.Context(), &store.Tag{UserID: p.User.ID, Title: in.Title})
	if err != nil {
		return nil, storeError(err, "tag")
	}

	resp := restapi.NewResponse(restapi.ResponseTypeSingleResource)
	resp.Data = tag
	return resp, nil
}

func (s *Service) handleTag(r *http.Request, auth *restapi.Authorization, match *restapi.URLMatch) (*restapi.Response, error) {
	p := principal(auth)

	id, err := resourceID(match)
	if err != nil {
		return nil, err
	}

	switch r.Method {
	case http.MethodGet:
		tag, err := s.tags.Get(r.Context(), p.User.ID, id)
		if err != nil {
			return nil, storeError(err, "tag")
		}
		resp := restapi.NewResponse(restapi.ResponseTypeSingleResource)
		resp.Data = tag
		return resp, nil

	case http.MethodPut:
		var in tagInput
		if err := decodeBody(r, &in); err != nil {
			return nil, err
		}
		tag, err := s.tags.Update(r.Context(), p.User.ID, id, in.Title)
		if err != nil {
			return nil, storeError(err, "tag")
		}
		resp := restapi.NewResponse(restapi.ResponseTypeSingleResource)
		resp.Data = tag
		return resp, nil

	case http.MethodDelete:
		if err := s.tags.Delete(r.Context(), p.User.ID, id); err != nil {
			return nil, storeError(err, "tag")
		}
		resp := restapi.NewResponse(restapi.ResponseTypeSingleResource)
		resp.Data = map[string]any{"deleted": true}
		return resp, nil
	}

	return nil, restapi.ServerError("unreachable method %s", r.Method)
}
