package api

import (
	"net/http"

	"github.com/dstark/my/internal/restapi"
	"github.com/dstark/my/internal/store"
)

func (s *Service) settingsGroup() *restapi.Group {
	g := restapi.NewGroup("settings", "settings", "Per-user web UI settings")

	g.AddEndpoint(restapi.Endpoint{
		URLSuffixes: []string{"settings", "settings/"},
		Handler:     s.handleSettingList,
		HTTPMethods: []string{http.MethodGet},
		Name:        "list settings",
		Description: "List the caller's settings",
		AuthNeeded:  true,
		AuthScopes:  restapi.EndpointScopes{http.MethodGet: {"settings.retrieve"}},
	}).AddEndpoint(restapi.Endpoint{
		URLSuffixes: []string{"settings", "settings/"},
		Handler:     s.handleSettingSet,
		HTTPMethods: []string{http.MethodPost},
		Name:        "set setting",
		Description: "Create or overwrite one named setting",
		AuthNeeded:  true,
		AuthScopes:  restapi.EndpointScopes{http.MethodPost: {"settings.update"}},
	}).AddEndpoint(restapi.Endpoint{
		URLSuffixes: []string{`settings/(?P<resource_id>[0-9]+)`},
		Handler:     s.handleSetting,
		HTTPMethods: []string{http.MethodGet, http.MethodDelete},
		Name:        "setting",
		Description: "Retrieve or delete one setting",
		AuthNeeded:  true,
		AuthScopes: restapi.EndpointScopes{
			http.MethodGet:    {"settings.retrieve"},
			http.MethodDelete: {"settings.delete"},
		},
	})

	return g
}

func (s *Service) handleSettingList(r *http.Request, auth *restapi.Authorization, match *restapi.URLMatch) (*restapi.Response, error) {
	p := principal(auth)

	settings, err := s.settings.List(r.Context(), p.User.ID)
	if err != nil {
		return nil, err
	}

	resp := restapi.NewResponse(restapi.ResponseTypeResourceSet)
	resp.Data = settings
	return resp, nil
}

type settingInput struct {
	Setting string `json:"setting"`
	Value   string `json:"value"`
}

func (s *Service) handleSettingSet(r *http.Request, auth *restapi.Authorization, match *restapi.URLMatch) (*restapi.Response, error) {
	p := principal(auth)

	var in settingInput
	if err := decodeBody(r, &in); err != nil {
		return nil, err
	}

	setting, err := s.settings.Set(r.Context(), &store.Setting{
		UserID:  p.User.ID,
		Setting: in.Setting,
		Value:   in.Value,
	})
	if err != nil {
		return nil, storeError(err, "setting")
	}

	resp := restapi.NewResponse(restapi.ResponseTypeSingleResource)
	resp.Data = setting
	return resp, nil
}

func (s *Service) handleSetting(r *http.Request, auth *restapi.Authorization, match *restapi.URLMatch) (*restapi.Response, error) {
	p := principal(auth)

	id, err := resourceID(match)
	if err != nil {
		return nil, err
	}

	switch r.Method {
	case http.MethodGet:
		setting, err := s.settings.GetByID(r.Context(), p.User.ID, id)
		if err != nil {
			return nil, storeError(err, "setting")
		}
		resp := restapi.NewResponse(restapi.ResponseTypeSingleResource)
		resp.Data = setting
		return resp, nil

	case http.MethodDelete:
		if err := s.settings.Delete(r.Context(), p.User.ID, id); err != nil {
			return nil, storeError(err, "setting")
		}
		resp := restapi.NewResponse(restapi.ResponseTypeSingleResource)
		resp.Data = map[string]any{"deleted": true}
		return resp, nil
	}

	return nil, restapi.ServerError("unreachable method %s", r.Method)
}
