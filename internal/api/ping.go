package api

import (
	"net/http"
	"time"

	"github.com/dstark/my/internal/restapi"
)

// pingGroup exposes liveness and identity checks under api/.
func (s *Service) pingGroup() *restapi.Group {
	g := restapi.NewGroup("api", "api", "Service level operations")

	g.AddEndpoint(restapi.Endpoint{
		URLSuffixes: []string{"ping", "ping/"},
		Handler:     s.handlePing,
		HTTPMethods: []string{http.MethodGet},
		Name:        "ping",
		Description: "Verify the service is up and credentials resolve",
		AuthNeeded:  true,
		AuthScopes:  restapi.EndpointScopes{http.MethodGet: {"api.ping"}},
	})

	return g
}

func (s *Service) handlePing(r *http.Request, auth *restapi.Authorization, match *restapi.URLMatch) (*restapi.Response, error) {
	p := principal(auth)

	resp := restapi.NewResponse(restapi.ResponseTypeSingleResource)
	resp.Data = map[string]any{
		"pong":     time.Now().UTC().Format("2006-01-02 15:04:05"),
		"username": p.User.Username,
	}
	return resp, nil
}
