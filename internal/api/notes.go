package api

import (
	"database/sql"
	"net/http"

	"github.com/dstark/my/internal/restapi"
	"github.com/dstark/my/internal/store"
)

func (s *Service) notesGroup() *restapi.Group {
	g := restapi.NewGroup("notes", "notes", "Notes and note folders")

	g.AddEndpoint(restapi.Endpoint{
		URLSuffixes: []string{"notes", "notes/"},
		Handler:     s.handleNoteList,
		HTTPMethods: []string{http.MethodGet},
		Name:        "list notes",
		Description: "List the caller's notes",
		AuthNeeded:  true,
		AuthScopes:  restapi.EndpointScopes{http.MethodGet: {"notes.retrieve"}},
	}).AddEndpoint(restapi.Endpoint{
		URLSuffixes: []string{"notes", "notes/"},
		Handler:     s.handleNoteCreate,
		HTTPMethods: []string{http.MethodPost},
		Name:        "create note",
		Description: "Create a note for the caller",
		AuthNeeded:  true,
		AuthScopes:  restapi.EndpointScopes{http.MethodPost: {"notes.create"}},
	}).AddEndpoint(restapi.Endpoint{
		URLSuffixes: []string{`notes/(?P<resource_id>[0-9]+)`},
		Handler:     s.handleNote,
		HTTPMethods: []string{http.MethodGet, http.MethodPut, http.MethodDelete},
		Name:        "note",
		Description: "Retrieve, update, or delete one note",
		AuthNeeded:  true,
		AuthScopes: restapi.EndpointScopes{
			http.MethodGet:    {"notes.retrieve"},
			http.MethodPut:    {"notes.update"},
			http.MethodDelete: {"notes.delete"},
		},
	}).AddEndpoint(restapi.Endpoint{
		URLSuffixes: []string{"folders", "folders/"},
		Handler:     s.handleFolderList,
		HTTPMethods: []string{http.MethodGet},
		Name:        "list folders",
		Description: "List the caller's note folders",
		AuthNeeded:  true,
		AuthScopes:  restapi.EndpointScopes{http.MethodGet: {"notes.retrieve"}},
	}).AddEndpoint(restapi.Endpoint{
		URLSuffixes: []string{"folders", "folders/"},
		Handler:     s.handleFolderCreate,
		HTTPMethods: []string{http.MethodPost},
		Name:        "create folder",
		Description: "Create a note folder for the caller",
		AuthNeeded:  true,
		AuthScopes:  restapi.EndpointScopes{http.MethodPost: {"notes.create"}},
	})

	return g
}

func (s *Service) handleNoteList(r *http.Request, auth *restapi.Authorization, match *restapi.URLMatch) (*restapi.Response, error) {
	p := principal(auth)

	notes, err := s.notes.List(r.Context(), p.User.ID)
	if err != nil {
		return nil, err
	}

	resp := restapi.NewResponse(restapi.ResponseTypeResourceSet)
	resp.Data = notes
	return resp, nil
}

type noteInput struct {
	FolderID *int64 `json:"folder_id"`
	Type     int    `json:"type"`
	Title    string `json:"title"`
	Body     string `json:"body"`
}

func (in noteInput) folderID() sql.NullInt64 {
	if in.FolderID == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *in.FolderID, Valid: true}
}

func (s *Service) handleNoteCreate(r *http.Request, auth *restapi.Authorization, match *restapi.URLMatch) (*restapi.Response, error) {
	p := principal(auth)

	var in noteInput
	if err := decodeBody(r, &in); err != nil {
		return nil, err
	}

	noteType := store.NoteType(in.Type)
	if noteType == 0 {
		noteType = store.NotePlain
	}

	note, err := s.notes.Create(r.Context(), &store.Note{
		UserID:   p.User.ID,
		FolderID: in.folderID(),
		Type:     noteType,
		Title:    in.Title,
		Body:     in.Body,
	})
	if err != nil {
		return nil, storeError(err, "note")
	}

	resp := restapi.NewResponse(restapi.ResponseTypeSingleResource)
	resp.Data = note
	return resp, nil
}

func (s *Service) handleNote(r *http.Request, auth *restapi.Authorization, match *restapi.URLMatch) (*restapi.Response, error) {
	p := principal(auth)

	id, err := resourceID(match)
	if err != nil {
		return nil, err
	}

	switch r.Method {
	case http.MethodGet:
		note, err := s.notes.Get(r.Context(), p.User.ID, id)
		if err != nil {
			return nil, storeError(err, "note")
		}
		resp := restapi.NewResponse(restapi.ResponseTypeSingleResource)
		resp.Data = note
		return resp, nil

	case http.MethodPut:
		note, err := s.notes.Get(r.Context(), p.User.ID, id)
		if err != nil {
			return nil, storeError(err, "note")
		}

		var in noteInput
		if err := decodeBody(r, &in); err != nil {
			return nil, err
		}

		if in.Title != "" {
			note.Title = in.Title
		}
		note.Body = in.Body
		if in.Type != 0 {
			note.Type = store.NoteType(in.Type)
		}
		if in.FolderID != nil {
			note.FolderID = in.folderID()
		}

		updated, err := s.notes.Update(r.Context(), note)
		if err != nil {
			return nil, storeError(err, "note")
		}
		resp := restapi.NewResponse(restapi.ResponseTypeSingleResource)
		resp.Data = updated
		return resp, nil

	case http.MethodDelete:
		if err := s.notes.Delete(r.Context(), p.User.ID, id); err != nil {
			return nil, storeError(err, "note")
		}
		resp := restapi.NewResponse(restapi.ResponseTypeSingleResource)
		resp.Data = map[string]any{"deleted": true}
		return resp, nil
	}

	return nil, restapi.ServerError("unreachable method %s", r.Method)
}

type folderInput struct {
	ParentID *int64 `json:"parent_id"`
	Title    string `json:"title"`
}

func (s *Service) handleFolderList(r *http.Request, auth *restapi.Authorization, match *restapi.URLMatch) (*restapi.Response, error) {
	p := principal(auth)

	folders, err := s.notes.ListFolders(r.Context(), p.User.ID)
	if err != nil {
		return nil, err
	}

	resp := restapi.NewResponse(restapi.ResponseTypeResourceSet)
	resp.Data = folders
	return resp, nil
}

func (s *Service) handleFolderCreate(r *http.Request, auth *restapi.Authorization, match *restapi.URLMatch) (*restapi.Response, error) {
	p := principal(auth)

	var in folderInput
	if err := decodeBody(r, &in); err != nil {
		return nil, err
	}

	parent := sql.NullInt64{}
	if in.ParentID != nil {
		parent = sql.NullInt64{Int64: *in.ParentID, Valid: true}
	}

	folder, err := s.notes.CreateFolder(r.Context(), &store.NoteFolder{
		UserID:   p.User.ID,
		ParentID: parent,
		Title:    in.Title,
	})
	if err != nil {
		return nil, storeError(err, "folder")
	}

	resp := restapi.NewResponse(restapi.ResponseTypeSingleResource)
	resp.Data = folder
	return resp, nil
}
