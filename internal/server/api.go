package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/modmap/pkg/catalog"
	errs "github.com/matzehuels/modmap/pkg/errors"
	modio "github.com/matzehuels/modmap/pkg/io"
	"github.com/matzehuels/modmap/pkg/prefs"
)

// HighlightResponse is the body of GET /api/highlight.
type HighlightResponse struct {
	Active     string         `json:"active"`
	Prereqs    []string       `json:"prereqs"`
	Dependents []string       `json:"dependents"`
	Edges      []catalog.Edge `json:"edges"`
}

// SearchResponse is the body of GET /api/search.
type SearchResponse struct {
	Query  string `json:"query"`
	Module string `json:"module"`
}

type errorResponse struct {
	Code    errs.Code `json:"code,omitempty"`
	Message string    `json:"message"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess, _, err := s.session(r)
	if err != nil {
		s.writeJSONError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := modio.WriteIndex(sess.Index(), &buf); err != nil {
		s.writeJSONError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleHighlight(w http.ResponseWriter, r *http.Request) {
	sess, _, err := s.session(r)
	if err != nil {
		s.writeJSONError(w, err)
		return
	}
	code := catalog.NormalizeQuery(r.URL.Query().Get("module"), s.opts.SearchPrefix)
	if code == "" {
		s.writeJSONError(w, errs.New(errs.ErrCodeInvalidInput, "missing module parameter"))
		return
	}
	if sess.ActiveModule() != code {
		if err := sess.Activate(code); err != nil {
			s.writeJSONError(w, err)
			return
		}
	}
	h := sess.Highlight()
	s.writeJSON(w, http.StatusOK, HighlightResponse{
		Active:     h.Active,
		Prereqs:    sortedKeys(h.Prereqs),
		Dependents: sortedKeys(h.Dependents),
		Edges:      append([]catalog.Edge{}, h.Edges...),
	})
}

func (s *Server) handleAPISearch(w http.ResponseWriter, r *http.Request) {
	sess, _, err := s.session(r)
	if err != nil {
		s.writeJSONError(w, err)
		return
	}
	query := r.URL.Query().Get("q")
	code, err := sess.Index().Search(query, s.opts.SearchPrefix)
	if err != nil {
		s.writeJSONError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, SearchResponse{Query: query, Module: code})
}

func (s *Server) handleGetPrefs(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.Load(r.Context(), visitorID(r.Context()))
	if err != nil {
		s.writeJSONError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

// handleSetPref sets one flag from ?value=. An empty value toggles.
func (s *Server) handleSetPref(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := visitorID(ctx)
	p, err := s.store.Load(ctx, id)
	if err != nil {
		s.writeJSONError(w, err)
		return
	}
	flag := chi.URLParam(r, "flag")
	if raw := r.URL.Query().Get("value"); raw == "" {
		_, err = p.Toggle(flag)
	} else {
		var v bool
		if v, err = prefs.ParseBool(raw); err == nil {
			err = p.Set(flag, v)
		}
	}
	if err != nil {
		s.writeJSONError(w, err)
		return
	}
	if err := s.store.Save(ctx, id, p); err != nil {
		s.writeJSONError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encoding response", "err", err)
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, err error) {
	status := errs.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	s.writeJSON(w, status, errorResponse{Code: errs.GetCode(err), Message: errs.UserMessage(err)})
}
