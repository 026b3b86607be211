package server

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	errs "github.com/matzehuels/modmap/pkg/errors"
	"github.com/matzehuels/modmap/pkg/render"
)

// ParamMiss carries a failed search query back to the grid as a notice.
const ParamMiss = "miss"

func (s *Server) htmlOptions(r *http.Request) render.HTMLOptions {
	opts := render.HTMLOptions{
		Title:      s.opts.Title,
		BaseURL:    &url.URL{Path: "/"},
		PrefsPath:  "/prefs",
		SearchPath: "/search",
	}
	if miss := r.URL.Query().Get(ParamMiss); miss != "" {
		opts.Notice = fmt.Sprintf("No module matches %q.", miss)
	}
	return opts
}

func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	sess, _, err := s.session(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := render.RenderHTML(sess, &buf, s.htmlOptions(r)); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeBytes(w, render.FormatHTML, buf.Bytes())
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	sess, _, err := s.session(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := render.RenderTable(sess, &buf, s.htmlOptions(r)); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeBytes(w, render.FormatTable, buf.Bytes())
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	s.serveArtifact(w, r, render.FormatSVG)
}

func (s *Server) handleXLSX(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Disposition", `attachment; filename="modules.xlsx"`)
	s.serveArtifact(w, r, render.FormatXLSX)
}

// serveArtifact renders one format through the pipeline runner so repeated
// requests for the same state are served from the cache.
func (s *Server) serveArtifact(w http.ResponseWriter, r *http.Request, format render.Format) {
	sess, p, err := s.session(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	opts := s.opts
	opts.Prefs = p
	opts.Formats = []render.Format{format}
	opts.Theme = sess.ActiveTheme()
	opts.Module = sess.ActiveModule()
	opts.ShowAll = sess.ShowingAll()

	artifacts, err := s.runner.Render(r.Context(), sess, s.datasetHash, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeBytes(w, format, artifacts[format])
}

// handleSearch resolves ?q= against the current state and redirects to the
// resulting navigation URL. A miss returns to the grid with a notice and
// the state unchanged.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	sess, _, err := s.session(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	query := r.URL.Query().Get("q")
	if _, err := sess.Search(query); err != nil {
		q := sess.Query()
		q.Set(ParamMiss, query)
		http.Redirect(w, r, "/?"+q.Encode(), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, sess.URL(url.URL{Path: "/"}), http.StatusSeeOther)
}

// handleTogglePref flips one preference of the visitor and returns to the
// page the toggle was clicked on.
func (s *Server) handleTogglePref(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := visitorID(ctx)
	p, err := s.store.Load(ctx, id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	flag := chi.URLParam(r, "flag")
	if _, err := p.Toggle(flag); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.Save(ctx, id, p); err != nil {
		s.writeError(w, err)
		return
	}
	http.Redirect(w, r, backURL(r), http.StatusSeeOther)
}

// backURL returns the same-site path and query of the Referer, or "/".
// Paths that a browser would read as protocol-relative are rejected.
func backURL(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Path == "" || (ref.Host != "" && ref.Host != r.Host) {
		return "/"
	}
	if !strings.HasPrefix(ref.Path, "/") || strings.HasPrefix(ref.Path, "//") || strings.HasPrefix(ref.Path, "/\\") {
		return "/"
	}
	back := url.URL{Path: ref.Path, RawQuery: ref.RawQuery}
	return back.String()
}

func (s *Server) writeBytes(w http.ResponseWriter, format render.Format, data []byte) {
	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := errs.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	http.Error(w, errs.UserMessage(err), status)
}

