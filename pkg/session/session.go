// Package session holds the interaction state of one catalogue viewer.
//
// A [Session] owns the resolved index, the preference flags, the active
// module and the active theme. Every user action (activating a module,
// toggling a theme, searching, changing a preference) is a method call that
// runs to completion and leaves the session consistent; a new activation
// replaces the previous highlight entirely.
//
// Rendering code asks the session for per-module [View] flags and for the
// edge list to draw, and never holds catalogue state of its own.
//
// # Usage
//
//	s, err := session.New(ds, prefs.Defaults(), session.Options{})
//	if err != nil {
//	    return err
//	}
//	s.ApplyQuery(r.URL.Query())
//	s.Activate("MATH0006")
//	edges := s.Edges()
//
// Sessions are not safe for concurrent use.
package session

import (
	"io"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/modmap/pkg/catalog"
	errs "github.com/matzehuels/modmap/pkg/errors"
	"github.com/matzehuels/modmap/pkg/prefs"
)

// Options configure a session beyond the user's preferences.
type Options struct {
	IncludeAncillary bool
	SyllabusBaseURL  string
	SearchPrefix     string // Defaults to catalog.DefaultSearchPrefix
	Logger           *log.Logger
}

// Session is the interaction state of one viewer.
type Session struct {
	opts   Options
	logger *log.Logger

	index *catalog.Index
	prefs prefs.Prefs

	module    string
	theme     string
	highlight *catalog.Highlight
	showAll   bool
}

// New indexes ds according to p and returns a session with nothing active.
func New(ds *catalog.Dataset, p prefs.Prefs, opts Options) (*Session, error) {
	if opts.SearchPrefix == "" {
		opts.SearchPrefix = catalog.DefaultSearchPrefix
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	s := &Session{opts: opts, logger: opts.Logger, prefs: p}
	ix, err := catalog.Build(ds, s.indexOptions(p))
	if err != nil {
		return nil, err
	}
	s.index = ix
	return s, nil
}

func (s *Session) indexOptions(p prefs.Prefs) catalog.Options {
	return catalog.Options{
		IncludeAncillary: s.opts.IncludeAncillary,
		SplitTerms:       p.SplitTerms,
		ExpandThemes:     p.ExpandThemes,
		SyllabusBaseURL:  s.opts.SyllabusBaseURL,
		Logger:           s.logger,
	}
}

// Index returns the current index. It is replaced when an indexing
// preference changes.
func (s *Session) Index() *catalog.Index { return s.index }

// Prefs returns the current preferences.
func (s *Session) Prefs() prefs.Prefs { return s.prefs }

// ActiveModule returns the activated module code, or "".
func (s *Session) ActiveModule() string { return s.module }

// ActiveTheme returns the active theme, or "".
func (s *Session) ActiveTheme() string { return s.theme }

// Highlight returns the current highlight, or nil when no module is active.
func (s *Session) Highlight() *catalog.Highlight { return s.highlight }

// SetPrefs replaces the preferences. Changing term splitting or theme
// expansion rebuilds the index from scratch and re-applies the current
// selection; a selection that no longer applies is dropped.
func (s *Session) SetPrefs(p prefs.Prefs) error {
	old := s.prefs
	s.prefs = p
	if !old.RebuildNeeded(p) {
		return nil
	}
	ix, err := s.index.Rebuild(s.indexOptions(p))
	if err != nil {
		s.prefs = old
		return err
	}
	s.index = ix
	s.logger.Debug("index rebuilt", "splitTerms", p.SplitTerms, "expandThemes", p.ExpandThemes)
	return s.refresh()
}

// SetPref changes one named flag.
func (s *Session) SetPref(name string, v bool) error {
	p := s.prefs
	if err := p.Set(name, v); err != nil {
		return err
	}
	return s.SetPrefs(p)
}

// TogglePref flips one named flag.
func (s *Session) TogglePref(name string) error {
	p := s.prefs
	if _, err := p.Toggle(name); err != nil {
		return err
	}
	return s.SetPrefs(p)
}

// refresh recomputes the highlight after the index or theme changed.
func (s *Session) refresh() error {
	if s.theme != "" && !s.index.HasTheme(s.theme) {
		s.theme = ""
	}
	if s.module == "" {
		s.highlight = nil
		return nil
	}
	if !s.Visible(s.module) {
		s.Deactivate()
		return nil
	}
	h, err := s.index.Highlight(s.module, s.Visible)
	if err != nil {
		s.Deactivate()
		return err
	}
	s.highlight = h
	return nil
}

// Visible reports whether a module is shown: it is in the active dataset
// and, when a theme is active, a member of that theme.
func (s *Session) Visible(code string) bool {
	if !s.index.Has(code) {
		return false
	}
	return s.theme == "" || s.index.InTheme(s.theme, code)
}

// Activate handles a click on a module. Clicking the active module
// deactivates it; otherwise the previous highlight is cleared and code is
// highlighted.
func (s *Session) Activate(code string) error {
	if code == s.module && s.module != "" {
		s.Deactivate()
		return nil
	}
	return s.activate(code)
}

func (s *Session) activate(code string) error {
	if _, err := s.index.Lookup(code); err != nil {
		return err
	}
	if !s.Visible(code) {
		return errs.New(errs.ErrCodeModuleNotFound, "module %s is hidden by theme %q", code, s.theme)
	}
	h, err := s.index.Highlight(code, s.Visible)
	if err != nil {
		return err
	}
	s.module = code
	s.highlight = h
	s.logger.Debug("module activated", "module", code, "related", len(h.Considered), "edges", len(h.Edges))
	return nil
}

// Deactivate clears the active module.
func (s *Session) Deactivate() {
	s.module = ""
	s.highlight = nil
}

// ToggleTheme activates theme, or deactivates it if it is already active.
// An active module hidden by the new theme is deactivated.
func (s *Session) ToggleTheme(theme string) error {
	if theme == s.theme {
		s.theme = ""
		return s.refresh()
	}
	if !s.index.HasTheme(theme) {
		return errs.Wrap(errs.ErrCodeThemeNotFound, catalog.ErrThemeNotFound, "no theme %q", theme)
	}
	s.theme = theme
	return s.refresh()
}

// ClearTheme deactivates the active theme.
func (s *Session) ClearTheme() error {
	s.theme = ""
	return s.refresh()
}

// Search resolves a query and activates the module it names. A module
// hidden by the active theme makes the theme deactivate first. Searching
// for the already active module keeps it active.
func (s *Session) Search(query string) (string, error) {
	code, err := s.index.Search(query, s.opts.SearchPrefix)
	if err != nil {
		return "", err
	}
	if !s.Visible(code) {
		s.theme = ""
	}
	if err := s.activate(code); err != nil {
		return "", err
	}
	return code, nil
}

// ShowAll switches between drawing the current highlight and drawing every
// visible prerequisite edge.
func (s *Session) ShowAll(on bool) { s.showAll = on }

// ShowingAll reports whether every connection is drawn.
func (s *Session) ShowingAll() bool { return s.showAll }

// Edges returns the edges to draw: every visible connection when ShowAll is
// on, otherwise the current highlight's edges.
func (s *Session) Edges() []catalog.Edge {
	if s.showAll {
		return s.index.Connections(s.Visible)
	}
	if s.highlight == nil {
		return nil
	}
	return slices.Clone(s.highlight.Edges)
}
