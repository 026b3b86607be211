package session

import (
	"slices"

	"github.com/matzehuels/modmap/pkg/catalog"
	"github.com/matzehuels/modmap/pkg/prefs"
)

// View is the display state of one module card.
type View struct {
	Code          string
	Active        bool // The activated module
	Prereq        bool // On the activated module's prerequisite chain
	Dependent     bool // Directly requires the activated module
	Inactive      bool // Dimmed while another module is active
	ThemeActive   bool // Member of the active theme
	ThemeInactive bool // Hidden by the active theme
}

// Classes returns the CSS classes of the card.
func (v View) Classes() []string {
	classes := []string{"module"}
	for _, c := range []struct {
		on   bool
		name string
	}{
		{v.Active, "active"},
		{v.Prereq, "prereq"},
		{v.Dependent, "dependent"},
		{v.Inactive, "inactive"},
		{v.ThemeActive, "theme-active"},
		{v.ThemeInactive, "theme-inactive"},
	} {
		if c.on {
			classes = append(classes, c.name)
		}
	}
	return classes
}

// View returns the display state of a module.
func (s *Session) View(code string) View {
	v := View{Code: code}
	if s.theme != "" {
		if s.index.InTheme(s.theme, code) {
			v.ThemeActive = true
		} else {
			v.ThemeInactive = true
		}
	}
	if h := s.highlight; h != nil {
		v.Active = code == h.Active
		_, v.Prereq = h.Prereqs[code]
		_, v.Dependent = h.Dependents[code]
		_, v.Inactive = h.Inactive[code]
	}
	return v
}

// GridClasses returns the CSS classes of the card grid: one
// "<detail>-low-detail" class per disabled card detail, plus
// "no-details-enabled" when every detail is off.
func GridClasses(p prefs.Prefs) []string {
	var classes []string
	for _, name := range prefs.DetailFlags() {
		if on, _ := p.Get(name); !on {
			classes = append(classes, name+"-low-detail")
		}
	}
	if p.NoDetails() {
		classes = append(classes, "no-details-enabled")
	}
	return classes
}

// GridClasses returns the grid classes for the session's preferences.
func (s *Session) GridClasses() []string { return GridClasses(s.prefs) }

// Card is everything a renderer needs to draw one module.
type Card struct {
	Module      *catalog.Module
	View        View
	Prereqs     string   // Textual prerequisite list
	RequiredFor []string // Modules requiring this one
	Themes      []string
	Syllabus    string
	Position    catalog.Position
}

// Card assembles the card for a module of the active dataset.
func (s *Session) Card(code string) (Card, bool) {
	m, ok := s.index.Module(code)
	if !ok {
		return Card{}, false
	}
	pos, _ := s.index.Position(code)
	var reqfor []string
	for _, d := range s.index.RequiredFor(code) {
		if s.index.Has(d) {
			reqfor = append(reqfor, d)
		}
	}
	return Card{
		Module:      m,
		View:        s.View(code),
		Prereqs:     m.PrereqText(),
		RequiredFor: reqfor,
		Themes:      slices.Clone(s.index.ModuleThemes(code)),
		Syllabus:    s.index.SyllabusURL(code),
		Position:    pos,
	}, true
}
