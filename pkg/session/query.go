package session

import (
	"net/url"
)

// Query parameter names of the navigation state.
const (
	ParamTheme   = "theme"
	ParamModule  = "module"
	ParamShowAll = "all"
)

// ApplyQuery restores the navigation state from ?theme=&module=&all=.
// Unknown themes and modules, and modules hidden by the theme, are ignored.
func (s *Session) ApplyQuery(q url.Values) {
	s.theme = ""
	s.Deactivate()
	s.showAll = q.Get(ParamShowAll) == "1"
	if t := q.Get(ParamTheme); t != "" && s.index.HasTheme(t) {
		s.theme = t
	}
	if m := q.Get(ParamModule); m != "" && s.Visible(m) {
		if err := s.activate(m); err != nil {
			s.logger.Debug("ignoring module from query", "module", m, "err", err)
		}
	}
}

// Query returns the navigation state as query parameters. Empty values are
// omitted.
func (s *Session) Query() url.Values {
	q := url.Values{}
	if s.theme != "" {
		q.Set(ParamTheme, s.theme)
	}
	if s.module != "" {
		q.Set(ParamModule, s.module)
	}
	if s.showAll {
		q.Set(ParamShowAll, "1")
	}
	return q
}

// URL returns base with its query replaced by the navigation state.
func (s *Session) URL(base url.URL) string {
	base.RawQuery = s.Query().Encode()
	return base.String()
}
