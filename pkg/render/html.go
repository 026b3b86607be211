package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"strings"

	"github.com/matzehuels/modmap/pkg/catalog"
	"github.com/matzehuels/modmap/pkg/prefs"
	"github.com/matzehuels/modmap/pkg/session"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"join": strings.Join,
}).ParseFS(templateFS, "templates/*.tmpl"))

// HTMLOptions configures the HTML pages.
type HTMLOptions struct {
	Title  string
	Layout LayoutConfig

	// BaseURL makes cards, themes and the show-all switch link to
	// navigation URLs under it. Without it the page is static and cards
	// link to their own anchors.
	BaseURL *url.URL

	// PrefsPath, when set, adds preference toggles posting to
	// PrefsPath/<flag>.
	PrefsPath string

	// SearchPath, when set, adds a search form submitting ?q= to it.
	SearchPath string

	// Notice is a transient message shown above the grid.
	Notice string
}

func (o HTMLOptions) title() string {
	if o.Title == "" {
		return "Module map"
	}
	return o.Title
}

type cardData struct {
	Code        string
	Title       string
	Classes     string
	Style       template.CSS
	Href        string
	Description string
	Prereqs     string
	RequiredFor string
	Themes      string
	Groups      string
	Years       string
	Lead        string
	Syllabus    string
}

type sectionData struct {
	ID     string
	Label  string
	Style  template.CSS
	Notice string
}

type edgeData struct {
	Path  string
	Class string
}

type linkData struct {
	Name   string
	Href   string
	Active bool
}

type hiddenField struct{ Name, Value string }

type gridPage struct {
	Title       string
	Notice      string
	GridClasses string
	Width       float64
	Height      float64
	Sections    []sectionData
	Cards       []cardData
	Edges       []edgeData
	Themes      []linkData
	Prefs       []linkData
	PrefsPath   string
	SearchPath  string
	SearchState []hiddenField
	ShowAll     linkData
	Interactive bool
}

// RenderHTML writes the card grid of the session's current state.
func RenderHTML(s *session.Session, w io.Writer, opts HTMLOptions) error {
	ix := s.Index()
	l := NewLayout(ix, s.Visible, opts.Layout)

	page := gridPage{
		Title:       opts.title(),
		Notice:      opts.Notice,
		GridClasses: strings.Join(s.GridClasses(), " "),
		Width:       l.Width,
		Height:      l.Height,
		PrefsPath:   strings.TrimSuffix(opts.PrefsPath, "/"),
		SearchPath:  opts.SearchPath,
		Interactive: opts.BaseURL != nil,
	}

	for _, sec := range l.Sections {
		sd := sectionData{
			ID:    sec.ID(),
			Label: sec.Label,
			Style: template.CSS(fmt.Sprintf("top:%.0fpx;width:%.0fpx", sec.Y, l.Width-2*l.Config.Margin)),
		}
		if sec.Err != nil {
			sd.Notice = CycleNotice(sec.Label, sec.Err)
		}
		page.Sections = append(page.Sections, sd)

		for _, code := range sec.Codes {
			c, ok := s.Card(code)
			if !ok {
				continue
			}
			r := l.Cards[code]
			page.Cards = append(page.Cards, cardData{
				Code:        code,
				Title:       c.Module.Title,
				Classes:     strings.Join(c.View.Classes(), " "),
				Style:       template.CSS(fmt.Sprintf("left:%.0fpx;top:%.0fpx;width:%.0fpx;height:%.0fpx", r.X, r.Y, r.W, r.H)),
				Href:        moduleHref(s, opts.BaseURL, code),
				Description: c.Module.Description,
				Prereqs:     c.Prereqs,
				RequiredFor: strings.Join(c.RequiredFor, ", "),
				Themes:      strings.Join(c.Themes, ", "),
				Groups:      strings.Join(c.Module.Groups, ", "),
				Years:       strings.Join(c.Module.Years, ", "),
				Lead:        c.Module.Lead,
				Syllabus:    c.Syllabus,
			})
		}
	}

	page.Edges = collectEdges(s, l)

	if opts.BaseURL != nil {
		for _, t := range ix.Themes() {
			page.Themes = append(page.Themes, linkData{
				Name:   t,
				Href:   themeHref(s, opts.BaseURL, t),
				Active: t == s.ActiveTheme(),
			})
		}
		page.ShowAll = linkData{
			Name:   "Show all connections",
			Href:   showAllHref(s, opts.BaseURL),
			Active: s.ShowingAll(),
		}
	}
	if page.SearchPath != "" {
		q := s.Query()
		q.Del(session.ParamModule)
		for _, name := range []string{session.ParamTheme, session.ParamShowAll} {
			if v := q.Get(name); v != "" {
				page.SearchState = append(page.SearchState, hiddenField{name, v})
			}
		}
	}
	if page.PrefsPath != "" {
		p := s.Prefs()
		for _, name := range prefs.Flags() {
			on, _ := p.Get(name)
			page.Prefs = append(page.Prefs, linkData{Name: name, Href: page.PrefsPath + "/" + name, Active: on})
		}
	}

	return templates.ExecuteTemplate(w, "grid", page)
}

func collectEdges(s *session.Session, l *Layout) []edgeData {
	h := s.Highlight()
	var out []edgeData
	for _, e := range s.Edges() {
		from, ok1 := l.Cards[e.From]
		to, ok2 := l.Cards[e.To]
		if !ok1 || !ok2 {
			continue
		}
		out = append(out, edgeData{Path: EdgePath(from, to), Class: edgeClass(h, e)})
	}
	return out
}

func edgeClass(h *catalog.Highlight, e catalog.Edge) string {
	if h == nil {
		return "edge"
	}
	if e.From == h.Active {
		if _, ok := h.Dependents[e.To]; ok {
			return "edge dependent-edge"
		}
	}
	if _, ok := h.Prereqs[e.From]; ok && h.Related(e.To) {
		return "edge prereq-edge"
	}
	return "edge"
}

// moduleHref links a card to the state a click produces: the module
// toggled, the theme kept.
func moduleHref(s *session.Session, base *url.URL, code string) string {
	if base == nil {
		return "#" + code
	}
	q := s.Query()
	if s.ActiveModule() == code {
		q.Del(session.ParamModule)
	} else {
		q.Set(session.ParamModule, code)
	}
	return withQuery(base, q)
}

func themeHref(s *session.Session, base *url.URL, theme string) string {
	q := s.Query()
	if s.ActiveTheme() == theme {
		q.Del(session.ParamTheme)
	} else {
		q.Set(session.ParamTheme, theme)
		if m := s.ActiveModule(); m != "" && !s.Index().InTheme(theme, m) {
			q.Del(session.ParamModule)
		}
	}
	return withQuery(base, q)
}

func showAllHref(s *session.Session, base *url.URL) string {
	q := s.Query()
	if s.ShowingAll() {
		q.Del(session.ParamShowAll)
	} else {
		q.Set(session.ParamShowAll, "1")
	}
	return withQuery(base, q)
}

func withQuery(base *url.URL, q url.Values) string {
	u := *base
	u.RawQuery = q.Encode()
	return u.String()
}
