package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	errs "github.com/matzehuels/modmap/pkg/errors"
	"github.com/matzehuels/modmap/pkg/prefs"
	"github.com/matzehuels/modmap/pkg/render"
	"github.com/matzehuels/modmap/pkg/session"
)

// List styles
var (
	listSelectedStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
	listNormalStyle    = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle       = lipgloss.NewStyle().Foreground(colorDim)
	listActiveStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listPrereqStyle    = lipgloss.NewStyle().Foreground(colorYellow)
	listDependentStyle = lipgloss.NewStyle().Foreground(colorBlue)
)

// =============================================================================
// browse command
// =============================================================================

func (c *CLI) browseCommand() *cobra.Command {
	var f sessionFlags
	cmd := &cobra.Command{
		Use:   "browse [dataset]",
		Short: "Explore a catalogue interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataset, err := c.dataset(args)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			s, err := c.session(ctx, dataset, f)
			if err != nil {
				return err
			}
			before := s.Prefs()

			final, err := tea.NewProgram(NewBrowseModel(s), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			if err != nil {
				return err
			}
			if after := final.(BrowseModel).Session.Prefs(); after != before {
				store, err := c.prefsStore()
				if err != nil {
					return err
				}
				defer store.Close()
				return store.Save(ctx, prefs.DefaultKey, after)
			}
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

// =============================================================================
// BrowseModel - Interactive catalogue browser
// =============================================================================

// BrowseModel is the bubbletea model of the catalogue browser. The cursor
// moves over the visible modules in level order; enter activates the module
// under it.
type BrowseModel struct {
	Session *session.Session
	Cursor  int
	Height  int
	Offset  int

	rows      []browseRow
	notice    string
	searching bool
	query     string
}

type browseRow struct {
	level string // Level label, set on the first row of a level
	code  string // Empty for a level that could not be ordered
	note  string
}

// NewBrowseModel creates a browser over s.
func NewBrowseModel(s *session.Session) BrowseModel {
	m := BrowseModel{Session: s, Height: 20}
	m.reload()
	return m
}

// reload rebuilds the rows after the index, theme or preferences changed,
// keeping the cursor on the same module where possible.
func (m *BrowseModel) reload() {
	current := m.current()
	m.rows = nil
	for _, lv := range render.Table(m.Session) {
		if lv.Err != nil {
			m.rows = append(m.rows, browseRow{level: lv.Label, note: lv.Notice})
			continue
		}
		for i, r := range lv.Rows {
			row := browseRow{code: r.Code}
			if i == 0 {
				row.level = lv.Label
			}
			m.rows = append(m.rows, row)
		}
	}
	m.Cursor = 0
	for i, r := range m.rows {
		if r.code != "" && r.code == current {
			m.Cursor = i
		}
	}
	m.scroll()
}

func (m BrowseModel) current() string {
	if m.Cursor < len(m.rows) {
		return m.rows[m.Cursor].code
	}
	return ""
}

func (m *BrowseModel) scroll() {
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

// moveTo puts the cursor on code.
func (m *BrowseModel) moveTo(code string) {
	for i, r := range m.rows {
		if r.code == code {
			m.Cursor = i
			m.scroll()
			return
		}
	}
}

func (m BrowseModel) Init() tea.Cmd {
	return nil
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg), nil
		}
		m.notice = ""
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				m.scroll()
			}
		case "down", "j":
			if m.Cursor < len(m.rows)-1 {
				m.Cursor++
				m.scroll()
			}
		case "enter", " ":
			if code := m.current(); code != "" {
				m.report(m.Session.Activate(code))
			}
		case "t":
			m.report(m.nextTheme())
		case "a":
			m.Session.ShowAll(!m.Session.ShowingAll())
		case "/":
			m.searching = true
			m.query = ""
		default:
			if flag, ok := prefKey(msg.String()); ok {
				m.report(m.Session.TogglePref(flag))
			}
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
		m.scroll()
	}
	return m, nil
}

func (m BrowseModel) updateSearch(msg tea.KeyMsg) BrowseModel {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.searching = false
	case tea.KeyEnter:
		m.searching = false
		code, err := m.Session.Search(m.query)
		if err != nil {
			m.notice = errs.UserMessage(err)
			return m
		}
		m.reload()
		m.moveTo(code)
	case tea.KeyBackspace:
		if m.query != "" {
			m.query = m.query[:len(m.query)-1]
		}
	case tea.KeyRunes, tea.KeySpace:
		m.query += string(msg.Runes)
	}
	return m
}

// nextTheme cycles through the themes, then back to none.
func (m *BrowseModel) nextTheme() error {
	themes := m.Session.Index().Themes()
	if len(themes) == 0 {
		return errs.New(errs.ErrCodeThemeNotFound, "the catalogue has no themes")
	}
	active := m.Session.ActiveTheme()
	next := themes[0]
	for i, t := range themes {
		if t == active {
			if i == len(themes)-1 {
				return m.Session.ClearTheme()
			}
			next = themes[i+1]
		}
	}
	return m.Session.ToggleTheme(next)
}

func (m *BrowseModel) report(err error) {
	if err != nil {
		m.notice = errs.UserMessage(err)
	}
	m.reload()
}

// prefKey maps the digit keys 1-9 to preference flags.
func prefKey(key string) (string, bool) {
	flags := prefs.Flags()
	if len(key) != 1 || key[0] < '1' || int(key[0]-'1') >= len(flags) {
		return "", false
	}
	return flags[key[0]-'1'], true
}

func (m BrowseModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Modules"))
	if t := m.Session.ActiveTheme(); t != "" {
		b.WriteString(StyleDim.Render("  theme ") + StyleHighlight.Render(t))
	}
	if m.Session.ShowingAll() {
		b.WriteString(StyleDim.Render("  all connections"))
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  t theme  a all  / search  1-9 prefs  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.rows))
	idx := m.Session.Index()
	for i := m.Offset; i < end; i++ {
		r := m.rows[i]
		if r.level != "" {
			b.WriteString(headerStyle.Render(r.level))
			b.WriteString("\n")
		}
		if r.code == "" {
			b.WriteString("  " + StyleError.Render(r.note) + "\n")
			continue
		}

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		title := ""
		if mod, ok := idx.Module(r.code); ok {
			title = mod.Title
		}
		code := codeStyle(m.Session.View(r.code)).Render(r.code)
		line := fmt.Sprintf("%s%s  %s", cursor, code, title)
		if i == m.Cursor {
			line = listSelectedStyle.Render(line)
		} else {
			line = listNormalStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.searching {
		b.WriteString(StyleHighlight.Render("/") + " " + m.query + "█\n")
	} else if m.notice != "" {
		b.WriteString(StyleWarning.Render(m.notice) + "\n")
	} else {
		b.WriteString(listDimStyle.Render(m.prefsLine()) + "\n")
	}
	return b.String()
}

// codeStyle colours a module code by its highlight state.
func codeStyle(v session.View) lipgloss.Style {
	switch {
	case v.Active:
		return listActiveStyle
	case v.Prereq:
		return listPrereqStyle
	case v.Dependent:
		return listDependentStyle
	case v.Inactive:
		return listDimStyle
	}
	return lipgloss.NewStyle()
}

func (m BrowseModel) prefsLine() string {
	p := m.Session.Prefs()
	parts := make([]string, 0, len(prefs.Flags()))
	for i, flag := range prefs.Flags() {
		on, _ := p.Get(flag)
		mark := "-"
		if on {
			mark = "+"
		}
		parts = append(parts, fmt.Sprintf("%d%s%s", i+1, mark, flag))
	}
	return strings.Join(parts, " ")
}
