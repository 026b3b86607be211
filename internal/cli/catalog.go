package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/modmap/pkg/catalog"
	"github.com/matzehuels/modmap/pkg/dag/transform"
	errs "github.com/matzehuels/modmap/pkg/errors"
	"github.com/matzehuels/modmap/pkg/render"
	"github.com/matzehuels/modmap/pkg/session"
)

var headerStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)

// datasetAndArgs splits positional arguments into the dataset and the n
// arguments after it. With exactly n arguments the configured dataset is
// used.
func (c *CLI) datasetAndArgs(args []string, n int) (string, []string, error) {
	if len(args) > n {
		return args[0], args[1:], nil
	}
	dataset, err := c.dataset(nil)
	return dataset, args, err
}

// sessionFlags are the index and navigation flags shared by the inspection
// commands.
type sessionFlags struct {
	theme      string
	splitTerms bool
	noCache    bool
}

func (f *sessionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.theme, "theme", "", "only show modules of a theme")
	cmd.Flags().BoolVar(&f.splitTerms, "split-terms", false, "split levels by term")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "do not use cached remote datasets")
	cmd.ValidArgsFunction = completeDataset
}

func (c *CLI) session(ctx context.Context, dataset string, f sessionFlags) (*session.Session, error) {
	opts := c.baseOptions(ctx, dataset)
	if f.splitTerms {
		opts.Prefs.SplitTerms = true
	}
	_, s, err := c.openSession(ctx, opts, f.noCache)
	if err != nil {
		return nil, err
	}
	if f.theme != "" && s.ActiveTheme() != f.theme {
		if err := s.ToggleTheme(f.theme); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// =============================================================================
// levels
// =============================================================================

func (c *CLI) levelsCommand() *cobra.Command {
	var f sessionFlags
	cmd := &cobra.Command{
		Use:   "levels [dataset]",
		Short: "Print each level in prerequisite order",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataset, err := c.dataset(args)
			if err != nil {
				return err
			}
			s, err := c.session(cmd.Context(), dataset, f)
			if err != nil {
				return err
			}
			return printLevels(cmd.OutOrStdout(), s)
		},
	}
	f.register(cmd)
	return cmd
}

// printLevels writes one table per level. A level that could not be
// ordered is printed as a notice and makes the command fail.
func printLevels(w io.Writer, s *session.Session) error {
	failed := 0
	for _, lv := range render.Table(s) {
		fmt.Fprintln(w, StyleTitle.Render(lv.Label))
		if lv.Err != nil {
			failed++
			fmt.Fprintln(w, StyleError.Render(lv.Notice))
			fmt.Fprintln(w)
			continue
		}

		headers := []string{"#", "Module", "Title", "Term", "Prerequisites"}
		if lv.HasGroups {
			headers = append(headers, "Group")
		}
		rows := make([][]string, 0, len(lv.Rows))
		for i, r := range lv.Rows {
			row := []string{fmt.Sprint(i + 1), r.Code, r.Title, r.Term, dash(r.Prereqs)}
			if lv.HasGroups {
				row = append(row, dash(strings.Join(r.Groups, " ")))
			}
			rows = append(rows, row)
		}
		t := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
			Headers(headers...).
			Rows(rows...).
			StyleFunc(func(row, col int) lipgloss.Style {
				switch {
				case row == -1:
					return headerStyle
				case col == 1:
					return StyleHighlight
				case col == 0 || col >= 3:
					return StyleDim
				}
				return StyleValue
			})
		fmt.Fprintln(w, t.Render())
		fmt.Fprintln(w)
	}
	if failed > 0 {
		return errs.New(errs.ErrCodeCycle, "%d level(s) could not be ordered", failed)
	}
	return nil
}

func dash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

// =============================================================================
// highlight
// =============================================================================

func (c *CLI) highlightCommand() *cobra.Command {
	var f sessionFlags
	cmd := &cobra.Command{
		Use:   "highlight [dataset] <module>",
		Short: "Print a module's prerequisite chain and direct dependents",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataset, rest, err := c.datasetAndArgs(args, 1)
			if err != nil {
				return err
			}
			s, err := c.session(cmd.Context(), dataset, f)
			if err != nil {
				return err
			}
			code, err := s.Search(rest[0])
			if err != nil {
				return err
			}
			if s.ActiveTheme() != f.theme {
				printWarning("%s is not in theme %q; showing it without the theme", code, f.theme)
			}
			printHighlight(cmd.OutOrStdout(), s)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

// printHighlight writes the active module followed by its prerequisites in
// level order and its dependents.
func printHighlight(w io.Writer, s *session.Session) {
	h := s.Highlight()
	ix := s.Index()
	m, _ := ix.Module(h.Active)
	fmt.Fprintln(w, StyleTitle.Render(h.Active)+" "+StyleValue.Render(m.Title))
	if text := m.PrereqText(); text != "" {
		fmt.Fprintln(w, StyleDim.Render("  requires "+text))
	}

	var prereqs, dependents []string
	for code := range h.Prereqs {
		if code != h.Active {
			prereqs = append(prereqs, code)
		}
	}
	for code := range h.Dependents {
		if _, ok := h.Prereqs[code]; !ok {
			dependents = append(dependents, code)
		}
	}
	ix.SortByLevel(prereqs)
	ix.SortByLevel(dependents)
	printCodeList(w, "Prerequisites", prereqs, ix, StyleWarning)
	printCodeList(w, "Required for", dependents, ix, lipgloss.NewStyle().Foreground(colorBlue))
}

func printCodeList(w io.Writer, heading string, codes []string, ix *catalog.Index, style lipgloss.Style) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%s (%d)", heading, len(codes))))
	for _, code := range codes {
		m, _ := ix.Module(code)
		fmt.Fprintf(w, "  %s %s\n", style.Render(code), m.Title)
	}
}

// =============================================================================
// themes
// =============================================================================

func (c *CLI) themesCommand() *cobra.Command {
	var seedOnly, noCache bool
	cmd := &cobra.Command{
		Use:   "themes [dataset]",
		Short: "List themes and their modules",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataset, err := c.dataset(args)
			if err != nil {
				return err
			}
			s, err := c.session(cmd.Context(), dataset, sessionFlags{noCache: noCache})
			if err != nil {
				return err
			}
			return printThemes(cmd.OutOrStdout(), s.Index(), seedOnly)
		},
	}
	cmd.Flags().BoolVar(&seedOnly, "seed", false, "list only the modules the dataset names, without prerequisites")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "do not use cached remote datasets")
	return cmd
}

func printThemes(w io.Writer, ix *catalog.Index, seedOnly bool) error {
	themes := ix.Themes()
	if len(themes) == 0 {
		fmt.Fprintln(w, StyleDim.Render("No themes"))
		return nil
	}
	for _, theme := range themes {
		members, err := ix.ThemeExpanded(theme)
		if seedOnly {
			members, err = ix.ThemeSeed(theme)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s %s\n", StyleTitle.Render(theme), StyleDim.Render(fmt.Sprintf("(%d)", len(members))))
		fmt.Fprintln(w, "  "+strings.Join(members, " "))
	}
	return nil
}

// =============================================================================
// search
// =============================================================================

func (c *CLI) searchCommand() *cobra.Command {
	var noCache bool
	cmd := &cobra.Command{
		Use:   "search [dataset] <query>",
		Short: "Resolve a search query to a module",
		Long: `Resolve a search query to a module code. A query without letters is
read as a module number: "5" is padded and prefixed to MATH0005.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataset, rest, err := c.datasetAndArgs(args, 1)
			if err != nil {
				return err
			}
			s, err := c.session(cmd.Context(), dataset, sessionFlags{noCache: noCache})
			if err != nil {
				return err
			}
			code, err := s.Index().Search(rest[0], c.cfg().SearchPrefix)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", StyleHighlight.Render(code), searchTitle(s.Index(), code),
				StyleDim.Render("("+searchPlace(s.Index(), code)+")"))
			return nil
		},
	}
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "do not use cached remote datasets")
	return cmd
}

func searchTitle(ix *catalog.Index, code string) string {
	m, _ := ix.Module(code)
	return m.Title
}

// searchPlace describes where a module sits. Modules in a level that could
// not be ordered have no index.
func searchPlace(ix *catalog.Index, code string) string {
	if pos, ok := ix.Position(code); ok {
		return fmt.Sprintf("%s, #%d", pos.Key.Label(), pos.Index+1)
	}
	key, _ := ix.LevelOf(code)
	return key.Label()
}

// =============================================================================
// check
// =============================================================================

func (c *CLI) checkCommand() *cobra.Command {
	var noCache bool
	cmd := &cobra.Command{
		Use:   "check [dataset]",
		Short: "Report excluded modules, missing prerequisites and cycles",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataset, err := c.dataset(args)
			if err != nil {
				return err
			}
			s, err := c.session(cmd.Context(), dataset, sessionFlags{noCache: noCache})
			if err != nil {
				return err
			}
			return runCheck(cmd.OutOrStdout(), s.Index())
		},
	}
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "do not use cached remote datasets")
	return cmd
}

// runCheck lints an index. Missing prerequisites are warnings; a cycle in
// the whole graph or in a level is an error.
func runCheck(w io.Writer, ix *catalog.Index) error {
	fmt.Fprintf(w, "%s %s\n", styleIconInfo.Render(iconInfo), fmt.Sprintf("%d modules, %d excluded as ancillary", ix.Len(), len(ix.Excluded())))

	missing := ix.Missing()
	if len(missing) == 0 {
		fmt.Fprintf(w, "%s no missing prerequisites\n", styleIconSuccess.Render(iconSuccess))
	} else {
		fmt.Fprintf(w, "%s %d missing prerequisite reference(s)\n", styleIconWarning.Render(iconWarning), len(missing))
		for _, ref := range missing {
			fmt.Fprintln(w, StyleDim.Render(fmt.Sprintf("  %s requires %s", ref.Module, ref.Prereq)))
		}
	}

	cycles := 0
	if err := ix.Graph().Validate(); err != nil {
		cycles++
		fmt.Fprintf(w, "%s %s\n", styleIconError.Render(iconError), err)
		if members := transform.CycleMembers(ix.Graph()); len(members) > 0 {
			fmt.Fprintln(w, StyleDim.Render("  on a cycle: "+strings.Join(members, ", ")))
		}
	}
	for _, lv := range ix.Levels() {
		if lv.Err != nil {
			cycles++
			fmt.Fprintf(w, "%s %s\n", styleIconError.Render(iconError), render.CycleNotice(lv.Key.Label(), lv.Err))
		}
	}
	if cycles > 0 {
		return errs.New(errs.ErrCodeCycle, "prerequisite cycles found")
	}
	fmt.Fprintf(w, "%s no prerequisite cycles\n", styleIconSuccess.Render(iconSuccess))
	return nil
}
