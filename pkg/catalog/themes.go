package catalog

import (
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/modmap/pkg/dag"
	errs "github.com/matzehuels/modmap/pkg/errors"
)

// ExpandThemes returns, for every theme, its seed codes together with all
// their transitive prerequisites in g. The walk tolerates cycles.
func ExpandThemes(g *dag.DAG, seeds map[string][]string) map[string]map[string]struct{} {
	out := make(map[string]map[string]struct{}, len(seeds))
	for theme, codes := range seeds {
		out[theme] = g.Ancestors(codes...)
	}
	return out
}

// buildThemes resolves seed sets (the themesToModules mapping overrides
// per-module tags), expands them and records each module's themes.
func (ix *Index) buildThemes(ds *Dataset) {
	seeds := make(map[string][]string)
	if len(ds.ThemesToModules) > 0 {
		for t, codes := range ds.ThemesToModules {
			t = strings.TrimSpace(t)
			for _, c := range codes {
				seeds[t] = append(seeds[t], strings.TrimSpace(c))
			}
			if _, ok := seeds[t]; !ok {
				seeds[t] = nil
			}
		}
	} else {
		for _, code := range ix.codes {
			for _, t := range ix.modules[code].Themes {
				seeds[t] = append(seeds[t], code)
			}
		}
	}

	ix.seedThemes = make(map[string]map[string]struct{}, len(seeds))
	for t, codes := range seeds {
		set := make(map[string]struct{}, len(codes))
		for _, c := range codes {
			set[c] = struct{}{}
		}
		ix.seedThemes[t] = set
	}
	ix.expandedThemes = ExpandThemes(ix.graph, seeds)
	ix.themeNames = slices.Sorted(maps.Keys(seeds))

	ix.moduleThemes = make(map[string][]string, len(ix.codes))
	for _, t := range ix.themeNames {
		for c := range ix.members(t) {
			if ix.Has(c) {
				ix.moduleThemes[c] = append(ix.moduleThemes[c], t)
			}
		}
	}
}

func (ix *Index) members(theme string) map[string]struct{} {
	if ix.opts.ExpandThemes {
		return ix.expandedThemes[theme]
	}
	return ix.seedThemes[theme]
}

// Themes returns all theme labels, sorted.
func (ix *Index) Themes() []string { return slices.Clone(ix.themeNames) }

// HasTheme reports whether theme is a known label.
func (ix *Index) HasTheme(theme string) bool {
	_, ok := ix.seedThemes[theme]
	return ok
}

// ThemeSeed returns the sorted codes a theme was declared with.
func (ix *Index) ThemeSeed(theme string) ([]string, error) {
	set, ok := ix.seedThemes[theme]
	if !ok {
		return nil, errs.Wrap(errs.ErrCodeThemeNotFound, ErrThemeNotFound, "no theme %q", theme)
	}
	return slices.Sorted(maps.Keys(set)), nil
}

// ThemeExpanded returns the sorted codes of the theme's seed together with
// every transitive prerequisite, whatever the ExpandThemes option.
func (ix *Index) ThemeExpanded(theme string) ([]string, error) {
	set, ok := ix.expandedThemes[theme]
	if !ok {
		return nil, errs.Wrap(errs.ErrCodeThemeNotFound, ErrThemeNotFound, "no theme %q", theme)
	}
	return slices.Sorted(maps.Keys(set)), nil
}

// InTheme reports whether a module is shown while theme is active: a member
// of the expanded set with ExpandThemes, otherwise of the seed set.
func (ix *Index) InTheme(theme, code string) bool {
	_, ok := ix.members(theme)[code]
	return ok
}

// ModuleThemes returns the sorted themes a module belongs to.
func (ix *Index) ModuleThemes(code string) []string { return ix.moduleThemes[code] }
