package catalog

import (
	"errors"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/modmap/pkg/dag"
	errs "github.com/matzehuels/modmap/pkg/errors"
)

func mod(code string, level int, prereqs ...Prereq) Module {
	return Module{Code: code, Title: code, Level: Ordinal(string(rune('0' + level))), Prereqs: prereqs}
}

func chain() *Dataset {
	return &Dataset{Modules: []Module{
		mod("A", 1),
		mod("B", 1, Code("A")),
		mod("C", 2, Code("B")),
	}}
}

func mustBuild(t *testing.T, ds *Dataset, opts Options) *Index {
	t.Helper()
	ix, err := Build(ds, opts)
	require.NoError(t, err)
	return ix
}

func TestBuild_TransposeMaps(t *testing.T) {
	ds := &Dataset{
		Modules: []Module{
			mod("MATH0005", 4),
			mod("MATH0006", 4, Code("MATH0005"), Code("MATH0005")),
			mod("MATH0051", 5, AnyOf("MATH0006", "MATH0007"), Code("MATH0005")),
			mod("MATH0007", 4, Code("PHAS0001")),
			mod("ANC0001", 4),
		},
		AncillaryModules: []string{"ANC0001"},
	}
	ix := mustBuild(t, ds, DefaultOptions())

	assert.Equal(t, []string{"MATH0005"}, ix.Prereqs("MATH0006"), "duplicates collapse")
	assert.Equal(t, []string{"MATH0005", "MATH0006", "MATH0007"}, ix.Prereqs("MATH0051"), "groups unpack as a union")
	assert.False(t, ix.Has("ANC0001"))
	assert.Equal(t, []string{"ANC0001"}, ix.Excluded())

	codes := append(ix.Codes(), "PHAS0001")
	for _, m := range codes {
		for _, p := range ix.Prereqs(m) {
			assert.Contains(t, ix.RequiredFor(p), m, "%s requires %s", m, p)
		}
		for _, d := range ix.RequiredFor(m) {
			assert.Contains(t, ix.Prereqs(d), m, "%s required for %s", m, d)
		}
	}

	assert.Equal(t, []MissingRef{{Module: "MATH0007", Prereq: "PHAS0001"}}, ix.Missing())
	n, ok := ix.Graph().Node("PHAS0001")
	require.True(t, ok)
	assert.True(t, n.IsExternal())
}

func TestBuild_IncludeAncillary(t *testing.T) {
	ds := &Dataset{
		Modules:          []Module{mod("A", 1), mod("B", 1, Code("A"))},
		AncillaryModules: []string{"A"},
	}

	ix := mustBuild(t, ds, Options{})
	assert.False(t, ix.Has("A"))
	assert.Len(t, ix.Missing(), 1)

	ix, err := ix.Rebuild(Options{IncludeAncillary: true})
	require.NoError(t, err)
	assert.True(t, ix.Has("A"))
	assert.Empty(t, ix.Missing())
}

func TestBuild_InvalidDataset(t *testing.T) {
	tests := []struct {
		name string
		ds   *Dataset
	}{
		{"nil", nil},
		{"empty code", &Dataset{Modules: []Module{{Title: "untitled"}}}},
		{"duplicate code", &Dataset{Modules: []Module{mod("A", 1), mod("A", 2)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.ds, DefaultOptions())
			require.Error(t, err)
			assert.Equal(t, errs.ErrCodeInvalidDataset, errs.GetCode(err))
		})
	}
}

func TestThemes_Closure(t *testing.T) {
	ds := chain()
	ds.ThemesToModules = map[string][]string{"T": {"C"}, "Empty": nil}
	ix := mustBuild(t, ds, DefaultOptions())

	seed, err := ix.ThemeSeed("T")
	require.NoError(t, err)
	expanded, err := ix.ThemeExpanded("T")
	require.NoError(t, err)

	assert.Equal(t, []string{"C"}, seed)
	assert.Equal(t, []string{"A", "B", "C"}, expanded)
	assert.Equal(t, []string{"Empty", "T"}, ix.Themes())
	assert.Equal(t, []string{"T"}, ix.ModuleThemes("A"))

	for _, theme := range ix.Themes() {
		exp, _ := ix.ThemeExpanded(theme)
		sd, _ := ix.ThemeSeed(theme)
		for _, c := range sd {
			assert.Contains(t, exp, c, "seed within expansion")
		}
		for _, c := range exp {
			for _, p := range ix.Prereqs(c) {
				assert.Contains(t, exp, p, "expansion closed under prerequisites")
			}
		}
	}

	_, err = ix.ThemeSeed("Nope")
	assert.True(t, errors.Is(err, ErrThemeNotFound))
}

func TestThemes_SeedOnly(t *testing.T) {
	ds := chain()
	ds.ThemesToModules = map[string][]string{"T": {"C"}}
	ix := mustBuild(t, ds, Options{})

	assert.True(t, ix.InTheme("T", "C"))
	assert.False(t, ix.InTheme("T", "A"))
	assert.Nil(t, ix.ModuleThemes("A"))
}

func TestThemes_OverrideTags(t *testing.T) {
	ds := chain()
	ds.Modules[0].Themes = Tags{"Tagged"}
	ix := mustBuild(t, ds, DefaultOptions())
	assert.Equal(t, []string{"Tagged"}, ix.Themes())

	ds.ThemesToModules = map[string][]string{"Mapped": {"B"}}
	ix = mustBuild(t, ds, DefaultOptions())
	assert.Equal(t, []string{"Mapped"}, ix.Themes())
	assert.False(t, ix.HasTheme("Tagged"))
}

func TestThemes_Cycle(t *testing.T) {
	ds := &Dataset{
		Modules:         []Module{mod("P", 1, Code("Q")), mod("Q", 1, Code("P"))},
		ThemesToModules: map[string][]string{"loop": {"P"}},
	}
	ix := mustBuild(t, ds, DefaultOptions())
	got, err := ix.ThemeExpanded("loop")
	require.NoError(t, err)
	assert.Equal(t, []string{"P", "Q"}, got)
}

func TestLevels(t *testing.T) {
	ds := &Dataset{Modules: []Module{
		mod("Z", 4, Code("X")),
		mod("Y", 4, Code("X")),
		mod("X", 4),
		mod("W", 5, Code("Z")),
		mod("V", 5),
	}}
	ix := mustBuild(t, ds, DefaultOptions())

	levels := ix.Levels()
	require.Len(t, levels, 2)
	assert.Equal(t, []string{"X", "Y", "Z"}, levels[0].Codes)
	assert.Equal(t, []string{"V", "W"}, levels[1].Codes, "cross-level prerequisites ignored")

	p, ok := ix.Position("Z")
	require.True(t, ok)
	assert.Equal(t, Position{Key: LevelKey{Level: "4"}, Index: 2}, p)
	assert.Empty(t, ix.LevelErrors())
}

func TestLevels_Cycle(t *testing.T) {
	ds := &Dataset{Modules: []Module{
		mod("P", 4, Code("Q")),
		mod("Q", 4, Code("P")),
		mod("R", 5, Code("P")),
	}}
	ix := mustBuild(t, ds, DefaultOptions())

	levels := ix.Levels()
	require.Len(t, levels, 2)
	assert.Nil(t, levels[0].Codes)
	assert.True(t, errs.Is(levels[0].Err, errs.ErrCodeCycle))
	assert.True(t, errors.Is(levels[0].Err, dag.ErrGraphHasCycle))
	assert.Equal(t, []string{"R"}, levels[1].Codes)
	assert.Len(t, ix.LevelErrors(), 1)

	_, ok := ix.Position("P")
	assert.False(t, ok)
}

func TestSortByLevel(t *testing.T) {
	ds := &Dataset{Modules: []Module{
		mod("Q", 5, Code("P")),
		mod("P", 5, Code("Q")),
		mod("A", 4),
		mod("Z", 4),
		mod("B", 4, Code("Z")),
		mod("R", 6, Code("P")),
	}}
	ix := mustBuild(t, ds, DefaultOptions())

	key, ok := ix.LevelOf("P")
	require.True(t, ok)
	assert.Equal(t, LevelKey{Level: "5"}, key)
	_, ok = ix.LevelOf("NOPE")
	assert.False(t, ok)

	codes := []string{"R", "Q", "B", "P", "A", "Z"}
	ix.SortByLevel(codes)
	// Members of the unordered level fall back to code order.
	assert.Equal(t, []string{"A", "Z", "B", "P", "Q", "R"}, codes)
}

func TestBuild_SelfPrerequisite(t *testing.T) {
	ix := mustBuild(t, &Dataset{Modules: []Module{mod("A", 1, Code("A")), mod("B", 1)}}, DefaultOptions())

	assert.True(t, ix.Graph().HasEdge("A", "A"))
	assert.Equal(t, []string{"A"}, ix.Prereqs("A"))
	assert.Equal(t, []string{"A"}, ix.RequiredFor("A"))
	assert.True(t, errs.Is(ix.Levels()[0].Err, errs.ErrCodeCycle))
}

func TestLevels_SplitTerms(t *testing.T) {
	ds := &Dataset{Modules: []Module{
		{Code: "A", Level: "4", Term: "2"},
		{Code: "B", Level: "4", Term: "1"},
		{Code: "C", Level: "4"},
		{Code: "D", Level: "10", Term: "1"},
	}}

	ix := mustBuild(t, ds, Options{SplitTerms: true})
	var keys []string
	for _, lv := range ix.Levels() {
		keys = append(keys, lv.Key.String())
	}
	assert.Equal(t, []string{"4-1", "4-2", "4", "10-1"}, keys)

	ix, err := ix.Rebuild(Options{})
	require.NoError(t, err)
	require.Len(t, ix.Levels(), 2)
	assert.Equal(t, []string{"A", "B", "C"}, ix.Levels()[0].Codes)
}

func TestHighlight_EndToEnd(t *testing.T) {
	ix := mustBuild(t, chain(), DefaultOptions())

	h, err := ix.Highlight("B", nil)
	require.NoError(t, err)

	want := []Edge{{From: "A", To: "B"}, {From: "B", To: "C"}}
	if diff := cmp.Diff(want, h.Edges); diff != "" {
		t.Errorf("Edges mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"A", "B", "C"}, h.ConsideredCodes())
	assert.Contains(t, h.Prereqs, "A")
	assert.Contains(t, h.Dependents, "C")
	assert.Empty(t, h.Inactive)
}

func TestHighlight_NoTransitiveDependents(t *testing.T) {
	ix := mustBuild(t, chain(), DefaultOptions())

	h, err := ix.Highlight("A", nil)
	require.NoError(t, err)
	assert.True(t, h.Related("B"))
	assert.False(t, h.Related("C"))
	assert.Contains(t, h.Inactive, "C")
}

func TestHighlight_Idempotent(t *testing.T) {
	ds := &Dataset{Modules: []Module{
		mod("A", 1),
		mod("B", 1, Code("A")),
		mod("C", 1, Code("A")),
		mod("D", 2, Code("B"), Code("C")),
		mod("E", 3, Code("D")),
	}}
	ix := mustBuild(t, ds, DefaultOptions())

	first, err := ix.Highlight("D", nil)
	require.NoError(t, err)
	second, err := ix.Highlight("D", nil)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("re-activation differs (-first +second):\n%s", diff)
	}
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, first.ConsideredCodes())
	assert.Len(t, first.Edges, 5, "diamond edges recorded once each")
}

func TestHighlight_Visibility(t *testing.T) {
	ds := chain()
	ds.Modules[1].Prereqs = append(ds.Modules[1].Prereqs, Code("EXT1"))
	ix := mustBuild(t, ds, DefaultOptions())

	hidden := func(c string) bool { return c != "A" }
	h, err := ix.Highlight("C", hidden)
	require.NoError(t, err)

	assert.Equal(t, []Edge{{From: "B", To: "C"}}, h.Edges)
	assert.Equal(t, []string{"B", "C"}, h.ConsideredCodes())
	assert.Contains(t, h.Inactive, "A")
}

func TestHighlight_Cycle(t *testing.T) {
	ds := &Dataset{Modules: []Module{mod("P", 1, Code("Q")), mod("Q", 1, Code("P"))}}
	ix := mustBuild(t, ds, DefaultOptions())

	h, err := ix.Highlight("P", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"P", "Q"}, h.ConsideredCodes())
}

func TestHighlight_Unknown(t *testing.T) {
	ix := mustBuild(t, chain(), DefaultOptions())
	_, err := ix.Highlight("MISSING", nil)
	assert.True(t, errors.Is(err, ErrModuleNotFound))
	assert.True(t, errs.Is(err, errs.ErrCodeModuleNotFound))
}

func TestConnections(t *testing.T) {
	ix := mustBuild(t, chain(), DefaultOptions())
	assert.Equal(t, []Edge{{From: "A", To: "B"}, {From: "B", To: "C"}}, ix.Connections(nil))
	assert.Equal(t, []Edge{{From: "A", To: "B"}}, ix.Connections(func(c string) bool { return c != "C" }))
}

func TestSearch(t *testing.T) {
	ds := &Dataset{Modules: []Module{mod("MATH0005", 4), mod("PHAS0040", 4)}}
	ix := mustBuild(t, ds, DefaultOptions())

	tests := []struct {
		query   string
		want    string
		wantErr bool
	}{
		{"5", "MATH0005", false},
		{" 0005 ", "MATH0005", false},
		{"math0005", "MATH0005", false},
		{"phas0040", "PHAS0040", false},
		{"40", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ix.Search(tt.query, DefaultSearchPrefix)
		if tt.wantErr {
			assert.Error(t, err, "query %q", tt.query)
			continue
		}
		require.NoError(t, err, "query %q", tt.query)
		assert.Equal(t, tt.want, got)
	}
}

func TestNormalizeQuery(t *testing.T) {
	assert.Equal(t, "MATH0005", NormalizeQuery("5", "MATH"))
	assert.Equal(t, "MATH12345", NormalizeQuery("12345", "MATH"))
	assert.Equal(t, "STAT0002", NormalizeQuery("2", "STAT"))
	assert.Equal(t, "ABC", NormalizeQuery(" abc ", "MATH"))
}

func TestSyllabusURL(t *testing.T) {
	ds := chain()
	ds.Modules[0].Syllabus = "https://example.org/a.pdf"
	ix := mustBuild(t, ds, DefaultOptions())

	assert.Equal(t, "https://example.org/a.pdf", ix.SyllabusURL("A"))
	assert.Equal(t, DefaultSyllabusBaseURL+"b.pdf", ix.SyllabusURL("B"))
	assert.Equal(t, "https://x.org/c.pdf", SyllabusURL("https://x.org", "C"))
	assert.Empty(t, ix.SyllabusURL("nope"))
}

func TestLevelKeyCompare(t *testing.T) {
	keys := []LevelKey{{Level: "b"}, {Level: "5"}, {Level: "4"}, {Level: "4", Term: "2"}, {Level: "4", Term: "1"}}
	slices.SortFunc(keys, LevelKey.Compare)
	want := []LevelKey{{Level: "4", Term: "1"}, {Level: "4", Term: "2"}, {Level: "4"}, {Level: "5"}, {Level: "b"}}
	assert.Equal(t, want, keys)
	assert.Equal(t, "Level 4, Term 1", want[0].Label())
}
