package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/modmap/pkg/buildinfo"
	"github.com/matzehuels/modmap/pkg/cache"
	errs "github.com/matzehuels/modmap/pkg/errors"
	"github.com/matzehuels/modmap/pkg/prefs"
)

const testDataset = `
modules:
  - {code: MATH0001, title: Algebra 1, level: 4}
  - {code: MATH0002, title: Algebra 2, level: 4, prereqs: [MATH0001]}
  - {code: MATH0003, title: Algebra 3, level: 5, prereqs: [MATH0002]}
  - {code: MATH0004, title: Geometry, level: 5, groups: [core], prereqs: [ECON0001]}
themesToModules:
  Algebra: [MATH0003]
`

const cyclicDataset = `
modules:
  - {code: MATH0001, title: Algebra 1, level: 4}
  - {code: MATH0010, title: Loop A, level: 6, prereqs: [MATH0011]}
  - {code: MATH0011, title: Loop B, level: 6, prereqs: [MATH0010]}
`

const cyclicPrereqDataset = `
modules:
  - {code: MATH0010, title: Loop A, level: 6, prereqs: [MATH0011]}
  - {code: MATH0011, title: Loop B, level: 6, prereqs: [MATH0010]}
  - {code: MATH0020, title: Topology, level: 7, prereqs: [MATH0010]}
  - {code: MATH0021, title: Measure, level: 7, prereqs: [MATH0020]}
`

// testEnv isolates config, cache and preference directories.
type testEnv struct {
	dir      string
	prefsDir string
	cacheDir string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	env := testEnv{
		dir:      dir,
		prefsDir: filepath.Join(dir, "prefs"),
		cacheDir: filepath.Join(dir, "cache"),
	}
	t.Setenv("MODMAP_CONFIG", filepath.Join(dir, "config.yaml"))
	t.Setenv("MODMAP_PREFS_DIR", env.prefsDir)
	t.Setenv("MODMAP_CACHE_DIR", env.cacheDir)
	t.Setenv("MODMAP_DATASET", "")
	return env
}

func (e testEnv) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// run executes the CLI and returns what commands wrote to their output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var logs bytes.Buffer
	c := New(&logs, LogInfo)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestNoDataset(t *testing.T) {
	newTestEnv(t)
	_, err := run(t, "levels")
	assert.True(t, errs.Is(err, errs.ErrCodeInvalidInput), "got %v", err)
}

func TestLevelsCommand(t *testing.T) {
	env := newTestEnv(t)
	path := env.write(t, "modules.yaml", testDataset)

	out, err := run(t, "levels", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Level 4")
	assert.Contains(t, out, "Level 5")
	assert.Less(t, strings.Index(out, "MATH0001"), strings.Index(out, "MATH0002"))
	assert.Contains(t, out, "Group")

	out, err = run(t, "levels", path, "--theme", "Algebra")
	require.NoError(t, err)
	assert.NotContains(t, out, "MATH0004")
	assert.NotContains(t, out, "Group")
}

func TestLevelsCommand_Cycle(t *testing.T) {
	env := newTestEnv(t)
	path := env.write(t, "cyclic.yaml", cyclicDataset)

	out, err := run(t, "levels", path)
	assert.True(t, errs.Is(err, errs.ErrCodeCycle), "got %v", err)
	assert.Contains(t, out, "Cannot order Level 6: prerequisite cycle among MATH0010, MATH0011")
	assert.Contains(t, out, "MATH0001")
}

func TestHighlightCommand(t *testing.T) {
	env := newTestEnv(t)
	path := env.write(t, "modules.yaml", testDataset)

	out, err := run(t, "highlight", path, "2")
	require.NoError(t, err)
	assert.Contains(t, out, "MATH0002 Algebra 2")
	assert.Contains(t, out, "requires MATH0001")
	assert.Contains(t, out, "Prerequisites (1)")
	assert.Contains(t, out, "Required for (1)")
	assert.Contains(t, out, "MATH0003 Algebra 3")

	t.Setenv("MODMAP_DATASET", path)
	out, err = run(t, "highlight", "MATH0003")
	require.NoError(t, err)
	assert.Contains(t, out, "Prerequisites (2)")

	_, err = run(t, "highlight", path, "9999")
	assert.True(t, errs.Is(err, errs.ErrCodeModuleNotFound), "got %v", err)
}

func TestHighlightCommand_PrereqInCycle(t *testing.T) {
	env := newTestEnv(t)
	path := env.write(t, "cyclic.yaml", cyclicPrereqDataset)

	out, err := run(t, "highlight", path, "20")
	require.NoError(t, err)
	assert.Contains(t, out, "Prerequisites (2)")
	assert.Less(t, strings.Index(out, "MATH0010 Loop A"), strings.Index(out, "MATH0011 Loop B"))
	assert.Contains(t, out, "Required for (1)")
	assert.Contains(t, out, "MATH0021 Measure")

	out, err = run(t, "highlight", path, "11")
	require.NoError(t, err)
	assert.Contains(t, out, "Prerequisites (1)")
	assert.Contains(t, out, "Required for (0)")
}

func TestThemesCommand(t *testing.T) {
	env := newTestEnv(t)
	path := env.write(t, "modules.yaml", testDataset)

	out, err := run(t, "themes", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Algebra (3)")
	assert.Contains(t, out, "MATH0001 MATH0002 MATH0003")

	out, err = run(t, "themes", path, "--seed")
	require.NoError(t, err)
	assert.Contains(t, out, "Algebra (1)")
}

func TestSearchCommand(t *testing.T) {
	env := newTestEnv(t)
	path := env.write(t, "modules.yaml", testDataset)

	out, err := run(t, "search", path, " 4 ")
	require.NoError(t, err)
	assert.Contains(t, out, "MATH0004 Geometry")
	assert.Contains(t, out, "Level 5")

	_, err = run(t, "search", path, "MATH0042")
	assert.True(t, errs.Is(err, errs.ErrCodeModuleNotFound), "got %v", err)
}

func TestSearchCommand_UnorderedLevel(t *testing.T) {
	env := newTestEnv(t)
	path := env.write(t, "cyclic.yaml", cyclicPrereqDataset)

	out, err := run(t, "search", path, "10")
	require.NoError(t, err)
	assert.Contains(t, out, "MATH0010 Loop A (Level 6)")
	assert.NotContains(t, out, "#")

	out, err = run(t, "search", path, "21")
	require.NoError(t, err)
	assert.Contains(t, out, "(Level 7, #2)")
}

func TestCheckCommand(t *testing.T) {
	env := newTestEnv(t)

	out, err := run(t, "check", env.write(t, "modules.yaml", testDataset))
	require.NoError(t, err)
	assert.Contains(t, out, "4 modules, 0 excluded as ancillary")
	assert.Contains(t, out, "1 missing prerequisite reference(s)")
	assert.Contains(t, out, "MATH0004 requires ECON0001")
	assert.Contains(t, out, "no prerequisite cycles")

	out, err = run(t, "check", env.write(t, "cyclic.yaml", cyclicDataset))
	assert.True(t, errs.Is(err, errs.ErrCodeCycle), "got %v", err)
	assert.Contains(t, out, "graph contains a cycle")
	assert.Contains(t, out, "Cannot order Level 6")
	assert.Contains(t, out, "on a cycle: MATH0010, MATH0011")
}

func TestRenderCommand(t *testing.T) {
	env := newTestEnv(t)
	path := env.write(t, "modules.yaml", testDataset)
	base := filepath.Join(env.dir, "out", "map")

	_, err := run(t, "render", path, "-f", "html,table,json", "-o", base, "--module", "MATH0002")
	require.NoError(t, err)

	html, err := os.ReadFile(base + ".html")
	require.NoError(t, err)
	assert.Contains(t, string(html), `class="module active" id="MATH0002"`)

	table, err := os.ReadFile(base + ".table.html")
	require.NoError(t, err)
	assert.Contains(t, string(table), "Algebra 2")

	index, err := os.ReadFile(base + ".json")
	require.NoError(t, err)
	assert.Contains(t, string(index), `"MATH0004"`)

	dot := filepath.Join(env.dir, "graph.dot")
	_, err = run(t, "render", path, "-f", "dot", "-o", dot)
	require.NoError(t, err)
	data, err := os.ReadFile(dot)
	require.NoError(t, err)
	assert.Contains(t, string(data), "digraph")

	_, err = run(t, "render", path, "-f", "pdf")
	assert.True(t, errs.Is(err, errs.ErrCodeInvalidFormat), "got %v", err)
}

func TestRenderCommand_Cycle(t *testing.T) {
	env := newTestEnv(t)
	path := env.write(t, "cyclic.yaml", cyclicDataset)

	_, err := run(t, "render", path, "-f", "table", "--no-cache")
	assert.True(t, errs.Is(err, errs.ErrCodeCycle), "got %v", err)

	data, err := os.ReadFile(filepath.Join(env.dir, "cyclic.table.html"))
	require.NoError(t, err, "artifacts are written before the cycle is reported")
	assert.Contains(t, string(data), "Cannot order Level 6")
}

func TestPrefsCommand(t *testing.T) {
	env := newTestEnv(t)

	_, err := run(t, "prefs", "set", "reqfors", "on")
	require.NoError(t, err)
	_, err = run(t, "prefs", "set", "description", "off")
	require.NoError(t, err)

	store, err := prefs.NewFileStore(env.prefsDir)
	require.NoError(t, err)
	p, err := store.Load(context.Background(), prefs.DefaultKey)
	require.NoError(t, err)
	assert.True(t, p.Reqfors)
	assert.False(t, p.Description)

	out, err := run(t, "prefs", "show")
	require.NoError(t, err)
	for _, flag := range prefs.Flags() {
		assert.Contains(t, out, flag)
	}

	_, err = run(t, "prefs", "set", "nope", "on")
	assert.True(t, errs.Is(err, errs.ErrCodeInvalidPref), "got %v", err)
	_, err = run(t, "prefs", "set", "years", "maybe")
	assert.True(t, errs.Is(err, errs.ErrCodeInvalidPref), "got %v", err)

	_, err = run(t, "prefs", "reset")
	require.NoError(t, err)
	p, err = store.Load(context.Background(), prefs.DefaultKey)
	require.NoError(t, err)
	assert.Equal(t, prefs.Defaults(), p)
}

func TestPrefsApplyToCommands(t *testing.T) {
	env := newTestEnv(t)
	path := env.write(t, "modules.yaml", testDataset)

	_, err := run(t, "prefs", "set", "splitTerms", "on")
	require.NoError(t, err)
	env.write(t, "terms.yaml", `
modules:
  - {code: MATH0001, title: Algebra 1, level: 4, term: 1}
  - {code: MATH0002, title: Algebra 2, level: 4, term: 2}
`)
	out, err := run(t, "levels", filepath.Join(env.dir, "terms.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "Level 4, Term 1")
	assert.Contains(t, out, "Level 4, Term 2")

	out, err = run(t, "levels", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Level 4")
}

func TestCacheCommand(t *testing.T) {
	env := newTestEnv(t)

	out, err := run(t, "cache", "path")
	require.NoError(t, err)
	assert.Equal(t, env.cacheDir+"\n", out)

	_, err = run(t, "cache", "clear")
	require.NoError(t, err)
}

func TestNewRunnerScopesCacheKeys(t *testing.T) {
	newTestEnv(t)
	opts := cache.ArtifactKeyOpts{Format: "svg", Module: "MATH0001"}

	r, err := New(io.Discard, LogInfo).newRunner(true)
	require.NoError(t, err)
	key := r.Keyer.ArtifactKey("abc", opts)
	assert.True(t, strings.HasPrefix(key, "modmap@"+buildinfo.Version+":artifact:"), key)

	old := buildinfo.Version
	buildinfo.Version = "v9.9.9"
	t.Cleanup(func() { buildinfo.Version = old })

	r, err = New(io.Discard, LogInfo).newRunner(true)
	require.NoError(t, err)
	assert.NotEqual(t, key, r.Keyer.ArtifactKey("abc", opts))
}

func TestCompletionCommand(t *testing.T) {
	newTestEnv(t)
	out, err := run(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "modmap")

	_, err = run(t, "completion", "tcsh")
	assert.Error(t, err)
}

func TestCompleteFormats(t *testing.T) {
	got, dir := completeFormats(nil, nil, "")
	assert.Contains(t, got, "html")
	assert.Contains(t, got, "xlsx")
	assert.NotZero(t, dir&cobra.ShellCompDirectiveNoSpace)

	got, _ = completeFormats(nil, nil, "html,s")
	assert.Contains(t, got, "html,svg")
	assert.NotContains(t, got, "html,html")
}

func TestCompletePrefsSet(t *testing.T) {
	got, _ := completePrefsSet(nil, nil, "")
	assert.ElementsMatch(t, prefs.Flags(), got)

	got, _ = completePrefsSet(nil, []string{prefs.Flags()[0]}, "")
	assert.Equal(t, []string{"on", "off"}, got)

	got, _ = completePrefsSet(nil, []string{"a", "b"}, "")
	assert.Empty(t, got)
}

func TestCompleteRenderFormatFlag(t *testing.T) {
	newTestEnv(t)
	out, err := run(t, "__complete", "render", "--format", "table,")
	require.NoError(t, err)
	assert.Contains(t, out, "table,svg")
}
