package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/modmap/pkg/cache"
	errs "github.com/matzehuels/modmap/pkg/errors"
	"github.com/matzehuels/modmap/pkg/prefs"
	"github.com/matzehuels/modmap/pkg/render"
)

const datasetYAML = `
modules:
  - {code: MATH0001, title: Algebra 1, level: 4}
  - {code: MATH0002, title: Algebra 2, level: 4, prereqs: [MATH0001]}
  - {code: MATH0003, title: Algebra 3, level: 5, prereqs: [MATH0002]}
themesToModules:
  Algebra: [MATH0003]
`

func quietLogger() *log.Logger {
	var buf bytes.Buffer
	return log.New(&buf)
}

func writeDataset(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	r := NewRunner(c, nil, quietLogger())
	t.Cleanup(func() { r.Close() })
	return r
}

func TestValidateAndSetDefaults(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr errs.Code
	}{
		{"no dataset", Options{}, errs.ErrCodeInvalidInput},
		{"bad format", Options{Dataset: "m.json", Formats: []render.Format{"pdf"}}, errs.ErrCodeInvalidFormat},
		{"bad dataset format", Options{Dataset: "m.json", DatasetFormat: "xml"}, errs.ErrCodeInvalidFormat},
		{"bad module", Options{Dataset: "m.json", Module: "not a code!"}, errs.ErrCodeInvalidInput},
		{"ok", Options{Dataset: "m.json"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, []render.Format{render.FormatHTML}, tt.opts.Formats)
				assert.Equal(t, DefaultTitle, tt.opts.Title)
				return
			}
			assert.True(t, errs.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	keyer := cache.NewDefaultKeyer()
	a := Options{Prefs: prefs.Defaults()}
	b := Options{Prefs: prefs.Defaults(), Module: "MATH0001"}
	c := Options{Prefs: prefs.Prefs{}}

	key := func(o Options) string { return keyer.ArtifactKey("h", o.ArtifactKeyOpts(render.FormatHTML)) }
	assert.Equal(t, key(a), key(Options{Prefs: prefs.Defaults()}))
	assert.NotEqual(t, key(a), key(b))
	assert.NotEqual(t, key(a), key(c))
	assert.NotEqual(t, key(a), keyer.ArtifactKey("h", a.ArtifactKeyOpts(render.FormatJSON)))
}

func TestExecute(t *testing.T) {
	r := newRunner(t)
	path := writeDataset(t, "modules.yaml", datasetYAML)
	opts := Options{
		Dataset: path,
		Prefs:   prefs.Defaults(),
		Formats: []render.Format{render.FormatHTML, render.FormatTable, render.FormatJSON, render.FormatDOT, render.FormatXLSX},
		Module:  "MATH0002",
	}

	res, err := r.Execute(context.Background(), opts)
	require.NoError(t, err)
	assert.False(t, res.CacheInfo.DatasetHit, "local files are never cached")
	assert.False(t, res.CacheInfo.RenderHit)
	assert.Equal(t, 3, res.Stats.Modules)
	assert.Equal(t, 2, res.Stats.Edges)
	assert.Equal(t, "MATH0002", res.Session.ActiveModule())
	assert.Empty(t, res.LevelErrors)
	require.Len(t, res.Artifacts, 5)

	assert.Contains(t, string(res.Artifacts[render.FormatHTML]), `class="module active" id="MATH0002"`)
	assert.Contains(t, string(res.Artifacts[render.FormatDOT]), `"MATH0001" -> "MATH0002"`)
	assert.True(t, bytes.HasPrefix(res.Artifacts[render.FormatXLSX], []byte("PK")), "xlsx is a zip archive")

	var index struct {
		Modules []struct{ Code string } `json:"modules"`
	}
	require.NoError(t, json.Unmarshal(res.Artifacts[render.FormatJSON], &index))
	assert.Len(t, index.Modules, 3)

	again, err := r.Execute(context.Background(), opts)
	require.NoError(t, err)
	assert.True(t, again.CacheInfo.RenderHit)
	assert.Equal(t, res.Artifacts, again.Artifacts)

	opts.Module = "MATH0003"
	other, err := r.Execute(context.Background(), opts)
	require.NoError(t, err)
	assert.False(t, other.CacheInfo.RenderHit, "navigation state is part of the key")
}

func TestExecute_RemoteDatasetCached(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(datasetYAML))
	}))
	defer srv.Close()

	r := newRunner(t)
	opts := Options{Dataset: srv.URL + "/modules.yaml", Formats: []render.Format{render.FormatJSON}}

	res, err := r.Execute(context.Background(), opts)
	require.NoError(t, err)
	assert.False(t, res.CacheInfo.DatasetHit)

	res, err = r.Execute(context.Background(), opts)
	require.NoError(t, err)
	assert.True(t, res.CacheInfo.DatasetHit)
	assert.Equal(t, int32(1), hits.Load())

	opts.Refresh = true
	_, err = r.Execute(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestExecute_LevelCycle(t *testing.T) {
	r := NewRunner(nil, nil, quietLogger())
	path := writeDataset(t, "cycle.json", `{"modules": [
		{"code": "A", "level": 4, "prereqs": ["B"]},
		{"code": "B", "level": 4, "prereqs": ["A"]},
		{"code": "C", "level": 5, "prereqs": ["A"]}
	]}`)

	res, err := r.Execute(context.Background(), Options{Dataset: path, Formats: []render.Format{render.FormatHTML}})
	require.NoError(t, err)
	require.Len(t, res.LevelErrors, 1)
	assert.True(t, errs.Is(res.LevelErrors[0], errs.ErrCodeCycle))
	assert.Contains(t, string(res.Artifacts[render.FormatHTML]), "prerequisite cycle among A, B")
}

func TestExecute_Errors(t *testing.T) {
	r := NewRunner(nil, nil, quietLogger())

	_, err := r.Execute(context.Background(), Options{Dataset: filepath.Join(t.TempDir(), "missing.json")})
	assert.True(t, errs.Is(err, errs.ErrCodeFileNotFound), "got %v", err)

	path := writeDataset(t, "bad.json", `{"modules": [{"title": "no code"}]}`)
	_, err = r.Execute(context.Background(), Options{Dataset: path})
	assert.True(t, errs.Is(err, errs.ErrCodeInvalidDataset), "got %v", err)
	assert.True(t, strings.HasPrefix(err.Error(), "load: "))
}

func TestNewSession_IgnoresUnknownState(t *testing.T) {
	r := NewRunner(nil, nil, quietLogger())
	src, err := r.Load(context.Background(), Options{Dataset: writeDataset(t, "m.yaml", datasetYAML)})
	require.NoError(t, err)

	s, err := NewSession(src, Options{Prefs: prefs.Defaults(), Theme: "Nope", Module: "MATH9999", ShowAll: true})
	require.NoError(t, err)
	assert.Empty(t, s.ActiveTheme())
	assert.Empty(t, s.ActiveModule())
	assert.True(t, s.ShowingAll())
}
