package io

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/modmap/pkg/catalog"
	errs "github.com/matzehuels/modmap/pkg/errors"
)

const sampleJSON = `{
  "modules": [
    {"code": "MATH0005", "title": "Algebra 1", "level": 4, "term": 1, "themes": "algebra"},
    {"code": "MATH0006", "title": "Algebra 2", "level": "4", "term": 2,
     "prereqs": ["MATH0005"], "groups": ["core"]},
    {"code": "MATH0010", "title": "Analysis 1", "level": 5,
     "prereqs": [["MATH0006", "MATH0007"], "ECON0001"]}
  ],
  "ancillaryModules": ["MATH0007"],
  "themesToModules": {"analysis": ["MATH0010"]}
}`

const sampleYAML = `
modules:
  - code: MATH0005
    title: Algebra 1
    level: 4
    term: 1
    themes: algebra
  - code: MATH0006
    title: Algebra 2
    level: "4"
    term: 2
    prereqs: [MATH0005]
    groups: [core]
  - code: MATH0010
    title: Analysis 1
    level: 5
    prereqs:
      - [MATH0006, MATH0007]
      - ECON0001
ancillaryModules: [MATH0007]
themesToModules:
  analysis: [MATH0010]
`

func TestDecodeFormatsAgree(t *testing.T) {
	fromJSON, err := Decode([]byte(sampleJSON), FormatJSON)
	require.NoError(t, err)
	fromYAML, err := Decode([]byte(sampleYAML), FormatYAML)
	require.NoError(t, err)

	if diff := cmp.Diff(fromJSON, fromYAML); diff != "" {
		t.Errorf("json and yaml decode differ (-json +yaml):\n%s", diff)
	}

	require.Len(t, fromJSON.Modules, 3)
	m := fromJSON.Modules[2]
	assert.Equal(t, catalog.Ordinal("5"), m.Level)
	assert.Equal(t, []catalog.Prereq{catalog.AnyOf("MATH0006", "MATH0007"), catalog.Code("ECON0001")}, m.Prereqs)
	assert.Equal(t, catalog.Tags{"algebra"}, fromJSON.Modules[0].Themes)
	assert.Equal(t, []string{"MATH0007"}, fromJSON.AncillaryModules)
}

func TestDecodeRejectsInvalid(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{"not json", `{"modules": [`, FormatJSON},
		{"not yaml", "modules: [a: b: c", FormatYAML},
		{"no modules", `{"themesToModules": {}}`, FormatJSON},
		{"module without code", `{"modules": [{"title": "x", "level": 4}]}`, FormatJSON},
		{"empty code", `{"modules": [{"code": "", "level": 4}]}`, FormatJSON},
		{"numeric prereq", `{"modules": [{"code": "A", "level": 4, "prereqs": [12]}]}`, FormatJSON},
		{"empty or-group", `{"modules": [{"code": "A", "level": 4, "prereqs": [[]]}]}`, FormatJSON},
		{"yaml missing level", "modules:\n  - code: A\n", FormatYAML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data), tt.format)
			require.Error(t, err)
			assert.True(t, errs.Is(err, errs.ErrCodeInvalidDataset), "got %v", err)
		})
	}
}

func TestDecodeUnknownFormat(t *testing.T) {
	_, err := Decode([]byte(sampleJSON), Format("toml"))
	assert.True(t, errs.Is(err, errs.ErrCodeInvalidFormat))
}

func TestDetectFormat(t *testing.T) {
	tests := map[string]Format{
		"modules.json":                     FormatJSON,
		"modules.yaml":                     FormatYAML,
		"DATA.YML":                         FormatYAML,
		"modules":                          FormatJSON,
		"https://example.org/m.yaml?raw=1": FormatYAML,
		"https://example.org/m.json#frag":  FormatJSON,
		"/srv/catalogue/2024/modules.yml":  FormatYAML,
	}
	for name, want := range tests {
		assert.Equal(t, want, DetectFormat(name), name)
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("YML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = ParseFormat("xml")
	assert.True(t, errs.Is(err, errs.ErrCodeInvalidFormat))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	src, err := Load(context.Background(), path, "")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, src.Format)
	assert.Equal(t, path, src.Name)
	assert.Equal(t, []byte(sampleYAML), src.Raw)
	assert.Len(t, src.Dataset.Modules, 3)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.json"), "")
	assert.True(t, errs.Is(err, errs.ErrCodeFileNotFound), "got %v", err)

	_, err = Load(context.Background(), "", "")
	assert.True(t, errs.Is(err, errs.ErrCodeInvalidInput))
}

func TestLoadURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/modules.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleJSON))
	}))
	defer srv.Close()

	src, err := Load(context.Background(), srv.URL+"/modules.json", "")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, src.Format)
	assert.Len(t, src.Dataset.Modules, 3)

	_, err = Load(context.Background(), srv.URL+"/other.json", "")
	assert.True(t, errs.Is(err, errs.ErrCodeNetwork), "got %v", err)
}

func TestWriteIndex(t *testing.T) {
	ds, err := Decode([]byte(sampleJSON), FormatJSON)
	require.NoError(t, err)
	opts := catalog.DefaultOptions()
	opts.SyllabusBaseURL = "https://example.org/syllabus/"
	ix, err := catalog.Build(ds, opts)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteIndex(ix, &buf))

	var got resolvedIndex
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))

	require.Len(t, got.Modules, 3)
	byCode := make(map[string]resolvedModule)
	for _, m := range got.Modules {
		byCode[m.Code] = m
	}
	assert.Equal(t, []string{"MATH0006"}, byCode["MATH0005"].RequiredFor)
	assert.Equal(t, []string{}, byCode["MATH0005"].Prereqs)
	assert.Equal(t, "https://example.org/syllabus/math0005.pdf", byCode["MATH0005"].Syllabus)
	assert.Equal(t, "4", byCode["MATH0006"].LevelKey)

	assert.Contains(t, got.Themes, "analysis")
	assert.Contains(t, got.Themes["analysis"].Expanded, "MATH0005")
	assert.Equal(t, []string{"MATH0010"}, got.Themes["analysis"].Seed)

	var missing []string
	for _, m := range got.Missing {
		missing = append(missing, m.Prereq)
	}
	assert.Contains(t, missing, "ECON0001")

	assert.Contains(t, got.Edges, catalog.Edge{From: "MATH0005", To: "MATH0006"})
	for _, lv := range got.Levels {
		assert.Empty(t, lv.Error)
	}
}

func TestWriteDatasetRoundTrip(t *testing.T) {
	ds, err := Decode([]byte(sampleJSON), FormatJSON)
	require.NoError(t, err)

	dir := t.TempDir()
	for _, name := range []string{"out.json", "out.yaml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, ExportDataset(ds, path))

		src, err := Load(context.Background(), path, "")
		require.NoError(t, err, name)
		if diff := cmp.Diff(ds, src.Dataset); diff != "" {
			t.Errorf("%s round trip (-want +got):\n%s", name, diff)
		}
	}
}
