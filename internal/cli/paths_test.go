package cli

import (
	"path/filepath"
	"testing"

	"github.com/matzehuels/modmap/pkg/render"
)

func TestBasePath(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		dataset string
		want    string
	}{
		{"from dataset", "", "data/modules.yaml", "data/modules"},
		{"from output", "out/map.html", "modules.yaml", "out/map"},
		{"output without extension", "out/map", "modules.yaml", "out/map"},
		{"url dataset", "", "https://example.org/cat/modules.json?raw=1", "modules"},
		{"url without path", "", "https://example.org", "modules"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := basePath(tt.output, tt.dataset); got != tt.want {
				t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.dataset, got, tt.want)
			}
		})
	}
}

func TestOutputPaths(t *testing.T) {
	single := outputPaths("map.svg", "modules.yaml", []render.Format{render.FormatSVG})
	if single[render.FormatSVG] != "map.svg" {
		t.Errorf("single format path = %q, want map.svg", single[render.FormatSVG])
	}

	stdout := outputPaths("-", "modules.yaml", []render.Format{render.FormatDOT})
	if stdout[render.FormatDOT] != "-" {
		t.Errorf("stdout path = %q, want -", stdout[render.FormatDOT])
	}

	multi := outputPaths(filepath.Join("out", "map"), "modules.yaml",
		[]render.Format{render.FormatHTML, render.FormatTable, render.FormatXLSX})
	want := map[render.Format]string{
		render.FormatHTML:  filepath.Join("out", "map.html"),
		render.FormatTable: filepath.Join("out", "map.table.html"),
		render.FormatXLSX:  filepath.Join("out", "map.xlsx"),
	}
	for f, p := range want {
		if multi[f] != p {
			t.Errorf("outputPaths()[%s] = %q, want %q", f, multi[f], p)
		}
	}
}

func TestDisplayAddr(t *testing.T) {
	tests := map[string]string{
		":8080":          "http://localhost:8080",
		"127.0.0.1:9000": "http://127.0.0.1:9000",
	}
	for addr, want := range tests {
		if got := displayAddr(addr); got != want {
			t.Errorf("displayAddr(%q) = %q, want %q", addr, got, want)
		}
	}
}
