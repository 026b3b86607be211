package render

import (
	"slices"
	"strings"

	errs "github.com/matzehuels/modmap/pkg/errors"
)

// Format is an artifact kind produced by the render command and pipeline.
type Format string

const (
	FormatHTML  Format = "html"
	FormatTable Format = "table"
	FormatSVG   Format = "svg"
	FormatDOT   Format = "dot"
	FormatXLSX  Format = "xlsx"
	FormatJSON  Format = "json"
)

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatHTML, FormatTable, FormatSVG, FormatDOT, FormatXLSX, FormatJSON}
}

// Ext returns the file extension written for the format.
func (f Format) Ext() string {
	switch f {
	case FormatTable:
		return ".table.html"
	case FormatHTML:
		return ".html"
	}
	return "." + string(f)
}

// ContentType returns the MIME type the HTTP viewer serves the format with.
func (f Format) ContentType() string {
	switch f {
	case FormatHTML, FormatTable:
		return "text/html; charset=utf-8"
	case FormatSVG:
		return "image/svg+xml"
	case FormatDOT:
		return "text/vnd.graphviz; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatJSON:
		return "application/json"
	}
	return "application/octet-stream"
}

// ParseFormats parses a comma-separated format list. Duplicates collapse
// and an empty list means html.
func ParseFormats(s string) ([]Format, error) {
	var out []Format
	seen := make(map[Format]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		f := Format(part)
		if !f.valid() {
			return nil, errs.New(errs.ErrCodeInvalidFormat, "unknown format %q (want one of html, table, svg, dot, xlsx, json)", part)
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		out = []Format{FormatHTML}
	}
	return out, nil
}

func (f Format) valid() bool { return slices.Contains(Formats(), f) }
