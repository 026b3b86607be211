package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/modmap/pkg/catalog"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Visible filters the drawn modules. Nil draws every module.
	Visible catalog.VisibleFunc

	// Highlight colours the nodes and edges of an activation.
	Highlight *catalog.Highlight

	// Detailed adds the module title to node labels.
	// When false, only the code is shown.
	Detailed bool
}

// ToDOT converts a catalogue index to Graphviz DOT format. Every level
// bucket becomes a cluster; a bucket whose ordering failed is drawn with a
// red dashed outline.
func ToDOT(ix *catalog.Index, opts Options) string {
	visible := opts.Visible
	if visible == nil {
		visible = func(string) bool { return true }
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  compound=true;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [color=\"#999999\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.25;\n")
	buf.WriteString("\n")

	drawn := make(map[string]bool)
	for _, lv := range ix.Levels() {
		codes := lv.Codes
		if lv.Err != nil {
			codes = levelMembers(ix, lv.Key)
		}
		var members []string
		for _, c := range codes {
			if visible(c) {
				members = append(members, c)
			}
		}
		if len(members) == 0 {
			continue
		}

		fmt.Fprintf(&buf, "  subgraph %q {\n", "cluster_"+lv.Key.String())
		fmt.Fprintf(&buf, "    label=%q;\n", lv.Key.Label())
		if lv.Err != nil {
			buf.WriteString("    style=dashed;\n    color=\"#a01818\";\n")
		} else {
			buf.WriteString("    style=rounded;\n    color=\"#bbbbbb\";\n")
		}
		for _, code := range members {
			m, _ := ix.Module(code)
			attrs := fmtAttrs(code, fmtLabel(m, opts.Detailed), opts.Highlight)
			fmt.Fprintf(&buf, "    %q [%s];\n", code, strings.Join(attrs, ", "))
			drawn[code] = true
		}
		buf.WriteString("  }\n")
	}

	buf.WriteString("\n")
	for _, e := range ix.Connections(visible) {
		if !drawn[e.From] || !drawn[e.To] {
			continue
		}
		if attrs := edgeAttrs(e, opts.Highlight); attrs != "" {
			fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From, e.To, attrs)
		} else {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// levelMembers lists the codes of a bucket that has no order, sorted.
func levelMembers(ix *catalog.Index, key catalog.LevelKey) []string {
	var out []string
	for _, code := range ix.Codes() {
		if k, _ := ix.LevelOf(code); k == key {
			out = append(out, code)
		}
	}
	return out
}

func fmtLabel(m *catalog.Module, detailed bool) string {
	if !detailed || m.Title == "" {
		return m.Code
	}
	return m.Code + "\n" + m.Title
}

func fmtAttrs(code, label string, h *catalog.Highlight) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if h == nil {
		return attrs
	}
	switch {
	case code == h.Active:
		attrs = append(attrs, "fillcolor=\"#fffbe6\"", "penwidth=2")
	case member(h.Prereqs, code):
		attrs = append(attrs, "fillcolor=\"#eaf2fb\"", "color=\"#2d5d8c\"")
	case member(h.Dependents, code):
		attrs = append(attrs, "fillcolor=\"#fcefe6\"", "color=\"#c0632b\"")
	default:
		attrs = append(attrs, "fontcolor=\"#aaaaaa\"", "color=\"#dddddd\"")
	}
	return attrs
}

func edgeAttrs(e catalog.Edge, h *catalog.Highlight) string {
	if h == nil {
		return ""
	}
	switch {
	case e.From == h.Active && member(h.Dependents, e.To):
		return "color=\"#c0632b\", penwidth=2"
	case member(h.Prereqs, e.From) && h.Related(e.To):
		return "color=\"#2d5d8c\", penwidth=2"
	}
	return "color=\"#e5e5e5\""
}

func member(set map[string]struct{}, code string) bool {
	_, ok := set[code]
	return ok
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with one
// whose width and height match the viewBox, so the SVG scales in a page.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
