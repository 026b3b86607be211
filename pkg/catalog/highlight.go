package catalog

import (
	"maps"
	"slices"

	errs "github.com/matzehuels/modmap/pkg/errors"
	"github.com/matzehuels/modmap/pkg/observability"
)

// Edge is a drawable prerequisite connection: From must be taken before To.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// VisibleFunc reports whether a module is currently shown. A nil VisibleFunc
// treats every module as visible.
type VisibleFunc func(code string) bool

// Highlight is the result of activating a module.
type Highlight struct {
	Active     string
	Considered map[string]struct{} // Active module, its prerequisite chain and direct dependents
	Prereqs    map[string]struct{} // Modules marked as prerequisites
	Dependents map[string]struct{} // Modules marked as direct dependents
	Inactive   map[string]struct{} // Every other module of the dataset
	Edges      []Edge              // Drawable edges in discovery order
}

// Related reports whether code is part of the highlight.
func (h *Highlight) Related(code string) bool {
	_, ok := h.Considered[code]
	return ok
}

// ConsideredCodes returns the considered codes, sorted.
func (h *Highlight) ConsideredCodes() []string { return slices.Sorted(maps.Keys(h.Considered)) }

// Highlight activates a module. It walks the whole upstream prerequisite
// chain with an explicit stack, then adds the direct dependents of the
// activated module only. Prerequisites that are missing from the dataset or
// not visible are skipped along with their edges. Every module outside the
// result is marked inactive.
//
// The walk keeps a considered set, so diamonds are processed once and
// cycles terminate. Activating the same module twice yields identical
// results.
func (ix *Index) Highlight(code string, visible VisibleFunc) (*Highlight, error) {
	if !ix.Has(code) {
		return nil, errs.Wrap(errs.ErrCodeModuleNotFound, ErrModuleNotFound, "no module %s", code)
	}
	if visible == nil {
		visible = func(string) bool { return true }
	}
	shown := func(c string) bool { return ix.Has(c) && visible(c) }

	h := &Highlight{
		Active:     code,
		Considered: make(map[string]struct{}),
		Prereqs:    make(map[string]struct{}),
		Dependents: make(map[string]struct{}),
		Inactive:   make(map[string]struct{}),
	}

	stack := []string{code}
	for len(stack) > 0 {
		m := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, done := h.Considered[m]; done {
			continue
		}
		h.Considered[m] = struct{}{}

		var next []string
		for _, p := range ix.prereqs[m] {
			if !shown(p) {
				continue
			}
			h.Edges = append(h.Edges, Edge{From: p, To: m})
			h.Prereqs[p] = struct{}{}
			if _, done := h.Considered[p]; !done {
				next = append(next, p)
			}
		}
		// Pushed in reverse so prerequisites are expanded in code order.
		slices.Reverse(next)
		stack = append(stack, next...)
	}

	for _, d := range ix.requiredFor[code] {
		if !shown(d) {
			continue
		}
		h.Edges = append(h.Edges, Edge{From: code, To: d})
		h.Dependents[d] = struct{}{}
		h.Considered[d] = struct{}{}
	}

	for _, c := range ix.codes {
		if _, ok := h.Considered[c]; !ok {
			h.Inactive[c] = struct{}{}
		}
	}
	observability.Catalog().OnHighlight(code, len(h.Considered), len(h.Edges))
	return h, nil
}

// Connections returns every edge between two visible modules, ordered by
// dependent code then prerequisite code.
func (ix *Index) Connections(visible VisibleFunc) []Edge {
	if visible == nil {
		visible = func(string) bool { return true }
	}
	var edges []Edge
	for _, m := range slices.Sorted(maps.Keys(ix.modules)) {
		if !visible(m) {
			continue
		}
		for _, p := range ix.prereqs[m] {
			if ix.Has(p) && visible(p) {
				edges = append(edges, Edge{From: p, To: m})
			}
		}
	}
	return edges
}
