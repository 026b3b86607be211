// Package nodelink renders the prerequisite graph as a node-link diagram.
//
// # Overview
//
// Modules appear as boxes grouped into one Graphviz cluster per level
// bucket, with an arrow from each prerequisite to the module requiring it.
// Codes that are referenced but absent from the catalogue are not drawn.
//
// # Usage
//
//	dot := nodelink.ToDOT(ix, nodelink.Options{Visible: s.Visible})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// Passing a [catalog.Highlight] in [Options] colours the activated module,
// its prerequisite chain and its direct dependents the same way the card
// grid does.
//
// # DOT Format
//
// [ToDOT] output is plain Graphviz source. It can be rendered in-process via
// [RenderSVG] or saved and processed with external Graphviz tools. The
// layout runs left to right so that levels read in order.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package nodelink
