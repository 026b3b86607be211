// Package render turns a catalogue session into viewable artifacts.
//
// # Overview
//
// Every renderer reads a [session.Session] (or its [catalog.Index]) and
// writes one artifact:
//
//   - [RenderHTML]: the card grid, one section per level bucket, with an
//     SVG overlay drawing prerequisite edges between cards
//   - [RenderTable]: the same catalogue as one HTML table per level
//   - [RenderXLSX]: the table view as a workbook with one sheet per level
//   - [nodelink]: the prerequisite graph as Graphviz DOT or SVG
//
// The JSON form of the resolved index lives in the io package.
//
// # Grid Layout
//
// [NewLayout] places cards deterministically: each level bucket gets a
// heading and then rows of [LayoutConfig.Columns] cards in the bucket's
// prerequisite order. Edges are cubic Bézier curves joining the closest
// pair of side midpoints of the two cards (see [EdgePath]).
//
// A bucket whose ordering failed with a cycle gets an error notice instead
// of cards. A partial order is never drawn.
//
// [nodelink]: github.com/matzehuels/modmap/pkg/render/nodelink
package render
