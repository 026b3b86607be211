package render

import (
	"fmt"
	"math"

	"github.com/matzehuels/modmap/pkg/catalog"
)

// LayoutConfig sizes the card grid. Zero fields take the defaults of
// [DefaultLayoutConfig].
type LayoutConfig struct {
	Columns      int     // Cards per row
	CardWidth    float64 // Card box width
	CardHeight   float64 // Card box height
	Gap          float64 // Space between cards
	Margin       float64 // Space around the grid
	HeaderHeight float64 // Height of a level heading
	NoticeHeight float64 // Height of a cycle notice
}

// DefaultLayoutConfig returns the grid dimensions used by the viewer.
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		Columns:      5,
		CardWidth:    220,
		CardHeight:   160,
		Gap:          48,
		Margin:       24,
		HeaderHeight: 56,
		NoticeHeight: 64,
	}
}

func (c LayoutConfig) withDefaults() LayoutConfig {
	d := DefaultLayoutConfig()
	if c.Columns <= 0 {
		c.Columns = d.Columns
	}
	if c.CardWidth <= 0 {
		c.CardWidth = d.CardWidth
	}
	if c.CardHeight <= 0 {
		c.CardHeight = d.CardHeight
	}
	if c.Gap <= 0 {
		c.Gap = d.Gap
	}
	if c.Margin <= 0 {
		c.Margin = d.Margin
	}
	if c.HeaderHeight <= 0 {
		c.HeaderHeight = d.HeaderHeight
	}
	if c.NoticeHeight <= 0 {
		c.NoticeHeight = d.NoticeHeight
	}
	return c
}

// Point is a position in grid coordinates.
type Point struct{ X, Y float64 }

// Rect is a card box.
type Rect struct{ X, Y, W, H float64 }

// Center returns the middle of the box.
func (r Rect) Center() Point { return Point{r.X + r.W/2, r.Y + r.H/2} }

// anchor is a side midpoint with the outward unit normal of its side.
type anchor struct {
	P      Point
	NX, NY float64
}

// anchors returns the side midpoints in top, right, bottom, left order.
func (r Rect) anchors() [4]anchor {
	c := r.Center()
	return [4]anchor{
		{Point{c.X, r.Y}, 0, -1},
		{Point{r.X + r.W, c.Y}, 1, 0},
		{Point{c.X, r.Y + r.H}, 0, 1},
		{Point{r.X, c.Y}, -1, 0},
	}
}

// Section is the placement of one level bucket.
type Section struct {
	Key    catalog.LevelKey
	Label  string
	Y      float64  // Top of the heading
	Height float64  // Heading plus rows or notice
	Codes  []string // Placed cards in order
	Err    error    // Ordering failure; no cards are placed
}

// ID returns the HTML anchor of the section.
func (s Section) ID() string { return "level-" + s.Key.String() }

// Layout is the computed card grid.
type Layout struct {
	Config   LayoutConfig
	Width    float64
	Height   float64
	Sections []Section
	Cards    map[string]Rect
}

// NewLayout places the visible modules of every level bucket. A nil
// visible places every module.
func NewLayout(ix *catalog.Index, visible catalog.VisibleFunc, cfg LayoutConfig) *Layout {
	cfg = cfg.withDefaults()
	l := &Layout{
		Config: cfg,
		Width:  2*cfg.Margin + float64(cfg.Columns)*cfg.CardWidth + float64(cfg.Columns-1)*cfg.Gap,
		Cards:  make(map[string]Rect),
	}

	y := cfg.Margin
	for _, lv := range ix.Levels() {
		sec := Section{Key: lv.Key, Label: lv.Key.Label(), Y: y, Err: lv.Err}
		top := y + cfg.HeaderHeight
		if lv.Err != nil {
			sec.Height = cfg.HeaderHeight + cfg.NoticeHeight
		} else {
			for _, code := range lv.Codes {
				if visible != nil && !visible(code) {
					continue
				}
				i := len(sec.Codes)
				row, col := i/cfg.Columns, i%cfg.Columns
				l.Cards[code] = Rect{
					X: cfg.Margin + float64(col)*(cfg.CardWidth+cfg.Gap),
					Y: top + float64(row)*(cfg.CardHeight+cfg.Gap),
					W: cfg.CardWidth,
					H: cfg.CardHeight,
				}
				sec.Codes = append(sec.Codes, code)
			}
			if len(sec.Codes) == 0 {
				continue
			}
			rows := (len(sec.Codes) + cfg.Columns - 1) / cfg.Columns
			sec.Height = cfg.HeaderHeight + float64(rows)*cfg.CardHeight + float64(rows-1)*cfg.Gap
		}
		l.Sections = append(l.Sections, sec)
		y += sec.Height + cfg.Gap
	}
	l.Height = math.Max(y-cfg.Gap+cfg.Margin, 2*cfg.Margin)
	return l
}

// EdgePath returns an SVG path joining two cards: a cubic Bézier curve
// between the closest pair of side midpoints, leaving and entering each
// card perpendicular to its side.
func EdgePath(from, to Rect) string {
	a, b := closestAnchors(from, to)
	d := math.Hypot(b.P.X-a.P.X, b.P.Y-a.P.Y)
	pull := math.Max(d*0.4, 12)
	return fmt.Sprintf("M%.1f,%.1f C%.1f,%.1f %.1f,%.1f %.1f,%.1f",
		a.P.X, a.P.Y,
		a.P.X+a.NX*pull, a.P.Y+a.NY*pull,
		b.P.X+b.NX*pull, b.P.Y+b.NY*pull,
		b.P.X, b.P.Y)
}

// closestAnchors picks the pair of side midpoints with the smallest
// distance. Ties keep the first pair in top, right, bottom, left order.
func closestAnchors(from, to Rect) (anchor, anchor) {
	var best [2]anchor
	bestD := math.Inf(1)
	for _, a := range from.anchors() {
		for _, b := range to.anchors() {
			if d := math.Hypot(b.P.X-a.P.X, b.P.Y-a.P.Y); d < bestD {
				bestD = d
				best = [2]anchor{a, b}
			}
		}
	}
	return best[0], best[1]
}
