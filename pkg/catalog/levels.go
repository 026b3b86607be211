package catalog

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/modmap/pkg/dag/transform"
	errs "github.com/matzehuels/modmap/pkg/errors"
)

// LevelKey identifies a level bucket. Term is empty unless terms are split.
type LevelKey struct {
	Level Ordinal
	Term  Ordinal
}

// String returns a compact key such as "4" or "4-1".
func (k LevelKey) String() string {
	if k.Term == "" {
		return string(k.Level)
	}
	return fmt.Sprintf("%s-%s", k.Level, k.Term)
}

// Label returns a heading such as "Level 4" or "Level 4, Term 1".
func (k LevelKey) Label() string {
	if k.Term == "" {
		return fmt.Sprintf("Level %s", k.Level)
	}
	return fmt.Sprintf("Level %s, Term %s", k.Level, k.Term)
}

// Compare orders keys by numeric level, then by term. Non-numeric values
// sort after numeric ones, and a missing term sorts after every term.
func (k LevelKey) Compare(o LevelKey) int {
	if c := compareOrdinal(k.Level, o.Level); c != 0 {
		return c
	}
	switch {
	case k.Term == o.Term:
		return 0
	case k.Term == "":
		return 1
	case o.Term == "":
		return -1
	}
	return compareOrdinal(k.Term, o.Term)
}

func compareOrdinal(a, b Ordinal) int {
	an, aok := a.Number()
	bn, bok := b.Number()
	switch {
	case aok && bok:
		return cmp.Compare(an, bn)
	case aok:
		return -1
	case bok:
		return 1
	}
	return cmp.Compare(a, b)
}

// Level is one bucket of modules. Codes is the prerequisite-respecting
// order; it is nil when Err is set.
type Level struct {
	Key   LevelKey
	Codes []string
	Err   error
}

// Position locates a module in its level bucket.
type Position struct {
	Key   LevelKey
	Index int
}

func (ix *Index) levelKey(m *Module) LevelKey {
	k := LevelKey{Level: m.Level}
	if ix.opts.SplitTerms {
		k.Term = m.Term
	}
	return k
}

func (ix *Index) buildLevels(logger *log.Logger) {
	buckets := make(map[LevelKey][]string)
	for _, code := range ix.codes {
		k := ix.levelKey(ix.modules[code])
		buckets[k] = append(buckets[k], code)
	}

	ix.levels = make([]*Level, 0, len(buckets))
	ix.position = make(map[string]Position, len(ix.codes))
	for k, codes := range buckets {
		lv := &Level{Key: k}
		order, err := ix.OrderLevel(codes)
		if err != nil {
			lv.Err = err
			logger.Warn("level not ordered", "level", k.String(), "err", err)
		} else {
			lv.Codes = order
			for i, c := range order {
				ix.position[c] = Position{Key: k, Index: i}
			}
		}
		ix.levels = append(ix.levels, lv)
	}
	slices.SortFunc(ix.levels, func(a, b *Level) int { return a.Key.Compare(b.Key) })
}

// OrderLevel orders the codes of one bucket so that no module appears before
// any of its in-bucket prerequisites. Ties are broken lexicographically. A
// cycle among the codes is returned as a CYCLE_DETECTED error wrapping
// [transform.CycleError] and no order is produced.
func (ix *Index) OrderLevel(codes []string) ([]string, error) {
	order, err := transform.OrderSubset(ix.graph, codes)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeCycle, err, "prerequisite cycle")
	}
	return order, nil
}

// Levels returns the level buckets in key order.
func (ix *Index) Levels() []*Level { return slices.Clone(ix.levels) }

// Position returns where a module sits in its level. It is false for
// unknown codes and for modules in a level that failed to order.
func (ix *Index) Position(code string) (Position, bool) {
	p, ok := ix.position[code]
	return p, ok
}

// LevelOf returns the level key of a module. Unlike [Index.Position] it is
// known for modules in a level that failed to order.
func (ix *Index) LevelOf(code string) (LevelKey, bool) {
	m, ok := ix.modules[code]
	if !ok {
		return LevelKey{}, false
	}
	return ix.levelKey(m), true
}

// SortByLevel sorts codes by level key, then by position within the level.
// Codes without a position sort after the ordered ones of their level, by
// code.
func (ix *Index) SortByLevel(codes []string) {
	slices.SortFunc(codes, func(a, b string) int {
		ka, _ := ix.LevelOf(a)
		kb, _ := ix.LevelOf(b)
		if c := ka.Compare(kb); c != 0 {
			return c
		}
		pa, aok := ix.position[a]
		pb, bok := ix.position[b]
		switch {
		case aok && bok:
			return cmp.Compare(pa.Index, pb.Index)
		case aok:
			return -1
		case bok:
			return 1
		}
		return cmp.Compare(a, b)
	})
}

// LevelErrors returns the ordering errors of every failed level.
func (ix *Index) LevelErrors() []error {
	var out []error
	for _, lv := range ix.levels {
		if lv.Err != nil {
			out = append(out, fmt.Errorf("%s: %w", lv.Key.Label(), lv.Err))
		}
	}
	return out
}
