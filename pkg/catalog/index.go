package catalog

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/modmap/pkg/dag"
	errs "github.com/matzehuels/modmap/pkg/errors"
	"github.com/matzehuels/modmap/pkg/observability"
)

var (
	// ErrModuleNotFound is returned when a code is not in the active dataset.
	ErrModuleNotFound = errors.New("module not found")

	// ErrThemeNotFound is returned when a theme label is unknown.
	ErrThemeNotFound = errors.New("theme not found")
)

// DefaultSyllabusBaseURL is the directory module syllabi are published in.
const DefaultSyllabusBaseURL = "https://www.ucl.ac.uk/mathematical-physical-sciences/sites/mathematical_physical_sciences/files/"

// Options control how a dataset is indexed. The zero value excludes
// ancillary modules, keeps levels whole and uses seed-only themes; use
// [DefaultOptions] for the interactive defaults.
type Options struct {
	// IncludeAncillary keeps modules listed in ancillaryModules.
	IncludeAncillary bool
	// SplitTerms keys level buckets by level and term.
	SplitTerms bool
	// ExpandThemes makes theme membership include transitive prerequisites.
	ExpandThemes bool
	// SyllabusBaseURL is used for modules without an explicit syllabus.
	SyllabusBaseURL string
	// Logger receives warnings about missing references and cycles.
	Logger *log.Logger
}

// DefaultOptions returns the options an interactive session starts with.
func DefaultOptions() Options {
	return Options{ExpandThemes: true, SyllabusBaseURL: DefaultSyllabusBaseURL}
}

// MissingRef is a prerequisite code that has no module in the active
// dataset. It stays in the textual prerequisite list but is never drawn.
type MissingRef struct {
	Module string `json:"module"` // Module listing the prerequisite
	Prereq string `json:"prereq"` // Absent code
}

// Index is the resolved catalogue: every lookup the presentation layer
// needs, built once from a dataset. An Index is immutable after [Build] and
// safe for concurrent readers. Configuration changes are applied by building
// a new Index.
type Index struct {
	opts        Options
	source      *Dataset
	graph       *dag.DAG
	modules     map[string]*Module
	codes       []string            // dataset order
	prereqs     map[string][]string // module -> flattened prerequisites
	requiredFor map[string][]string // code -> modules listing it
	excluded    []string
	missing     []MissingRef

	seedThemes     map[string]map[string]struct{}
	expandedThemes map[string]map[string]struct{}
	themeNames     []string
	moduleThemes   map[string][]string

	levels   []*Level
	position map[string]Position
}

// Build indexes a dataset. It normalises prerequisites, excludes ancillary
// modules, builds the forward and reverse prerequisite maps, expands themes
// and orders every level bucket.
//
// Build fails only on malformed datasets (empty or duplicate codes). A
// cycle inside a level does not fail the build: that level carries the
// error in [Level.Err] and has no order.
func Build(ds *Dataset, opts Options) (*Index, error) {
	if ds == nil {
		return nil, errs.New(errs.ErrCodeInvalidDataset, "dataset is nil")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if opts.SyllabusBaseURL == "" {
		opts.SyllabusBaseURL = DefaultSyllabusBaseURL
	}

	ancillary := make(map[string]bool, len(ds.AncillaryModules))
	if !opts.IncludeAncillary {
		for _, c := range ds.AncillaryModules {
			ancillary[strings.TrimSpace(c)] = true
		}
	}

	ix := &Index{
		opts:        opts,
		source:      ds,
		graph:       dag.New(dag.Metadata{"modules": len(ds.Modules)}),
		modules:     make(map[string]*Module, len(ds.Modules)),
		prereqs:     make(map[string][]string, len(ds.Modules)),
		requiredFor: make(map[string][]string),
	}

	for i := range ds.Modules {
		m := ds.Modules[i]
		m.Code = strings.TrimSpace(m.Code)
		if m.Code == "" {
			return nil, errs.New(errs.ErrCodeInvalidDataset, "module %d has no code", i)
		}
		if ancillary[m.Code] {
			ix.excluded = append(ix.excluded, m.Code)
			continue
		}
		if err := ix.graph.AddNode(dag.Node{ID: m.Code, Kind: dag.NodeKindModule}); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidDataset, err, "module %s", m.Code)
		}
		ix.modules[m.Code] = &m
		ix.codes = append(ix.codes, m.Code)
	}

	for _, code := range ix.codes {
		m := ix.modules[code]
		ps := m.PrereqCodes()
		ix.prereqs[code] = ps
		for _, p := range ps {
			ix.requiredFor[p] = append(ix.requiredFor[p], code)
			if _, ok := ix.graph.Node(p); !ok {
				if err := ix.graph.AddNode(dag.Node{ID: p, Kind: dag.NodeKindExternal}); err != nil {
					return nil, errs.Wrap(errs.ErrCodeInvalidDataset, err, "prerequisite %s of %s", p, code)
				}
			}
			if _, ok := ix.modules[p]; !ok {
				ix.missing = append(ix.missing, MissingRef{Module: code, Prereq: p})
				logger.Warn("prerequisite not in catalogue", "module", code, "prereq", p)
			}
			if err := ix.graph.AddEdge(dag.Edge{From: p, To: code}); err != nil {
				return nil, errs.Wrap(errs.ErrCodeInvalidDataset, err, "%s requires %s", code, p)
			}
		}
	}
	for p := range ix.requiredFor {
		slices.Sort(ix.requiredFor[p])
	}

	ix.buildThemes(ds)
	ix.buildLevels(logger)

	observability.Catalog().OnIndexBuilt(len(ix.codes), ix.graph.EdgeCount(), len(ix.missing))
	logger.Debug("catalogue indexed",
		"modules", len(ix.codes),
		"edges", ix.graph.EdgeCount(),
		"excluded", len(ix.excluded),
		"levels", len(ix.levels))
	return ix, nil
}

// Options returns the options the index was built with.
func (ix *Index) Options() Options { return ix.opts }

// Rebuild indexes the same modules again with new options. Level keys and
// theme membership depend on configuration, so nothing is reused.
func (ix *Index) Rebuild(opts Options) (*Index, error) {
	return Build(ix.Dataset(), opts)
}

// Dataset returns the document the index was built from, ancillary
// modules included. It must not be modified.
func (ix *Index) Dataset() *Dataset { return ix.source }

// Graph returns the prerequisite graph. Referenced codes with no module are
// present as external nodes.
func (ix *Index) Graph() *dag.DAG { return ix.graph }

// Codes returns the codes of the active dataset in dataset order.
func (ix *Index) Codes() []string { return slices.Clone(ix.codes) }

// Len returns the number of modules in the active dataset.
func (ix *Index) Len() int { return len(ix.codes) }

// Module returns the module with the given code.
func (ix *Index) Module(code string) (*Module, bool) {
	m, ok := ix.modules[code]
	return m, ok
}

// Has reports whether code is a module of the active dataset.
func (ix *Index) Has(code string) bool {
	_, ok := ix.modules[code]
	return ok
}

// Lookup is like Module but returns a coded error wrapping
// ErrModuleNotFound.
func (ix *Index) Lookup(code string) (*Module, error) {
	if m, ok := ix.modules[code]; ok {
		return m, nil
	}
	return nil, errs.Wrap(errs.ErrCodeModuleNotFound, ErrModuleNotFound, "no module %s", code)
}

// Prereqs returns the flattened, sorted prerequisite codes of a module,
// including codes with no module.
func (ix *Index) Prereqs(code string) []string { return ix.prereqs[code] }

// RequiredFor returns the sorted codes of modules listing code as a
// prerequisite. It is the exact transpose of Prereqs.
func (ix *Index) RequiredFor(code string) []string { return ix.requiredFor[code] }

// Excluded returns the ancillary codes left out of the active dataset.
func (ix *Index) Excluded() []string { return slices.Clone(ix.excluded) }

// Missing returns every prerequisite reference with no module.
func (ix *Index) Missing() []MissingRef { return slices.Clone(ix.missing) }

// SyllabusURL returns the module's syllabus link: the explicit one, or the
// lowercased code under the configured base URL.
func (ix *Index) SyllabusURL(code string) string {
	m, ok := ix.modules[code]
	if !ok {
		return ""
	}
	if m.Syllabus != "" {
		return m.Syllabus
	}
	return SyllabusURL(ix.opts.SyllabusBaseURL, code)
}

// SyllabusURL joins a base URL and the lowercased code with a .pdf suffix.
func SyllabusURL(base, code string) string {
	if base != "" && !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return fmt.Sprintf("%s%s.pdf", base, strings.ToLower(code))
}
