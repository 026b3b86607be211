// Package pkg provides the libraries behind modmap, a prerequisite map for
// module catalogues.
//
// # Overview
//
// A catalogue lists academic modules with their level, term and
// prerequisites. modmap indexes it into a prerequisite graph, orders every
// level so prerequisites come first, and renders the result. The pkg
// directory is organized into these areas:
//
//  1. [dag] - Prerequisite graph and its ordering ([dag/transform])
//  2. [catalog] - Dataset model, themes, levels, highlight and search
//  3. [session] - Interaction state: active module, theme, preferences
//  4. [io] - Dataset import, schema validation and index export
//  5. [render] - HTML grid, table view, workbook and node-link graph
//  6. [pipeline] - Orchestration (load → index → render) with caching
//
// Supporting packages: [cache], [config], [errors], [httputil],
// [observability], [prefs] and [buildinfo].
//
// # Architecture
//
// The typical data flow:
//
//	Dataset (JSON / YAML, file or URL)
//	         ↓
//	    [io] package (fetch, validate, decode)
//	         ↓
//	    [catalog] package (index, themes, ordered levels)
//	         ↓
//	    [session] package (highlight, theme, preferences)
//	         ↓
//	    [render] package
//	         ↓
//	HTML / table / SVG / DOT / XLSX / JSON output
//
// # Quick Start
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Dataset: "modules.yaml",
//	    Module:  "MATH0005",
//	    Formats: []render.Format{render.FormatHTML},
//	})
//
// [dag]: github.com/matzehuels/modmap/pkg/dag
// [dag/transform]: github.com/matzehuels/modmap/pkg/dag/transform
// [catalog]: github.com/matzehuels/modmap/pkg/catalog
// [session]: github.com/matzehuels/modmap/pkg/session
// [io]: github.com/matzehuels/modmap/pkg/io
// [render]: github.com/matzehuels/modmap/pkg/render
// [pipeline]: github.com/matzehuels/modmap/pkg/pipeline
// [cache]: github.com/matzehuels/modmap/pkg/cache
// [config]: github.com/matzehuels/modmap/pkg/config
// [errors]: github.com/matzehuels/modmap/pkg/errors
// [httputil]: github.com/matzehuels/modmap/pkg/httputil
// [observability]: github.com/matzehuels/modmap/pkg/observability
// [prefs]: github.com/matzehuels/modmap/pkg/prefs
// [buildinfo]: github.com/matzehuels/modmap/pkg/buildinfo
package pkg
