// Package pipeline provides the load → index → render pipeline of modmap.
//
// The CLI render command and the HTTP viewer both go through a [Runner] so
// that dataset fetching, caching and artifact rendering behave the same
// everywhere.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Fetch a dataset document from a path or URL and validate it
//  2. Session: Index the dataset and restore the navigation state
//  3. Render: Produce artifacts (HTML, table, SVG, DOT, XLSX, JSON)
//
// Remote datasets are cached by URL; artifacts are cached by the hash of
// the dataset bytes plus every option that changes their content.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Dataset: "modules.yaml",
//	    Formats: []render.Format{render.FormatHTML, render.FormatXLSX},
//	    Module:  "MATH0006",
//	})
//	if err != nil {
//	    return err
//	}
//	html := result.Artifacts[render.FormatHTML]
package pipeline

import (
	"github.com/charmbracelet/log"

	"github.com/matzehuels/modmap/pkg/cache"
	errs "github.com/matzehuels/modmap/pkg/errors"
	modio "github.com/matzehuels/modmap/pkg/io"
	"github.com/matzehuels/modmap/pkg/prefs"
	"github.com/matzehuels/modmap/pkg/render"
)

// DefaultTitle is the page title of rendered HTML.
const DefaultTitle = "Module map"

// Options contains all configuration for one pipeline run.
type Options struct {
	// Load options
	Dataset       string       `json:"dataset"`
	DatasetFormat modio.Format `json:"dataset_format,omitempty"` // Detected from the name when empty
	Refresh       bool         `json:"refresh,omitempty"`        // Bypass the dataset cache

	// Index options
	IncludeAncillary bool        `json:"include_ancillary,omitempty"`
	SyllabusBaseURL  string      `json:"syllabus_base_url,omitempty"`
	SearchPrefix     string      `json:"search_prefix,omitempty"`
	Prefs            prefs.Prefs `json:"prefs"`

	// Navigation state
	Theme   string `json:"theme,omitempty"`
	Module  string `json:"module,omitempty"`
	ShowAll bool   `json:"show_all,omitempty"`

	// Render options
	Formats  []render.Format `json:"formats"`
	Title    string          `json:"title,omitempty"`
	Detailed bool            `json:"detailed,omitempty"` // Titles in node-link labels

	Logger *log.Logger `json:"-"`
}

// ValidateAndSetDefaults checks the options and fills in defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Dataset == "" {
		return errs.New(errs.ErrCodeInvalidInput, "no dataset given")
	}
	if o.DatasetFormat != "" {
		f, err := modio.ParseFormat(string(o.DatasetFormat))
		if err != nil {
			return err
		}
		o.DatasetFormat = f
	}
	if len(o.Formats) == 0 {
		o.Formats = []render.Format{render.FormatHTML}
	}
	for _, f := range o.Formats {
		if _, err := render.ParseFormats(string(f)); err != nil {
			return err
		}
	}
	if o.Module != "" {
		if err := errs.ValidateModuleCode(o.Module); err != nil {
			return err
		}
	}
	if o.Theme != "" {
		if err := errs.ValidateThemeName(o.Theme); err != nil {
			return err
		}
	}
	if o.Title == "" {
		o.Title = DefaultTitle
	}
	return nil
}

// ArtifactKeyOpts returns the cache key options for one rendered format.
// Only the inputs that change the artifact's bytes are included.
func (o *Options) ArtifactKeyOpts(format render.Format) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format: string(format),
		Prefs: struct {
			Prefs            prefs.Prefs
			IncludeAncillary bool
			SyllabusBaseURL  string
			ShowAll          bool
			Title            string
			Detailed         bool
		}{o.Prefs, o.IncludeAncillary, o.SyllabusBaseURL, o.ShowAll, o.Title, o.Detailed},
		Theme:  o.Theme,
		Module: o.Module,
	}
}
