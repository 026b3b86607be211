package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/modmap/pkg/catalog"
	errs "github.com/matzehuels/modmap/pkg/errors"
)

type resolvedIndex struct {
	Modules []resolvedModule         `json:"modules"`
	Levels  []resolvedLevel          `json:"levels"`
	Themes  map[string]resolvedTheme `json:"themes"`
	Missing []catalog.MissingRef     `json:"missing,omitempty"`
	Edges   []catalog.Edge           `json:"edges"`
}

type resolvedModule struct {
	Code        string          `json:"code"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Level       catalog.Ordinal `json:"level"`
	Term        catalog.Ordinal `json:"term,omitempty"`
	LevelKey    string          `json:"levelKey"`
	Position    *int            `json:"position,omitempty"`
	Prereqs     []string        `json:"prereqs"`
	PrereqText  string          `json:"prereqText,omitempty"`
	RequiredFor []string        `json:"requiredFor"`
	Themes      []string        `json:"themes"`
	Groups      []string        `json:"groups,omitempty"`
	Years       []string        `json:"years,omitempty"`
	Syllabus    string          `json:"syllabus"`
	Lead        string          `json:"lead,omitempty"`
}

type resolvedLevel struct {
	Key   string   `json:"key"`
	Label string   `json:"label"`
	Codes []string `json:"codes"`
	Error string   `json:"error,omitempty"`
}

type resolvedTheme struct {
	Seed     []string `json:"seed"`
	Expanded []string `json:"expanded"`
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// WriteIndex encodes the resolved catalogue as indented JSON.
func WriteIndex(ix *catalog.Index, w io.Writer) error {
	out := resolvedIndex{
		Themes:  make(map[string]resolvedTheme),
		Missing: ix.Missing(),
		Edges:   ix.Connections(nil),
	}
	for _, code := range ix.Codes() {
		m, _ := ix.Module(code)
		key := catalog.LevelKey{Level: m.Level}
		if ix.Options().SplitTerms {
			key.Term = m.Term
		}
		rm := resolvedModule{
			Code:        m.Code,
			Title:       m.Title,
			Description: m.Description,
			Level:       m.Level,
			Term:        m.Term,
			LevelKey:    key.String(),
			Prereqs:     nonNil(ix.Prereqs(code)),
			PrereqText:  m.PrereqText(),
			RequiredFor: nonNil(ix.RequiredFor(code)),
			Themes:      nonNil(ix.ModuleThemes(code)),
			Groups:      m.Groups,
			Years:       m.Years,
			Syllabus:    ix.SyllabusURL(code),
			Lead:        m.Lead,
		}
		if pos, ok := ix.Position(code); ok {
			rm.Position = &pos.Index
		}
		out.Modules = append(out.Modules, rm)
	}
	for _, lv := range ix.Levels() {
		rl := resolvedLevel{Key: lv.Key.String(), Label: lv.Key.Label(), Codes: nonNil(lv.Codes)}
		if lv.Err != nil {
			rl.Error = errs.UserMessage(lv.Err)
		}
		out.Levels = append(out.Levels, rl)
	}
	for _, t := range ix.Themes() {
		seed, _ := ix.ThemeSeed(t)
		exp, _ := ix.ThemeExpanded(t)
		out.Themes[t] = resolvedTheme{Seed: nonNil(seed), Expanded: nonNil(exp)}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteDataset encodes a dataset document.
func WriteDataset(ds *catalog.Dataset, w io.Writer, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(ds); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return enc.Close()
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(ds); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return nil
	}
	return errs.New(errs.ErrCodeInvalidFormat, "unknown dataset format %q", format)
}

// ExportDataset writes a dataset to a file, picking the format from the
// file name.
func ExportDataset(ds *catalog.Dataset, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteDataset(ds, f, DetectFormat(path))
}
