// Package prefs stores the detail-visibility preferences of a catalogue
// viewer.
//
// Preferences are plain boolean flags. Seven of them only change what a
// module card shows; two of them change how the catalogue is indexed:
// SplitTerms keys level buckets by term, and ExpandThemes makes theme
// membership include prerequisites.
//
// Three [Store] implementations are provided:
//   - [MemoryStore]: in-process, for tests and single-user servers
//   - [FileStore]: TOML files under the user's config directory, for the CLI
//   - [RedisStore]: Redis keys with a TTL, for multi-instance viewers
package prefs

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	errs "github.com/matzehuels/modmap/pkg/errors"
)

// ErrUnknownFlag is returned when a flag name is not recognised.
var ErrUnknownFlag = errors.New("unknown preference")

// Prefs is one user's set of preference flags.
type Prefs struct {
	Description  bool `toml:"description" json:"description"`
	Syllabus     bool `toml:"syllabus" json:"syllabus"`
	Prereqs      bool `toml:"prereqs" json:"prereqs"`
	Reqfors      bool `toml:"reqfors" json:"reqfors"`
	Themes       bool `toml:"themes" json:"themes"`
	Groups       bool `toml:"groups" json:"groups"`
	Years        bool `toml:"years" json:"years"`
	SplitTerms   bool `toml:"splitTerms" json:"splitTerms"`
	ExpandThemes bool `toml:"expandThemes" json:"expandThemes"`
}

// Defaults returns the preferences of a first visit.
func Defaults() Prefs {
	return Prefs{
		Description:  true,
		Syllabus:     true,
		Prereqs:      true,
		ExpandThemes: true,
	}
}

// Flag names, in display order. The first seven are card details.
const (
	FlagDescription  = "description"
	FlagSyllabus     = "syllabus"
	FlagPrereqs      = "prereqs"
	FlagReqfors      = "reqfors"
	FlagThemes       = "themes"
	FlagGroups       = "groups"
	FlagYears        = "years"
	FlagSplitTerms   = "splitTerms"
	FlagExpandThemes = "expandThemes"
)

var detailFlags = []string{
	FlagDescription, FlagSyllabus, FlagPrereqs, FlagReqfors, FlagThemes, FlagGroups, FlagYears,
}

// Flags returns every flag name in display order.
func Flags() []string {
	return append(slices.Clone(detailFlags), FlagSplitTerms, FlagExpandThemes)
}

// DetailFlags returns the flag names that control card details.
func DetailFlags() []string { return slices.Clone(detailFlags) }

func (p *Prefs) field(name string) (*bool, error) {
	switch name {
	case FlagDescription:
		return &p.Description, nil
	case FlagSyllabus:
		return &p.Syllabus, nil
	case FlagPrereqs:
		return &p.Prereqs, nil
	case FlagReqfors:
		return &p.Reqfors, nil
	case FlagThemes:
		return &p.Themes, nil
	case FlagGroups:
		return &p.Groups, nil
	case FlagYears:
		return &p.Years, nil
	case FlagSplitTerms:
		return &p.SplitTerms, nil
	case FlagExpandThemes:
		return &p.ExpandThemes, nil
	}
	return nil, errs.Wrap(errs.ErrCodeInvalidPref, ErrUnknownFlag,
		"unknown preference %q (want one of %s)", name, strings.Join(Flags(), ", "))
}

// Get returns the value of a named flag.
func (p Prefs) Get(name string) (bool, error) {
	f, err := p.field(name)
	if err != nil {
		return false, err
	}
	return *f, nil
}

// Set changes a named flag.
func (p *Prefs) Set(name string, v bool) error {
	f, err := p.field(name)
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Toggle flips a named flag and returns its new value.
func (p *Prefs) Toggle(name string) (bool, error) {
	f, err := p.field(name)
	if err != nil {
		return false, err
	}
	*f = !*f
	return *f, nil
}

// NoDetails reports whether every card detail is switched off.
func (p Prefs) NoDetails() bool {
	for _, name := range detailFlags {
		if v, _ := p.Get(name); v {
			return false
		}
	}
	return true
}

// RebuildNeeded reports whether moving from p to next changes how the
// catalogue must be indexed.
func (p Prefs) RebuildNeeded(next Prefs) bool {
	return p.SplitTerms != next.SplitTerms || p.ExpandThemes != next.ExpandThemes
}

// ParseBool accepts on/off, yes/no and the forms strconv.ParseBool knows.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "yes", "y":
		return true, nil
	case "off", "no", "n":
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, errs.New(errs.ErrCodeInvalidPref, "not a boolean: %q", s)
	}
	return v, nil
}

// Store persists preferences by key (a user or visitor id).
type Store interface {
	// Load returns the stored preferences, or Defaults if none are stored.
	Load(ctx context.Context, key string) (Prefs, error)

	// Save stores preferences under key.
	Save(ctx context.Context, key string, p Prefs) error

	// Delete removes stored preferences; Load then returns Defaults.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the store.
	Close() error
}

func validKey(key string) error {
	if key == "" || strings.ContainsAny(key, "/\\\x00") || key == "." || key == ".." {
		return errs.New(errs.ErrCodeInvalidInput, "invalid preference key %q", key)
	}
	return nil
}

func wrapIO(err error, op string) error {
	return fmt.Errorf("%s preferences: %w", op, err)
}
