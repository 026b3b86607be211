package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Ordinal is a level or term value. Datasets written by hand use numbers and
// scraped datasets use strings; both decode to the same textual form.
type Ordinal string

// Number returns the numeric value of the ordinal and whether it parsed.
func (o Ordinal) Number() (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(string(o)), 64)
	return f, err == nil
}

func (o *Ordinal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*o = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*o = Ordinal(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("ordinal must be a number or string: %s", data)
	}
	*o = Ordinal(n.String())
	return nil
}

func (o *Ordinal) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: ordinal must be a scalar", node.Line)
	}
	*o = Ordinal(strings.TrimSpace(node.Value))
	return nil
}

// Tags is a list of labels. It decodes from a list or from a single
// space-separated string.
type Tags []string

func splitTags(s string) Tags { return Tags(strings.Fields(s)) }

func (t *Tags) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = splitTags(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("tags must be a list or string: %w", err)
	}
	*t = list
	return nil
}

func (t *Tags) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*t = splitTags(node.Value)
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*t = list
		return nil
	}
	return fmt.Errorf("line %d: tags must be a list or string", node.Line)
}

// Prereq is one entry of a module's prerequisite list: a single code, or an
// "any of" group of alternative codes.
type Prereq struct {
	Codes []string
	Any   bool // Entry was written as a group
}

// Code returns a single-code entry.
func Code(c string) Prereq { return Prereq{Codes: []string{c}} }

// AnyOf returns an alternative group entry.
func AnyOf(codes ...string) Prereq { return Prereq{Codes: codes, Any: true} }

// String renders the entry as text: groups list their codes sorted and
// joined with " or ".
func (p Prereq) String() string {
	codes := slices.Clone(p.Codes)
	slices.Sort(codes)
	return strings.Join(codes, " or ")
}

func (p Prereq) MarshalJSON() ([]byte, error) {
	if p.Any {
		return json.Marshal(p.Codes)
	}
	if len(p.Codes) == 0 {
		return []byte(`""`), nil
	}
	return json.Marshal(p.Codes[0])
}

func (p *Prereq) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var codes []string
		if err := json.Unmarshal(data, &codes); err != nil {
			return fmt.Errorf("prerequisite group must list codes: %w", err)
		}
		*p = AnyOf(codes...)
		return nil
	}
	var c string
	if err := json.Unmarshal(data, &c); err != nil {
		return fmt.Errorf("prerequisite must be a code or list of codes: %w", err)
	}
	*p = Code(c)
	return nil
}

func (p Prereq) MarshalYAML() (any, error) {
	if p.Any {
		return p.Codes, nil
	}
	if len(p.Codes) == 0 {
		return "", nil
	}
	return p.Codes[0], nil
}

func (p *Prereq) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*p = Code(node.Value)
		return nil
	case yaml.SequenceNode:
		var codes []string
		if err := node.Decode(&codes); err != nil {
			return err
		}
		*p = AnyOf(codes...)
		return nil
	}
	return fmt.Errorf("line %d: prerequisite must be a code or list of codes", node.Line)
}

// Module is one catalogue record as it appears in a dataset document.
type Module struct {
	Code        string   `json:"code" yaml:"code"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Level       Ordinal  `json:"level" yaml:"level"`
	Term        Ordinal  `json:"term,omitempty" yaml:"term,omitempty"`
	Prereqs     []Prereq `json:"prereqs,omitempty" yaml:"prereqs,omitempty"`
	Themes      Tags     `json:"themes,omitempty" yaml:"themes,omitempty"`
	Groups      Tags     `json:"groups,omitempty" yaml:"groups,omitempty"`
	Years       Tags     `json:"years,omitempty" yaml:"years,omitempty"`
	Syllabus    string   `json:"syllabus,omitempty" yaml:"syllabus,omitempty"`
	Lead        string   `json:"lead,omitempty" yaml:"lead,omitempty"`
}

// PrereqCodes flattens the prerequisite list: alternative groups contribute
// every code they mention. The result is sorted and free of duplicates.
func (m *Module) PrereqCodes() []string {
	var codes []string
	for _, p := range m.Prereqs {
		for _, c := range p.Codes {
			if c = strings.TrimSpace(c); c != "" {
				codes = append(codes, c)
			}
		}
	}
	slices.Sort(codes)
	return slices.Compact(codes)
}

// PrereqText renders the textual prerequisite list: entries sorted and
// joined with ", ". Codes absent from the catalogue are kept.
func (m *Module) PrereqText() string {
	parts := make([]string, 0, len(m.Prereqs))
	for _, p := range m.Prereqs {
		if s := p.String(); s != "" {
			parts = append(parts, s)
		}
	}
	slices.Sort(parts)
	return strings.Join(slices.Compact(parts), ", ")
}

// Dataset is the document a catalogue is built from.
type Dataset struct {
	Modules          []Module            `json:"modules" yaml:"modules"`
	AncillaryModules []string            `json:"ancillaryModules,omitempty" yaml:"ancillaryModules,omitempty"`
	ThemesToModules  map[string][]string `json:"themesToModules,omitempty" yaml:"themesToModules,omitempty"`
}
