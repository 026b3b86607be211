package io

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/modmap/pkg/catalog"
	errs "github.com/matzehuels/modmap/pkg/errors"
	"github.com/matzehuels/modmap/pkg/httputil"
)

// Format is a dataset serialisation.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DetectFormat picks the format from a file name or URL path, defaulting
// to JSON.
func DetectFormat(name string) Format {
	name = strings.ToLower(name)
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	switch filepath.Ext(name) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", errs.New(errs.ErrCodeInvalidFormat, "unknown dataset format %q (want json or yaml)", s)
}

var schemaLoader = gojsonschema.NewStringLoader(Schema)

// Decode validates data against [Schema] and decodes it.
func Decode(data []byte, format Format) (*catalog.Dataset, error) {
	var doc gojsonschema.JSONLoader
	switch format {
	case FormatYAML:
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidDataset, err, "parse yaml")
		}
		doc = gojsonschema.NewGoLoader(raw)
	case FormatJSON, "":
		var raw any
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidDataset, err, "parse json")
		}
		doc = gojsonschema.NewGoLoader(raw)
	default:
		return nil, errs.New(errs.ErrCodeInvalidFormat, "unknown dataset format %q", format)
	}

	if err := validate(doc); err != nil {
		return nil, err
	}

	var ds catalog.Dataset
	var err error
	if format == FormatYAML {
		err = yaml.Unmarshal(data, &ds)
	} else {
		err = json.Unmarshal(data, &ds)
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidDataset, err, "decode dataset")
	}
	return &ds, nil
}

func validate(doc gojsonschema.JSONLoader) error {
	res, err := gojsonschema.Validate(schemaLoader, doc)
	if err != nil {
		return errs.Wrap(errs.ErrCodeInvalidDataset, err, "validate dataset")
	}
	if res.Valid() {
		return nil
	}
	const maxReported = 5
	var msgs []string
	for i, e := range res.Errors() {
		if i == maxReported {
			msgs = append(msgs, fmt.Sprintf("and %d more", len(res.Errors())-maxReported))
			break
		}
		msgs = append(msgs, e.String())
	}
	return errs.New(errs.ErrCodeInvalidDataset, "dataset does not match schema: %s", strings.Join(msgs, "; "))
}

// ReadDataset reads and decodes a dataset from r.
func ReadDataset(r io.Reader, format Format) (*catalog.Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return Decode(data, format)
}

// Source is a loaded dataset together with its raw bytes, which the
// pipeline hashes for cache keys.
type Source struct {
	Name    string
	Format  Format
	Raw     []byte
	Dataset *catalog.Dataset
}

// Fetch reads the raw bytes of a dataset from a path or http(s) URL.
func Fetch(ctx context.Context, source string) ([]byte, error) {
	if errs.IsURL(source) {
		data, err := httputil.Fetch(ctx, nil, source)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeNetwork, err, "fetch %s", source)
		}
		return data, nil
	}
	data, err := os.ReadFile(source)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "dataset %s not found", source)
		}
		return nil, fmt.Errorf("read %s: %w", source, err)
	}
	return data, nil
}

// Load fetches and decodes a dataset from a path or http(s) URL. An empty
// format is detected from the source name.
func Load(ctx context.Context, source string, format Format) (*Source, error) {
	if source == "" {
		return nil, errs.New(errs.ErrCodeInvalidInput, "no dataset given")
	}
	if format == "" {
		format = DetectFormat(source)
	}
	data, err := Fetch(ctx, source)
	if err != nil {
		return nil, err
	}
	ds, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return &Source{Name: source, Format: format, Raw: data, Dataset: ds}, nil
}
