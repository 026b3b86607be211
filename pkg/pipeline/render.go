package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/modmap/pkg/cache"
	modio "github.com/matzehuels/modmap/pkg/io"
	"github.com/matzehuels/modmap/pkg/observability"
	"github.com/matzehuels/modmap/pkg/render"
	"github.com/matzehuels/modmap/pkg/render/nodelink"
	"github.com/matzehuels/modmap/pkg/session"
)

// RenderFormat renders one artifact of the session's current state.
func RenderFormat(ctx context.Context, s *session.Session, format render.Format, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case render.FormatHTML:
		if err := render.RenderHTML(s, &buf, render.HTMLOptions{Title: opts.Title}); err != nil {
			return nil, err
		}
	case render.FormatTable:
		if err := render.RenderTable(s, &buf, render.HTMLOptions{Title: opts.Title}); err != nil {
			return nil, err
		}
	case render.FormatXLSX:
		if err := render.RenderXLSX(s, &buf); err != nil {
			return nil, err
		}
	case render.FormatJSON:
		if err := modio.WriteIndex(s.Index(), &buf); err != nil {
			return nil, err
		}
	case render.FormatDOT:
		buf.WriteString(nodelink.ToDOT(s.Index(), dotOptions(s, opts)))
	case render.FormatSVG:
		return nodelink.RenderSVG(ctx, nodelink.ToDOT(s.Index(), dotOptions(s, opts)))
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	return buf.Bytes(), nil
}

func dotOptions(s *session.Session, opts Options) nodelink.Options {
	return nodelink.Options{
		Visible:   s.Visible,
		Highlight: s.Highlight(),
		Detailed:  opts.Detailed,
	}
}

// RenderWithCacheInfo renders every requested format, serving them from the
// cache when all of them are present. datasetHash identifies the dataset
// bytes the session was built from.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, s *session.Session, datasetHash string, opts Options) (map[render.Format][]byte, bool, error) {
	r.applyLogger(&opts)

	artifacts := make(map[render.Format][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(datasetHash, opts.ArtifactKeyOpts(format))
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil || !hit {
			break
		}
		artifacts[format] = data
	}
	if len(artifacts) == len(opts.Formats) {
		return artifacts, true, nil
	}

	names := formatNames(opts.Formats)
	start := time.Now()
	observability.Pipeline().OnRenderStart(ctx, names)

	rendered := make(map[render.Format][]byte, len(opts.Formats))
	var renderErr error
	for _, format := range opts.Formats {
		data, err := RenderFormat(ctx, s, format, opts)
		if err != nil {
			renderErr = fmt.Errorf("%s: %w", format, err)
			break
		}
		rendered[format] = data
	}
	observability.Pipeline().OnRenderComplete(ctx, names, time.Since(start), renderErr)
	if renderErr != nil {
		return nil, false, renderErr
	}

	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(datasetHash, opts.ArtifactKeyOpts(format))
		_ = r.Cache.Set(ctx, key, data, cache.TTLArtifact)
	}
	return rendered, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Render(ctx context.Context, s *session.Session, datasetHash string, opts Options) (map[render.Format][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, s, datasetHash, opts)
	return artifacts, err
}

func formatNames(formats []render.Format) []string {
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = string(f)
	}
	return names
}
