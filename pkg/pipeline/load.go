package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/modmap/pkg/cache"
	errs "github.com/matzehuels/modmap/pkg/errors"
	modio "github.com/matzehuels/modmap/pkg/io"
	"github.com/matzehuels/modmap/pkg/observability"
)

// LoadWithCacheInfo fetches and decodes the dataset and reports whether its
// bytes came from the cache. Only remote datasets are cached; local files
// are always read so edits show up immediately.
func (r *Runner) LoadWithCacheInfo(ctx context.Context, opts Options) (*modio.Source, bool, error) {
	if opts.Dataset == "" {
		return nil, false, errs.New(errs.ErrCodeInvalidInput, "no dataset given")
	}
	r.applyLogger(&opts)

	start := time.Now()
	observability.Pipeline().OnLoadStart(ctx, opts.Dataset)
	src, hit, err := r.load(ctx, opts)
	modules := 0
	if src != nil {
		modules = len(src.Dataset.Modules)
	}
	observability.Pipeline().OnLoadComplete(ctx, opts.Dataset, modules, time.Since(start), err)
	return src, hit, err
}

func (r *Runner) load(ctx context.Context, opts Options) (*modio.Source, bool, error) {
	format := opts.DatasetFormat
	if format == "" {
		format = modio.DetectFormat(opts.Dataset)
	}

	if !errs.IsURL(opts.Dataset) {
		src, err := modio.Load(ctx, opts.Dataset, format)
		return src, false, err
	}

	key := r.Keyer.DatasetKey(opts.Dataset)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			ds, err := modio.Decode(data, format)
			if err == nil {
				return &modio.Source{Name: opts.Dataset, Format: format, Raw: data, Dataset: ds}, true, nil
			}
			opts.Logger.Debug("discarding cached dataset", "source", opts.Dataset, "err", err)
		}
	}

	data, err := modio.Fetch(ctx, opts.Dataset)
	if err != nil {
		return nil, false, err
	}
	ds, err := modio.Decode(data, format)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", opts.Dataset, err)
	}
	if err := r.Cache.Set(ctx, key, data, cache.TTLDataset); err != nil {
		opts.Logger.Debug("dataset not cached", "source", opts.Dataset, "err", err)
	}
	return &modio.Source{Name: opts.Dataset, Format: format, Raw: data, Dataset: ds}, false, nil
}

// Load is a convenience wrapper that calls LoadWithCacheInfo and discards
// the cache hit info.
func (r *Runner) Load(ctx context.Context, opts Options) (*modio.Source, error) {
	src, _, err := r.LoadWithCacheInfo(ctx, opts)
	return src, err
}
