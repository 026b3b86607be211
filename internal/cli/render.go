package cli

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/modmap/pkg/errors"
	"github.com/matzehuels/modmap/pkg/pipeline"
	"github.com/matzehuels/modmap/pkg/render"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string          // output file (single format) or base path (several)
	formats  []render.Format // html, table, svg, dot, xlsx, json
	theme    string          // active theme
	module   string          // active module
	showAll  bool            // draw every visible prerequisite edge
	title    string          // page title
	detailed bool            // titles in node-link labels
	noCache  bool            // bypass the artifact cache
	refresh  bool            // refetch remote datasets
}

// renderCommand creates the render command for writing artifacts.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [dataset]",
		Short: "Render a catalogue to HTML, table, SVG, DOT, XLSX or JSON",
		Long: `Render a catalogue to one or more artifacts.

With a single format, --output names the file; otherwise it is a base path
and each artifact gets its format's extension. Without --output the
artifacts are written next to the dataset, named after it.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeDataset,
		RunE: func(cmd *cobra.Command, args []string) error {
			dataset, err := c.dataset(args)
			if err != nil {
				return err
			}
			if opts.formats, err = render.ParseFormats(formatsStr); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), dataset, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): html (default), table, svg, dot, xlsx, json (comma-separated)")
	cmd.Flags().StringVar(&opts.theme, "theme", "", "activate a theme")
	cmd.Flags().StringVarP(&opts.module, "module", "m", "", "highlight a module")
	cmd.Flags().BoolVar(&opts.showAll, "all", false, "draw every visible prerequisite edge")
	cmd.Flags().StringVar(&opts.title, "title", "", "page title (default \""+pipeline.DefaultTitle+"\")")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show titles in node-link labels")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "refetch a remote dataset")
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)

	return cmd
}

// runRender executes the pipeline and writes every artifact. Levels that
// could not be ordered are rendered as notices and reported as an error.
func (c *CLI) runRender(ctx context.Context, dataset string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	popts := c.baseOptions(ctx, dataset)
	popts.Refresh = opts.refresh
	popts.Formats = opts.formats
	popts.Theme = opts.theme
	popts.Module = opts.module
	popts.ShowAll = opts.showAll
	popts.Title = opts.title
	popts.Detailed = opts.detailed

	logger.Infof("Rendering %s", dataset)
	stop := c.spin(ctx, dataset)
	result, err := runner.Execute(ctx, popts)
	stop()
	if err != nil {
		return err
	}
	prog.step("pipeline finished", "modules", result.Stats.Modules, "cached", result.CacheInfo.RenderHit)
	if opts.module != "" && result.Session.ActiveModule() == "" {
		printWarning("Module %s is not shown; rendering without a highlight", opts.module)
	}

	paths := outputPaths(opts.output, dataset, opts.formats)
	for _, format := range opts.formats {
		if err := writeOutput(paths[format], result.Artifacts[format]); err != nil {
			return err
		}
	}
	prog.done(fmt.Sprintf("Rendered %d artifacts", len(opts.formats)), "formats", strings.Join(formatList(opts.formats), ","))

	if len(result.LevelErrors) > 0 {
		for _, lerr := range result.LevelErrors {
			logger.Error("level not ordered", "err", lerr)
		}
		return errs.New(errs.ErrCodeCycle, "%d level(s) could not be ordered", len(result.LevelErrors))
	}
	if opts.output == "-" {
		return nil
	}

	printSuccess("Rendered %s", filepath.Base(dataset))
	printStats(result.Stats.Modules, result.Stats.Edges, result.CacheInfo.RenderHit)
	for _, format := range opts.formats {
		printFile(paths[format])
	}
	if slices.Contains(opts.formats, render.FormatHTML) {
		printNextStep("Browse it interactively", appName+" serve "+dataset)
	}
	return nil
}

// outputPaths maps each format to its output file. A single format with an
// output that has an extension, or is "-", is written there verbatim.
func outputPaths(output, dataset string, formats []render.Format) map[render.Format]string {
	paths := make(map[render.Format]string, len(formats))
	if len(formats) == 1 && (output == "-" || (output != "" && filepath.Ext(output) != "")) {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, dataset)
	for _, f := range formats {
		paths[f] = base + f.Ext()
	}
	return paths
}

// basePath derives the base output path from the output and dataset.
// Without an output, the dataset's name is used without its extension; a
// URL dataset yields a name in the working directory.
func basePath(output, dataset string) string {
	if output != "" {
		return strings.TrimSuffix(output, filepath.Ext(output))
	}
	if errs.IsURL(dataset) {
		name := "modules"
		if u, err := url.Parse(dataset); err == nil && path.Base(u.Path) != "/" && path.Base(u.Path) != "." {
			name = path.Base(u.Path)
		}
		return strings.TrimSuffix(name, path.Ext(name))
	}
	return strings.TrimSuffix(dataset, filepath.Ext(dataset))
}

func formatList(formats []render.Format) []string {
	out := make([]string, len(formats))
	for i, f := range formats {
		out[i] = string(f)
	}
	return out
}

// writeOutput writes data to path, or stdout when path is "-".
func writeOutput(path string, data []byte) error {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = out.Write(data)
	return err
}

// nopCloser wraps an io.Writer to satisfy io.WriteCloser with a no-op Close.
type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput returns a writer for the given path, or stdout for "-".
func openOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.Create(path)
}
