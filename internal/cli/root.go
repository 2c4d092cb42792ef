// Package cli provides the bibparse command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/drgo/bibparse"
	"github.com/drgo/bibparse/internal/config"
	"github.com/drgo/bibparse/internal/loader"
	"github.com/drgo/bibparse/internal/render"
)

// Version is set at build time.
var Version = "devel"

// app is what every subcommand needs; it is stored in the command context.
type app struct {
	cfg    *config.Config
	log    *slog.Logger
	loader loader.Loader
}

type appKey struct{}

// newLoader is replaced in tests.
var newLoader = func(cfg *config.Config) loader.Loader {
	return loader.NewDefault(cfg.Timeout)
}

func appFrom(cmd *cobra.Command) *app {
	if a, ok := cmd.Context().Value(appKey{}).(*app); ok {
		return a
	}
	panic("cli: command run without configuration")
}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string
	rootCmd := &cobra.Command{
		Use:   "bibparse",
		Short: "Parse BibTeX databases and render their entries",
		Long: `bibparse reads BibTeX text from files or URLs, resolves @STRING macros
and # concatenation, and prints the entries as JSON, YAML, a table, HTML or
canonical BibTeX.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			level := slog.LevelInfo
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			if cfg.File != "" {
				log.Debug("using config file", "file", cfg.File)
			}
			a := &app{cfg: cfg, log: log, loader: newLoader(cfg)}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, a))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./bibparse.yaml)")
	pf.BoolP("verbose", "v", false, "Verbose output")
	pf.Duration("timeout", config.DefaultTimeout, "Abandon loading and parsing after this long")
	pf.StringToString("macro", nil, "Extra @STRING macro as NAME=VALUE (repeatable)")

	rootCmd.AddCommand(
		newParseCmd(),
		newRenderCmd(),
		newFormatCmd(),
		newDupsCmd(),
		newServeCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context) int {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(rootCmd.ErrOrStderr(), err)
		return 1
	}
	return 0
}

func printError(w io.Writer, err error) {
	_, _ = color.New(color.FgRed, color.Bold).Fprint(w, "error: ")
	_, _ = fmt.Fprintln(w, err)
}

// sources returns args, or the configured sources when there are none.
func (a *app) sources(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if len(a.cfg.Sources) > 0 {
		return a.cfg.Sources, nil
	}
	return nil, errors.New("no sources: pass files or URLs, or set sources in the config file")
}

func (a *app) parseOptions() bibparse.Options {
	return bibparse.Options{
		Macros: a.cfg.ParseMacros(),
		Logger: a.log.With("component", "parser"),
	}
}

func (a *app) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, a.cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

// load reads and joins all sources, then parses the result as one document.
func (a *app) load(ctx context.Context, sources []string) (bibparse.Entries, error) {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	start := time.Now()
	text, err := loader.LoadAll(ctx, a.loader, sources)
	if err != nil {
		return nil, err
	}
	es, err := parseContext(ctx, text, a.parseOptions())
	if err != nil {
		return nil, err
	}
	a.log.Debug("loaded", "sources", len(sources), "entries", len(es), "elapsed", time.Since(start))
	return es, nil
}

// parseContext runs a parse on its own goroutine and stops waiting for it
// when ctx is done. The parser cannot be interrupted; an abandoned parse
// finishes in the background and its result is dropped.
func parseContext(ctx context.Context, text string, opts bibparse.Options) (bibparse.Entries, error) {
	type result struct {
		es  bibparse.Entries
		err error
	}
	ch := make(chan result, 1)
	go func() {
		es, err := bibparse.Parse(text, opts)
		ch <- result{es, err}
	}()
	select {
	case r := <-ch:
		return r.es, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("parsing abandoned: %w", ctx.Err())
	}
}

// output writes through fn to the configured output file, or to the
// command's stdout.
func (a *app) output(cmd *cobra.Command, fn func(io.Writer) error) error {
	if a.cfg.Output == "" {
		return fn(cmd.OutOrStdout())
	}
	if err := bibparse.SaveWith(a.cfg.Output, fn); err != nil {
		return err
	}
	a.log.Debug("wrote output", "file", a.cfg.Output)
	return nil
}

// renderer builds the renderer for the configured format or def.
func (a *app) renderer(ctx context.Context, def string) (render.Renderer, error) {
	format := a.cfg.Format
	if format == "" {
		format = def
	}
	opts := render.Options{Title: a.cfg.Title}
	if a.cfg.Template != "" {
		text, err := a.loader.Load(ctx, a.cfg.Template)
		if err != nil {
			return nil, err
		}
		opts.Template = text
	}
	return render.New(format, opts)
}
