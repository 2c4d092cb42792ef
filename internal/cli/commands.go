package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/drgo/bibparse"
	"github.com/drgo/bibparse/internal/config"
	"github.com/drgo/bibparse/internal/loader"
	"github.com/drgo/bibparse/internal/render"
	"github.com/drgo/bibparse/internal/server"
)

// watchDebounce is the quiet period before a watched change re-renders.
const watchDebounce = 100 * time.Millisecond

func addOutputFlags(cmd *cobra.Command, formatHelp string) {
	cmd.Flags().StringP("format", "f", "", formatHelp)
	cmd.Flags().StringP("output", "o", "", "Write to this file instead of stdout")
}

func newParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [file|url...]",
		Short: "Print parsed entries",
		Long: `Parse the sources as one document and print the resolved entries.
Sources are joined in the order given, so @STRING definitions in earlier
sources apply to later ones.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			return runRender(cmd, a, args, "json")
		},
	}
	addOutputFlags(cmd, "Output format: json, yaml or table")
	return cmd
}

func newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render [file|url...]",
		Short: "Render entries for display, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			if err := runRender(cmd, a, args, "html"); err != nil {
				return err
			}
			if !a.cfg.Watch {
				return nil
			}
			srcs, _ := a.sources(args)
			a.log.Info("watching sources", "count", len(srcs))
			return loader.Watch(cmd.Context(), srcs, watchDebounce, a.log, func() {
				if err := runRender(cmd, a, args, "html"); err != nil {
					a.log.Error("render failed", "error", err)
				}
			})
		},
	}
	addOutputFlags(cmd, "Output format: html, table, json or yaml")
	cmd.Flags().String("template", "", "HTML template file or URL")
	cmd.Flags().String("title", "", "HTML page title")
	cmd.Flags().BoolP("watch", "w", false, "Render again whenever a local source changes")
	return cmd
}

func runRender(cmd *cobra.Command, a *app, args []string, def string) error {
	srcs, err := a.sources(args)
	if err != nil {
		return err
	}
	es, err := a.load(cmd.Context(), srcs)
	if err != nil {
		return err
	}
	r, err := a.renderer(cmd.Context(), def)
	if err != nil {
		return err
	}
	return a.output(cmd, func(w io.Writer) error {
		return r.Render(w, es)
	})
}

func newFormatCmd() *cobra.Command {
	var typ string
	cmd := &cobra.Command{
		Use:   "format [file|url...]",
		Short: "Print entries as canonical BibTeX",
		Long: `Print entries as BibTeX with macros and concatenations resolved, keys
and fields sorted. Entry types are not kept by the parser; every entry is
written with the type given by --type.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			srcs, err := a.sources(args)
			if err != nil {
				return err
			}
			es, err := a.load(cmd.Context(), srcs)
			if err != nil {
				return err
			}
			return a.output(cmd, func(w io.Writer) error {
				return bibparse.Format(w, es, typ)
			})
		},
	}
	cmd.Flags().StringP("output", "o", "", "Write to this file instead of stdout")
	cmd.Flags().StringVar(&typ, "type", bibparse.DefaultEntryType, "Entry type to write")
	return cmd
}

func newDupsCmd() *cobra.Command {
	var typ string
	cmd := &cobra.Command{
		Use:   "dups [file|url...]",
		Short: "Report or merge duplicate entries",
		Long: `Find entries whose chosen fields match after reducing them to lowercase
letters and digits. Each source is parsed on its own. With --action union or
intersect the resulting entries are printed as BibTeX and the report goes to
stderr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			srcs, err := a.sources(args)
			if err != nil {
				return err
			}
			action, err := bibparse.ParseSetAction(a.cfg.Dedup.Action)
			if err != nil {
				return err
			}
			files := make([]*bibparse.File, 0, len(srcs))
			for _, src := range srcs {
				es, err := a.load(cmd.Context(), []string{src})
				if err != nil {
					return fmt.Errorf("%s: %w", src, err)
				}
				files = append(files, &bibparse.File{Name: src, Entries: es})
			}
			res, dr, err := bibparse.Deduplicate(files, a.cfg.Dedup.Fields, action)
			if err != nil {
				return err
			}
			if action == bibparse.SetNoAction {
				if dr.DuplicateSetCount == 0 {
					_, err = fmt.Fprintln(cmd.OutOrStdout(), "no duplicates found")
					return err
				}
				return dr.Print(cmd.OutOrStdout())
			}
			if err := dr.Print(cmd.ErrOrStderr()); err != nil {
				return err
			}
			a.log.Info("deduplicated", "kept", dr.ResultSetCount)
			return a.output(cmd, func(w io.Writer) error {
				return bibparse.Format(w, res, typ)
			})
		},
	}
	cmd.Flags().StringSlice("fields", nil, "Fields to compare (\"citekey\" for the citation key); default year,title")
	cmd.Flags().String("action", "", "none, union or intersect")
	cmd.Flags().StringP("output", "o", "", "Write merged BibTeX to this file instead of stdout")
	cmd.Flags().StringVar(&typ, "type", bibparse.DefaultEntryType, "Entry type to write")
	return cmd
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [file|url...]",
		Short: "Serve the rendered bibliography over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			srcs, err := a.sources(args)
			if err != nil {
				return err
			}
			opts := render.Options{Title: a.cfg.Title}
			if a.cfg.Template != "" {
				if opts.Template, err = a.loader.Load(cmd.Context(), a.cfg.Template); err != nil {
					return err
				}
			}
			srv, err := server.New(server.Config{
				Addr:    a.cfg.Server.Addr,
				Sources: srcs,
				Loader:  a.loader,
				Parse:   a.parseOptions(),
				Render:  opts,
				Logger:  a.log,
			})
			if err != nil {
				return err
			}
			return srv.Serve(cmd.Context())
		},
	}
	cmd.Flags().String("addr", "", "Listen address (default "+config.DefaultAddr+")")
	cmd.Flags().String("template", "", "HTML template file or URL")
	cmd.Flags().String("title", "", "HTML page title")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "bibparse %s\n", Version)
			return err
		},
	}
}
