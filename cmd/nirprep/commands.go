package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-nir/internal/server"
	"github.com/cwbudde/algo-nir/internal/watch"
	"github.com/cwbudde/algo-nir/nir/table"
	"github.com/cwbudde/algo-nir/pipeline"
)

func newProcessCmd(a *app) *cobra.Command {
	var (
		asJSON bool
		column string
	)

	cmd := &cobra.Command{
		Use:   "process <file>",
		Short: "Transform one scan and resample it onto the grid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.pipeline(pipeline.WithColumn(column))
			if err != nil {
				return err
			}

			res, err := p.ProcessFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(a.stdout, struct {
					PreprocessedData []table.Record `json:"preprocessedData"`
					Vector           []float32      `json:"vector"`
				}{res.Records(), res.Vector})
			}
			if err := printTable(a.stdout, res.Table); err != nil {
				return err
			}
			_, err = fmt.Fprintf(a.stdout, "\n%s resampled onto %d grid points\n", p.Column(), len(res.Vector))
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print records and vector as JSON")
	cmd.Flags().StringVar(&column, "column", "", "transformed column to resample (default from config)")
	return cmd
}

func newBatchCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "batch <files...>",
		Short: "Average the resampled vectors of several scans",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.pipeline()
			if err != nil {
				return err
			}

			sources := make([]pipeline.Source, len(args))
			for i, path := range args {
				sources[i] = pipeline.FileSource(path)
			}

			res, err := p.ProcessBatch(cmd.Context(), sources)
			if err != nil {
				return err
			}

			if asJSON {
				skipped := make([]string, len(res.Skipped))
				for i, s := range res.Skipped {
					skipped[i] = s.Name
				}
				return writeJSON(a.stdout, struct {
					NumFilesUsed int       `json:"numFilesUsed"`
					Skipped      []string  `json:"skipped"`
					Vector       []float32 `json:"vector"`
				}{res.Used, skipped, res.Vector})
			}

			for _, s := range res.Skipped {
				fmt.Fprintf(a.stderr, "skipped %s: %v\n", s.Name, s.Err)
			}
			fmt.Fprintf(a.stdout, "used %d of %d scans\n", res.Used, len(sources))
			return printVector(a.stdout, p.Grid(), res.Vector)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func newGridCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Print the canonical wavelength grid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			grid, err := a.cfg.GridPoints()
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(a.stdout, grid)
			}
			for _, g := range grid {
				if _, err := fmt.Fprintf(a.stdout, "%g\n", g); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the grid as a JSON array")
	return cmd
}

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pipeline over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.pipeline()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return server.NewServer(addr, p, a.cfg.MaxUploadBytes(), a.log).Start(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

func newWatchCmd(a *app) *cobra.Command {
	var dir, out string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Process scans written into a directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.pipeline()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = a.cfg.Watch.Dir
			}
			if out == "" {
				out = a.cfg.Watch.Out
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return watch.NewWatcher(dir, out, p, a.log).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "directory to watch (default from config)")
	cmd.Flags().StringVar(&out, "out", "", "output directory (default from config)")
	return cmd
}
