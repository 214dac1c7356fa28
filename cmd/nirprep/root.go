package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-nir/internal/config"
	"github.com/cwbudde/algo-nir/internal/logging"
	"github.com/cwbudde/algo-nir/pipeline"
)

type app struct {
	configPath string
	logLevel   string
	envFile    string

	cfg config.Config
	log *slog.Logger

	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	cmd := &cobra.Command{
		Use:   "nirprep",
		Short: "Preprocess near-infrared scans for model input",
		Long: `nirprep parses scanner exports, derives MSC, SNV and Savitzky-Golay
curves, and resamples one of them onto the canonical wavelength grid.`,
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.setup()
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML configuration file")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before the configuration")

	cmd.AddCommand(newProcessCmd(a))
	cmd.AddCommand(newBatchCmd(a))
	cmd.AddCommand(newGridCmd(a))
	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newWatchCmd(a))

	return cmd
}

func (a *app) setup() error {
	if err := config.LoadDotEnv(a.envFile); err != nil {
		return err
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	a.cfg = cfg
	a.log = logging.New(cfg.Log.Level, cfg.Log.Format, a.stderr)
	return nil
}

func (a *app) pipeline(extra ...pipeline.Option) (*pipeline.Pipeline, error) {
	opts, err := a.cfg.PipelineOptions()
	if err != nil {
		return nil, err
	}
	opts = append(opts, pipeline.WithLogger(a.log))
	opts = append(opts, extra...)
	return pipeline.New(opts...)
}
