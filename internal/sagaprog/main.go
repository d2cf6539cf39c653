// Public domain.

// Package sagaprog implements the saga command.
package sagaprog

import (
	"fmt"

	"github.com/soniakeys/exit"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sagasurvey/saga/catalog"
)

const versionString = "saga version 0.1 Go source."
const copyrightString = "Public domain."

func Main() {
	defer exit.Handler()
	if err := NewCommand().Execute(); err != nil {
		exit.Log(err)
	}
}

// app is the state shared by subcommands, set up before any of them run.
type app struct {
	cfg *Config
	log *zap.Logger
	db  *catalog.Database
}

// NewCommand returns the saga root command.
func NewCommand() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)
	a := &app{}
	cmd := &cobra.Command{
		Use:   "saga",
		Short: "SAGA survey catalog toolkit",
		Long: `saga reads spectroscopic redshift files from the telescopes of the SAGA
survey into one schema, joins catalogs by sky position, resolves host
galaxies, and downloads SDSS and unWISE catalogs around hosts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(configPath)
			if err != nil {
				return err
			}
			log, err := newLogger(logLevel)
			if err != nil {
				return err
			}
			a.cfg, a.log, a.db = cfg, log, cfg.OpenDatabase()
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				a.log.Sync()
			}
		},
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (YAML)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		a.resolveCmd(),
		a.specsCmd(),
		a.queryCmd(),
		a.downloadCmd(),
		a.joinCmd(),
		a.fillCmd(),
		a.sitesCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version and copyright",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), versionString)
				fmt.Fprintln(cmd.OutOrStdout(), copyrightString)
			},
		},
	)
	return cmd
}

// newLogger builds a console logger on stderr.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true
	return cfg.Build()
}
