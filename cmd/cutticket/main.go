// Command cutticket exports production records as cut-ticket PDFs and runs
// the tracker service.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gompdf/cutticket/internal/config"
	"github.com/gompdf/cutticket/internal/logging"
)

type app struct {
	verbose    bool
	configPath string

	cfg    *config.Config
	logger *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "cutticket",
		Short: "Cut-ticket PDF exporter and production tracker",
		Long: `cutticket renders production records into multi-page cut-ticket PDFs.

A record is a YAML or JSON file holding the garment details, fabric
swatches and up to six reference attachments. The first page carries the
header, primary image, swatch table and notes; every further page shows
two reference attachments.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&a.configPath, "config", config.DefaultPath, "Configuration file")

	root.AddCommand(
		newExportCmd(a),
		newPreviewCmd(a),
		newServeCmd(a),
		newSketchCmd(a),
	)
	return root
}

// setup loads the configuration and installs the process logger
func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	zcfg := zap.NewProductionConfig()
	if cfg.Logging.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("invalid logging.level: %w", err)
	}
	if a.verbose {
		level = zapcore.DebugLevel
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zcfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger
	logging.SetLogger(logger)
	return nil
}
