package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gompdf/cutticket/internal/config"
	"github.com/gompdf/cutticket/internal/record"
	"github.com/gompdf/cutticket/internal/render/browser"
	"github.com/gompdf/cutticket/internal/render/pdf"
	"github.com/gompdf/cutticket/pkg/api"
)

// exportFlags override the export section of the configuration
type exportFlags struct {
	pageSize      string
	density       float64
	backend       string
	browserBin    string
	browserURL    string
	resourcePaths []string
	author        string
}

func (f *exportFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.pageSize, "page-size", "", "Output page size (A4, Letter, Legal, A3, A5)")
	fs.Float64Var(&f.density, "density", 0, "Pixels per design unit in captured pages")
	fs.StringVar(&f.backend, "backend", "", "Rasterization backend (raster, browser)")
	fs.StringVar(&f.browserBin, "browser-bin", "", "Browser binary for the browser backend")
	fs.StringVar(&f.browserURL, "browser-url", "", "Control URL of a running browser")
	fs.StringSliceVar(&f.resourcePaths, "resource-path", nil, "Directory searched for attachments (repeatable)")
	fs.StringVar(&f.author, "author", "", "Document author")
}

// apply merges the flags over cfg
func (f *exportFlags) apply(cfg config.ExportConfig) config.ExportConfig {
	if f.pageSize != "" {
		cfg.PageSize = f.pageSize
	}
	if f.density > 0 {
		cfg.Density = f.density
	}
	if f.backend != "" {
		cfg.Backend = f.backend
	}
	if f.browserBin != "" {
		cfg.BrowserBin = f.browserBin
	}
	if f.browserURL != "" {
		cfg.BrowserURL = f.browserURL
	}
	cfg.ResourcePaths = append(cfg.ResourcePaths, f.resourcePaths...)
	if f.author != "" {
		cfg.Author = f.author
	}
	return cfg
}

// exportOptions translates an export configuration into exporter options
func exportOptions(cfg config.ExportConfig, logger *zap.Logger) ([]api.Option, error) {
	size, err := pdf.ParsePageSize(cfg.PageSize)
	if err != nil {
		return nil, err
	}
	opts := []api.Option{
		api.WithPageSize(size),
		api.WithDensity(cfg.Density),
		api.WithBackend(api.Backend(cfg.Backend)),
		api.WithAuthor(cfg.Author),
		api.WithLogger(logger),
	}
	if api.Backend(cfg.Backend) == api.BackendBrowser {
		opts = append(opts, api.WithBrowser(browser.Config{Bin: cfg.BrowserBin, ControlURL: cfg.BrowserURL}))
	}
	for _, p := range cfg.ResourcePaths {
		opts = append(opts, api.WithResourcePath(p))
	}
	return opts, nil
}

func newExportCmd(a *app) *cobra.Command {
	var (
		flags  exportFlags
		outDir string
	)
	cmd := &cobra.Command{
		Use:   "export <record>",
		Short: "Render a record file into a cut-ticket PDF",
		Long: `Renders a YAML or JSON record into "<title>_Cut_Ticket.pdf".

Relative attachment paths are resolved against the record file's directory,
then against every --resource-path. The PDF is written only when every page
captured successfully.

Example:
  cutticket export jacket.yaml -o out/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := record.LoadFile(args[0])
			if err != nil {
				return err
			}
			opts, err := exportOptions(flags.apply(a.cfg.Export), a.logger.Named("export"))
			if err != nil {
				return err
			}
			opts = append(opts, api.WithBaseDir(filepath.Dir(args[0])))

			exporter, err := api.New(opts...)
			if err != nil {
				return err
			}
			defer exporter.Close()

			path, result, err := exporter.ExportToFile(cmd.Context(), rec, outDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d pages)\n", path, result.PageCount)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&outDir, "output", "o", ".", "Output directory")
	return cmd
}
