package main

import (
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gompdf/cutticket/internal/markup"
	"github.com/gompdf/cutticket/internal/pagination"
	"github.com/gompdf/cutticket/internal/record"
	"github.com/gompdf/cutticket/internal/render"
	"github.com/gompdf/cutticket/internal/render/browser"
	"github.com/gompdf/cutticket/internal/render/raster"
	"github.com/gompdf/cutticket/internal/res"
)

func newPreviewCmd(a *app) *cobra.Command {
	var (
		page    int
		output  string
		asHTML  bool
		density float64
	)
	cmd := &cobra.Command{
		Use:   "preview <record>",
		Short: "Render one page of a record as PNG or HTML",
		Long: `Renders a single page of the cut ticket without building the PDF.

Page 1 is the main page; pages 2 and up show the reference attachments.
With --html the page tree is written as a self-contained HTML document,
the same markup the browser backend captures.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := record.LoadFile(args[0])
			if err != nil {
				return err
			}
			plan := pagination.Plan(rec)
			if page < 1 || page > len(plan) {
				return fmt.Errorf("page %d out of range (record has %d pages)", page, len(plan))
			}
			spec := plan[page-1]
			node := spec.Build(rec)

			loader := res.NewLoader(filepath.Dir(args[0]))
			for _, p := range a.cfg.Export.ResourcePaths {
				loader.AddSearchPath(p)
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			if asHTML {
				return markup.Render(cmd.Context(), w, node, markup.Options{
					Title:      fmt.Sprintf("%s (%s)", rec.Title, spec),
					Resolve:    browser.InlineResolver(loader),
					EmbedFonts: true,
				})
			}

			if density <= 0 {
				density = a.cfg.Export.Density
			}
			r := raster.New(loader, raster.WithDensity(density), raster.WithLogger(a.logger.Named("raster")))
			img, err := render.Capture(cmd.Context(), render.NewSurface(), r, node, a.logger.Named("render"))
			if err != nil {
				return fmt.Errorf("page %d: %w", page, err)
			}
			return png.Encode(w, img)
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "Page number to render")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().BoolVar(&asHTML, "html", false, "Write HTML instead of PNG")
	cmd.Flags().Float64Var(&density, "density", 0, "Pixels per design unit")
	return cmd
}
