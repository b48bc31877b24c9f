package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gompdf/cutticket/internal/render/browser"
	"github.com/gompdf/cutticket/internal/res"
	"github.com/gompdf/cutticket/internal/sketch"
	"github.com/gompdf/cutticket/pkg/api"
)

func newSketchCmd(a *app) *cobra.Command {
	var (
		req    sketch.Request
		outDir string
		name   string
	)
	cmd := &cobra.Command{
		Use:   "sketch",
		Short: "Generate a visualization and a flat sketch from garment photos",
		Long: `Sends photos and a prompt to the configured sketch provider and saves
the returned images.

Local image paths are inlined as data URLs before the request is sent.

Example:
  cutticket sketch --image front.jpg --prompt "double-breasted, wide lapels" --flat-sketch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !req.Options.Visualized && !req.Options.FlatSketch {
				req.Options = sketch.Options{Visualized: true, FlatSketch: true}
			}
			if err := req.Validate(); err != nil {
				return err
			}

			exporter, err := api.New(api.WithLogger(a.logger.Named("export")))
			if err != nil {
				return err
			}
			defer exporter.Close()
			loader := exporter.Loader()

			gen, err := newGenerator(cmd.Context(), a.cfg.Sketch, exporter, a.logger.Named("sketch"))
			if err != nil {
				return err
			}
			if gen == nil {
				return errors.New("no sketch provider configured (set sketch.provider, CUTTICKET_SKETCH_URL or GEMINI_API_KEY)")
			}

			inline := browser.InlineResolver(loader)
			for i, src := range req.Images {
				if isRemote(src) {
					continue
				}
				if req.Images[i], err = inline(cmd.Context(), src); err != nil {
					return fmt.Errorf("image %s: %w", src, err)
				}
			}

			resp, err := gen.Generate(cmd.Context(), req)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			for _, out := range []struct{ suffix, url string }{
				{"visualized", resp.VisualizedImage},
				{"flat", resp.FlatSketchImage},
			} {
				if out.url == "" {
					continue
				}
				path, err := saveImage(cmd, loader, out.url, filepath.Join(outDir, name+"-"+out.suffix))
				if err != nil {
					return fmt.Errorf("%s image: %w", out.suffix, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Wrote", path)
			}
			return nil
		},
	}
	fs := cmd.Flags()
	fs.StringSliceVar(&req.Images, "image", nil, "Input photo, path or URL (repeatable)")
	fs.StringVar(&req.Prompt, "prompt", "", "Description of the garment")
	fs.BoolVar(&req.Options.Visualized, "visualized", false, "Generate the photographic visualization")
	fs.BoolVar(&req.Options.FlatSketch, "flat-sketch", false, "Generate the technical flat sketch")
	fs.StringVarP(&outDir, "output", "o", ".", "Output directory")
	fs.StringVar(&name, "name", "sketch", "Base name of the written files")
	return cmd
}

func isRemote(src string) bool {
	for _, p := range []string{"http://", "https://", "data:"} {
		if strings.HasPrefix(src, p) {
			return true
		}
	}
	return false
}

// saveImage fetches url and writes it to base plus an extension for its type
func saveImage(cmd *cobra.Command, loader *res.Loader, url, base string) (string, error) {
	r, err := loader.Load(cmd.Context(), url)
	if err != nil {
		return "", err
	}
	ext := ".png"
	switch r.MimeType {
	case "image/jpeg":
		ext = ".jpg"
	case "image/webp":
		ext = ".webp"
	case "image/gif":
		ext = ".gif"
	}
	path := base + ext
	return path, os.WriteFile(path, r.Data, 0o644)
}
