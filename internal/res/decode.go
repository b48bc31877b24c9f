package res

import (
	"bytes"
	"fmt"
	"image"
	"math"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// DecodeImage decodes a raster resource. SVG resources are rasterized to
// fit w by h pixels, or at their view box size when w or h is not positive.
func DecodeImage(r *Resource, w, h int) (image.Image, error) {
	if r.IsSVG() {
		return rasterizeSVG(r.Data, w, h)
	}
	img, _, err := image.Decode(bytes.NewReader(r.Data))
	if err != nil {
		return nil, fmt.Errorf("decode %s (%s): %w", redact(r.URL), r.MimeType, err)
	}
	return img, nil
}

func rasterizeSVG(data []byte, w, h int) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}
	vw, vh := icon.ViewBox.W, icon.ViewBox.H
	if vw <= 0 || vh <= 0 {
		vw, vh = 100, 100
	}
	if w <= 0 || h <= 0 {
		w, h = int(math.Ceil(vw)), int(math.Ceil(vh))
	}

	// keep the aspect ratio, centered in the target
	scale := math.Min(float64(w)/vw, float64(h)/vh)
	tw, th := vw*scale, vh*scale
	icon.SetTarget((float64(w)-tw)/2, (float64(h)-th)/2, tw, th)

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1)
	return img, nil
}
