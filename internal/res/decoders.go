package res

// Decoders for every raster format an attachment may arrive in. SVG is
// handled separately by DecodeImage.
import (
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)
