// Package assets embeds the static files drawn on every ticket.
package assets

import "embed"

// FS holds the embedded assets, addressed by file name.
//
//go:embed *.svg
var FS embed.FS

// Brand is the asset name of the brand mark.
const Brand = "brand.svg"
