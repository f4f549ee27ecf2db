// Package web holds the HTML templates compiled into the binary.
package web

import "embed"

// Templates contains templates/*.html (one file per page) and
// templates/partials/*.html (the layout and shared fragments).
//
//go:embed templates
var Templates embed.FS
