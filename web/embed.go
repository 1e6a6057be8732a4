// Package web holds the embedded static assets for the my web UI.
package web

import "embed"

// StaticFS contains the compiled single-page UI and its assets.
//
//go:embed static
var StaticFS embed.FS
