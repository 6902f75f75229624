// Package web embeds the browser chat widget.
package web

import "embed"

// Assets holds index.html and the static/ directory.
//
//go:embed index.html static
var Assets embed.FS
