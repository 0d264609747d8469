// Package web embeds the fallback front end served when no static directory
// is present on disk.
package web

import "embed"

// Assets holds dist/, the built-in audit page.
//
//go:embed dist
var Assets embed.FS
