// Package appfs embeds the app's non-Go files: database migrations and
// email templates.
package appfs

import "embed"

//go:embed migrations templates
var FS embed.FS
