package appfs

import "embed"

// FS holds the SQL migrations and the static assets shipped with the binaries.
//
//go:embed migrations all:assets
var FS embed.FS
