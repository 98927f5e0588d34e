package migrations

import "embed"

// FS contains embedded SQLite migrations for pirates storage.
//
//go:embed *.sql
var FS embed.FS
