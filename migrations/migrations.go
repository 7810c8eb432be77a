// Package migrations embeds the PostgreSQL schema applied at startup.
package migrations

import "embed"

// FS holds the .up.sql files, applied in filename order.
//
//go:embed *.sql
var FS embed.FS
