// Package migrations embeds the SQL schema history of the ledger store.
package migrations

import "embed"

// FS holds the ledger migrations at its root.
//
//go:embed *.sql
var FS embed.FS
