// Package migrations contains the goose migrations shared by the SQL stores.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
