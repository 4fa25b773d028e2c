// Package migrations embeds the goose migrations of the settings database.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
