// Package migrations embeds the default goose migrations for the server
// schema. They are used when no migrations directory is configured.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
