// Package migrations embeds the goose SQL migrations.
//
// Users holds the PostgreSQL users table under "users"; Forms holds the
// SQLite schema of the "db" form backend under "forms".
package migrations

import "embed"

//go:embed users/*.sql
var Users embed.FS

//go:embed forms/*.sql
var Forms embed.FS
