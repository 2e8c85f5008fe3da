// Package assets embeds the files the server ships with.
package assets

import "embed"

// Migrations holds the Postgres schema migrations under migrations/.
//
//go:embed migrations/*.sql
var Migrations embed.FS
