// Package db embeds the SQL schema migrations.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsPath is the directory inside Migrations holding the files.
const MigrationsPath = "migrations"
