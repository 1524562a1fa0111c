package store

import "embed"

// Migrations holds the PostgreSQL schema migrations, rooted at "migrations".
//
//go:embed migrations/*.sql
var Migrations embed.FS
