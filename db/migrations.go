// Package db embeds the SQL schema so binaries and tests apply the same DDL.
package db

import "embed"

// Migrations holds the forward and rollback scripts under migrations/.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// UpPattern selects the forward scripts inside Migrations.
const UpPattern = "migrations/*_*.up.sql"
