// Package db embeds the SQL migrations applied by golang-migrate at
// cmd/server startup, mirroring the teacher's db.Migrations embed.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS
