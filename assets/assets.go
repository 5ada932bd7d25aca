package assets

import (
	"embed"
	"io/fs"
)

const (
	SqliteMigrationDir   = "migrations/sqlite"
	PostgresMigrationDir = "migrations/postgres"
	MySQLMigrationDir    = "migrations/mysql"
)

//go:embed migrations/*
var EmbedMigrations embed.FS

// MigrationsFS returns the migrations of one engine rooted at their directory.
func MigrationsFS(dir string) fs.FS {
	sub, err := fs.Sub(EmbedMigrations, dir)
	if err != nil {
		panic("invalid migrations dir " + dir + ": " + err.Error())
	}
	return sub
}
