// Package db embeds the SQL schema migrations for every supported storage driver.
package db

import (
	"embed"
	"io/fs"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// PostgresMigrations returns the Postgres migrations with the .sql files at the FS root.
func PostgresMigrations() fs.FS {
	return mustSub("migrations/postgres")
}

// SQLiteMigrations returns the SQLite migrations with the .sql files at the FS root.
func SQLiteMigrations() fs.FS {
	return mustSub("migrations/sqlite")
}

func mustSub(dir string) fs.FS {
	sub, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
