// Package migrations holds the bun migrations for the Postgres store.
package migrations

import "github.com/uptrace/bun/migrate"

// Migrations is the ordered migration set, discovered from file names.
var Migrations = migrate.NewMigrations()

func init() {
	if err := Migrations.DiscoverCaller(); err != nil {
		panic(err)
	}
}
