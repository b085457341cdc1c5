// Package migrations holds the embedded goose migrations for the local
// snapshot database.
package migrations

import (
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(up00001, down00001)
}

func up00001(tx *sql.Tx) error {
	_, err := tx.Exec(`CREATE TABLE IF NOT EXISTS job_snapshot (
		job_id text PRIMARY KEY,
		target text,
		status text,
		snapshot text,
		updated_at timestamp
	)`)
	return err
}

func down00001(tx *sql.Tx) error {
	_, err := tx.Exec(`DROP TABLE job_snapshot`)
	return err
}
