package migrations

import (
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(up00003, down00003)
}

func up00003(tx *sql.Tx) error {
	_, err := tx.Exec(`CREATE TABLE IF NOT EXISTS audit (
		time timestamp,
		user text,
		action text,
		info text
	)`)
	return err
}

func down00003(tx *sql.Tx) error {
	_, err := tx.Exec(`DROP TABLE audit`)
	return err
}
