// Package sqlite stores the dashboard's local state: the last-known snapshot
// of every job observed, the operator allow-list and the audit trail. Job
// truth lives upstream; this cache only keeps the dashboard usable when the
// upstream node is unreachable.
package sqlite

import (
	"database/sql"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	_ "github.com/Ratio1/RedMesh-demo-sub000/internal/migrations"
)

// DefaultDBFile is the default SQLite database file name.
const DefaultDBFile = "redmesh.db"

// DB is the database.
type DB struct {
	*sql.DB
}

// Open creates a new SQLite database object and runs migrations.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	goose.SetDialect("sqlite3")
	// Migrations are embedded Go functions; goose still wants a directory.
	tmpdir, err := os.MkdirTemp(filepath.Dir(dsn), "")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpdir)

	goose.SetLogger(log.New(io.Discard, "", 0))
	if err := goose.Up(db, tmpdir); err != nil {
		return nil, err
	}

	return &DB{DB: db}, nil
}

// SQLFilter is for constructing data filters ("WHERE" clauses) in a SQL statement.
type SQLFilter struct {
	Where  []string
	Values []interface{}
}

// String constructs a SQL WHERE clause.
func (f SQLFilter) String() string {
	if len(f.Where) > 0 {
		return "WHERE " + strings.Join(f.Where, " AND ")
	}
	return ""
}
