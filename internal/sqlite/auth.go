package sqlite

import "database/sql"

// LoadUsers retrieves all operator emails.
func (db *DB) LoadUsers() ([]string, error) {
	rows, err := db.Query(`SELECT email FROM users ORDER BY email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		users = append(users, email)
	}

	return users, rows.Err()
}

// UserExists reports whether email is on the operator allow-list.
func (db *DB) UserExists(email string) (bool, error) {
	var x string
	err := db.QueryRow(`SELECT email FROM users WHERE email=?`, email).Scan(&x)
	switch {
	case err == sql.ErrNoRows:
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

// SaveUser stores a new operator.
func (db *DB) SaveUser(email string) error {
	txn, err := db.Begin()
	if err != nil {
		return err
	}

	_, err = txn.Exec(`INSERT INTO users (email) VALUES (?)`, email)
	if err != nil {
		txn.Rollback()
		return err
	}

	return txn.Commit()
}

// DeleteUser removes an operator.
func (db *DB) DeleteUser(email string) error {
	txn, err := db.Begin()
	if err != nil {
		return err
	}

	_, err = txn.Exec(`DELETE FROM users WHERE email = ?`, email)
	if err != nil {
		txn.Rollback()
		return err
	}

	return txn.Commit()
}
