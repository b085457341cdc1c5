package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Ratio1/RedMesh-demo-sub000/pkg/redmesh"
)

// SaveSnapshot stores the latest normalized state of a job, replacing any
// earlier snapshot for the same job.
func (db *DB) SaveSnapshot(job *redmesh.Job, now time.Time) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return err
	}

	txn, err := db.Begin()
	if err != nil {
		return err
	}

	qry := `INSERT OR REPLACE INTO job_snapshot (job_id, target, status, snapshot, updated_at) VALUES (?, ?, ?, ?, ?)`
	_, err = txn.Exec(qry, job.ID, job.Target, string(job.Status), string(raw), now)
	if err != nil {
		txn.Rollback()
		return err
	}

	return txn.Commit()
}

// LoadSnapshots retrieves stored job snapshots, most recently updated first.
func (db *DB) LoadSnapshots(filter SQLFilter) ([]redmesh.Job, error) {
	qry := fmt.Sprintf(`SELECT snapshot FROM job_snapshot %s ORDER BY updated_at DESC`, filter)
	rows, err := db.Query(qry, filter.Values...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []redmesh.Job
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var job redmesh.Job
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			// A corrupt snapshot shouldn't hide the rest.
			continue
		}
		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

// LoadSnapshot retrieves one job snapshot by id. A job without a snapshot is
// (nil, nil), not an error.
func (db *DB) LoadSnapshot(jobID string) (*redmesh.Job, error) {
	var raw string
	err := db.QueryRow(`SELECT snapshot FROM job_snapshot WHERE job_id = ?`, jobID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var job redmesh.Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// CountByStatus returns how many cached jobs are in each status.
func (db *DB) CountByStatus() (map[string]int, error) {
	rows, err := db.Query(`SELECT status, COUNT(*) FROM job_snapshot GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// DeleteSnapshot removes a job snapshot.
func (db *DB) DeleteSnapshot(jobID string) error {
	txn, err := db.Begin()
	if err != nil {
		return err
	}

	_, err = txn.Exec(`DELETE FROM job_snapshot WHERE job_id = ?`, jobID)
	if err != nil {
		txn.Rollback()
		return err
	}

	return txn.Commit()
}
