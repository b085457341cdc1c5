package sqlite

import (
	"fmt"
	"testing"
	"time"

	"github.com/Ratio1/RedMesh-demo-sub000/pkg/redmesh"
)

func createDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	if err != nil {
		t.Fatalf("could not open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSnapshotRoundTrip(t *testing.T) {
	db := createDB(t)

	now := time.Now().UTC().Truncate(time.Second)
	job := &redmesh.Job{
		ID:        "job-1",
		Target:    "192.0.2.0/24",
		Status:    redmesh.StatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.SaveSnapshot(job, now); err != nil {
		t.Fatal(err)
	}

	got, err := db.LoadSnapshot("job-1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("expected a snapshot")
	}
	if got.Target != job.Target || got.Status != job.Status {
		t.Errorf("snapshot mismatch: %+v", got)
	}

	// Saving again replaces, not duplicates.
	job.Status = redmesh.StatusCompleted
	if err := db.SaveSnapshot(job, now.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	all, err := db.LoadSnapshots(SQLFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(all))
	}
	if all[0].Status != redmesh.StatusCompleted {
		t.Errorf("expected completed, got %s", all[0].Status)
	}
}

func TestLoadSnapshotMissing(t *testing.T) {
	db := createDB(t)

	got, err := db.LoadSnapshot("absent")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestLoadSnapshotsFilter(t *testing.T) {
	db := createDB(t)

	now := time.Now().UTC()
	for i, status := range []redmesh.JobStatus{redmesh.StatusRunning, redmesh.StatusCompleted} {
		job := &redmesh.Job{ID: fmt.Sprintf("job-%d", i), Target: "10.0.0.1", Status: status}
		if err := db.SaveSnapshot(job, now); err != nil {
			t.Fatal(err)
		}
	}

	filter := SQLFilter{Where: []string{"status=?"}, Values: []interface{}{"running"}}
	jobs, err := db.LoadSnapshots(filter)
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 1 || jobs[0].Status != redmesh.StatusRunning {
		t.Errorf("unexpected filter result: %+v", jobs)
	}

	counts, err := db.CountByStatus()
	if err != nil {
		t.Fatal(err)
	}
	if counts["running"] != 1 || counts["completed"] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}

func TestUsers(t *testing.T) {
	db := createDB(t)

	exists, err := db.UserExists("ops@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Error("user should not exist yet")
	}

	if err := db.SaveUser("ops@example.com"); err != nil {
		t.Fatal(err)
	}
	exists, err = db.UserExists("ops@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if !exists {
		t.Error("user should exist")
	}

	users, err := db.LoadUsers()
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 1 {
		t.Errorf("expected 1 user, got %v", users)
	}

	if err := db.DeleteUser("ops@example.com"); err != nil {
		t.Fatal(err)
	}
	exists, _ = db.UserExists("ops@example.com")
	if exists {
		t.Error("user should be gone")
	}
}

func TestSaveAudit(t *testing.T) {
	db := createDB(t)

	if err := db.SaveAudit(time.Now(), "ops@example.com", "job.launch", "job-1"); err != nil {
		t.Fatal(err)
	}
}
