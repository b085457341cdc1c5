package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/Ratio1/RedMesh-demo-sub000/internal/demo"
	"github.com/Ratio1/RedMesh-demo-sub000/internal/sqlite"
	"github.com/Ratio1/RedMesh-demo-sub000/pkg/redmesh"
)

func newTestApp(t *testing.T, name string) *App {
	t.Helper()

	db, err := sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("could not open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)

	store := demo.NewStore(log)
	return &App{
		db:           db,
		svc:          store,
		fetcher:      store,
		catalog:      redmesh.DefaultCatalog,
		log:          log,
		authDisabled: true,
	}
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if out != nil && w.Code < 300 {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			t.Fatalf("could not decode %s %s response: %v", method, path, err)
		}
	}
	return w
}

func launchTestJob(t *testing.T, r http.Handler) redmesh.Job {
	t.Helper()

	var job redmesh.Job
	w := doJSON(t, r, http.MethodPost, "/api/jobs", map[string]any{
		"target":    "10.0.0.0/24",
		"startPort": 1,
		"endPort":   1024,
	}, &job)
	if w.Code != http.StatusCreated {
		t.Fatalf("launch returned %d: %s", w.Code, w.Body.String())
	}
	return job
}

func TestIndex(t *testing.T) {
	app := newTestApp(t, "TestIndex")
	r := app.router()

	var resp struct {
		Service string         `json:"service"`
		Jobs    map[string]int `json:"jobs"`
	}
	w := doJSON(t, r, http.MethodGet, "/", nil, &resp)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if resp.Service != "redmesh-dashboard" {
		t.Errorf("unexpected service name %q", resp.Service)
	}
}

func TestCreateAndGetJob(t *testing.T) {
	app := newTestApp(t, "TestCreateAndGetJob")
	r := app.router()

	job := launchTestJob(t, r)
	if job.ID == "" {
		t.Fatal("launched job has no ID")
	}
	if job.Status != redmesh.StatusQueued {
		t.Errorf("expected queued, got %s", job.Status)
	}

	var got redmesh.Job
	w := doJSON(t, r, http.MethodGet, "/api/jobs/"+job.ID, nil, &got)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got.ID != job.ID {
		t.Errorf("expected job %s, got %s", job.ID, got.ID)
	}
	// The demo upstream advances on every poll.
	if got.Status != redmesh.StatusRunning {
		t.Errorf("expected running after first poll, got %s", got.Status)
	}

	// The snapshot cache should now know about the job.
	snap, err := app.db.LoadSnapshot(job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if snap == nil || snap.ID != job.ID {
		t.Error("snapshot was not saved")
	}
}

func TestCreateJobValidation(t *testing.T) {
	app := newTestApp(t, "TestCreateJobValidation")
	r := app.router()

	w := doJSON(t, r, http.MethodPost, "/api/jobs", map[string]any{
		"startPort": 1,
		"endPort":   1024,
	}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("target")) {
		t.Errorf("error should name the missing field: %s", w.Body.String())
	}
}

func TestGetJobNotFound(t *testing.T) {
	app := newTestApp(t, "TestGetJobNotFound")
	r := app.router()

	w := doJSON(t, r, http.MethodGet, "/api/jobs/no-such-job", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestListJobs(t *testing.T) {
	app := newTestApp(t, "TestListJobs")
	r := app.router()

	launchTestJob(t, r)
	launchTestJob(t, r)

	var resp struct {
		Jobs  []redmesh.Job `json:"jobs"`
		Stale bool          `json:"stale"`
	}
	w := doJSON(t, r, http.MethodGet, "/api/jobs", nil, &resp)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(resp.Jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(resp.Jobs))
	}
	if resp.Stale {
		t.Error("live listing should not be stale")
	}
}

func TestStopJob(t *testing.T) {
	app := newTestApp(t, "TestStopJob")
	r := app.router()

	job := launchTestJob(t, r)

	w := doJSON(t, r, http.MethodDelete, "/api/jobs/"+job.ID, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var got redmesh.Job
	doJSON(t, r, http.MethodGet, "/api/jobs/"+job.ID, nil, &got)
	if got.Status != redmesh.StatusCancelled {
		t.Errorf("expected cancelled, got %s", got.Status)
	}

	// Stopping an already-terminal job conflicts.
	w = doJSON(t, r, http.MethodDelete, "/api/jobs/"+job.ID, nil, nil)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
}

func TestStopMonitoring(t *testing.T) {
	app := newTestApp(t, "TestStopMonitoring")
	r := app.router()

	job := launchTestJob(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/jobs/"+job.ID+"/monitor/stop?hard=yes", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var got redmesh.Job
	doJSON(t, r, http.MethodGet, "/api/jobs/"+job.ID, nil, &got)
	if got.Status != redmesh.StatusStopped {
		t.Errorf("expected stopped, got %s", got.Status)
	}
}

func TestFeatures(t *testing.T) {
	app := newTestApp(t, "TestFeatures")
	r := app.router()

	var resp struct {
		Catalog redmesh.FeatureCatalog `json:"catalog"`
	}
	w := doJSON(t, r, http.MethodGet, "/api/features", nil, &resp)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(resp.Catalog) == 0 {
		t.Fatal("catalog is empty")
	}
}

func TestAdminUsers(t *testing.T) {
	app := newTestApp(t, "TestAdminUsers")
	r := app.router()

	w := doJSON(t, r, http.MethodPost, "/admin/users", map[string]string{"email": "Ops@Example.com"}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	// Duplicate adds conflict.
	w = doJSON(t, r, http.MethodPost, "/admin/users", map[string]string{"email": "ops@example.com"}, nil)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}

	var resp struct {
		Users []string `json:"users"`
	}
	doJSON(t, r, http.MethodGet, "/admin/users", nil, &resp)
	if len(resp.Users) != 1 || resp.Users[0] != "ops@example.com" {
		t.Errorf("unexpected user list %v", resp.Users)
	}

	w = doJSON(t, r, http.MethodDelete, "/admin/users/ops@example.com", nil, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodDelete, "/admin/users/ops@example.com", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for missing user, got %d", w.Code)
	}
}

// stubService serves one fixed job so the report-resolution endpoints can be
// exercised with a known pass history.
type stubService struct {
	*demo.Store
	job *redmesh.Job
}

func (s *stubService) JobStatus(_ context.Context, jobID string) (*redmesh.Job, error) {
	if jobID != s.job.ID {
		return nil, &redmesh.APIError{Code: 404, Message: "job not found"}
	}
	return s.job, nil
}

func TestJobPortsFromResolvedReports(t *testing.T) {
	app := newTestApp(t, "TestJobPortsFromResolvedReports")

	store := demo.NewStore(app.log)
	store.PutBlob("bafyreport1", []byte(`{
		"open_ports": [22, 80],
		"service_info": {"22": {"service": "ssh"}},
		"done": true
	}`))

	job := &redmesh.Job{
		ID:     "job-1",
		Status: redmesh.StatusCompleted,
		PassHistory: []redmesh.PassHistoryEntry{
			{PassNr: 1, Reports: map[string]string{"worker-1": "bafyreport1"}},
		},
		Workers: []redmesh.WorkerStatus{
			{ID: "worker-1", OpenPorts: []int{443}},
		},
	}
	app.svc = &stubService{Store: store, job: job}
	app.fetcher = store
	r := app.router()

	var agg redmesh.AggregatedPortsData
	w := doJSON(t, r, http.MethodGet, "/api/jobs/job-1/ports", nil, &agg)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	want := []int{22, 80, 443}
	if len(agg.Ports) != len(want) {
		t.Fatalf("expected ports %v, got %v", want, agg.Ports)
	}
	for i, p := range want {
		if agg.Ports[i] != p {
			t.Fatalf("expected ports %v, got %v", want, agg.Ports)
		}
	}
	if agg.Services[22]["service"] != "ssh" {
		t.Errorf("resolved service detail missing: %v", agg.Services)
	}
}
