// Package demo provides an in-memory stand-in for the upstream job service
// and content store, used for offline demo mode. Production code only ever
// sees it through the same interfaces as the real clients.
package demo

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Ratio1/RedMesh-demo-sub000/internal/jobapi"
	"github.com/Ratio1/RedMesh-demo-sub000/pkg/redmesh"
)

// Store simulates the upstream node: launched jobs progress a little on
// every status poll and complete after a few polls.
type Store struct {
	mu    sync.Mutex
	jobs  map[string]*redmesh.Job
	order []string
	blobs map[string][]byte
	log   *logrus.Entry
}

// NewStore returns an empty demo store.
func NewStore(log *logrus.Logger) *Store {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Store{
		jobs:  make(map[string]*redmesh.Job),
		blobs: make(map[string][]byte),
		log:   log.WithField("component", "demo"),
	}
}

// Launch registers a new simulated job. The canonical Job is produced by the
// normalizer, never hand-built, so demo jobs go through the same code path
// as real ones.
func (s *Store) Launch(_ context.Context, req jobapi.LaunchRequest) (*redmesh.Job, error) {
	if err := req.Validate(); err != nil {
		return nil, &redmesh.APIError{Code: 400, Message: err.Error()}
	}

	id := uuid.NewString()
	mid := (req.StartPort + req.EndPort) / 2
	payload := map[string]any{
		"job_id":       id,
		"name":         req.Name,
		"target":       req.Target,
		"port_range":   []int{req.StartPort, req.EndPort},
		"distribution": req.Distribution,
		"duration":     req.RunMode,
		"port_order":   req.PortOrder,
		"priority":     req.Priority,
		"created_at":   time.Now().UTC().Format(time.RFC3339),
		"workers": map[string]any{
			"demo-worker-1": map[string]any{"start_port": req.StartPort, "end_port": mid},
			"demo-worker-2": map[string]any{"start_port": mid + 1, "end_port": req.EndPort},
		},
	}
	if len(req.ExcludedTests) > 0 {
		payload["excluded_features"] = req.ExcludedTests
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	job, err := redmesh.NormalizeJob(raw)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.jobs[id] = job
	s.order = append(s.order, id)
	s.mu.Unlock()

	s.log.WithField("job_id", id).Info("demo job launched")
	return copyJob(job), nil
}

// JobStatus returns the job, advancing its simulated progress first.
func (s *Store) JobStatus(_ context.Context, jobID string) (*redmesh.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, &redmesh.APIError{Code: 404, Message: fmt.Sprintf("job %s not found", jobID)}
	}

	s.advance(job)
	return copyJob(job), nil
}

// ListJobs returns all jobs in launch order.
func (s *Store) ListJobs(_ context.Context) ([]*redmesh.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := make([]*redmesh.Job, 0, len(s.order))
	for _, id := range s.order {
		jobs = append(jobs, copyJob(s.jobs[id]))
	}
	return jobs, nil
}

// Stop cancels a job unless it already reached a terminal status.
func (s *Store) Stop(_ context.Context, jobID string) error {
	return s.transition(jobID, redmesh.StatusCancelled)
}

// StopMonitoring moves a continuous job towards stopped. A hard stop goes
// there directly; a soft stop passes through stopping first.
func (s *Store) StopMonitoring(_ context.Context, jobID string, hard bool) error {
	if hard {
		return s.transition(jobID, redmesh.StatusStopped)
	}
	return s.transition(jobID, redmesh.StatusStopping)
}

// FeatureCatalog returns the built-in catalog.
func (s *Store) FeatureCatalog(_ context.Context) (redmesh.FeatureCatalog, error) {
	return redmesh.DefaultCatalog, nil
}

// Fetch implements redmesh.Fetcher over the in-memory blob map.
func (s *Store) Fetch(_ context.Context, cid string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blobs[cid], nil
}

// PutBlob seeds a content-addressed payload, for tests and demo fixtures.
func (s *Store) PutBlob(cid string, raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[cid] = raw
}

func (s *Store) transition(jobID string, next redmesh.JobStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return &redmesh.APIError{Code: 404, Message: fmt.Sprintf("job %s not found", jobID)}
	}
	if !job.Status.CanTransition(next) {
		return &redmesh.APIError{Code: 409, Message: fmt.Sprintf("job %s is already %s", jobID, job.Status)}
	}
	job.Status = next
	job.UpdatedAt = time.Now().UTC()
	job.Timeline = append(job.Timeline, redmesh.TimelineEntry{Label: "Status changed to " + string(next), At: job.UpdatedAt})
	return nil
}

// advance bumps every worker by a quarter of its range per poll.
func (s *Store) advance(job *redmesh.Job) {
	if job.Status.Terminal() || job.Status == redmesh.StatusStopping {
		return
	}

	allDone := true
	for i := range job.Workers {
		w := &job.Workers[i]
		if w.Done {
			continue
		}
		w.Progress += 25
		if w.Progress >= 100 {
			w.Progress = 100
			w.Done = true
		} else {
			allDone = false
		}
		span := w.EndPort - w.StartPort + 1
		w.PortsScanned = int(float64(span) * w.Progress / 100)
	}

	now := time.Now().UTC()
	job.UpdatedAt = now
	if job.Status == redmesh.StatusQueued {
		job.Status = redmesh.StatusRunning
		job.StartedAt = &now
		job.Timeline = append(job.Timeline, redmesh.TimelineEntry{Label: "Scan started", At: now})
	}
	if allDone {
		job.Status = redmesh.StatusCompleted
		job.CompletedAt = &now
		job.Timeline = append(job.Timeline, redmesh.TimelineEntry{Label: "Scan completed", At: now})
	}
}

func copyJob(job *redmesh.Job) *redmesh.Job {
	out := *job
	out.Workers = append([]redmesh.WorkerStatus(nil), job.Workers...)
	out.Timeline = append([]redmesh.TimelineEntry(nil), job.Timeline...)
	out.PassHistory = append([]redmesh.PassHistoryEntry(nil), job.PassHistory...)
	return &out
}
