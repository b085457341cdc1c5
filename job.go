package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/Ratio1/RedMesh-demo-sub000/internal/jobapi"
	"github.com/Ratio1/RedMesh-demo-sub000/internal/sqlite"
	"github.com/Ratio1/RedMesh-demo-sub000/pkg/redmesh"
)

// createJobRequest is what the dashboard posts. Feature groups are the
// operator-facing selection; they are translated to the upstream exclusion
// list before launch.
type createJobRequest struct {
	Name            string               `json:"name"`
	Target          string               `json:"target"`
	StartPort       int                  `json:"startPort"`
	EndPort         int                  `json:"endPort"`
	ExceptionPorts  []int                `json:"exceptionPorts"`
	FeatureGroups   []string             `json:"featureGroups"`
	Distribution    redmesh.Distribution `json:"distribution"`
	RunMode         redmesh.RunMode      `json:"runMode"`
	PortOrder       redmesh.PortOrder    `json:"portOrder"`
	Priority        redmesh.Priority     `json:"priority"`
	Tempo           *redmesh.TempoWindow `json:"tempo"`
	TempoSteps      *redmesh.StepWindow  `json:"tempoSteps"`
	MonitorInterval int                  `json:"monitorInterval"`
}

// writeError renders an error as JSON, preserving the status code when the
// error carries one.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	render.Status(r, redmesh.StatusCode(err))
	render.JSON(w, r, map[string]string{"error": err.Error()})
}

// listJobs returns every known job. If the upstream is unreachable the
// cached snapshots are served instead, flagged as stale.
func (app *App) listJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := app.svc.ListJobs(r.Context())
	if err != nil {
		app.log.WithError(err).Warn("job list refresh failed, serving snapshots")
		cached, dbErr := app.db.LoadSnapshots(sqlite.SQLFilter{})
		if dbErr != nil {
			writeError(w, r, err)
			return
		}
		render.JSON(w, r, map[string]any{"jobs": cached, "stale": true})
		return
	}

	now := time.Now()
	for _, job := range jobs {
		if err := app.db.SaveSnapshot(job, now); err != nil {
			app.log.WithError(err).WithField("job", job.ID).Error("could not save snapshot")
		}
	}
	updateJobMetrics(jobs, float64(now.Unix()))

	render.JSON(w, r, map[string]any{"jobs": jobs, "stale": false})
}

// createJob launches a new job upstream.
func (app *App) createJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, redmesh.Errorf(http.StatusBadRequest, "invalid request body: %v", err))
		return
	}

	launch := jobapi.LaunchRequest{
		Name:            req.Name,
		Target:          req.Target,
		StartPort:       req.StartPort,
		EndPort:         req.EndPort,
		ExceptionPorts:  req.ExceptionPorts,
		Distribution:    req.Distribution,
		RunMode:         req.RunMode,
		PortOrder:       req.PortOrder,
		Priority:        req.Priority,
		Tempo:           req.Tempo,
		TempoSteps:      req.TempoSteps,
		MonitorInterval: req.MonitorInterval,
	}
	if len(req.FeatureGroups) > 0 {
		launch.ExcludedTests = redmesh.ExcludedMethodsFor(app.catalog, req.FeatureGroups)
	}

	job, err := app.svc.Launch(r.Context(), launch)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := app.db.SaveSnapshot(job, time.Now()); err != nil {
		app.log.WithError(err).WithField("job", job.ID).Error("could not save snapshot")
	}
	app.audit(requestUser(r), "job.launch", job.ID+" "+job.Target)

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, job)
}

// getJob returns the live status of one job, falling back to the cached
// snapshot when the upstream is unreachable.
func (app *App) getJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	job, err := app.svc.JobStatus(r.Context(), jobID)
	if err != nil {
		if redmesh.StatusCode(err) == http.StatusBadGateway {
			if cached, dbErr := app.db.LoadSnapshot(jobID); dbErr == nil && cached != nil {
				app.log.WithError(err).WithField("job", jobID).Warn("serving stale snapshot")
				render.JSON(w, r, cached)
				return
			}
		}
		writeError(w, r, err)
		return
	}

	if err := app.db.SaveSnapshot(job, time.Now()); err != nil {
		app.log.WithError(err).WithField("job", job.ID).Error("could not save snapshot")
	}
	render.JSON(w, r, job)
}

// stopJob asks the upstream to cancel a job.
func (app *App) stopJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	if err := app.svc.Stop(r.Context(), jobID); err != nil {
		writeError(w, r, err)
		return
	}
	app.audit(requestUser(r), "job.stop", jobID)
	render.JSON(w, r, map[string]any{"id": jobID, "stopped": true})
}

// stopMonitoring ends a continuous job's monitoring. A hard stop terminates
// immediately; a soft stop finishes the current pass first.
func (app *App) stopMonitoring(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	hard := redmesh.ParseBool(r.URL.Query().Get("hard"), false)
	if err := app.svc.StopMonitoring(r.Context(), jobID, hard); err != nil {
		writeError(w, r, err)
		return
	}
	app.audit(requestUser(r), "job.stop_monitoring", jobID)
	render.JSON(w, r, map[string]any{"id": jobID, "hard": hard})
}

// jobPorts resolves the job's per-pass reports from content storage and
// merges them with live worker data into a single port-centric view.
func (app *App) jobPorts(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	job, err := app.svc.JobStatus(r.Context(), jobID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resolved := redmesh.ResolveReports(r.Context(), app.fetcher, job.PassHistory)
	reports := make([]redmesh.WorkerStatus, 0, len(resolved))
	for _, ws := range resolved {
		reports = append(reports, ws)
	}

	render.JSON(w, r, redmesh.AggregatePorts(reports, job))
}

// jobAnalyses resolves the per-pass LLM analysis documents for a job.
func (app *App) jobAnalyses(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	job, err := app.svc.JobStatus(r.Context(), jobID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, redmesh.ResolveAnalyses(r.Context(), app.fetcher, job.PassHistory))
}

// features returns the feature catalog the launch form is built from.
func (app *App) features(w http.ResponseWriter, r *http.Request) {
	catalog, err := app.svc.FeatureCatalog(r.Context())
	if err != nil {
		app.log.WithError(err).Warn("feature catalog refresh failed, serving cached copy")
		catalog = app.catalog
	}
	render.JSON(w, r, map[string]redmesh.FeatureCatalog{"catalog": catalog})
}
