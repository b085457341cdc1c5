package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/gorilla/sessions"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/Ratio1/RedMesh-demo-sub000/internal/jobapi"
	"github.com/Ratio1/RedMesh-demo-sub000/internal/sqlite"
	"github.com/Ratio1/RedMesh-demo-sub000/pkg/redmesh"
)

// jobService is the upstream scan orchestrator. The real implementation is
// internal/jobapi; internal/demo provides an in-process one for running
// without any upstream.
type jobService interface {
	Launch(ctx context.Context, req jobapi.LaunchRequest) (*redmesh.Job, error)
	JobStatus(ctx context.Context, jobID string) (*redmesh.Job, error)
	ListJobs(ctx context.Context) ([]*redmesh.Job, error)
	Stop(ctx context.Context, jobID string) error
	StopMonitoring(ctx context.Context, jobID string, hard bool) error
	FeatureCatalog(ctx context.Context) (redmesh.FeatureCatalog, error)
}

// storage is the snapshot cache plus the auth and audit tables.
type storage interface {
	SaveSnapshot(job *redmesh.Job, now time.Time) error
	LoadSnapshots(filter sqlite.SQLFilter) ([]redmesh.Job, error)
	LoadSnapshot(jobID string) (*redmesh.Job, error)
	CountByStatus() (map[string]int, error)
	DeleteSnapshot(jobID string) error
	LoadUsers() ([]string, error)
	UserExists(email string) (bool, error)
	SaveUser(email string) error
	DeleteUser(email string) error
	SaveAudit(ts time.Time, user, event, info string) error
}

// App holds everything the handlers need.
type App struct {
	db      storage
	svc     jobService
	fetcher redmesh.Fetcher
	catalog redmesh.FeatureCatalog
	log     *logrus.Logger

	store        *sessions.CookieStore
	oauth        *oauth2.Config
	authDisabled bool
}

func (app *App) router(middlewares ...func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middlewares...)

	r.Get("/", app.index)
	r.Get("/login", app.loginHandler)
	r.Get("/logout", app.logoutHandler)
	r.Get("/auth", app.authHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(app.requireUser)
		r.Get("/jobs", app.listJobs)
		r.Post("/jobs", app.createJob)
		r.Get("/jobs/{id}", app.getJob)
		r.Delete("/jobs/{id}", app.stopJob)
		r.Post("/jobs/{id}/monitor/stop", app.stopMonitoring)
		r.Get("/jobs/{id}/ports", app.jobPorts)
		r.Get("/jobs/{id}/analyses", app.jobAnalyses)
		r.Get("/features", app.features)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(app.requireUser)
		r.Get("/users", app.adminUsers)
		r.Post("/users", app.adminAddUser)
		r.Delete("/users/{email}", app.adminDeleteUser)
	})

	return r
}

// index reports a small health summary from the snapshot cache. It is the
// one unauthenticated data endpoint, safe because it leaks only counts.
func (app *App) index(w http.ResponseWriter, r *http.Request) {
	counts, err := app.db.CountByStatus()
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{
		"service": "redmesh-dashboard",
		"jobs":    counts,
	})
}
