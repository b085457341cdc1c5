// Package jobapi is the HTTP client for the upstream job-execution service.
// It owns transport and envelope concerns only; payload normalization is
// delegated to pkg/redmesh.
package jobapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/Ratio1/RedMesh-demo-sub000/pkg/redmesh"
)

// Client talks to one upstream node.
type Client struct {
	base string
	http *http.Client
	log  *logrus.Entry
}

// New builds a client for the node at baseURL. httpClient may be nil.
func New(baseURL string, httpClient *http.Client, log *logrus.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: httpClient,
		log:  log.WithField("component", "jobapi"),
	}
}

// LaunchRequest is the job definition sent upstream. ExcludedTests is the
// backend representation; translating a feature-group selection into it is
// the caller's job (redmesh.ExcludedMethodsFor).
type LaunchRequest struct {
	Name            string                `json:"name,omitempty"`
	Target          string                `json:"target"`
	StartPort       int                   `json:"start_port"`
	EndPort         int                   `json:"end_port"`
	ExceptionPorts  []int                 `json:"exception_ports,omitempty"`
	ExcludedTests   []string              `json:"exclude_tests,omitempty"`
	Distribution    redmesh.Distribution  `json:"distribution,omitempty"`
	RunMode         redmesh.RunMode       `json:"duration,omitempty"`
	PortOrder       redmesh.PortOrder     `json:"port_order,omitempty"`
	Priority        redmesh.Priority      `json:"priority,omitempty"`
	Tempo           *redmesh.TempoWindow  `json:"scan_delay,omitempty"`
	TempoSteps      *redmesh.StepWindow   `json:"test_steps,omitempty"`
	MonitorInterval int                   `json:"monitor_interval,omitempty"`
}

// Validate reports every problem with the request at once.
func (r *LaunchRequest) Validate() error {
	var result *multierror.Error
	if r.Target == "" {
		result = multierror.Append(result, fmt.Errorf("target is required"))
	}
	if r.StartPort < 1 || r.StartPort > 65535 {
		result = multierror.Append(result, fmt.Errorf("start_port %d out of range", r.StartPort))
	}
	if r.EndPort < r.StartPort || r.EndPort > 65535 {
		result = multierror.Append(result, fmt.Errorf("end_port %d must be within [start_port, 65535]", r.EndPort))
	}
	if r.MonitorInterval < 0 {
		result = multierror.Append(result, fmt.Errorf("monitor_interval must not be negative"))
	}
	return result.ErrorOrNil()
}

// Launch submits a new job and returns its normalized first snapshot.
func (c *Client) Launch(ctx context.Context, req LaunchRequest) (*redmesh.Job, error) {
	if err := req.Validate(); err != nil {
		return nil, &redmesh.APIError{Code: 400, Message: err.Error()}
	}

	result, err := c.call(ctx, http.MethodPost, "/launch_job", req)
	if err != nil {
		return nil, err
	}

	job, err := redmesh.NormalizeJob([]byte(result.Raw))
	if err != nil {
		return nil, err
	}
	c.log.WithFields(logrus.Fields{"job_id": job.ID, "target": job.Target}).Info("job launched")
	return job, nil
}

// JobStatus fetches and normalizes the current status of one job.
func (c *Client) JobStatus(ctx context.Context, jobID string) (*redmesh.Job, error) {
	result, err := c.call(ctx, http.MethodGet, "/get_job_status?job_id="+url.QueryEscape(jobID), nil)
	if err != nil {
		return nil, err
	}
	return redmesh.NormalizeStatusResponse(jobID, []byte(result.Raw))
}

// ListJobs returns every job tracked network-wide. Records that fail to
// normalize are logged and skipped rather than failing the listing.
func (c *Client) ListJobs(ctx context.Context) ([]*redmesh.Job, error) {
	result, err := c.call(ctx, http.MethodGet, "/get_all_jobs", nil)
	if err != nil {
		return nil, err
	}

	jobs := []*redmesh.Job{}
	entries := result.Get("jobs")
	if !entries.Exists() {
		entries = result
	}
	for _, entry := range entries.Array() {
		job, err := redmesh.NormalizeJobSpecs([]byte(entry.Raw))
		if err != nil {
			c.log.WithError(err).Warn("skipping unparseable job record")
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// Stop cancels a job.
func (c *Client) Stop(ctx context.Context, jobID string) error {
	_, err := c.call(ctx, http.MethodPost, "/stop_job", map[string]string{"job_id": jobID})
	return err
}

// StopMonitoring requests the end of continuous monitoring. A soft stop lets
// the current pass finish; a hard stop interrupts it.
func (c *Client) StopMonitoring(ctx context.Context, jobID string, hard bool) error {
	mode := "soft"
	if hard {
		mode = "hard"
	}
	_, err := c.call(ctx, http.MethodPost, "/stop_monitoring", map[string]string{"job_id": jobID, "mode": mode})
	return err
}

// FeatureCatalog fetches the upstream test catalog.
func (c *Client) FeatureCatalog(ctx context.Context) (redmesh.FeatureCatalog, error) {
	result, err := c.call(ctx, http.MethodGet, "/get_test_catalog", nil)
	if err != nil {
		return nil, err
	}

	var catalog redmesh.FeatureCatalog
	entries := result.Get("catalog")
	if !entries.Exists() {
		entries = result
	}
	if err := json.Unmarshal([]byte(entries.Raw), &catalog); err != nil {
		return nil, &redmesh.APIError{Code: 502, Message: "unparseable feature catalog: " + err.Error()}
	}
	return catalog, nil
}

// call performs one request and unwraps the response envelope. Upstream
// signals errors two ways: a non-2xx status, or a 2xx whose result payload
// carries an error string. Both are checked.
func (c *Client) call(ctx context.Context, method, path string, body any) (gjson.Result, error) {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return gjson.Result{}, err
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reqBody)
	if err != nil {
		return gjson.Result{}, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return gjson.Result{}, &redmesh.APIError{Code: 502, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, &redmesh.APIError{Code: 502, Message: err.Error()}
	}

	parsed := gjson.ParseBytes(raw)
	result := parsed.Get("result")
	if !result.Exists() {
		result = parsed
	}

	if errMsg := result.Get("error"); errMsg.Exists() && errMsg.String() != "" {
		code := resp.StatusCode
		if code < 400 {
			code = 500
		}
		return gjson.Result{}, &redmesh.APIError{Code: code, Message: errMsg.String()}
	}

	if resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(raw))
		if msg == "" {
			msg = resp.Status
		}
		return gjson.Result{}, &redmesh.APIError{Code: resp.StatusCode, Message: msg}
	}

	return result, nil
}
