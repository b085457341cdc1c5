package redmesh

import (
	"sort"
	"time"

	"github.com/tidwall/gjson"
)

// assembleOpts carries the per-entry-point differences: which payload the
// caller got decides the fallback ID, the status override and the default
// status, never field probing at the call sites.
type assembleOpts struct {
	fallbackID     string
	explicitStatus string
	defaultStatus  JobStatus
	now            time.Time
}

// NormalizeJob converts a generic job-status payload into the canonical Job.
// Jobs from this entry point default to queued when no status signal is
// present: they may not have been dispatched yet.
func NormalizeJob(raw []byte) (*Job, error) {
	v := gjson.ParseBytes(raw)
	return assemble(v, v, assembleOpts{defaultStatus: StatusQueued, now: time.Now().UTC()})
}

// NormalizeJobSpecs converts a network-tracked "job specs" record into the
// canonical Job. Configuration may sit in a nested spec object; status-ish
// fields stay at the top level. A network-tracked job is by definition
// already dispatched, so the default status is running, not queued.
func NormalizeJobSpecs(raw []byte) (*Job, error) {
	v := gjson.ParseBytes(raw)
	cfg := pick(v, "spec", "job_spec", "config")
	if !cfg.Exists() {
		cfg = v
	}
	return assemble(v, cfg, assembleOpts{defaultStatus: StatusRunning, now: time.Now().UTC()})
}

// NormalizeStatusResponse handles the "get job status" response family,
// discriminated by an explicit status tag: running, completed,
// network_tracked or not_found. jobID is the identifier the status was
// requested for; it backfills payloads that omit their own.
func NormalizeStatusResponse(jobID string, raw []byte) (*Job, error) {
	v := gjson.ParseBytes(raw)
	tag := v.Get("status").String()

	switch tag {
	case "not_found":
		return nil, Errorf(404, "job %s not found", jobID)

	case "network_tracked":
		payload := pick(v, "job_specs", "specs", "job")
		if !payload.Exists() {
			payload = v
		}
		cfg := pick(payload, "spec", "job_spec", "config")
		if !cfg.Exists() {
			cfg = payload
		}
		return assemble(payload, cfg, assembleOpts{
			fallbackID:    jobID,
			defaultStatus: StatusRunning,
			now:           time.Now().UTC(),
		})

	default:
		payload := pick(v, "job", "data")
		if !payload.Exists() {
			payload = v
		}
		return assemble(payload, payload, assembleOpts{
			fallbackID:     jobID,
			explicitStatus: tag,
			defaultStatus:  StatusRunning,
			now:            time.Now().UTC(),
		})
	}
}

// assemble builds the canonical Job. v is the full payload (status, workers,
// timestamps, pass history); cfg is where the execution parameters live,
// which for the specs shape is a nested object. Both frequently point at the
// same result.
func assemble(v, cfg gjson.Result, opts assembleOpts) (*Job, error) {
	id := pick(v, "job_id", "jobId", "id", "uuid").String()
	if id == "" {
		id = pick(cfg, "job_id", "jobId", "id", "uuid").String()
	}
	if id == "" {
		id = opts.fallbackID
	}
	if id == "" {
		return nil, Errorf(500, "upstream payload is missing a job identifier")
	}

	now := opts.now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	createdAt, ok := timeField(v, cfg, "created_at", "createdAt", "created", "submitted_at")
	if !ok {
		createdAt = now
	}
	updatedAt, ok := timeField(v, cfg, "updated_at", "updatedAt", "last_update", "last_updated")
	if !ok {
		updatedAt = createdAt
	}

	job := &Job{
		ID:               id,
		DisplayName:      pick(cfg, "name", "display_name", "displayName", "job_name").String(),
		Target:           pick(cfg, "target", "host", "address", "ip").String(),
		Summary:          pick(cfg, "summary", "description").String(),
		Owner:            pick(cfg, "owner", "created_by").String(),
		Initiator:        firstString(v, cfg, "initiator", "launcher"),
		InitiatorAddress: firstString(v, cfg, "initiator_addr", "initiatorAddress", "launcher_addr", "sender"),
		InitiatorAlias:   firstString(v, cfg, "initiator_alias", "initiatorAlias", "launcher_alias", "alias"),
		PortRange:        normalizePortRange(cfg),
		ExceptionPorts:   intsOf(pick(cfg, "exception_ports", "exceptionPorts", "excluded_ports", "skip_ports")),
		FeatureSet:       stringsOf(pick(cfg, "features", "feature_set", "featureSet", "feature_groups")),
		ExcludedFeatures: stringsOf(pick(cfg, "excluded_features", "excludedFeatures", "exclude_tests", "excluded_tests")),
		Distribution:     normalizeDistribution(pick(cfg, "distribution", "strategy").String()),
		RunMode:          normalizeRunMode(pick(cfg, "duration", "run_mode", "runMode", "mode").String()),
		PortOrder:        normalizePortOrder(pick(cfg, "port_order", "portOrder", "order").String()),
		Priority:         NormalizePriority(pick(cfg, "priority").String()),
		Tempo:            NormalizeTempo(pick(cfg, "tempo", "scan_delay", "scanDelay", "delay")),
		TempoSteps:       NormalizeTempoSteps(pick(cfg, "tempo_steps", "tempoSteps", "steps", "test_steps")),
		MonitorInterval:  intOr(pick(cfg, "monitor_interval", "monitorInterval", "interval"), 0),
		MonitoringStatus: pick(v, "monitoring_status", "monitoringStatus").String(),
		LastError:        pick(v, "last_error", "lastError").String(),
		CreatedAt:        createdAt,
		UpdatedAt:        updatedAt,
		StartedAt:        timePtr(timeField(v, cfg, "started_at", "startedAt", "launched_at")),
		CompletedAt:      timePtr(timeField(v, cfg, "completed_at", "completedAt", "finished_at")),
		FinalizedAt:      timePtr(timeField(v, cfg, "finalized_at", "finalizedAt")),
		NextPassAt:       timePtr(timeField(v, cfg, "next_pass_at", "nextPassAt", "next_run")),
	}

	if job.DisplayName == "" {
		job.DisplayName = job.Target
	}
	if job.DisplayName == "" {
		job.DisplayName = job.ID
	}

	// Worker map order is preserved from the source object.
	workers := pick(v, "workers", "nodes")
	workers.ForEach(func(key, val gjson.Result) bool {
		job.Workers = append(job.Workers, NormalizeWorker(key.String(), val))
		return true
	})
	job.WorkerCount = len(job.Workers)

	explicit := opts.explicitStatus
	if explicit == "" {
		explicit = pick(v, "status", "state").String()
	}
	job.Status = DeriveStatus(explicit, job.Workers, opts.defaultStatus)

	job.PassHistory = normalizePassHistory(pick(v, "pass_history", "passHistory", "passes"))
	job.CurrentPass = intOr(pick(v, "current_pass", "currentPass", "pass_nr", "passNr"), 0)
	if job.CurrentPass < 1 {
		job.CurrentPass = len(job.PassHistory) + 1
	}

	job.Timeline = normalizeTimeline(pick(v, "timeline", "events"), now)

	if agg := pick(v, "aggregate", "report", "result"); agg.IsObject() {
		job.Aggregate = buildAggregate(agg)
	}

	return job, nil
}

func normalizeDistribution(s string) Distribution {
	switch s {
	case "mirror", "shared", "duplicate", "all":
		return DistributionMirror
	}
	return DistributionSlice
}

func normalizeRunMode(s string) RunMode {
	switch s {
	case "continuous", "monitor", "monitoring", "loop":
		return RunContinuous
	}
	return RunSinglePass
}

func normalizePortOrder(s string) PortOrder {
	if s == "random" {
		return OrderRandom
	}
	return OrderSequential
}

func normalizePortRange(cfg gjson.Result) PortRange {
	if min, max, ok := normalizeWindow(pick(cfg, "port_range", "portRange", "ports", "range"), false); ok {
		return PortRange{Start: int(min), End: int(max)}
	}
	start := intOr(pick(cfg, "start_port", "startPort"), 0)
	end := intOr(pick(cfg, "end_port", "endPort"), 0)
	if start > 0 && end >= start {
		return PortRange{Start: start, End: end}
	}
	return PortRange{Start: 1, End: 65535}
}

// normalizeTimeline collects whatever event entries the payload carries,
// sorts them by time and guarantees the result is never empty.
func normalizeTimeline(v gjson.Result, now time.Time) []TimelineEntry {
	var entries []TimelineEntry
	for _, e := range values(v) {
		label := pick(e, "label", "event", "message", "name").String()
		if label == "" {
			label = "Status changed"
		}
		at, ok := timeOf(pick(e, "at", "timestamp", "time", "ts"))
		if !ok {
			at = now
		}
		entries = append(entries, TimelineEntry{Label: label, At: at})
	}

	if len(entries) == 0 {
		return []TimelineEntry{{Label: "Job registered", At: now}}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].At.Before(entries[j].At)
	})
	return entries
}

func normalizePassHistory(v gjson.Result) []PassHistoryEntry {
	var history []PassHistoryEntry
	for i, e := range values(v) {
		entry := PassHistoryEntry{
			PassNr:         intOr(pick(e, "pass_nr", "passNr", "pass", "nr"), i+1),
			Reports:        stringMap(pick(e, "reports", "report_cids", "reportCids")),
			LLMAnalysisCID: pick(e, "llm_analysis_cid", "llmAnalysisCid", "analysis_cid").String(),
		}
		if at, ok := timeOf(pick(e, "completed_at", "completedAt", "finished_at")); ok {
			entry.CompletedAt = at
		}
		history = append(history, entry)
	}
	return history
}

// buildAggregate is only called when the payload explicitly carries an
// aggregate object; jobs without one keep Aggregate nil.
func buildAggregate(v gjson.Result) *AggregateReport {
	return &AggregateReport{
		OpenPorts:      dedupSortInts(intsOf(pick(v, "open_ports", "openPorts", "ports"))),
		ServiceSummary: stringMap(pick(v, "service_summary", "serviceSummary", "services")),
		WebFindings:    stringMap(pick(v, "web_findings", "webFindings", "findings")),
		Notes:          pick(v, "notes", "summary").String(),
	}
}

func stringMap(v gjson.Result) map[string]string {
	if !v.IsObject() {
		return nil
	}
	out := make(map[string]string)
	v.ForEach(func(k, val gjson.Result) bool {
		out[k.String()] = val.String()
		return true
	})
	if len(out) == 0 {
		return nil
	}
	return out
}

func dedupSortInts(in []int) []int {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[int]bool, len(in))
	var out []int
	for _, n := range in {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out
}

// firstString probes v then cfg for the first non-empty string field.
func firstString(v, cfg gjson.Result, names ...string) string {
	if s := pick(v, names...).String(); s != "" {
		return s
	}
	return pick(cfg, names...).String()
}

// timeField probes v then cfg for a parseable timestamp.
func timeField(v, cfg gjson.Result, names ...string) (time.Time, bool) {
	if t, ok := timeOf(pick(v, names...)); ok {
		return t, true
	}
	return timeOf(pick(cfg, names...))
}

func timePtr(t time.Time, ok bool) *time.Time {
	if !ok {
		return nil
	}
	return &t
}
