// Package redmesh holds the canonical job model and the normalization
// routines that turn raw upstream payloads into it. Everything in this
// package is pure: no I/O, no logging, no shared state.
package redmesh

import "time"

// JobStatus is the canonical status of a job.
type JobStatus string

// Job statuses. Completed, failed, cancelled and stopped are terminal.
const (
	StatusQueued    JobStatus = "queued"
	StatusRunning   JobStatus = "running"
	StatusStopping  JobStatus = "stopping"
	StatusStopped   JobStatus = "stopped"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusCancelled JobStatus = "cancelled"
)

// Terminal reports whether s is a terminal status.
func (s JobStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusStopped:
		return true
	}
	return false
}

// CanTransition reports whether a job may move from s to next. A terminal
// status never transitions; re-asserting the current status is allowed.
func (s JobStatus) CanTransition(next JobStatus) bool {
	if s == next {
		return true
	}
	return !s.Terminal()
}

// Distribution is how ports are divided between workers.
type Distribution string

const (
	DistributionSlice  Distribution = "slice"
	DistributionMirror Distribution = "mirror"
)

// RunMode distinguishes one-shot jobs from continuous monitoring.
type RunMode string

const (
	RunSinglePass RunMode = "singlepass"
	RunContinuous RunMode = "continuous"
)

// PortOrder is the order in which workers walk their port range.
type PortOrder string

const (
	OrderSequential PortOrder = "sequential"
	OrderRandom     PortOrder = "random"
)

// Priority of a job.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// NormalizePriority maps any value onto a known priority, defaulting to
// medium for anything unrecognized.
func NormalizePriority(s string) Priority {
	switch Priority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return Priority(s)
	}
	return PriorityMedium
}

// PortRange is an inclusive port window.
type PortRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// TempoWindow is a min/max scan delay in seconds.
type TempoWindow struct {
	MinSeconds float64 `json:"minSeconds"`
	MaxSeconds float64 `json:"maxSeconds"`
}

// StepWindow is a min/max count window (tests per step).
type StepWindow struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// TimelineEntry is one event in a job's history.
type TimelineEntry struct {
	Label string    `json:"label"`
	At    time.Time `json:"at"`
}

// PortInfoMap maps a port (as its upstream string key) to opaque
// per-probe/per-test results. Leaf values are never interpreted here.
type PortInfoMap map[string]map[string]any

// WorkerStatus is one worker's contribution to a job.
type WorkerStatus struct {
	ID             string      `json:"id"`
	StartPort      int         `json:"startPort"`
	EndPort        int         `json:"endPort"`
	Progress       float64     `json:"progress"`
	Done           bool        `json:"done"`
	Canceled       bool        `json:"canceled"`
	PortsScanned   int         `json:"portsScanned"`
	OpenPorts      []int       `json:"openPorts"`
	ServiceInfo    PortInfoMap `json:"serviceInfo,omitempty"`
	WebTestsInfo   PortInfoMap `json:"webTestsInfo,omitempty"`
	CompletedTests []string    `json:"completedTests,omitempty"`
}

// PassHistoryEntry is one completed monitoring pass. Reports maps a worker's
// node address to the content identifier of its report for that pass.
type PassHistoryEntry struct {
	PassNr         int               `json:"passNr"`
	CompletedAt    time.Time         `json:"completedAt"`
	Reports        map[string]string `json:"reports"`
	LLMAnalysisCID string            `json:"llmAnalysisCid,omitempty"`
}

// AggregateReport is the upstream-provided summary across workers/passes.
type AggregateReport struct {
	OpenPorts      []int             `json:"openPorts"`
	ServiceSummary map[string]string `json:"serviceSummary,omitempty"`
	WebFindings    map[string]string `json:"webFindings,omitempty"`
	Notes          string            `json:"notes,omitempty"`
}

// AggregatedPortsData is built on demand from resolved reports plus live
// worker data. It is never persisted.
type AggregatedPortsData struct {
	Ports         []int                  `json:"ports"`
	Services      map[int]map[string]any `json:"services"`
	WebTests      map[int]map[string]any `json:"webTests"`
	TotalServices int                    `json:"totalServices"`
	TotalFindings int                    `json:"totalFindings"`
}

// PassAnalysis is a decoded per-pass analysis report.
type PassAnalysis struct {
	PassNr          int            `json:"passNr"`
	Model           string         `json:"model,omitempty"`
	Summary         string         `json:"summary,omitempty"`
	RiskLevel       string         `json:"riskLevel,omitempty"`
	Recommendations []string       `json:"recommendations,omitempty"`
	GeneratedAt     time.Time      `json:"generatedAt"`
	Extra           map[string]any `json:"extra,omitempty"`
}

// FeatureGroup is one entry of the feature catalog: a UI-facing group of
// low-level test methods. Methods are assumed to belong to exactly one group.
type FeatureGroup struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Methods     []string `json:"methods"`
}

// FeatureCatalog is the ordered reference catalog of feature groups.
type FeatureCatalog []FeatureGroup

// Job is the canonical representation of one reconnaissance task. It is only
// ever constructed by the normalizer entry points in this package.
type Job struct {
	ID               string       `json:"id"`
	DisplayName      string       `json:"displayName"`
	Target           string       `json:"target"`
	Summary          string       `json:"summary,omitempty"`
	Owner            string       `json:"owner,omitempty"`
	Initiator        string       `json:"initiator,omitempty"`
	InitiatorAddress string       `json:"initiatorAddress,omitempty"`
	InitiatorAlias   string       `json:"initiatorAlias,omitempty"`
	PortRange        PortRange    `json:"portRange"`
	ExceptionPorts   []int        `json:"exceptionPorts,omitempty"`
	FeatureSet       []string     `json:"featureSet,omitempty"`
	ExcludedFeatures []string     `json:"excludedFeatures,omitempty"`
	Distribution     Distribution `json:"distribution"`
	RunMode          RunMode      `json:"runMode"`
	PortOrder        PortOrder    `json:"portOrder"`
	Priority         Priority     `json:"priority"`
	Tempo            *TempoWindow `json:"tempo,omitempty"`
	TempoSteps       *StepWindow  `json:"tempoSteps,omitempty"`
	MonitorInterval  int          `json:"monitorInterval,omitempty"`

	Status           JobStatus `json:"status"`
	CurrentPass      int       `json:"currentPass"`
	MonitoringStatus string    `json:"monitoringStatus,omitempty"`
	NextPassAt       *time.Time `json:"nextPassAt,omitempty"`
	LastError        string    `json:"lastError,omitempty"`

	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	FinalizedAt *time.Time `json:"finalizedAt,omitempty"`

	Workers     []WorkerStatus     `json:"workers"`
	WorkerCount int                `json:"workerCount"`
	Aggregate   *AggregateReport   `json:"aggregate,omitempty"`
	Timeline    []TimelineEntry    `json:"timeline"`
	PassHistory []PassHistoryEntry `json:"passHistory,omitempty"`
}
