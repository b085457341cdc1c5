package redmesh

import "strings"

// Upstream spells each status several ways; this maps every observed synonym
// onto the canonical status.
var statusSynonyms = map[string]JobStatus{
	"queued":             StatusQueued,
	"pending":            StatusQueued,
	"running":            StatusRunning,
	"in_progress":        StatusRunning,
	"in-progress":        StatusRunning,
	"stopping":           StatusStopping,
	"scheduled_for_stop": StatusStopping,
	"stopped":            StatusStopped,
	"completed":          StatusCompleted,
	"done":               StatusCompleted,
	"success":            StatusCompleted,
	"finalized":          StatusCompleted,
	"failed":             StatusFailed,
	"error":              StatusFailed,
	"cancelled":          StatusCancelled,
	"canceled":           StatusCancelled,
}

// StatusFromString maps an explicit upstream status string onto a canonical
// status, reporting whether the string was recognized.
func StatusFromString(s string) (JobStatus, bool) {
	status, ok := statusSynonyms[strings.ToLower(strings.TrimSpace(s))]
	return status, ok
}

// DeriveStatus computes the canonical status from the signals upstream gives
// us, first match wins:
//
//  1. an explicit status string matching a known synonym
//  2. every worker finished -> completed
//  3. at least one worker finished -> running
//  4. the fallback for the entry point that produced the payload (queued for
//     freshly created jobs, running for network-tracked specs records)
func DeriveStatus(explicit string, workers []WorkerStatus, fallback JobStatus) JobStatus {
	if status, ok := StatusFromString(explicit); ok {
		return status
	}

	if len(workers) > 0 {
		finished := 0
		for _, w := range workers {
			if w.Done {
				finished++
			}
		}
		if finished == len(workers) {
			return StatusCompleted
		}
		if finished > 0 {
			return StatusRunning
		}
	}

	return fallback
}
