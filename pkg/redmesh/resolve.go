package redmesh

import (
	"context"
	"time"

	"github.com/stoewer/go-strcase"
	"github.com/tidwall/gjson"
)

// Fetcher retrieves the raw JSON payload behind a content identifier. A nil
// payload with a nil error means the store has no data for that identifier.
type Fetcher interface {
	Fetch(ctx context.Context, cid string) ([]byte, error)
}

// ResolveReports fetches and decodes every worker report referenced by the
// pass history. Identifiers referenced by several workers or passes are
// fetched exactly once; all unique identifiers are fetched concurrently. A
// failed or empty fetch leaves its identifier out of the result map and
// never fails the batch.
func ResolveReports(ctx context.Context, f Fetcher, history []PassHistoryEntry) map[string]WorkerStatus {
	cids := uniqueReportCIDs(history)

	type fetched struct {
		cid string
		ws  WorkerStatus
		ok  bool
	}
	ch := make(chan fetched, len(cids))
	for _, cid := range cids {
		go func(cid string) {
			raw, err := f.Fetch(ctx, cid)
			if err != nil || len(raw) == 0 {
				ch <- fetched{cid: cid}
				return
			}
			v := gjson.ParseBytes(raw)
			if !v.IsObject() {
				ch <- fetched{cid: cid}
				return
			}
			ch <- fetched{cid: cid, ws: NormalizeWorker(cid, v), ok: true}
		}(cid)
	}

	out := make(map[string]WorkerStatus, len(cids))
	for range cids {
		if r := <-ch; r.ok {
			out[r.cid] = r.ws
		}
	}
	return out
}

// ResolveAnalyses fetches the optional per-pass analysis reports. Analyses
// use a different decoding than worker reports: snake_case keys map onto
// camelCase fields and epoch-second timestamps onto real times.
func ResolveAnalyses(ctx context.Context, f Fetcher, history []PassHistoryEntry) map[string]PassAnalysis {
	byCID := make(map[string]int)
	var cids []string
	for _, pass := range history {
		if pass.LLMAnalysisCID == "" {
			continue
		}
		if _, dup := byCID[pass.LLMAnalysisCID]; dup {
			continue
		}
		byCID[pass.LLMAnalysisCID] = pass.PassNr
		cids = append(cids, pass.LLMAnalysisCID)
	}

	type fetched struct {
		cid string
		pa  PassAnalysis
		ok  bool
	}
	ch := make(chan fetched, len(cids))
	for _, cid := range cids {
		go func(cid string, passNr int) {
			raw, err := f.Fetch(ctx, cid)
			if err != nil || len(raw) == 0 {
				ch <- fetched{cid: cid}
				return
			}
			v := gjson.ParseBytes(raw)
			if !v.IsObject() {
				ch <- fetched{cid: cid}
				return
			}
			ch <- fetched{cid: cid, pa: decodeAnalysis(v, passNr), ok: true}
		}(cid, byCID[cid])
	}

	out := make(map[string]PassAnalysis, len(cids))
	for range cids {
		if r := <-ch; r.ok {
			out[r.cid] = r.pa
		}
	}
	return out
}

func uniqueReportCIDs(history []PassHistoryEntry) []string {
	seen := make(map[string]bool)
	var cids []string
	for _, pass := range history {
		for _, cid := range pass.Reports {
			if cid == "" || seen[cid] {
				continue
			}
			seen[cid] = true
			cids = append(cids, cid)
		}
	}
	return cids
}

// decodeAnalysis maps the known fields and folds everything else into Extra
// with its key converted to camelCase.
func decodeAnalysis(v gjson.Result, passNr int) PassAnalysis {
	pa := PassAnalysis{
		PassNr:          intOr(pick(v, "pass_nr", "passNr"), passNr),
		Model:           pick(v, "model", "model_name").String(),
		Summary:         pick(v, "summary", "analysis").String(),
		RiskLevel:       pick(v, "risk_level", "riskLevel").String(),
		Recommendations: stringsOf(pick(v, "recommendations", "actions")),
	}
	if t, ok := timeOf(pick(v, "generated_at", "generatedAt", "timestamp", "ts")); ok {
		pa.GeneratedAt = t
	} else {
		pa.GeneratedAt = time.Now().UTC()
	}

	known := map[string]bool{
		"pass_nr": true, "passNr": true, "model": true, "model_name": true,
		"summary": true, "analysis": true, "risk_level": true, "riskLevel": true,
		"recommendations": true, "actions": true, "generated_at": true,
		"generatedAt": true, "timestamp": true, "ts": true,
	}
	v.ForEach(func(k, val gjson.Result) bool {
		if known[k.String()] {
			return true
		}
		if pa.Extra == nil {
			pa.Extra = make(map[string]any)
		}
		pa.Extra[strcase.LowerCamelCase(k.String())] = val.Value()
		return true
	})

	return pa
}
