package redmesh

import (
	"sort"
	"strconv"
)

// AggregatePorts merges open ports, service probes and web tests across
// resolved historical reports and the job's live workers into one summary.
// Sources are applied reports-first, then job workers, with last write wins
// per port: live worker data deliberately shadows older report data for the
// same port, because it is fresher.
func AggregatePorts(reports []WorkerStatus, job *Job) AggregatedPortsData {
	agg := AggregatedPortsData{
		Services: make(map[int]map[string]any),
		WebTests: make(map[int]map[string]any),
	}

	sources := make([]WorkerStatus, 0, len(reports)+8)
	sources = append(sources, reports...)
	if job != nil {
		sources = append(sources, job.Workers...)
	}

	seen := make(map[int]bool)
	for _, src := range sources {
		for _, p := range src.OpenPorts {
			if !seen[p] {
				seen[p] = true
				agg.Ports = append(agg.Ports, p)
			}
		}
		mergePortInfo(agg.Services, src.ServiceInfo)
		mergePortInfo(agg.WebTests, src.WebTestsInfo)
	}

	sort.Ints(agg.Ports)

	for _, probes := range agg.Services {
		agg.TotalServices += len(probes)
	}
	for _, tests := range agg.WebTests {
		agg.TotalFindings += len(tests)
	}

	return agg
}

// mergePortInfo copies src into dst keyed by numeric port, overwriting any
// earlier entry for the same port. Unparseable port keys are skipped.
func mergePortInfo(dst map[int]map[string]any, src PortInfoMap) {
	for key, info := range src {
		port, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		entry := make(map[string]any, len(info))
		for k, v := range info {
			entry[k] = v
		}
		dst[port] = entry
	}
}
