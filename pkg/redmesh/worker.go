package redmesh

import "github.com/tidwall/gjson"

// NormalizeWorker converts one worker's raw payload into the canonical
// WorkerStatus, regardless of whether it came from a live progress object, a
// finalized report or a bare worker assignment.
func NormalizeWorker(id string, v gjson.Result) WorkerStatus {
	w := WorkerStatus{
		ID:             id,
		Progress:       numOr(pick(v, "progress", "percent"), 0),
		Done:           boolOf(pick(v, "done", "finished")),
		Canceled:       boolOf(pick(v, "canceled", "cancelled")),
		OpenPorts:      intsOf(pick(v, "open_ports", "openPorts", "ports")),
		ServiceInfo:    portMap(pick(v, "service_info", "serviceInfo")),
		WebTestsInfo:   portMap(pick(v, "web_tests_info", "webTestsInfo", "web_tests")),
		CompletedTests: stringsOf(pick(v, "completed_tests", "completedTests")),
	}

	w.StartPort = intOr(pick(v, "start_port", "startPort", "start"), 0)
	w.EndPort = intOr(pick(v, "end_port", "endPort", "end"), 0)
	if w.StartPort <= 0 || w.EndPort <= 0 {
		// Best-effort repair of incomplete assignments: fall back to the
		// bounds of whatever the worker reported open.
		start, end := portBounds(w.OpenPorts)
		if w.StartPort <= 0 {
			w.StartPort = start
		}
		if w.EndPort <= 0 {
			w.EndPort = end
		}
	}
	if w.EndPort < w.StartPort {
		w.EndPort = w.StartPort
	}

	// ports_scanned falls back to the open-port count, a conservative
	// underestimate. Upstream sometimes reports nr_open_ports: 0 alongside a
	// non-empty open_ports list; counts derived here always trust the list,
	// never that field.
	w.PortsScanned = intOr(pick(v, "ports_scanned", "portsScanned", "nr_ports_scanned"), len(w.OpenPorts))
	if w.PortsScanned < len(w.OpenPorts) {
		w.PortsScanned = len(w.OpenPorts)
	}

	return w
}

func portBounds(ports []int) (int, int) {
	if len(ports) == 0 {
		return 1, 1
	}
	lo, hi := ports[0], ports[0]
	for _, p := range ports[1:] {
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
	}
	return lo, hi
}
