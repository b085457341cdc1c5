package redmesh

// ExcludedMethodsFor translates a UI-facing selection of feature groups into
// the backend's flat list of excluded low-level test methods: every method of
// every unselected group is excluded. Selecting every group returns nil so
// the field can be omitted on the wire rather than sent as an empty list.
func ExcludedMethodsFor(catalog FeatureCatalog, selected []string) []string {
	chosen := make(map[string]bool, len(selected))
	for _, id := range selected {
		chosen[id] = true
	}

	var excluded []string
	for _, group := range catalog {
		if chosen[group.ID] {
			continue
		}
		excluded = append(excluded, group.Methods...)
	}
	return excluded
}

// GroupIDs returns the catalog's group identifiers in order.
func (c FeatureCatalog) GroupIDs() []string {
	ids := make([]string, 0, len(c))
	for _, g := range c {
		ids = append(ids, g.ID)
	}
	return ids
}

// DefaultCatalog is the built-in feature catalog, used when the upstream
// catalog endpoint is unreachable.
var DefaultCatalog = FeatureCatalog{
	{
		ID:          "port_discovery",
		Label:       "Port discovery",
		Description: "TCP connect sweep over the requested port range",
		Category:    "network",
		Methods:     []string{"tcp_connect", "tcp_syn_probe"},
	},
	{
		ID:          "service_probes",
		Label:       "Service probes",
		Description: "Banner grabbing and protocol fingerprinting on open ports",
		Category:    "network",
		Methods:     []string{"banner_grab", "tls_probe", "protocol_fingerprint"},
	},
	{
		ID:          "web_tests",
		Label:       "Web tests",
		Description: "HTTP checks against ports answering as web servers",
		Category:    "web",
		Methods:     []string{"http_head", "robots_txt", "security_headers", "cors_check"},
	},
	{
		ID:          "latency",
		Label:       "Latency",
		Description: "Round-trip time measurements per open port",
		Category:    "network",
		Methods:     []string{"rtt_measure"},
	},
}
