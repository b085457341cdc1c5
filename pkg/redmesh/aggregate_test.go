package redmesh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregatePortsUnion(t *testing.T) {
	job := &Job{Workers: []WorkerStatus{
		{ID: "a", OpenPorts: []int{80, 443}},
		{ID: "b", OpenPorts: []int{443, 22}},
	}}

	agg := AggregatePorts(nil, job)
	assert.Equal(t, []int{22, 80, 443}, agg.Ports)
}

func TestAggregatePortsLiveWorkersShadowReports(t *testing.T) {
	reports := []WorkerStatus{{
		ID:          "bafy1",
		OpenPorts:   []int{80},
		ServiceInfo: PortInfoMap{"80": {"banner_grab": "apache (old pass)"}},
	}}
	job := &Job{Workers: []WorkerStatus{{
		ID:          "w1",
		OpenPorts:   []int{80, 8080},
		ServiceInfo: PortInfoMap{"80": {"banner_grab": "nginx (live)"}},
	}}}

	agg := AggregatePorts(reports, job)

	assert.Equal(t, []int{80, 8080}, agg.Ports)
	// Reports are applied first, then live workers: last write wins.
	require.Contains(t, agg.Services, 80)
	assert.Equal(t, "nginx (live)", agg.Services[80]["banner_grab"])
}

func TestAggregatePortsSkipsUnparseableKeys(t *testing.T) {
	reports := []WorkerStatus{{
		ID:          "r",
		ServiceInfo: PortInfoMap{"80": {"p": "x"}, "not-a-port": {"p": "y"}},
	}}

	agg := AggregatePorts(reports, nil)
	assert.Contains(t, agg.Services, 80)
	assert.Len(t, agg.Services, 1)
}

func TestAggregatePortsTotals(t *testing.T) {
	reports := []WorkerStatus{{
		ID:           "r",
		ServiceInfo:  PortInfoMap{"22": {"banner_grab": "ssh"}, "80": {"banner_grab": "nginx", "tls_probe": "none"}},
		WebTestsInfo: PortInfoMap{"80": {"robots_txt": "present", "cors_check": "permissive"}},
	}}

	agg := AggregatePorts(reports, nil)
	assert.Equal(t, 3, agg.TotalServices)
	assert.Equal(t, 2, agg.TotalFindings)
}

func TestAggregatePortsEmpty(t *testing.T) {
	agg := AggregatePorts(nil, nil)
	assert.Empty(t, agg.Ports)
	assert.Zero(t, agg.TotalServices)
	assert.Zero(t, agg.TotalFindings)
}
