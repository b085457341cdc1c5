package redmesh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestNormalizeWorkerProgress(t *testing.T) {
	w := NormalizeWorker("w1", gjson.Parse(`{
		"start_port": 1, "end_port": 1024,
		"progress": "42.5",
		"ports_scanned": 437,
		"open_ports": [22, 80],
		"service_info": {"22": {"banner_grab": "OpenSSH_9.6"}},
		"completed_tests": ["banner_grab"]
	}`))

	assert.Equal(t, "w1", w.ID)
	assert.Equal(t, 1, w.StartPort)
	assert.Equal(t, 1024, w.EndPort)
	assert.Equal(t, 42.5, w.Progress)
	assert.Equal(t, 437, w.PortsScanned)
	assert.Equal(t, []int{22, 80}, w.OpenPorts)
	assert.Equal(t, "OpenSSH_9.6", w.ServiceInfo["22"]["banner_grab"])
	assert.Equal(t, []string{"banner_grab"}, w.CompletedTests)
	assert.False(t, w.Done)
}

func TestNormalizeWorkerFlagSynonyms(t *testing.T) {
	w := NormalizeWorker("w1", gjson.Parse(`{"finished": true, "cancelled": true}`))
	assert.True(t, w.Done)
	assert.True(t, w.Canceled)

	w = NormalizeWorker("w1", gjson.Parse(`{"done": true, "canceled": true}`))
	assert.True(t, w.Done)
	assert.True(t, w.Canceled)
}

func TestNormalizeWorkerPortBoundsFromOpenPorts(t *testing.T) {
	// No explicit assignment: bounds come from the open-ports list.
	w := NormalizeWorker("w1", gjson.Parse(`{"open_ports": [443, 22, 8080]}`))
	assert.Equal(t, 22, w.StartPort)
	assert.Equal(t, 8080, w.EndPort)

	// Nothing at all: bounds fall back to 1.
	w = NormalizeWorker("w1", gjson.Parse(`{}`))
	assert.Equal(t, 1, w.StartPort)
	assert.Equal(t, 1, w.EndPort)
}

func TestNormalizeWorkerBadProgress(t *testing.T) {
	w := NormalizeWorker("w1", gjson.Parse(`{"progress": "not-a-number"}`))
	assert.Equal(t, 0.0, w.Progress)
}

// Upstream occasionally reports nr_open_ports: 0 next to a non-empty
// open_ports list; the list must win.
func TestNormalizeWorkerZeroCountWithOpenPorts(t *testing.T) {
	w := NormalizeWorker("w1", gjson.Parse(`{"nr_open_ports": 0, "open_ports": [22, 80]}`))
	require.Len(t, w.OpenPorts, 2)
	assert.Equal(t, 2, w.PortsScanned)
}

func TestNormalizeWorkerPortsScannedFallback(t *testing.T) {
	w := NormalizeWorker("w1", gjson.Parse(`{"open_ports": [22, 80, 443]}`))
	assert.Equal(t, 3, w.PortsScanned)
}

func TestNormalizeWorkerAssignmentShape(t *testing.T) {
	// The specs shape only carries the port slice and a finished flag.
	w := NormalizeWorker("0xnode1", gjson.Parse(`{"start_port": 1, "end_port": 32768, "finished": false}`))
	assert.Equal(t, "0xnode1", w.ID)
	assert.Equal(t, 1, w.StartPort)
	assert.Equal(t, 32768, w.EndPort)
	assert.False(t, w.Done)
	assert.Empty(t, w.OpenPorts)
	assert.Zero(t, w.PortsScanned)
}
