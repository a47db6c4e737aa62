package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterIsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := Register(reg); err != nil {
		t.Fatalf("second register: %v", err)
	}
}

func TestCountersAfterRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}

	before := testutil.ToFloat64(processSpawns)
	IncSpawn()
	IncSpawn()
	if got := testutil.ToFloat64(processSpawns); got != before+2 {
		t.Fatalf("spawns = %v, want %v", got, before+2)
	}

	IncEnd("exited")
	if got := testutil.ToFloat64(processEnds.WithLabelValues("exited")); got < 1 {
		t.Fatalf("ends{exited} = %v", got)
	}

	RecordStateTransition("running", "terminating")
	if got := testutil.ToFloat64(stateTransitions.WithLabelValues("running", "terminating")); got < 1 {
		t.Fatalf("transitions = %v", got)
	}

	SetTracked(3, 2)
	if got := testutil.ToFloat64(trackedProcesses.WithLabelValues("alive")); got != 3 {
		t.Fatalf("tracked{alive} = %v", got)
	}
	if got := testutil.ToFloat64(trackedProcesses.WithLabelValues("terminal")); got != 2 {
		t.Fatalf("tracked{terminal} = %v", got)
	}
}
