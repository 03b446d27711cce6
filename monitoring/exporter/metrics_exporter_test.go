package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/isharak/ballerina/pkg/concurrency/lock"
	"github.com/isharak/ballerina/pkg/scenario"
)

func TestGetMetricsReflectsRuns(t *testing.T) {
	m := lock.NewManager()
	mc := NewMetricsCollector(m)

	res, err := scenario.Run(context.Background(), scenario.Config{
		Name:       "counter",
		Workers:    2,
		Iterations: 50,
		Manager:    m,
	})
	mc.RecordRun(res, err)
	mc.RecordRun(scenario.Result{}, errors.New("boom"))
	mc.RecordRun(scenario.Result{Expected: 2, Actual: 1}, nil)

	stats := m.Stats()
	if stats.Acquisitions < 100 || stats.Acquisitions != stats.Releases {
		t.Fatalf("unexpected stats %+v", stats)
	}

	out := mc.GetMetrics()
	for _, want := range []string{
		fmt.Sprintf("fieldlock_acquisitions_total %d", stats.Acquisitions),
		fmt.Sprintf("fieldlock_releases_total %d", stats.Releases),
		"fieldlock_scenario_runs_total 3",
		"fieldlock_scenario_failures_total 1",
		"fieldlock_invariant_violations_total 1",
		"fieldlock_parked_workers 0",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}
