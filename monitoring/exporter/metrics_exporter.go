package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/isharak/ballerina/pkg/concurrency/lock"
	"github.com/isharak/ballerina/pkg/logging"
	"github.com/isharak/ballerina/pkg/scenario"
)

// MetricsCollector accumulates lock protocol counters across scenario runs.
type MetricsCollector struct {
	manager      *lock.Manager
	runs         int64
	failures     int64
	violations   int64
	runDurations []time.Duration
	lastRunTime  time.Time
	mu           sync.RWMutex
}

func NewMetricsCollector(m *lock.Manager) *MetricsCollector {
	return &MetricsCollector{
		manager:      m,
		runDurations: make([]time.Duration, 0),
		lastRunTime:  time.Now(),
	}
}

func (mc *MetricsCollector) RecordRun(res scenario.Result, err error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.runs++
	mc.runDurations = append(mc.runDurations, res.Duration)
	mc.lastRunTime = time.Now()

	// Keep only the last 1000 durations
	if len(mc.runDurations) > 1000 {
		mc.runDurations = mc.runDurations[len(mc.runDurations)-1000:]
	}

	switch {
	case err != nil:
		mc.failures++
	case !res.OK():
		mc.violations++
	}
}

func (mc *MetricsCollector) GetMetrics() string {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	var totalDuration time.Duration
	for _, d := range mc.runDurations {
		totalDuration += d
	}

	avgDuration := float64(0)
	if len(mc.runDurations) > 0 {
		avgDuration = float64(totalDuration.Microseconds()) / float64(len(mc.runDurations))
	}

	stats := mc.manager.Stats()
	waiting := len(mc.manager.WaitGraph().GetWaitingWorkers())

	// Prometheus format metrics
	return fmt.Sprintf(`# HELP fieldlock_acquisitions_total Lock requests granted
# TYPE fieldlock_acquisitions_total counter
fieldlock_acquisitions_total %d

# HELP fieldlock_releases_total Guards released
# TYPE fieldlock_releases_total counter
fieldlock_releases_total %d

# HELP fieldlock_contended_total Field entries that required parking
# TYPE fieldlock_contended_total counter
fieldlock_contended_total %d

# HELP fieldlock_cancelled_total Acquisitions withdrawn while parked
# TYPE fieldlock_cancelled_total counter
fieldlock_cancelled_total %d

# HELP fieldlock_parked_workers Workers parked on an entry right now
# TYPE fieldlock_parked_workers gauge
fieldlock_parked_workers %d

# HELP fieldlock_scenario_runs_total Scenario runs completed
# TYPE fieldlock_scenario_runs_total counter
fieldlock_scenario_runs_total %d

# HELP fieldlock_scenario_failures_total Scenario runs that returned an error
# TYPE fieldlock_scenario_failures_total counter
fieldlock_scenario_failures_total %d

# HELP fieldlock_invariant_violations_total Scenario runs whose invariant did not hold
# TYPE fieldlock_invariant_violations_total counter
fieldlock_invariant_violations_total %d

# HELP fieldlock_scenario_duration_microseconds Average scenario duration in microseconds
# TYPE fieldlock_scenario_duration_microseconds gauge
fieldlock_scenario_duration_microseconds %.2f

# HELP fieldlock_last_run_timestamp_seconds Unix timestamp of the last run
# TYPE fieldlock_last_run_timestamp_seconds gauge
fieldlock_last_run_timestamp_seconds %d
`,
		stats.Acquisitions,
		stats.Releases,
		stats.Contended,
		stats.Cancelled,
		waiting,
		mc.runs,
		mc.failures,
		mc.violations,
		avgDuration,
		mc.lastRunTime.Unix(),
	)
}

// StartSimulation cycles through every scenario on the collector's manager
// until ctx ends.
func (mc *MetricsCollector) StartSimulation(ctx context.Context, every time.Duration, workers, iterations int) {
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()

		for {
			for _, name := range scenario.Names() {
				res, err := scenario.Run(ctx, scenario.Config{
					Name:       name,
					Workers:    workers,
					Iterations: iterations,
					Manager:    mc.manager,
				})
				mc.RecordRun(res, err)
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

func main() {
	metricsPort := os.Getenv("METRICS_PORT")
	if metricsPort == "" {
		metricsPort = "8080"
	}

	workers := 4
	if w := os.Getenv("SIM_WORKERS"); w != "" {
		_, _ = fmt.Sscanf(w, "%d", &workers)
	}

	iterations := 500
	if iter := os.Getenv("SIM_ITERATIONS"); iter != "" {
		_, _ = fmt.Sscanf(iter, "%d", &iterations)
	}

	if err := logging.Init(logging.Config{
		Level:  logging.ParseLevel(os.Getenv("LOG_LEVEL")),
		Format: "json",
	}); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.Close()

	log.Printf("Starting field lock metrics exporter...")
	log.Printf("Metrics Port: %s, Workers: %d, Iterations: %d", metricsPort, workers, iterations) // #nosec G706

	collector := NewMetricsCollector(lock.NewManager())
	collector.StartSimulation(context.Background(), 5*time.Second, workers, iterations)

	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		fmt.Fprint(w, collector.GetMetrics())
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})

	srv := &http.Server{
		Addr:         ":" + metricsPort,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Metrics available at http://localhost:%s/metrics", metricsPort) // #nosec G706
	log.Fatal(srv.ListenAndServe())
}
