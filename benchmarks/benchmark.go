package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/isharak/ballerina/pkg/concurrency/lock"
	"github.com/isharak/ballerina/pkg/concurrency/worker"
	"github.com/isharak/ballerina/pkg/structure"
	"github.com/isharak/ballerina/pkg/types"
)

// BenchmarkResult captures latency statistics for one workload.
type BenchmarkResult struct {
	Workload       string        `json:"workload"`           // Descriptive name of the workload
	FieldsPerReq   int           `json:"fields_per_request"` // Distinct fields named by each request
	Workers        int           `json:"workers"`            // Number of concurrent workers
	Iterations     int           `json:"iterations"`         // Acquisitions per worker
	TotalDuration  time.Duration `json:"total_duration_ns"`  // Wall time for the workload
	AvgDuration    time.Duration `json:"avg_duration_ns"`    // Average acquire-to-release time
	MinDuration    time.Duration `json:"min_duration_ns"`    // Fastest acquisition
	MaxDuration    time.Duration `json:"max_duration_ns"`    // Slowest acquisition
	MedianDuration time.Duration `json:"median_duration_ns"` // Median acquisition
	P95Duration    time.Duration `json:"p95_duration_ns"`    // 95th percentile
	P99Duration    time.Duration `json:"p99_duration_ns"`    // 99th percentile
	OpsPerSecond   float64       `json:"ops_per_second"`     // Throughput
	Contended      int64         `json:"contended"`          // Entries that required parking
	ErrorCount     int           `json:"error_count"`        // Failed acquisitions
	ErrorSamples   []string      `json:"error_samples"`      // Sample error messages
	Timestamp      time.Time     `json:"timestamp"`
}

// BenchmarkReport aggregates results from all workloads.
type BenchmarkReport struct {
	StartTime     time.Time         `json:"start_time"`
	EndTime       time.Time         `json:"end_time"`
	TotalDuration time.Duration     `json:"total_duration"`
	Results       []BenchmarkResult `json:"results"`
}

// workload prepares one request builder per worker. Builders are called once
// per iteration and must name int field 0 of the first structure they lock.
type workload struct {
	name   string
	fields int
	setup  func(workers int) (func(n int) (*lock.Request, *structure.Structure), error)
}

// main runs every workload and writes a JSON report.
//
// Environment variables:
//   - BENCHMARK_OUTPUT: Directory for output reports (default: ./benchmark-results)
//   - BENCHMARK_ITERATIONS: Acquisitions per worker (default: 10000)
//   - BENCHMARK_WORKERS: Number of concurrent workers (default: 8)
func main() {
	outputDir := filepath.Clean(os.Getenv("BENCHMARK_OUTPUT"))
	if outputDir == "." {
		outputDir = "./benchmark-results"
	}

	iterations := 10000
	if iter := os.Getenv("BENCHMARK_ITERATIONS"); iter != "" {
		_, _ = fmt.Sscanf(iter, "%d", &iterations)
	}

	workers := 8
	if w := os.Getenv("BENCHMARK_WORKERS"); w != "" {
		_, _ = fmt.Sscanf(w, "%d", &workers)
	}

	_ = os.MkdirAll(outputDir, 0o750) // #nosec G703

	log.Printf("Starting lock benchmark suite...")
	log.Printf("Workers: %d, Iterations: %d", workers, iterations)

	report := BenchmarkReport{StartTime: time.Now()}

	for _, wl := range workloads() {
		log.Printf("%s", "\n"+strings.Repeat("=", 80))
		log.Printf("WORKLOAD: %s", wl.name)
		log.Printf("%s", strings.Repeat("=", 80))

		for _, n := range []int{1, workers} {
			log.Printf("→ %d worker(s), %d iterations each...", n, iterations)
			result, err := runBenchmark(wl, n, iterations)
			if err != nil {
				log.Printf("  setup failed: %v", err)
				continue
			}
			report.Results = append(report.Results, result)
			printBenchmarkResult(result)
		}
	}

	report.EndTime = time.Now()
	report.TotalDuration = report.EndTime.Sub(report.StartTime)

	timestamp := time.Now().Format("20060102_150405")
	jsonFile := fmt.Sprintf("%s/lock_benchmark_%s.json", outputDir, timestamp)

	log.Printf("%s", "\n"+strings.Repeat("=", 80))
	log.Printf("BENCHMARK SUITE COMPLETE")
	log.Printf("    Total Duration:     %s", formatDuration(report.TotalDuration))
	log.Printf("    Runs:               %d", len(report.Results))
	saveJSONReport(report, jsonFile)
}

func newType(name, fields string) (*structure.Type, error) {
	defs, err := structure.ParseFields(fields)
	if err != nil {
		return nil, err
	}
	return structure.NewType(name, defs)
}

func workloads() []workload {
	return []workload{
		{
			name:   "private structure per worker",
			fields: 1,
			setup: func(workers int) (func(int) (*lock.Request, *structure.Structure), error) {
				typ, err := newType("Private", "n:int")
				if err != nil {
					return nil, err
				}
				own := make([]*structure.Structure, workers)
				for i := range own {
					own[i] = structure.New(typ)
				}
				return func(n int) (*lock.Request, *structure.Structure) {
					return lock.NewRequest().AddField(own[n], "n"), own[n]
				}, nil
			},
		},
		{
			name:   "single shared field",
			fields: 1,
			setup: func(int) (func(int) (*lock.Request, *structure.Structure), error) {
				typ, err := newType("Shared", "n:int")
				if err != nil {
					return nil, err
				}
				s := structure.New(typ)
				return func(int) (*lock.Request, *structure.Structure) {
					return lock.NewRequest().AddField(s, "n"), s
				}, nil
			},
		},
		{
			name:   "crossed pair",
			fields: 2,
			setup: func(int) (func(int) (*lock.Request, *structure.Structure), error) {
				typ, err := newType("Cell", "n:int")
				if err != nil {
					return nil, err
				}
				a, b := structure.New(typ), structure.New(typ)
				return func(n int) (*lock.Request, *structure.Structure) {
					if n%2 == 0 {
						return lock.NewRequest().AddField(a, "n").AddField(b, "n"), a
					}
					return lock.NewRequest().AddField(b, "n").AddField(a, "n"), b
				}, nil
			},
		},
		{
			name:   "wide request across two structures",
			fields: 16,
			setup: func(int) (func(int) (*lock.Request, *structure.Structure), error) {
				var counts [types.KindCount]int
				counts[types.IntKind] = 4
				counts[types.FloatKind] = 2
				counts[types.StringKind] = 1
				counts[types.BlobKind] = 1
				typ, err := structure.NewAnonymousType("Wide", counts)
				if err != nil {
					return nil, err
				}
				a, b := structure.New(typ), structure.New(typ)
				return func(int) (*lock.Request, *structure.Structure) {
					return lock.NewRequest().AddAll(b).AddAll(a), a
				}, nil
			},
		},
	}
}

// runBenchmark spawns workers on a scheduler; each performs iterations
// acquire / increment / release cycles and records the cycle latency.
func runBenchmark(wl workload, workers, iterations int) (BenchmarkResult, error) {
	build, err := wl.setup(workers)
	if err != nil {
		return BenchmarkResult{}, err
	}

	m := lock.NewManager()
	sched := worker.NewScheduler(context.Background(), worker.Options{})

	var mu sync.Mutex
	durations := make([]time.Duration, 0, workers*iterations)
	errorCount := 0
	errorSamples := make([]string, 0, 5)

	startTime := time.Now()
	for n := range workers {
		sched.Spawn(fmt.Sprintf("bench-%d", n), func(ctx context.Context, w *worker.Worker) error {
			local := make([]time.Duration, 0, iterations)
			var failures []error
			for range iterations {
				req, target := build(n)
				cycleStart := time.Now()
				err := m.DoContext(ctx, req, func() error {
					v, err := target.GetInt(0)
					if err != nil {
						return err
					}
					return target.SetInt(0, v+1)
				})
				local = append(local, time.Since(cycleStart))
				if err != nil {
					failures = append(failures, err)
				}
			}

			mu.Lock()
			durations = append(durations, local...)
			errorCount += len(failures)
			for _, f := range failures {
				if len(errorSamples) < 5 {
					errorSamples = append(errorSamples, f.Error())
				}
			}
			mu.Unlock()
			return nil
		})
	}
	_ = sched.Wait()
	totalDuration := time.Since(startTime)

	slices.Sort(durations)

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	total := len(durations)
	return BenchmarkResult{
		Workload:       wl.name,
		FieldsPerReq:   wl.fields,
		Workers:        workers,
		Iterations:     iterations,
		TotalDuration:  totalDuration,
		AvgDuration:    sum / time.Duration(max(1, total)),
		MinDuration:    percentile(durations, 0),
		MaxDuration:    percentile(durations, 1),
		MedianDuration: percentile(durations, 0.5),
		P95Duration:    percentile(durations, 0.95),
		P99Duration:    percentile(durations, 0.99),
		OpsPerSecond:   float64(total) / totalDuration.Seconds(),
		Contended:      m.Stats().Contended,
		ErrorCount:     errorCount,
		ErrorSamples:   errorSamples,
		Timestamp:      time.Now(),
	}, nil
}

// percentile returns the p-quantile of sorted durations.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	i := int(float64(len(sorted)-1) * p)
	return sorted[i]
}

// formatDuration formats a duration in a human-readable way with appropriate units.
// Examples: 1.23ms, 456.78µs, 12.34s
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.2fms", float64(d.Microseconds())/1000.0)
	case d >= time.Microsecond:
		return fmt.Sprintf("%.2fµs", float64(d.Nanoseconds())/1000.0)
	default:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	}
}

func printBenchmarkResult(result BenchmarkResult) {
	log.Printf("  ┌─ Results")
	log.Printf("  │  Total Time:        %s", formatDuration(result.TotalDuration))
	log.Printf("  │  Avg per Cycle:     %s", formatDuration(result.AvgDuration))
	log.Printf("  │  Min / Max:         %s / %s", formatDuration(result.MinDuration), formatDuration(result.MaxDuration))
	log.Printf("  │  Median (P50):      %s", formatDuration(result.MedianDuration))
	log.Printf("  │  P95 / P99:         %s / %s", formatDuration(result.P95Duration), formatDuration(result.P99Duration))
	log.Printf("  │  Throughput:        %.0f cycles/sec", result.OpsPerSecond)
	log.Printf("  │  Contended:         %d", result.Contended)

	if result.ErrorCount > 0 {
		log.Printf("  │  ⚠ %d failed cycles, e.g. %s", result.ErrorCount, result.ErrorSamples[0])
	}
	log.Printf("  └─")
}

// saveJSONReport serializes the benchmark report to a JSON file.
func saveJSONReport(report BenchmarkReport, filename string) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Printf("Error marshaling report: %v", err)
		return
	}

	if err := os.WriteFile(filename, data, 0o600); err != nil { // #nosec G703
		log.Printf("Error writing JSON report: %v", err)
		return
	}

	log.Printf("JSON report saved: %s", filename) // #nosec G706
}
