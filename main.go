package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/isharak/ballerina/pkg/debug/lockview"
	"github.com/isharak/ballerina/pkg/logging"
	"github.com/isharak/ballerina/pkg/scenario"
)

type Configuration struct {
	Scenario   string
	Workers    int
	Iterations int
	Parallel   int
	LogLevel   string
	LogFormat  string
	LogFile    string
	TUI        bool
	List       bool
	NoSplash   bool
}

func main() {
	config := parseArguments()

	if config.List {
		listScenarios()
		return
	}

	interactive := config.TUI && term.IsTerminal(int(os.Stdout.Fd()))
	if config.TUI && !interactive {
		fmt.Fprintln(os.Stderr, "stdout is not a terminal; running without the inspector")
	}

	if err := initLogging(config, interactive); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !config.NoSplash && !interactive {
		showSplashScreen()
	}

	var err error
	if interactive {
		err = runInspector(ctx, config)
	} else {
		err = runPlain(ctx, config)
	}
	if err != nil {
		logging.Error("scenario failed", "error", err)
		fmt.Fprintln(os.Stderr, renderFailure(err))
		_ = logging.Close()
		os.Exit(1)
	}
}

// parseArguments processes command-line flags
func parseArguments() Configuration {
	var config Configuration

	flag.StringVar(&config.Scenario, "scenario", "counter",
		"Scenario to run ("+strings.Join(scenario.Names(), ", ")+")")
	flag.IntVar(&config.Workers, "workers", scenario.DefaultWorkers, "Number of workers")
	flag.IntVar(&config.Iterations, "iterations", scenario.DefaultIterations, "Iterations per worker")
	flag.IntVar(&config.Parallel, "parallel", 0, "Maximum workers running at once (0 = unbounded)")
	flag.StringVar(&config.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.StringVar(&config.LogFormat, "log-format", "text", "Log format (text or json)")
	flag.StringVar(&config.LogFile, "log-file", "", "Write logs to this file instead of stderr")
	flag.BoolVar(&config.TUI, "tui", false, "Watch the lock table in the terminal inspector")
	flag.BoolVar(&config.List, "list", false, "List scenarios and exit")
	flag.BoolVar(&config.NoSplash, "no-splash", false, "Skip the banner")

	flag.Parse()

	return config
}

func initLogging(config Configuration, interactive bool) error {
	cfg := logging.Config{
		Level:      logging.ParseLevel(config.LogLevel),
		OutputPath: config.LogFile,
		Format:     config.LogFormat,
	}
	// the inspector owns the screen
	if interactive && config.LogFile == "" {
		cfg.Writer = io.Discard
	}
	return logging.Init(cfg)
}

func listScenarios() {
	label := lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4")).Bold(true)
	for _, name := range scenario.Names() {
		desc, _ := scenario.Describe(name)
		fmt.Printf("  %s  %s\n", label.Render(fmt.Sprintf("%-9s", name)), desc)
	}
}

// showSplashScreen prints the banner
func showSplashScreen() {
	splash := `
╔════════════════════════════════════════════╗
║                                            ║
║       field locks · ordered · reentrant    ║
║                                            ║
║    structures shared safely between        ║
║    workers, without deadlock               ║
║                                            ║
╚════════════════════════════════════════════╝
`

	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#7C3AED")).
		Bold(true)

	fmt.Println(style.Render(splash))
}

func scenarioConfig(config Configuration) scenario.Config {
	return scenario.Config{
		Name:        config.Scenario,
		Workers:     config.Workers,
		Iterations:  config.Iterations,
		MaxParallel: config.Parallel,
	}
}

func runPlain(ctx context.Context, config Configuration) error {
	fmt.Printf("🔧 Running scenario '%s'...\n", config.Scenario)

	res, err := scenario.Run(ctx, scenarioConfig(config))
	if err != nil {
		return err
	}

	fmt.Println(res.String())
	fmt.Printf("   acquisitions %d, contended %d, cancelled %d\n",
		res.Stats.Acquisitions, res.Stats.Contended, res.Stats.Cancelled)
	if !res.OK() {
		return fmt.Errorf("invariant violated: expected %d, got %d", res.Expected, res.Actual)
	}
	fmt.Println("✅ Invariant held")
	return nil
}

// runInspector launches the Bubble Tea inspector and feeds it snapshots
// while the scenario runs. Quitting the inspector cancels the scenario.
func runInspector(ctx context.Context, config Configuration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(
		lockview.New(config.Scenario),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	done := make(chan error, 1)
	cfg := scenarioConfig(config)
	cfg.Observer = func(s scenario.Snapshot) {
		p.Send(lockview.SnapshotMsg(s))
	}

	go func() {
		res, err := scenario.Run(ctx, cfg)
		p.Send(lockview.DoneMsg{Result: res, Err: err})
		if err == nil && !res.OK() {
			err = fmt.Errorf("invariant violated: expected %d, got %d", res.Expected, res.Actual)
		}
		done <- err
	}()

	_, runErr := p.Run()
	cancel()
	err := <-done

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("error running program: %v", runErr)
	}
	if errors.Is(err, context.Canceled) {
		// stopped from the inspector
		return nil
	}
	return err
}

func renderFailure(err error) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true).Render("✗ " + err.Error())
}
