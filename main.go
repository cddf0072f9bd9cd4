package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"cardiac/cmd"
	"cardiac/internal/config"
	"cardiac/internal/display"
	"cardiac/internal/log"
	"cardiac/internal/monitor"
	"cardiac/internal/rtic"
	"cardiac/internal/sensor"
	"cardiac/internal/tui"
	"cardiac/pkg/build"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"
)

// frameInterval caps the terminal refresh rate. The analysis loop runs much
// faster than a terminal can redraw.
const frameInterval = 50 * time.Millisecond

// main is the entry point for the pulse oximeter monitor.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Configure runtime settings
//   - Parse command line arguments and load configuration
//   - Execute one-off commands if requested
//   - Open the sensor and the display
//
// 2. Concurrent Phase (Hot Path):
//   - Start the periodic sample task
//   - Run the analysis loop
//   - Run the terminal UI, if selected
//
// 3. Shutdown Phase (Cold Path):
//   - Handle termination signals, UI quit or a kernel fault
//   - Halt the kernel and wait for in-flight activations
//   - Close the sensor
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	// Initialize build information including version, commit hash, and build time
	if err := build.Initialize(); err != nil {
		log.Debugf("Development build: %v", err)
	}

	// Limit OS threads:
	// - One thread for the analysis loop (it never sleeps)
	// - One thread for the sample task, the UI and I/O
	runtime.GOMAXPROCS(2)

	// Parse command line arguments and load configuration
	opts, err := cmd.ParseArgs()
	if err != nil {
		log.Fatal(err)
	}

	// Commands that need no configuration
	switch opts.Command {
	case cmd.CommandHelp:
		return
	case cmd.CommandVersion:
		fmt.Println(build.GetBuildFlags())
		return
	}
	cfg := opts.Config

	if level, ok := log.ParseLevel(cfg.LogLevel); ok {
		log.SetLevel(level)
	} else {
		log.Warnf("Unknown log level %q, keeping %s", cfg.LogLevel, log.GetLevel())
	}
	if cfg.Debug {
		log.SetLevel(log.LevelDebug)
	}

	// Handle one-off commands that don't need the kernel running
	if opts.Command != "" {
		if err := executeCommand(opts); err != nil {
			log.Fatal(err)
		}
		return
	}

	s, err := sensor.Open(cfg.Sensor)
	if err != nil {
		log.Fatalf("Failed to open sensor: %v", err)
	}

	k := rtic.New(nil)

	var (
		screen *tui.Display
		out    display.Display
	)
	switch cfg.Display.Mode {
	case config.DisplayTUI:
		// The terminal belongs to the UI, so logs go to a file.
		logFile, err := os.CreateTemp("", build.GetBuildFlags().Name+"-*.log")
		if err != nil {
			log.Fatalf("Failed to create log file: %v", err)
		}
		defer logFile.Close()
		log.SetOutput(logFile)
		defer func() {
			log.SetOutput(os.Stderr)
			fmt.Printf("Logs written to %s\n", logFile.Name())
		}()

		screen = tui.NewDisplay(build.GetBuildFlags().String(), cfg.Display.Width, cfg.Display.Height,
			frameInterval, tea.WithAltScreen())
		out = screen
	default:
		out = display.NewLoggingDisplay(cfg.Display.LogInterval, nil)
	}

	engine := monitor.New(k, s, out)
	if screen != nil {
		screen.SetStatus(func() string { return engine.Stats().String() })
	}

	log.Infof("Starting %s", build.GetBuildFlags())

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	// Setup signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var g errgroup.Group

	// CRITICAL: Start of real-time processing
	// Run arms the first sample task activation and then spins the
	// analysis loop until ctx ends or the kernel halts.
	g.Go(func() error {
		err := engine.Run(ctx)
		if screen != nil {
			if err != nil {
				// Leave the fault on screen until the user quits.
				screen.Fail(err)
			} else {
				screen.Quit()
			}
		}
		return err
	})

	if screen != nil {
		g.Go(func() error {
			defer cancel()
			if err := screen.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return fmt.Errorf("terminal UI: %w", err)
			}
			return nil
		})
	}

	runErr := g.Wait()

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	if err := k.Close(); err != nil {
		log.Errorf("Error halting kernel: %v", err)
	}
	if err := s.Close(); err != nil {
		log.Errorf("Error closing sensor: %v", err)
	}
	log.Infof("Stopped: %s", engine.Stats())

	if runErr != nil {
		log.SetOutput(os.Stderr)
		log.Fatalf("Monitor halted: %v", runErr)
	}
}

// executeCommand handles one-off commands that need the configuration but
// not the kernel.
func executeCommand(opts *cmd.Options) error {
	switch opts.Command {
	case cmd.CommandCapture:
		return capture(opts.Config.Sensor.Simulated, opts.CaptureFile, opts.CaptureDuration)
	default:
		return fmt.Errorf("unknown command %q", opts.Command)
	}
}

// capture renders a simulated session to a WAV file that the replay source
// can play back. The simulated sensor runs on a synthetic clock that moves
// one sample period per read, so the capture takes no wall time.
func capture(cfg config.SimulatedConfig, path string, d time.Duration) error {
	t := time.Unix(0, 0)
	s := sensor.NewSimulated(cfg, func() time.Time {
		now := t
		t = t.Add(config.SamplePeriod)
		return now
	})

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create capture: %w", err)
	}
	defer f.Close()

	n, err := sensor.Capture(s, f, int(d/config.SamplePeriod))
	if err != nil {
		return err
	}
	fmt.Printf("Captured %d samples (%s) to %s\n", n, time.Duration(n)*config.SamplePeriod, path)
	return f.Close()
}
