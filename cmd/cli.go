package cmd

import (
	"fmt"
	"os"
	"time"

	"cardiac/internal/config"
	"cardiac/pkg/build"

	"github.com/spf13/cobra"
)

// Commands other than running the monitor.
const (
	CommandVersion = "version"
	CommandCapture = "capture"

	// CommandHelp means cobra already printed help or version output and
	// there is nothing left to run. Config is nil.
	CommandHelp = "help"
)

// Options is the parsed command line: the loaded configuration with flag
// overrides applied, plus the one-off command to run, if any. Config is set
// whenever Command is empty or CommandCapture.
type Options struct {
	Config  *config.Config
	Command string

	CaptureFile     string
	CaptureDuration time.Duration
}

// ParseArgs parses os.Args. The configuration file is loaded after flag
// parsing; flags that were set explicitly override it.
func ParseArgs() (*Options, error) {
	return parse(os.Args[1:])
}

func parse(args []string) (*Options, error) {
	if args == nil {
		// cobra falls back to os.Args on a nil slice
		args = []string{}
	}
	buildInfo := build.GetBuildFlags()
	options := &Options{}

	var (
		configPath string
		logLevel   string
		source     string
		replayFile string
		headless   bool
	)

	load := func(cmd *cobra.Command) error {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if flags.Changed("sensor") {
			cfg.Sensor.Source = source
		}
		if flags.Changed("replay") {
			cfg.Sensor.Source = config.SourceReplay
			cfg.Sensor.ReplayFile = replayFile
		}
		if headless {
			cfg.Display.Mode = config.DisplayLog
		}

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		options.Config = cfg
		return nil
	}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         "Pulse oximeter monitor: heart rate and SpO2 from a red/infrared PPG sensor",
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return load(cmd)
		},
	}

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// Version command
	versionCmd := &cobra.Command{
		Use:   CommandVersion,
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = CommandVersion
		},
	}
	rootCmd.AddCommand(versionCmd)

	// Capture command
	captureCmd := &cobra.Command{
		Use:   CommandCapture,
		Short: "Write a simulated sensor capture to a WAV file for replay",
		RunE: func(cmd *cobra.Command, args []string) error {
			options.Command = CommandCapture
			if options.CaptureFile == "" {
				return fmt.Errorf("capture: --output is required")
			}
			if options.CaptureDuration < config.SamplePeriod {
				return fmt.Errorf("capture: --duration must be at least %s", config.SamplePeriod)
			}
			return load(cmd)
		},
	}
	captureCmd.Flags().StringVarP(&options.CaptureFile, "output", "o", "",
		"Output WAV file")
	captureCmd.Flags().DurationVarP(&options.CaptureDuration, "duration", "d", time.Minute,
		"Length of the capture")
	rootCmd.AddCommand(captureCmd)

	// Configuration
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Configuration file. Default is ./config.yaml when present")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info",
		"Log level (debug, info, warn, error)")

	// Sensor
	rootCmd.PersistentFlags().StringVarP(&source, "sensor", "s", config.SourceSimulated,
		"Sample source (simulated, replay)")
	rootCmd.PersistentFlags().StringVarP(&replayFile, "replay", "r", "",
		"Replay a two-channel WAV capture instead of the simulated sensor")

	// Display
	rootCmd.PersistentFlags().BoolVar(&headless, "headless", false,
		"Log readings instead of drawing the terminal UI")

	// Execute the CLI
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	// --help, --version and the hidden help command run no RunE.
	if options.Command == "" && options.Config == nil {
		options.Command = CommandHelp
	}

	return options, nil
}
