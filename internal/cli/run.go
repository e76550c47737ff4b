package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/contentworkshop/studioload/internal/config"
	"github.com/contentworkshop/studioload/internal/httpx"
	"github.com/contentworkshop/studioload/internal/loadgen"
	"github.com/contentworkshop/studioload/internal/loadgen/metrics"
	"github.com/contentworkshop/studioload/internal/scenario"
	"github.com/contentworkshop/studioload/internal/studio"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a load test against a Studio deployment",
	Long: `Start the configured number of simulated users and run the weighted
scenario mix for the configured duration.

Config file mode:
  studioload run --config load.yaml

Quick CLI mode:
  studioload run --base-url https://studio.example.org --users 20 --duration 10m`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		return runLoadTest(cmd.Context(), cfg)
	},
}

func init() {
	runCmd.Flags().String("config", "", "Path to a YAML config file")
	runCmd.Flags().String("base-url", "", "Base URL of the target application")
	runCmd.Flags().Int("users", 0, "Number of concurrent simulated users")
	runCmd.Flags().Duration("duration", 0, "Run duration (0 runs until interrupted)")
	runCmd.Flags().Duration("spawn-interval", 0, "Delay between user starts")
	runCmd.Flags().Bool("quiet", false, "Suppress live progress output")
	runCmd.Flags().Bool("insecure", false, "Skip TLS certificate verification")
}

// resolveConfig merges defaults, the optional config file, and flags, in
// that order of increasing precedence.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")

	var cfg config.Config
	var err error
	if configFile != "" {
		cfg, err = config.Load(configFile)
		if err != nil {
			return config.Config{}, err
		}
	} else {
		cfg = config.Default()
	}

	if baseURL, _ := cmd.Flags().GetString("base-url"); baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if users, _ := cmd.Flags().GetInt("users"); users > 0 {
		cfg.Users = users
	}
	if cmd.Flags().Changed("duration") {
		cfg.Duration, _ = cmd.Flags().GetDuration("duration")
	}
	if cmd.Flags().Changed("spawn-interval") {
		cfg.SpawnInterval, _ = cmd.Flags().GetDuration("spawn-interval")
	}
	if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
		cfg.Quiet = true
	}
	if insecure, _ := cmd.Flags().GetBool("insecure"); insecure {
		cfg.InsecureSkipVerify = true
	}

	return cfg, cfg.Validate()
}

// newSession builds one user's session from the config.
func newSession(cfg config.Config) *studio.Session {
	opts := []httpx.ClientOption{
		httpx.WithBaseURL(cfg.BaseURL),
		httpx.WithTimeout(cfg.RequestTimeout),
	}
	if cfg.InsecureSkipVerify {
		opts = append(opts, httpx.WithInsecureSkipVerify())
	}
	return studio.NewSession(cfg.BaseURL,
		studio.Credentials{Username: cfg.Username, Password: cfg.Password},
		studio.WithClient(httpx.NewClient(opts...)))
}

func runLoadTest(ctx context.Context, cfg config.Config) error {
	tasks := scenario.DefaultSet(scenario.Options{
		Poller: studio.Poller{
			Interval: cfg.PollInterval,
			Timeout:  cfg.PollTimeout,
		},
		ChannelNamePrefix: cfg.ChannelNamePrefix,
		ContentRootID:     cfg.ContentRootID,
		Weights:           cfg.Weights,
	})
	if tasks.Len() == 0 {
		return fmt.Errorf("all tasks weighted to zero, nothing to run")
	}

	engine := metrics.NewEngine()
	console := loadgen.NewConsole(os.Stdout, cfg.Quiet)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !cfg.Quiet {
		fmt.Printf("Starting %d users against %s", cfg.Users, cfg.BaseURL)
		if cfg.Duration > 0 {
			fmt.Printf(" for %s", cfg.Duration)
		}
		fmt.Println()
	}

	watchCtx, stopWatch := context.WithCancel(ctx)
	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		console.Watch(watchCtx, engine)
	}()

	scheduler := &loadgen.Scheduler{
		Users:         cfg.Users,
		Duration:      cfg.Duration,
		SpawnInterval: cfg.SpawnInterval,
	}
	scheduler.Run(ctx, func(id int) *loadgen.User {
		return loadgen.NewUser(id, newSession(cfg), tasks, engine, cfg.MinWait, cfg.MaxWait)
	})

	stopWatch()
	<-watchDone

	summary := engine.Snapshot()
	console.Summary(summary)

	if summary.Total == 0 {
		return fmt.Errorf("no iterations completed; check the target URL and credentials")
	}
	return nil
}
