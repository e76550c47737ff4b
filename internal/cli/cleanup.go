package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/contentworkshop/studioload/internal/config"
	"github.com/contentworkshop/studioload/internal/scenario"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete leftover test channels from interrupted runs",
	Long: `Log in with the test account and delete every editable channel whose
name starts with the test-channel prefix. Normal runs delete their channels
as they go; cleanup covers runs that were killed mid-iteration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveCleanupConfig(cmd)
		if err != nil {
			return err
		}
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		return runCleanup(cmd.Context(), cfg, dryRun, cmd)
	},
}

func init() {
	cleanupCmd.Flags().String("config", "", "Path to a YAML config file")
	cleanupCmd.Flags().String("base-url", "", "Base URL of the target application")
	cleanupCmd.Flags().String("prefix", "", "Channel name prefix to match")
	cleanupCmd.Flags().Bool("dry-run", false, "List matching channels without deleting")
	cleanupCmd.Flags().Bool("insecure", false, "Skip TLS certificate verification")
}

func resolveCleanupConfig(cmd *cobra.Command) (config.Config, error) {
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
	if prefix, _ := cmd.Flags().GetString("prefix"); prefix != "" {
		cfg.ChannelNamePrefix = prefix
	}
	if insecure, _ := cmd.Flags().GetBool("insecure"); insecure {
		cfg.InsecureSkipVerify = true
	}
	if cfg.BaseURL == "" {
		return config.Config{}, fmt.Errorf("baseUrl is required")
	}
	return cfg, nil
}

func runCleanup(ctx context.Context, cfg config.Config, dryRun bool, cmd *cobra.Command) error {
	prefix := cfg.ChannelNamePrefix
	if prefix == "" {
		prefix = scenario.DefaultChannelNamePrefix
	}

	session := newSession(cfg)
	if err := session.Login(ctx); err != nil {
		return fmt.Errorf("logging in: %w", err)
	}

	channels, err := session.ListEditChannels(ctx)
	if err != nil {
		return fmt.Errorf("listing edit channels: %w", err)
	}

	var matched, deleted, failed int
	for _, channel := range channels {
		if !strings.HasPrefix(channel.Name, prefix) {
			continue
		}
		matched++
		if dryRun {
			cmd.Printf("would delete %s (%s)\n", channel.ID, channel.Name)
			continue
		}
		if err := session.DeleteChannel(ctx, channel.ID); err != nil {
			failed++
			cmd.PrintErrf("failed to delete %s (%s): %v\n", channel.ID, channel.Name, err)
			continue
		}
		deleted++
		cmd.Printf("deleted %s (%s)\n", channel.ID, channel.Name)
	}

	if matched == 0 {
		cmd.Printf("no channels matching prefix %q\n", prefix)
		return nil
	}
	if dryRun {
		cmd.Printf("%d channels would be deleted\n", matched)
		return nil
	}
	cmd.Printf("%d deleted, %d failed\n", deleted, failed)
	if failed > 0 {
		return fmt.Errorf("%d channels could not be deleted", failed)
	}
	return nil
}
