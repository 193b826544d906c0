package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stathism/ClaudeOnTheBeach/internal/app"
	"github.com/stathism/ClaudeOnTheBeach/internal/config"
	"github.com/stathism/ClaudeOnTheBeach/internal/output"
	"github.com/stathism/ClaudeOnTheBeach/internal/util"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Launch Claude and start relaying the session",
	Long: `Launch Claude in a new Terminal window, connect to the relay
server, and monitor the session until interrupted.

Examples:
  # Run with defaults in the current directory
  cotb run

  # Run a project with a longer per-command timeout
  cotb run --dir ~/code/myproject --timeout 10m

  # Keep local copies of every screenshot
  cotb run --screenshots ~/cotb-shots`,
	RunE: runRun,
}

var (
	runServerURL   string
	runConfigPath  string
	runScreenshots string
	runDir         string
	runTimeout     string
	runVerbose     bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runServerURL, "server", "", "Relay server websocket URL")
	runCmd.Flags().StringVar(&runConfigPath, "config", "", "Config file path (default ~/.cotb.toml)")
	runCmd.Flags().StringVar(&runScreenshots, "screenshots", "", "Folder for local screenshot copies")
	runCmd.Flags().StringVar(&runDir, "dir", "", "Directory to start Claude in (default cwd)")
	runCmd.Flags().StringVar(&runTimeout, "timeout", "", "Per-command monitoring timeout (e.g. 300s, 10m)")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Verbose output")
}

func runRun(cmd *cobra.Command, args []string) error {
	con := output.Default(runVerbose)

	cfgPath := runConfigPath
	if cfgPath == "" {
		cfgPath = config.DefaultPath()
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	opts := app.Options{
		ServerURL:   runServerURL,
		Screenshots: runScreenshots,
	}
	if runTimeout != "" {
		d, err := util.ParseDuration(runTimeout)
		if err != nil {
			return fmt.Errorf("invalid --timeout: %w", err)
		}
		opts.Timeout = d
	}

	startDir := runDir
	if startDir == "" {
		if startDir, err = os.Getwd(); err != nil {
			return err
		}
	}

	stopWatch, err := config.Watch(cfgPath, func(updated *config.Config) {
		con.Info("configuration changed, applies to the next run")
	})
	if err != nil {
		con.Debug("config watch unavailable: %v", err)
	} else {
		defer stopWatch()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := app.New(cfg, opts, con)
	return a.Run(ctx, startDir)
}
