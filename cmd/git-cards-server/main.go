// Package main provides the git-cards server binary.
// The server renders SVG stat cards for GitHub profiles.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gitcards/git-cards/internal/config"
	"github.com/gitcards/git-cards/internal/pkg/logger"
	"github.com/gitcards/git-cards/internal/server"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "git-cards-server",
		Short: "git-cards server - SVG stat cards for GitHub profiles",
		Long: `git-cards server renders embeddable SVG cards from public GitHub data.

The server exposes:
  - /api/code_identifiers  top declared identifiers across a user's repos
  - /api/language_stats    language share by bytes of code
  - /healthz, /readyz      health endpoints
  - /metrics               Prometheus metrics (when enabled)

Examples:
  git-cards-server                        # Start with defaults on :8080
  git-cards-server --port 9090            # Custom port
  git-cards-server --token ghp_xxx        # Authenticated GitHub requests
  git-cards-server -c config.yaml         # Load a config file`,
		RunE:         runServer,
		SilenceUsage: true,
	}

	rootCmd.Flags().StringP("config", "c", "", "config file path")
	rootCmd.Flags().BoolP("verbose", "v", false, "verbose logging")
	rootCmd.Flags().IntP("port", "p", 8080, "HTTP server port")
	rootCmd.Flags().String("host", "0.0.0.0", "server host")
	rootCmd.Flags().String("token", "", "GitHub API token (overrides config)")
	rootCmd.Flags().Bool("no-web", false, "disable the HTML landing page")

	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Flags override file and environment settings.
	if cmd.Flags().Changed("port") {
		cfg.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("host") {
		cfg.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("token") {
		cfg.GitHub.Token, _ = cmd.Flags().GetString("token")
	}
	if noWeb, _ := cmd.Flags().GetBool("no-web"); noWeb {
		cfg.EnableWeb = false
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.Log.Level = "debug"
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	srvCfg := server.DefaultConfig()
	srvCfg.Version = version

	srv, err := server.New(srvCfg, cfg, log)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return srv.Stop(shutdownCtx)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("git-cards-server %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
		},
	}
}
