// Copyright (c) 2025, the streamdarr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/streamdarr/streamdarr/internal/arr"
	"github.com/streamdarr/streamdarr/internal/buildinfo"
	"github.com/streamdarr/streamdarr/internal/config"
	"github.com/streamdarr/streamdarr/internal/debrid"
	"github.com/streamdarr/streamdarr/internal/metrics"
	"github.com/streamdarr/streamdarr/internal/notify"
	"github.com/streamdarr/streamdarr/internal/processor"
	"github.com/streamdarr/streamdarr/internal/streams"
)

func main() {
	config.InitDefaultLogger(buildinfo.Version)

	var rootCmd = &cobra.Command{
		Use:   "streamdarr",
		Short: "Bridge Radarr/Sonarr wanted lists to a cached-stream index",
		Long: `streamdarr - polls Radarr and Sonarr for wanted media, queries an
AIOStreams-compatible index for cached results, triggers debrid downloads
and verifies they landed.`,
	}

	rootCmd.Version = buildinfo.Version

	rootCmd.AddCommand(RunServeCommand())
	rootCmd.AddCommand(RunVersionCommand(buildinfo.Version))
	rootCmd.AddCommand(RunGenerateConfigCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func RunServeCommand() *cobra.Command {
	var (
		configDir string
		logPath   string
	)

	var command = &cobra.Command{
		Use:   "serve",
		Short: "Start the polling daemon",
	}

	command.Flags().StringVar(&configDir, "config-dir", "", "config directory path (default is OS-specific: ~/.config/streamdarr/). Can also be a direct path to a .toml file")
	command.Flags().StringVar(&logPath, "log-path", "", "log file path (default is stdout)")

	command.Run = func(cmd *cobra.Command, args []string) {
		app := NewApplication(configDir, logPath)
		app.run()
	}

	return command
}

func RunVersionCommand(version string) *cobra.Command {
	var command = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of streamdarr",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}

	return command
}

func RunGenerateConfigCommand() *cobra.Command {
	var configDir string

	command := &cobra.Command{
		Use:   "generate-config",
		Short: "Generate a default configuration file",
		Long: `Generate a default configuration file without starting the daemon.

If no --config-dir is specified, uses the OS-specific default location:
- Linux/macOS: ~/.config/streamdarr/config.toml
- Windows: %APPDATA%\streamdarr\config.toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var configPath string
			if configDir != "" {
				if strings.HasSuffix(strings.ToLower(configDir), ".toml") {
					configPath = configDir
				} else if info, err := os.Stat(configDir); err == nil && !info.IsDir() {
					configPath = configDir
				} else {
					configPath = filepath.Join(configDir, "config.toml")
				}
			} else {
				configPath = filepath.Join(config.GetDefaultConfigDir(), "config.toml")
			}

			if _, err := os.Stat(configPath); err == nil {
				cmd.Printf("Configuration file already exists at: %s\n", configPath)
				cmd.Println("Skipping generation to avoid overwriting existing configuration.")
				return nil
			}

			if err := config.WriteDefaultConfig(configPath); err != nil {
				return fmt.Errorf("failed to create configuration file: %w", err)
			}

			cmd.Printf("Configuration file created successfully at: %s\n", configPath)
			return nil
		},
	}

	command.Flags().StringVar(&configDir, "config-dir", "",
		"config directory or file path (defaults to OS-specific location)")

	return command
}

type Application struct {
	configDir string
	logPath   string
}

func NewApplication(configDir, logPath string) *Application {
	return &Application{
		configDir: configDir,
		logPath:   logPath,
	}
}

func (app *Application) run() {
	cfg, err := config.New(app.configDir, buildinfo.Version)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize configuration")
	}

	if app.logPath != "" {
		cfg.Config.LogPath = app.logPath
	}

	cfg.ApplyLogConfig()

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().Str("version", buildinfo.Version).Msg("Starting streamdarr")
	if cfg.Config.RadarrEnabled() {
		log.Info().Str("url", cfg.Config.RadarrURL).Msg("Radarr configured")
	}
	if cfg.Config.SonarrEnabled() {
		log.Info().Str("url", cfg.Config.SonarrURL).Msg("Sonarr configured")
	}
	log.Info().Str("url", cfg.Config.AIOStreamsURL).Msg("AIOStreams configured")
	log.Info().
		Int("pollIntervalMinutes", cfg.Config.PollIntervalMinutes).
		Int("retryFailedHours", cfg.Config.RetryFailedHours).
		Msg("Polling configuration")

	// Wire collaborators. Movies are always processed before episodes.
	var sources []processor.WantedSource
	if cfg.Config.RadarrEnabled() {
		sources = append(sources, arr.NewClient(arr.MediaKindMovie, cfg.Config.RadarrURL, cfg.Config.RadarrAPIKey))
	}
	if cfg.Config.SonarrEnabled() {
		sources = append(sources, arr.NewClient(arr.MediaKindEpisode, cfg.Config.SonarrURL, cfg.Config.SonarrAPIKey))
	}

	searchClient := streams.NewClient(cfg.Config.AIOStreamsURL)
	prober := streams.NewProber()

	var opts []processor.Option
	if cfg.Config.RealDebridAPIKey != "" {
		opts = append(opts, processor.WithDebridLister(debrid.NewClient(cfg.Config.RealDebridAPIKey)))
		log.Info().Msg("Real-Debrid verification enabled")
	}
	if cfg.Config.DiscordWebhookURL != "" {
		opts = append(opts, processor.WithNotifier(notify.NewDiscord(cfg.Config.DiscordWebhookURL)))
		log.Info().Msg("Discord notifications enabled")
	}

	var promMetrics *metrics.Metrics
	if cfg.Config.MetricsEnabled {
		promMetrics = metrics.New()
		opts = append(opts, processor.WithMetrics(promMetrics))
	}

	procCfg := processor.Config{
		PollInterval:     time.Duration(cfg.Config.PollIntervalMinutes) * time.Minute,
		RetryFailedAfter: time.Duration(cfg.Config.RetryFailedHours) * time.Hour,
	}
	svc := processor.NewService(procCfg, processor.NewSkipCache(), sources, searchClient, prober, opts...)

	procCtx, procCancel := context.WithCancel(context.Background())
	defer procCancel()
	svc.Start(procCtx)

	errorChannel := make(chan error)
	if cfg.Config.MetricsEnabled {
		go func() {
			metricsServer := metrics.NewServer(cfg.Config.MetricsHost, cfg.Config.MetricsPort)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errorChannel <- err
			}
		}()
	}

	// Wait for interrupt signal to gracefully shut down
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Msgf("got signal %v, shutting down", sig.String())
	case err := <-errorChannel:
		log.Error().Err(err).Msg("got unexpected error from metrics server")
	}

	procCancel()
	os.Exit(0)
}
