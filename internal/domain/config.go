// Copyright (c) 2025, the streamdarr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

// Config holds the full runtime configuration, populated by viper from the
// TOML config file and STREAMDARR__ environment overrides.
type Config struct {
	Version string

	// Cached-stream index (required).
	AIOStreamsURL string `mapstructure:"aiostreamsUrl"`

	// Wanted-item trackers. At least one of the two pairs must be set.
	RadarrURL    string `mapstructure:"radarrUrl"`
	RadarrAPIKey string `mapstructure:"radarrApiKey"`
	SonarrURL    string `mapstructure:"sonarrUrl"`
	SonarrAPIKey string `mapstructure:"sonarrApiKey"`

	// Optional collaborators.
	RealDebridAPIKey  string `mapstructure:"realdebridApiKey"`
	DiscordWebhookURL string `mapstructure:"discordWebhookUrl"`

	PollIntervalMinutes int `mapstructure:"pollIntervalMinutes"`
	RetryFailedHours    int `mapstructure:"retryFailedHours"`

	LogLevel      string `mapstructure:"logLevel"`
	LogPath       string `mapstructure:"logPath"`
	LogMaxSize    int    `mapstructure:"logMaxSize"`
	LogMaxBackups int    `mapstructure:"logMaxBackups"`

	MetricsEnabled bool   `mapstructure:"metricsEnabled"`
	MetricsHost    string `mapstructure:"metricsHost"`
	MetricsPort    int    `mapstructure:"metricsPort"`
}

// RadarrEnabled reports whether the movie tracker is fully configured.
func (c *Config) RadarrEnabled() bool {
	return c.RadarrURL != "" && c.RadarrAPIKey != ""
}

// SonarrEnabled reports whether the episode tracker is fully configured.
func (c *Config) SonarrEnabled() bool {
	return c.SonarrURL != "" && c.SonarrAPIKey != ""
}
