package config

import (
	"fmt"
	"strings"

	"github.com/cartape/cartape/pipeline/match"
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

// DownloadSettings holds playlist download configuration.
type DownloadSettings struct {
	// Spotify API credentials; may also come from the environment
	// (SPOTIFY_CLIENT_ID / SPOTIFY_CLIENT_SECRET).
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`

	Threads    int    `yaml:"threads"`
	MaxRetries int    `yaml:"max_retries"`
	Format     string `yaml:"format"`
	Bitrate    string `yaml:"bitrate"`
	Output     string `yaml:"output"`
}

// SetDefaults sets default values for DownloadSettings.
func (d *DownloadSettings) SetDefaults() {
	if d.Threads == 0 {
		d.Threads = 4
	}
	if d.MaxRetries == 0 {
		d.MaxRetries = 3
	}
	if d.Format == "" {
		d.Format = "mp3"
	}
	if d.Bitrate == "" {
		d.Bitrate = "192k"
	}
	if d.Output == "" {
		d.Output = "downloads"
	}
}

// Validate validates DownloadSettings.
func (d *DownloadSettings) Validate() error {
	d.ClientID = strings.TrimSpace(d.ClientID)
	d.ClientSecret = strings.TrimSpace(d.ClientSecret)

	missing := []string{}
	if d.ClientID == "" {
		missing = append(missing, "client_id")
	}
	if d.ClientSecret == "" {
		missing = append(missing, "client_secret")
	}
	if len(missing) > 0 {
		return &ConfigError{
			Message: fmt.Sprintf(
				"Missing Spotify %s. Provide download.%s in the configuration file or set SPOTIFY_CLIENT_ID / SPOTIFY_CLIENT_SECRET",
				strings.Join(missing, " and "), strings.Join(missing, " and download."),
			),
		}
	}

	if d.Threads < 1 || d.Threads > 16 {
		return &ConfigError{
			Message: fmt.Sprintf("Invalid threads: %d. Must be between 1 and 16", d.Threads),
		}
	}

	if d.Format != "mp3" {
		return &ConfigError{
			Message: fmt.Sprintf("Invalid format: %s. Only mp3 is supported", d.Format),
		}
	}

	return nil
}

// CleanerSettings holds the optional Ollama metadata cleaner configuration.
type CleanerSettings struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// CarAudioSettings holds car-audio export configuration.
type CarAudioSettings struct {
	Enabled bool   `yaml:"enabled"`
	Output  string `yaml:"output"`
}

// SetDefaults sets default values for CarAudioSettings.
func (c *CarAudioSettings) SetDefaults() {
	if c.Output == "" {
		c.Output = "car_audio"
	}
}

// Config is the root configuration model.
type Config struct {
	Download DownloadSettings `yaml:"download"`
	Match    match.Weights    `yaml:"match"`
	Cleaner  CleanerSettings  `yaml:"cleaner"`
	CarAudio CarAudioSettings `yaml:"car_audio"`
}

// SetDefaults sets default values across all sections.
func (c *Config) SetDefaults() {
	c.Download.SetDefaults()
	c.Match.SetDefaults()
	c.CarAudio.SetDefaults()
}

// Validate validates the configuration after defaults are applied.
func (c *Config) Validate() error {
	if err := c.Download.Validate(); err != nil {
		return err
	}
	if err := c.Match.Validate(); err != nil {
		return &ConfigError{Message: err.Error()}
	}
	return nil
}
