package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/seatq/seatq/internal/models"
)

const configFile = ".seatq/config.json"

// Defaults for sync tuning. Each can be overridden per project in config.json
// or via SEATQ_* env vars.
const (
	DefaultSyncInterval   = 60 * time.Second
	DefaultProbeInterval  = 5 * time.Second
	DefaultRetryDelay     = 5 * time.Second
	DefaultSyncTimeout    = 30 * time.Second
	DefaultCacheTTL       = 5 * time.Minute
	DefaultGraceWindow    = 5 * time.Minute
	DefaultMaxRetryCount  = 3
	DefaultMaxQueueSize   = 1000
	DefaultErrorThreshold = 0
	DefaultEscalateAfter  = 3
)

// Config is the per-project configuration stored at .seatq/config.json.
type Config struct {
	ServerURL string `json:"server_url"`
	APIKey    string `json:"api_key,omitempty"`

	// Current page context used for ambient cache refresh after sync passes.
	Context models.Context `json:"context"`

	SyncInterval   string `json:"sync_interval,omitempty"`
	ProbeInterval  string `json:"probe_interval,omitempty"`
	RetryDelay     string `json:"retry_delay,omitempty"`
	SyncTimeout    string `json:"sync_timeout,omitempty"`
	CacheTTL       string `json:"cache_ttl,omitempty"`
	GraceWindow    string `json:"grace_window,omitempty"`
	MaxRetryCount  *int   `json:"max_retry_count,omitempty"`
	MaxQueueSize   *int   `json:"max_queue_size,omitempty"`
	ErrorThreshold *int   `json:"error_threshold,omitempty"`
	EscalateAfter  *int   `json:"escalate_after,omitempty"`
}

// Load reads the config from disk. A missing file yields an empty config.
func Load(baseDir string) (*Config, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, configFile))
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the config to disk using atomic write (temp file + rename).
func Save(baseDir string, cfg *Config) error {
	configPath := filepath.Join(baseDir, configFile)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "config-*.json.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	return os.Rename(tmpName, configPath)
}

// GetServerURL returns the remote service URL.
// Priority: SEATQ_SERVER_URL env > config.json.
func (c *Config) GetServerURL() string {
	if v := os.Getenv("SEATQ_SERVER_URL"); v != "" {
		return v
	}
	return c.ServerURL
}

// GetAPIKey returns the API key. Priority: SEATQ_API_KEY env > config.json.
func (c *Config) GetAPIKey() string {
	if v := os.Getenv("SEATQ_API_KEY"); v != "" {
		return v
	}
	return c.APIKey
}

// GetContext returns the current page context, with SEATQ_GROUP / SEATQ_DAY /
// SEATQ_TIMESLOT env overrides applied on top of config.json.
func (c *Config) GetContext() models.Context {
	ctx := c.Context
	if v := os.Getenv("SEATQ_GROUP"); v != "" {
		ctx.Group = v
	}
	if v := os.Getenv("SEATQ_DAY"); v != "" {
		ctx.Day = v
	}
	if v := os.Getenv("SEATQ_TIMESLOT"); v != "" {
		ctx.Timeslot = v
	}
	return ctx
}

func duration(envKey, configured string, def time.Duration) time.Duration {
	if v := os.Getenv(envKey); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	if configured != "" {
		if d, err := time.ParseDuration(configured); err == nil {
			return d
		}
	}
	return def
}

func count(envKey string, configured *int, def int) int {
	if v := os.Getenv(envKey); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	if configured != nil && *configured >= 0 {
		return *configured
	}
	return def
}

// GetSyncInterval returns the background sync interval.
func (c *Config) GetSyncInterval() time.Duration {
	return duration("SEATQ_SYNC_INTERVAL", c.SyncInterval, DefaultSyncInterval)
}

// GetProbeInterval returns the connectivity probe interval.
func (c *Config) GetProbeInterval() time.Duration {
	return duration("SEATQ_PROBE_INTERVAL", c.ProbeInterval, DefaultProbeInterval)
}

// GetRetryDelay returns the delay before a pass-level retry.
func (c *Config) GetRetryDelay() time.Duration {
	return duration("SEATQ_RETRY_DELAY", c.RetryDelay, DefaultRetryDelay)
}

// GetSyncTimeout returns the wall-clock bound on a whole sync pass.
func (c *Config) GetSyncTimeout() time.Duration {
	return duration("SEATQ_SYNC_TIMEOUT", c.SyncTimeout, DefaultSyncTimeout)
}

// GetCacheTTL returns the cache entry expiry.
func (c *Config) GetCacheTTL() time.Duration {
	return duration("SEATQ_CACHE_TTL", c.CacheTTL, DefaultCacheTTL)
}

// GetGraceWindow returns the validator's time-based leniency window.
func (c *Config) GetGraceWindow() time.Duration {
	return duration("SEATQ_GRACE_WINDOW", c.GraceWindow, DefaultGraceWindow)
}

// GetMaxRetryCount returns the per-operation and pass-level retry ceiling.
func (c *Config) GetMaxRetryCount() int {
	return count("SEATQ_MAX_RETRY_COUNT", c.MaxRetryCount, DefaultMaxRetryCount)
}

// GetMaxQueueSize returns the operation queue cap.
func (c *Config) GetMaxQueueSize() int {
	return count("SEATQ_MAX_QUEUE_SIZE", c.MaxQueueSize, DefaultMaxQueueSize)
}

// GetErrorThreshold returns the per-pass error count above which a pass counts
// toward escalation.
func (c *Config) GetErrorThreshold() int {
	return count("SEATQ_ERROR_THRESHOLD", c.ErrorThreshold, DefaultErrorThreshold)
}

// GetEscalateAfter returns how many consecutive bad passes trigger escalation.
func (c *Config) GetEscalateAfter() int {
	return count("SEATQ_ESCALATE_AFTER", c.EscalateAfter, DefaultEscalateAfter)
}
