package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "FINKBRIDGE_CONFIG"
	logLevelEnv       = "FINKBRIDGE_LOG_LEVEL"
	databaseDSNEnv    = "DATABASE_DSN"
	skyportalURLEnv   = "SKYPORTAL_URL"
	skyportalTokenEnv = "SKYPORTAL_TOKEN"
	skyportalGroupEnv = "SKYPORTAL_GROUP"
	whitelistedEnv    = "SKYPORTAL_WHITELISTED"
)

// Config holds high-level settings required across the application.
type Config struct {
	SkyPortal SkyPortalConfig `yaml:"skyportal"`
	Taxonomy  TaxonomyConfig  `yaml:"taxonomy"`
	Stream    StreamConfig    `yaml:"stream"`
	Alerts    AlertConfig     `yaml:"alerts"`
	Governor  GovernorConfig  `yaml:"governor"`
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SkyPortalConfig describes how to reach the platform and which entities to post under.
type SkyPortalConfig struct {
	URL         string        `yaml:"url"`
	Token       string        `yaml:"token"`
	Group       string        `yaml:"group"`
	Stream      string        `yaml:"stream"`
	Filter      string        `yaml:"filter"`
	Whitelisted bool          `yaml:"whitelisted"`
	AuthorName  string        `yaml:"authorName"`
	Timeout     time.Duration `yaml:"timeout"`
}

// TaxonomyConfig selects the taxonomy published at startup and the matcher prefixes.
type TaxonomyConfig struct {
	Path     string   `yaml:"path"`
	Prefixes []string `yaml:"prefixes"`
}

// StreamConfig defines the alert transport and the poll loop policy.
type StreamConfig struct {
	Kind       string        `yaml:"kind"`
	Path       string        `yaml:"path"`
	MaxTimeout time.Duration `yaml:"maxTimeout"`
	// MaxIdlePolls stops the loop after that many consecutive empty polls; zero polls forever.
	MaxIdlePolls int `yaml:"maxIdlePolls"`
	// Subscribe limits delivery to these topics; alerts without a topic always pass.
	Subscribe []string `yaml:"subscribe"`
	Topics    map[string]TopicConfig `yaml:"topics"`
}

// TopicConfig is the fallback classification attached to alerts of a topic.
type TopicConfig struct {
	Classification string   `yaml:"classification"`
	Probability    *float64 `yaml:"probability"`
}

// AlertConfig holds constants applied during field extraction.
type AlertConfig struct {
	Instruments []string       `yaml:"instruments"`
	MagSys      string         `yaml:"magsys"`
	Filters     map[int]string `yaml:"filters"`
}

// GovernorConfig defines the spacing between submissions.
type GovernorConfig struct {
	Delay time.Duration `yaml:"delay"`
}

// DatabaseConfig describes the optional Postgres journal.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// LoggingConfig selects the slog level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
// An explicit path takes precedence over FINKBRIDGE_CONFIG.
func Load(path string) Config {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(skyportalURLEnv); v != "" {
		c.SkyPortal.URL = v
	}
	if v := os.Getenv(skyportalTokenEnv); v != "" {
		c.SkyPortal.Token = v
	}
	if v := os.Getenv(skyportalGroupEnv); v != "" {
		c.SkyPortal.Group = v
	}
	if v := os.Getenv(whitelistedEnv); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.SkyPortal.Whitelisted = b
		} else {
			log.Printf("config: ignoring %s=%q: %v", whitelistedEnv, v, err)
		}
	}
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.SkyPortal.URL != "" {
		base.SkyPortal.URL = override.SkyPortal.URL
	}
	if override.SkyPortal.Token != "" {
		base.SkyPortal.Token = override.SkyPortal.Token
	}
	if override.SkyPortal.Group != "" {
		base.SkyPortal.Group = override.SkyPortal.Group
	}
	if override.SkyPortal.Stream != "" {
		base.SkyPortal.Stream = override.SkyPortal.Stream
	}
	if override.SkyPortal.Filter != "" {
		base.SkyPortal.Filter = override.SkyPortal.Filter
	}
	if override.SkyPortal.AuthorName != "" {
		base.SkyPortal.AuthorName = override.SkyPortal.AuthorName
	}
	if override.SkyPortal.Timeout > 0 {
		base.SkyPortal.Timeout = override.SkyPortal.Timeout
	}
	base.SkyPortal.Whitelisted = base.SkyPortal.Whitelisted || override.SkyPortal.Whitelisted

	if override.Taxonomy.Path != "" {
		base.Taxonomy.Path = override.Taxonomy.Path
	}
	if override.Taxonomy.Prefixes != nil {
		base.Taxonomy.Prefixes = override.Taxonomy.Prefixes
	}

	if override.Stream.Kind != "" {
		base.Stream.Kind = override.Stream.Kind
	}
	if override.Stream.Path != "" {
		base.Stream.Path = override.Stream.Path
	}
	if override.Stream.MaxTimeout > 0 {
		base.Stream.MaxTimeout = override.Stream.MaxTimeout
	}
	if override.Stream.MaxIdlePolls > 0 {
		base.Stream.MaxIdlePolls = override.Stream.MaxIdlePolls
	}
	if len(override.Stream.Subscribe) > 0 {
		base.Stream.Subscribe = override.Stream.Subscribe
	}
	if len(override.Stream.Topics) > 0 {
		base.Stream.Topics = override.Stream.Topics
	}

	if len(override.Alerts.Instruments) > 0 {
		base.Alerts.Instruments = override.Alerts.Instruments
	}
	if override.Alerts.MagSys != "" {
		base.Alerts.MagSys = override.Alerts.MagSys
	}
	if len(override.Alerts.Filters) > 0 {
		base.Alerts.Filters = override.Alerts.Filters
	}

	if override.Governor.Delay > 0 {
		base.Governor.Delay = override.Governor.Delay
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	return base
}

func defaultConfig() Config {
	return Config{
		SkyPortal: SkyPortalConfig{
			URL:        "http://localhost:5000",
			Group:      "Fink",
			Stream:     "fink_stream",
			Filter:     "fink_filter",
			AuthorName: "fink_client",
			Timeout:    30 * time.Second,
		},
		Stream: StreamConfig{
			Kind:       "replay",
			MaxTimeout: 5 * time.Second,
		},
		Alerts: AlertConfig{
			Instruments: []string{"CFH12k", "ZTF"},
			MagSys:      "ab",
			Filters:     map[int]string{1: "ztfg", 2: "ztfr", 3: "ztfi"},
		},
		Governor: GovernorConfig{Delay: time.Second},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
	}
}
