package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/tofscope/tofscope/internal/geometry"
	"github.com/tofscope/tofscope/internal/physics"
)

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads configuration like Load, reading the given config file
// instead of searching the default locations when path is not empty.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read from environment variables, e.g. TOFSCOPE_DETECTOR_LAYER_COUNT
	v.SetEnvPrefix("tofscope")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/tofscope")

		// Ignore error if config file not found
		_ = v.ReadInConfig()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	// Validate required fields
	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.env", "development")
	v.SetDefault("server.ingest_rate_limit", 0)

	// PostgreSQL defaults
	v.SetDefault("postgres.enabled", false)
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "tofscope")
	v.SetDefault("postgres.password", "tofscope")
	v.SetDefault("postgres.database", "tofscope")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 25)
	v.SetDefault("postgres.min_conns", 5)

	// ClickHouse defaults
	v.SetDefault("clickhouse.enabled", false)
	v.SetDefault("clickhouse.host", "localhost")
	v.SetDefault("clickhouse.port", 9000)
	v.SetDefault("clickhouse.user", "tofscope")
	v.SetDefault("clickhouse.password", "tofscope")
	v.SetDefault("clickhouse.database", "tofscope")

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// MinIO defaults
	v.SetDefault("minio.enabled", false)
	v.SetDefault("minio.endpoint", "localhost:9002")
	v.SetDefault("minio.access_key", "tofscope")
	v.SetDefault("minio.secret_key", "tofscope123")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket", "tofscope-momentum")

	// Worker defaults
	v.SetDefault("worker.concurrency", 10)
	v.SetDefault("worker.queue_critical", "critical")
	v.SetDefault("worker.queue_default", "default")
	v.SetDefault("worker.queue_low", "low")
	v.SetDefault("worker.event_workers", 4)

	// Logging defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Sentry defaults
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "")
	v.SetDefault("sentry.traces_sample_rate", 0.0)

	// Detector defaults
	d := geometry.DefaultDetectorParams()
	v.SetDefault("detector.envelope_xy", d.EnvelopeXY)
	v.SetDefault("detector.envelope_z", d.EnvelopeZ)
	v.SetDefault("detector.world_factor", d.WorldFactor)
	v.SetDefault("detector.world_material", d.WorldMaterial)
	v.SetDefault("detector.envelope_material", d.EnvelopeMaterial)
	v.SetDefault("detector.layer_count", d.LayerCount)
	v.SetDefault("detector.layer_size_x", d.LayerSizeX)
	v.SetDefault("detector.layer_size_y", d.LayerSizeY)
	v.SetDefault("detector.layer_thickness", d.LayerThickness)
	v.SetDefault("detector.layer_spacing", d.LayerSpacing)
	v.SetDefault("detector.layer_material", d.LayerMaterial)
	v.SetDefault("detector.check_overlaps", d.CheckOverlaps)

	// Physics defaults
	v.SetDefault("physics.speed_of_light", physics.SpeedOfLight)
	v.SetDefault("physics.rest_mass_mev", physics.ProtonMass)

	// Output defaults
	v.SetDefault("output.momentum_log", "momentum.txt")
	v.SetDefault("output.fsync", false)
	v.SetDefault("output.queue_size", 256)
	v.SetDefault("output.archive_every", "0s")
}

func validate(cfg *Config) error {
	if err := cfg.Detector.Validate(); err != nil {
		return fmt.Errorf("invalid detector configuration: %w", err)
	}
	if cfg.Server.IngestRateLimit < 0 {
		return fmt.Errorf("server.ingest_rate_limit must not be negative")
	}
	if !(cfg.Physics.SpeedOfLight > 0) {
		return fmt.Errorf("physics.speed_of_light must be positive")
	}
	if !(cfg.Physics.RestMassMeV > 0) {
		return fmt.Errorf("physics.rest_mass_mev must be positive")
	}
	if cfg.Output.MomentumLog == "" {
		return fmt.Errorf("output.momentum_log is required")
	}
	if cfg.Worker.EventWorkers < 1 {
		return fmt.Errorf("worker.event_workers must be at least 1")
	}
	if cfg.MinIO.Enabled && cfg.MinIO.Bucket == "" {
		return fmt.Errorf("minio.bucket is required when minio is enabled")
	}
	return nil
}
