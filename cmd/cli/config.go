package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/makersmarket/lifecycle/internal/costs"
	"github.com/makersmarket/lifecycle/internal/initialization"
)

// Config holds all engine configuration. It is loaded once and passed by
// value into the container; nothing reads configuration after startup.
type Config struct {
	HTTPAddress string

	MongoURI      string
	MongoDatabase string

	S3Region          string
	S3Bucket          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Endpoint        string

	RedisAddr       string
	RedisPassword   string
	CacheTTLMinutes int

	ExecutorConcurrency int
	AlertErrorThreshold int

	// Cron specs for the three background scans. Empty disables a scan.
	TempCleanupSchedule      string
	RetentionScanSchedule    string
	OrphanScanSchedule       string
	HealthCheckSchedule      string
	ComplianceReportSchedule string

	Pricing costs.PricingTable `mapstructure:"pricing"`
}

// LoadConfig loads configuration from a config file and environment
// variables, with env vars taking precedence.
func LoadConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envMappings := map[string]string{
		"HTTPAddress":              "HTTP_ADDRESS",
		"MongoURI":                 "MONGO_URI",
		"MongoDatabase":            "MONGO_DATABASE",
		"S3Region":                 "S3_REGION",
		"S3Bucket":                 "S3_BUCKET",
		"S3AccessKeyID":            "S3_ACCESS_KEY_ID",
		"S3SecretAccessKey":        "S3_SECRET_ACCESS_KEY",
		"S3Endpoint":               "S3_ENDPOINT",
		"RedisAddr":                "REDIS_ADDR",
		"RedisPassword":            "REDIS_PASSWORD",
		"CacheTTLMinutes":          "CACHE_TTL_MINUTES",
		"ExecutorConcurrency":      "EXECUTOR_CONCURRENCY",
		"AlertErrorThreshold":      "ALERT_ERROR_THRESHOLD",
		"TempCleanupSchedule":      "TEMP_CLEANUP_SCHEDULE",
		"RetentionScanSchedule":    "RETENTION_SCAN_SCHEDULE",
		"OrphanScanSchedule":       "ORPHAN_SCAN_SCHEDULE",
		"HealthCheckSchedule":      "HEALTH_CHECK_SCHEDULE",
		"ComplianceReportSchedule": "COMPLIANCE_REPORT_SCHEDULE",
	}

	for configKey, envVar := range envMappings {
		if err := v.BindEnv(configKey, envVar); err != nil {
			log.Warn().Err(err).Msgf("Failed to bind environment variable %s for %s", envVar, configKey)
		}
	}

	v.SetConfigName("lifecycle_config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("$HOME/.lifecycle")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Debug().Msg("Config file not found, using environment variables and defaults")
	} else {
		log.Info().Msgf("Using config file: %s", v.ConfigFileUsed())
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTPAddress", ":8081")
	v.SetDefault("MongoDatabase", "lifecycle")
	v.SetDefault("CacheTTLMinutes", 15)

	// Nightly scans, staggered so they do not compete for the stores.
	v.SetDefault("TempCleanupSchedule", "0 1 * * *")
	v.SetDefault("RetentionScanSchedule", "0 2 * * *")
	v.SetDefault("OrphanScanSchedule", "0 3 * * *")
	v.SetDefault("HealthCheckSchedule", "*/30 * * * *")
	v.SetDefault("ComplianceReportSchedule", "0 4 * * 0")
}

// ContainerConfig maps the loaded configuration onto the container's wiring
// config.
func (c *Config) ContainerConfig() initialization.ContainerConfig {
	return initialization.ContainerConfig{
		MongoURI:            c.MongoURI,
		MongoDatabase:       c.MongoDatabase,
		S3Region:            c.S3Region,
		S3Bucket:            c.S3Bucket,
		S3AccessKeyID:       c.S3AccessKeyID,
		S3SecretAccessKey:   c.S3SecretAccessKey,
		S3Endpoint:          c.S3Endpoint,
		RedisAddr:           c.RedisAddr,
		RedisPassword:       c.RedisPassword,
		CacheTTL:            time.Duration(c.CacheTTLMinutes) * time.Minute,
		ExecutorConcurrency: c.ExecutorConcurrency,
		AlertErrorThreshold: c.AlertErrorThreshold,
		Pricing:             c.Pricing,
	}
}
