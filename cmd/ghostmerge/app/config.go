package app

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/ghostmerge/pkg/engine"
	"github.com/agentstation/ghostmerge/pkg/errors"
)

// EnvPrefix namespaces the environment variables read into the merge
// configuration, as in GHOSTMERGE_THRESHOLD.
const EnvPrefix = "GHOSTMERGE"

// Config holds the application configuration loaded from config files,
// environment variables and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Debug   bool
	Quiet   bool
	NoColor bool
	Format  string

	// ConfigFile is the file the merge configuration was read from, if any.
	ConfigFile string

	// Engine is the merge configuration.
	Engine engine.Config

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
//  1. Command-line flags (applied later by UpdateFromFlags and the commands)
//  2. GHOSTMERGE_* environment variables
//  3. .env files
//  4. Config file (configFile, or ~/.ghostmerge.yaml and ./.ghostmerge.yaml)
//  5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	loadEnvFiles()

	cfg, used, err := LoadEngineConfig(configFile)
	if err != nil {
		return nil, err
	}

	return &Config{
		ConfigFile: used,
		Engine:     cfg,
		Format:     os.Getenv(EnvPrefix + "_FORMAT"),
		NoColor:    os.Getenv("NO_COLOR") != "",
		LogLevel:   os.Getenv("LOG_LEVEL"),
		LogFormat:  getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput:  getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}, nil
}

// LoadEngineConfig reads the merge configuration. An explicit configFile
// must exist; the default locations are optional. The returned path is the
// file actually read, or empty.
func LoadEngineConfig(configFile string) (engine.Config, string, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v, engine.DefaultConfig())

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".ghostmerge")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			if os.IsNotExist(err) {
				return engine.Config{}, "", errors.NewNotFoundError("config file", configFile)
			}
			return engine.Config{}, "", errors.NewConfigError("config", "cannot read "+configFile, err)
		}
	}

	var cfg engine.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return engine.Config{}, "", errors.NewConfigError("config", "cannot decode "+v.ConfigFileUsed(), err)
	}
	if err := cfg.Validate(); err != nil {
		return engine.Config{}, "", errors.NewConfigError("config", err.Error(), err)
	}
	return cfg, v.ConfigFileUsed(), nil
}

// setDefaults registers every key so environment variables are picked up
// by Unmarshal.
func setDefaults(v *viper.Viper, d engine.Config) {
	v.SetDefault("match_weight_title", d.WeightTitle)
	v.SetDefault("match_weight_description", d.WeightDescription)
	v.SetDefault("match_weight_finding_type", d.WeightFindingType)
	v.SetDefault("match_weight_impact", d.WeightImpact)
	v.SetDefault("match_weight_mitigation", d.WeightMitigation)
	v.SetDefault("match_min_title", d.MinTitle)
	v.SetDefault("threshold", d.Threshold)
	v.SetDefault("orphan_pass_threshold", d.OrphanPassThreshold)
	v.SetDefault("auto_accept_threshold", d.AutoAcceptThreshold)
	v.SetDefault("low_risk_fields", d.LowRiskFields)
	v.SetDefault("required_fields", d.RequiredFields)
	v.SetDefault("automated_defaults", d.AutomatedDefaults)
	v.SetDefault("allowed_severities", d.AllowedSeverities)
	v.SetDefault("scan_fields", d.ScanFields)
	v.SetDefault("sensitivity_policy", d.SensitivityPolicy)
	v.SetDefault("sensitivity_terms_file", d.SensitivityTermsFile)
	v.SetDefault("id_start", d.IDStart)
	v.SetDefault("max_decision_attempts", d.MaxDecisionAttempts)
	v.SetDefault("output_suffix", d.OutputSuffix)
	v.SetDefault("concurrency", d.Concurrency)
}

// UpdateFromFlags updates config values from parsed command flags so flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, debug, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose || debug
	c.Debug = debug
	c.Quiet = quiet
	c.NoColor = c.NoColor || noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
// .env.local is loaded first so its values win.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
