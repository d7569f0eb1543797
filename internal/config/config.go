package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/newthinker/prism/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig              `mapstructure:"server"`
	Storage     StorageConfig             `mapstructure:"storage"`
	Data        DataConfig                `mapstructure:"data"`
	Strategies  map[string]StrategyConfig `mapstructure:"strategies"`
	WalkForward WalkForwardConfig         `mapstructure:"walkforward"`
	Regime      RegimeConfig              `mapstructure:"regime"`
	Metrics     MetricsConfig             `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	APIKey      string `mapstructure:"api_key"`
	JobTTLHours int    `mapstructure:"job_ttl_hours"`
	MaxJobs     int    `mapstructure:"max_jobs"`
}

type StorageConfig struct {
	Type string   `mapstructure:"type"` // "localfs" or "s3"
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// DataConfig points at the candle files used for offline runs.
type DataConfig struct {
	Dir string `mapstructure:"dir"`
}

type StrategyConfig struct {
	Enabled bool           `mapstructure:"enabled"`
	Params  map[string]any `mapstructure:"params"`
}

// WalkForwardConfig carries the default fold geometry. Individual runs
// may override any of these per request.
type WalkForwardConfig struct {
	TrainDays          int              `mapstructure:"train_days"`
	TestDays           int              `mapstructure:"test_days"`
	StepDays           int              `mapstructure:"step_days"`
	MinFolds           int              `mapstructure:"min_folds"`
	ReoptimizeEachFold bool             `mapstructure:"reoptimize_each_fold"`
	Objective          string           `mapstructure:"objective"`
	SearchSpace        map[string][]any `mapstructure:"search_space"`
}

// RegimeConfig locates the regime definition file and restricts
// classification to a scope when set.
type RegimeConfig struct {
	ConfigPath string `mapstructure:"config_path"`
	Scope      string `mapstructure:"scope"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			JobTTLHours: 1,
			MaxJobs:     100,
		},
		Storage: StorageConfig{
			Type: "localfs",
			Path: "./reports",
		},
		Data: DataConfig{
			Dir: "./data",
		},
		WalkForward: WalkForwardConfig{
			TrainDays:          90,
			TestDays:           30,
			StepDays:           30,
			MinFolds:           3,
			ReoptimizeEachFold: true,
			Objective:          "total_return",
		},
		Regime: RegimeConfig{
			ConfigPath: "./configs/regimes.json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	if c.WalkForward.TrainDays <= 0 || c.WalkForward.TestDays <= 0 || c.WalkForward.StepDays <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("walkforward windows must be positive, got train=%d test=%d step=%d",
				c.WalkForward.TrainDays, c.WalkForward.TestDays, c.WalkForward.StepDays))
	}
	if c.WalkForward.MinFolds < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("min_folds cannot be negative, got %d", c.WalkForward.MinFolds))
	}

	switch c.Storage.Type {
	case "localfs":
		if c.Storage.Path == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("storage path required when type is localfs"))
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("s3 bucket required when type is s3"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown storage type %q", c.Storage.Type))
	}

	if c.Regime.ConfigPath == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("regime config_path is required"))
	}

	return nil
}
