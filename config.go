package main

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/Ratio1/RedMesh-demo-sub000/pkg/redmesh"
)

// Config is the environment-derived configuration, resolved once at startup
// and passed to whoever needs it. No package-level config state.
type Config struct {
	JobAPIURL string `mapstructure:"job_api_url"`
	CStoreURL string `mapstructure:"cstore_url"`
	DataDir   string `mapstructure:"data_dir"`
	LogLevel  string `mapstructure:"log_level"`
	Demo      bool   `mapstructure:"demo"`
}

// LoadConfig reads REDMESH_* environment variables, applying defaults for
// anything unset.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("redmesh")
	v.AutomaticEnv()

	v.SetDefault("job_api_url", "http://localhost:5000")
	v.SetDefault("cstore_url", "http://localhost:31206")
	v.SetDefault("data_dir", ".")
	v.SetDefault("log_level", "info")
	v.SetDefault("demo", "0")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Demo accepts the usual flag spellings (1/0, yes/no, on/off), not just
	// strconv bools.
	cfg.Demo = redmesh.ParseBool(v.GetString("demo"), false)

	return cfg, nil
}
