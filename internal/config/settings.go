package config

import "github.com/spf13/viper"

// Settings holds runtime options for one comet invocation. Values are
// populated from .comet-cli.yaml, COMET_* env vars, and CLI flags; the
// tracked .comet.yml is deliberately separate and owned by Store.
type Settings struct {
	ConfigPath   string `mapstructure:"config_path"`
	WorkDir      string `mapstructure:"work_dir"`
	Push         bool   `mapstructure:"push"`
	DryRun       bool   `mapstructure:"dry_run"`
	StateBackend bool   `mapstructure:"state_backend"`
	Verbose      bool   `mapstructure:"verbose"`
}

// LoadSettings reads invocation settings from viper, applying built-in
// defaults for any values not set by config file, environment, or flags.
func LoadSettings() Settings {
	viper.SetDefault("config_path", DefaultPath)
	viper.SetDefault("work_dir", ".")
	viper.SetDefault("push", false)
	viper.SetDefault("dry_run", false)
	viper.SetDefault("state_backend", false)
	viper.SetDefault("verbose", false)

	var s Settings
	_ = viper.Unmarshal(&s)
	return s
}
