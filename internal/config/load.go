package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// NewViper returns a viper instance that reads environment variables named
// PREFIX_KEY and, when file is set, the given config file. A .env file in the
// working directory, if present, is loaded into the environment first.
func NewViper(prefix, file string) (*viper.Viper, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}
	return v, nil
}

// BindFlags binds every flag except skip to the config key of the same name,
// with dashes turned into underscores: --engine-addr sets engine_addr.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet, skip ...string) error {
	skipped := make(map[string]bool, len(skip))
	for _, name := range skip {
		skipped[name] = true
	}

	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		if err != nil || skipped[f.Name] {
			return
		}
		err = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})
	return err
}

// Load decodes the agent runner configuration from v on top of Default
func Load(v *viper.Viper) (*Config, error) {
	cfg := Default()
	if v.IsSet("players") {
		// Decoding merges into existing slice elements, so start from an
		// empty roster when one is configured.
		cfg.Players = nil
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	return cfg, nil
}

// LoadController decodes the controller configuration from v on top of
// DefaultController.
func LoadController(v *viper.Viper) (*ControllerConfig, error) {
	cfg := DefaultController()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	return cfg, nil
}
