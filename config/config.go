// Package config contains janus server and client configuration definitions
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/spacemeshos/go-janus/api"
	"github.com/spacemeshos/go-janus/client"
	"github.com/spacemeshos/go-janus/server"
	"github.com/spacemeshos/go-janus/synchronizer"
	"github.com/spacemeshos/go-janus/timeline"
	"github.com/spacemeshos/go-janus/transport"
)

// Config defines the top level configuration shared by janus executables.
type Config struct {
	BaseConfig   `mapstructure:"main"`
	Preset       string                 `mapstructure:"preset"`
	Manager      timeline.ManagerConfig `mapstructure:"manager"`
	Synchronizer synchronizer.Config    `mapstructure:"synchronizer"`
	Transport    transport.Config       `mapstructure:"transport"`
	Server       server.Config          `mapstructure:"server"`
	Client       client.Config          `mapstructure:"client"`
	API          api.Config             `mapstructure:"api"`
	LOGGING      LoggerConfig           `mapstructure:"logging"`
}

// BaseConfig defines options that are not specific to a single component.
type BaseConfig struct {
	ConfigFile string `mapstructure:"config"`

	// StartAPI serves the http inspection api next to the relay server.
	StartAPI bool `mapstructure:"start-api"`

	CollectMetrics    bool          `mapstructure:"metrics"`
	MetricsListen     string        `mapstructure:"metrics-listen"`
	MetricsPush       string        `mapstructure:"metrics-push"`
	MetricsPushPeriod time.Duration `mapstructure:"metrics-push-period"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		BaseConfig:   defaultBaseConfig(),
		Manager:      timeline.DefaultManagerConfig(),
		Synchronizer: synchronizer.DefaultConfig(),
		Transport:    transport.DefaultConfig(),
		Server:       server.DefaultConfig(),
		Client:       client.DefaultConfig(),
		API:          api.DefaultConfig(),
		LOGGING:      defaultLoggingConfig(),
	}
}

func defaultBaseConfig() BaseConfig {
	return BaseConfig{
		StartAPI:          true,
		MetricsListen:     "127.0.0.1:14290",
		MetricsPushPeriod: 60 * time.Second,
	}
}

// Validate checks every component section.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Synchronizer.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("synchronizer: %w", err))
	}
	if err := c.Transport.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("transport: %w", err))
	}
	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("server: %w", err))
	}
	if err := c.Client.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("client: %w", err))
	}
	if c.CollectMetrics && c.MetricsPush != "" && c.MetricsPushPeriod <= 0 {
		errs = append(errs, errors.New("metrics push period must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("preset", c.Preset)
	enc.AddBool("start api", c.StartAPI)
	enc.AddBool("metrics", c.CollectMetrics)
	enc.AddString("metrics listen", c.MetricsListen)
	if err := enc.AddObject("manager", &c.Manager); err != nil {
		return err
	}
	if err := enc.AddObject("synchronizer", &c.Synchronizer); err != nil {
		return err
	}
	if err := enc.AddObject("transport", &c.Transport); err != nil {
		return err
	}
	if err := enc.AddObject("server", &c.Server); err != nil {
		return err
	}
	if err := enc.AddObject("client", &c.Client); err != nil {
		return err
	}
	return enc.AddObject("api", &c.API)
}

// LoadConfig reads the config file at fileLocation into vip. The format is
// picked from the file extension.
func LoadConfig(fileLocation string, vip *viper.Viper) error {
	vip.SetConfigFile(fileLocation)
	if err := vip.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %w", err)
	}
	return nil
}

// Unmarshal decodes the values loaded into vip over cfg. Keys that do not
// map to a config field are reported as errors.
func Unmarshal(vip *viper.Viper, cfg *Config) error {
	hook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.TextUnmarshallerHookFunc(),
	)
	opts := []viper.DecoderConfigOption{
		viper.DecodeHook(hook),
		WithZeroFields(),
		WithErrorUnused(),
	}
	if err := vip.Unmarshal(cfg, opts...); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

func WithZeroFields() viper.DecoderConfigOption {
	return func(cfg *mapstructure.DecoderConfig) {
		cfg.ZeroFields = true
	}
}

func WithErrorUnused() viper.DecoderConfigOption {
	return func(cfg *mapstructure.DecoderConfig) {
		cfg.ErrorUnused = true
	}
}
