// Package cmd is the base package for the janus executables.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spacemeshos/go-janus/config"
	"github.com/spacemeshos/go-janus/config/presets"
	"github.com/spacemeshos/go-janus/log"
	"github.com/spacemeshos/go-janus/metrics"
)

var (
	// Version is the app's semantic version. Designed to be overwritten by make.
	Version string

	// Branch is the git branch used to build the App. Designed to be overwritten by make.
	Branch string

	// Commit is the git commit used to build the app. Designed to be overwritten by make.
	Commit string
)

// VersionCmd prints the build version.
func VersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version info",
		Run: func(c *cobra.Command, _ []string) {
			c.Printf("%s+%s+%s\n", Version, Branch, Commit)
		},
	}
}

// Configure applies the preset, then the config file, then the command line
// flags in args to conf.
func Configure(c *cobra.Command, args []string, configPath string, conf *config.Config) error {
	if conf.Preset != "" {
		p, err := presets.Get(conf.Preset)
		if err != nil {
			return err
		}
		*conf = p
	}
	if configPath != "" {
		vip := viper.New()
		if err := config.LoadConfig(configPath, vip); err != nil {
			return err
		}
		if conf.Preset == "" && vip.IsSet("preset") {
			p, err := presets.Get(vip.GetString("preset"))
			if err != nil {
				return err
			}
			*conf = p
		}
		if err := config.Unmarshal(vip, conf); err != nil {
			return err
		}
		conf.ConfigFile = configPath
	}
	// command line flags win over the file
	if err := c.ParseFlags(args); err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}
	return conf.Validate()
}

// Loggers creates one logger per module with the levels of a LoggerConfig.
type Loggers struct {
	factory *log.Factory
	cfg     config.LoggerConfig
}

// NewLoggers checks every module level and prepares the shared encoder.
func NewLoggers(cfg config.LoggerConfig) (*Loggers, error) {
	factory, err := log.NewFactory(cfg.Encoder, nil)
	if err != nil {
		return nil, err
	}
	for _, module := range []string{
		config.AppLogger,
		config.TimelineLogger,
		config.SynchronizerLogger,
		config.TransportLogger,
		config.ServerLogger,
		config.ClientLogger,
		config.APILogger,
		config.MetricsLogger,
	} {
		if _, err := zap.ParseAtomicLevel(cfg.Level(module)); err != nil {
			return nil, fmt.Errorf("%s log level: %w", module, err)
		}
	}
	return &Loggers{factory: factory, cfg: cfg}, nil
}

// Get returns the logger for module.
func (l *Loggers) Get(module string) *zap.Logger {
	logger, err := l.factory.NewFromString(module, l.cfg.Level(module))
	if err != nil {
		return l.factory.New(module, zap.NewAtomicLevel())
	}
	return logger
}

// StartMetrics serves and pushes metrics as configured. The server runs in
// eg and stops with ctx.
func StartMetrics(ctx context.Context, eg *errgroup.Group, conf *config.Config, logger *zap.Logger, instance string) {
	if !conf.CollectMetrics {
		return
	}
	eg.Go(func() error {
		return metrics.StartMetricsServer(ctx, logger, conf.MetricsListen)
	})
	if conf.MetricsPush != "" {
		metrics.StartPushingMetrics(ctx, logger, conf.MetricsPush, conf.MetricsPushPeriod, instance)
	}
}
