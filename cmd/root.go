package cmd

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/spacemeshos/go-janus/config"
	"github.com/spacemeshos/go-janus/config/presets"
)

// AddFlags adds the flags shared by janus executables to flagSet and binds
// them to cfg. It returns the location of the config file path flag.
func AddFlags(flagSet *pflag.FlagSet, cfg *config.Config) (configPath *string) {
	configPath = flagSet.StringP("config", "c", "", "load configuration from file (toml, yaml or json)")
	flagSet.StringVarP(&cfg.Preset, "preset", "p", cfg.Preset,
		fmt.Sprintf("preset overwrites default values of the config. options %+s", presets.Options()))

	/** ======================== Base Flags ========================== **/
	flagSet.StringVar(&cfg.LOGGING.Encoder, "log-encoder",
		cfg.LOGGING.Encoder, "log as json or console")
	flagSet.StringVar(&cfg.LOGGING.AppLoggerLevel, "log-level",
		cfg.LOGGING.AppLoggerLevel, "default level of every module logger")
	flagSet.BoolVar(&cfg.CollectMetrics, "metrics",
		cfg.CollectMetrics, "collect and serve metrics")
	flagSet.StringVar(&cfg.MetricsListen, "metrics-listen",
		cfg.MetricsListen, "metrics server address")
	flagSet.StringVar(&cfg.MetricsPush, "metrics-push",
		cfg.MetricsPush, "push metrics to url")
	flagSet.DurationVar(&cfg.MetricsPushPeriod, "metrics-push-period",
		cfg.MetricsPushPeriod, "push period")

	/** ======================== Transport Flags ========================== **/
	flagSet.StringVar((*string)(&cfg.Transport.Network), "network",
		string(cfg.Transport.Network), "transport network, tcp or quic")
	flagSet.IntVar(&cfg.Transport.MaxMessageSize, "max-message-size",
		cfg.Transport.MaxMessageSize, "largest accepted frame in bytes")
	flagSet.Float64Var(&cfg.Transport.ReceiveRate, "receive-rate",
		cfg.Transport.ReceiveRate, "frames per second read from each connection, 0 for no limit")
	flagSet.DurationVar(&cfg.Transport.DialTimeout, "dial-timeout",
		cfg.Transport.DialTimeout, "how long to wait for a connection to be established")

	/** ======================== Clock Flags ========================== **/
	flagSet.Float64Var(&cfg.Manager.CorrectionFactor, "correction-factor",
		cfg.Manager.CorrectionFactor, "scales the clock error into a correction rate")
	flagSet.Float64Var(&cfg.Manager.MinCorrectionRate, "min-correction-rate",
		cfg.Manager.MinCorrectionRate, "lowest clock correction rate in seconds per second")
	return configPath
}
