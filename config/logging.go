package config

import (
	"go.uber.org/zap/zapcore"

	"github.com/spacemeshos/go-janus/log"
)

// LogEncoder defines a log encoder kind.
type LogEncoder = string

const (
	defaultLoggingLevel = zapcore.InfoLevel
	// ConsoleLogEncoder represents logging with plain text.
	ConsoleLogEncoder LogEncoder = log.ConsoleEncoder
	// JSONLogEncoder represents logging with JSON.
	JSONLogEncoder LogEncoder = log.JSONEncoder
)

// Logger names.
const (
	AppLogger          = "app"
	TimelineLogger     = "timeline"
	SynchronizerLogger = "synchronizer"
	TransportLogger    = "transport"
	ServerLogger       = "server"
	ClientLogger       = "client"
	APILogger          = "api"
	MetricsLogger      = "metrics"
)

// LoggerConfig holds the logging level for each module.
type LoggerConfig struct {
	Encoder                 LogEncoder `mapstructure:"log-encoder"`
	AppLoggerLevel          string     `mapstructure:"app"`
	TimelineLoggerLevel     string     `mapstructure:"timeline"`
	SynchronizerLoggerLevel string     `mapstructure:"synchronizer"`
	TransportLoggerLevel    string     `mapstructure:"transport"`
	ServerLoggerLevel       string     `mapstructure:"server"`
	ClientLoggerLevel       string     `mapstructure:"client"`
	APILoggerLevel          string     `mapstructure:"api"`
	MetricsLoggerLevel      string     `mapstructure:"metrics"`
}

// Level returns the configured level of a module logger. Unknown modules
// and empty values fall back to the app level.
func (c *LoggerConfig) Level(module string) string {
	var lvl string
	switch module {
	case TimelineLogger:
		lvl = c.TimelineLoggerLevel
	case SynchronizerLogger:
		lvl = c.SynchronizerLoggerLevel
	case TransportLogger:
		lvl = c.TransportLoggerLevel
	case ServerLogger:
		lvl = c.ServerLoggerLevel
	case ClientLogger:
		lvl = c.ClientLoggerLevel
	case APILogger:
		lvl = c.APILoggerLevel
	case MetricsLogger:
		lvl = c.MetricsLoggerLevel
	}
	if lvl == "" {
		lvl = c.AppLoggerLevel
	}
	if lvl == "" {
		lvl = defaultLoggingLevel.String()
	}
	return lvl
}

// defaultLoggingConfig leaves module levels empty so that they follow the
// app level.
func defaultLoggingConfig() LoggerConfig {
	return LoggerConfig{
		Encoder:        ConsoleLogEncoder,
		AppLoggerLevel: defaultLoggingLevel.String(),
	}
}
