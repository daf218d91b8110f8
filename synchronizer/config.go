package synchronizer

import (
	"fmt"
	"time"

	"go.uber.org/zap/zapcore"
)

// DefaultEntryCacheSize is the number of relayed entries kept per timeline
// until a subscriber asks for another size.
const DefaultEntryCacheSize = 3

// SamplingRule selects which clock samples are averaged into a correction.
type SamplingRule string

const (
	// BestRTTs averages the samples with the lowest round trip time.
	BestRTTs SamplingRule = "best-rtts"
	// MostRecent averages the newest samples.
	MostRecent SamplingRule = "most-recent"
)

func (r SamplingRule) validate() error {
	switch r {
	case BestRTTs, MostRecent:
		return nil
	}
	return fmt.Errorf("unknown sampling rule %q", string(r))
}

// Config for Synchronizer.
type Config struct {
	// PingRate is the number of clock sync rounds per second.
	PingRate     float64      `mapstructure:"ping-rate"`
	SamplingRule SamplingRule `mapstructure:"sampling-rule"`
	// EntryCacheSize is the initial cache size of new timelines.
	EntryCacheSize uint16 `mapstructure:"entry-cache-size"`
}

// DefaultConfig for Synchronizer.
func DefaultConfig() Config {
	return Config{
		PingRate:       3.3,
		SamplingRule:   BestRTTs,
		EntryCacheSize: DefaultEntryCacheSize,
	}
}

func (c Config) Validate() error {
	if c.PingRate <= 0 {
		return fmt.Errorf("ping rate must be positive, got %v", c.PingRate)
	}
	return c.SamplingRule.validate()
}

// historySize is one minute worth of clock samples.
func (c Config) historySize() int {
	return max(1, int(60*c.PingRate))
}

func (c Config) pingPeriod() time.Duration {
	return time.Duration(float64(time.Second) / c.PingRate)
}

func (c *Config) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddFloat64("ping rate", c.PingRate)
	enc.AddString("sampling rule", string(c.SamplingRule))
	enc.AddUint16("entry cache size", c.EntryCacheSize)
	return nil
}
