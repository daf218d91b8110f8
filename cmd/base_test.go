package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/spacemeshos/go-janus/config"
	"github.com/spacemeshos/go-janus/log/logtest"
	"github.com/spacemeshos/go-janus/synchronizer"
	"github.com/spacemeshos/go-janus/transport"
)

func newCommand(conf *config.Config) (*cobra.Command, *string) {
	c := &cobra.Command{Use: "test"}
	return c, AddFlags(c.PersistentFlags(), conf)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestConfigure(t *testing.T) {
	path := writeConfig(t, `
[transport]
network = "quic"
receive-rate = 50.0

[manager]
correction-factor = 2.0
`)
	for _, tc := range []struct {
		desc   string
		args   []string
		expect func(*testing.T, *config.Config)
	}{
		{
			desc: "file over defaults",
			args: []string{"-c", path},
			expect: func(t *testing.T, conf *config.Config) {
				require.Equal(t, transport.QUIC, conf.Transport.Network)
				require.Equal(t, 50.0, conf.Transport.ReceiveRate)
				require.Equal(t, 2.0, conf.Manager.CorrectionFactor)
				require.Equal(t, path, conf.ConfigFile)
			},
		},
		{
			desc: "flags over file",
			args: []string{"-c", path, "--network", "tcp", "--correction-factor", "3"},
			expect: func(t *testing.T, conf *config.Config) {
				require.Equal(t, transport.TCP, conf.Transport.Network)
				require.Equal(t, 50.0, conf.Transport.ReceiveRate)
				require.Equal(t, 3.0, conf.Manager.CorrectionFactor)
			},
		},
		{
			desc: "preset under file",
			args: []string{"-p", "lan", "-c", path},
			expect: func(t *testing.T, conf *config.Config) {
				require.Equal(t, "lan", conf.Preset)
				require.Equal(t, synchronizer.MostRecent, conf.Synchronizer.SamplingRule)
				require.Equal(t, transport.QUIC, conf.Transport.Network)
			},
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			conf := config.DefaultConfig()
			c, configPath := newCommand(&conf)
			require.NoError(t, c.ParseFlags(tc.args))
			require.NoError(t, Configure(c, tc.args, *configPath, &conf))
			tc.expect(t, &conf)
		})
	}
}

func TestConfigurePresetFromFile(t *testing.T) {
	path := writeConfig(t, `preset = "wan"`)
	conf := config.DefaultConfig()
	c, configPath := newCommand(&conf)
	args := []string{"-c", path}
	require.NoError(t, c.ParseFlags(args))
	require.NoError(t, Configure(c, args, *configPath, &conf))
	require.Equal(t, "wan", conf.Preset)
	require.Equal(t, transport.QUIC, conf.Transport.Network)
}

func TestConfigureErrors(t *testing.T) {
	for _, tc := range []struct {
		desc string
		args []string
		err  string
	}{
		{"unknown preset", []string{"-p", "mars"}, "not registered"},
		{"missing file", []string{"-c", filepath.Join(t.TempDir(), "none.toml")}, "failed to read config file"},
		{"invalid value", []string{"--network", "sctp"}, "unknown network"},
		{"unknown key", []string{"-c", writeConfig(t, "[server]\nlisen = \":1\"\n")}, "lisen"},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			conf := config.DefaultConfig()
			c, configPath := newCommand(&conf)
			require.NoError(t, c.ParseFlags(tc.args))
			require.ErrorContains(t, Configure(c, tc.args, *configPath, &conf), tc.err)
		})
	}
}

func TestNewLoggers(t *testing.T) {
	conf := config.DefaultConfig()
	loggers, err := NewLoggers(conf.LOGGING)
	require.NoError(t, err)
	require.NotNil(t, loggers.Get(config.ServerLogger))

	conf.LOGGING.TransportLoggerLevel = "loud"
	_, err = NewLoggers(conf.LOGGING)
	require.ErrorContains(t, err, "transport")

	conf.LOGGING = config.LoggerConfig{Encoder: "xml"}
	_, err = NewLoggers(conf.LOGGING)
	require.Error(t, err)
}

func TestStartMetrics(t *testing.T) {
	conf := config.DefaultConfig()
	ctx, cancel := context.WithCancel(context.Background())
	var eg errgroup.Group
	StartMetrics(ctx, &eg, &conf, logtest.New(t), "test")
	cancel()
	require.NoError(t, eg.Wait())

	conf.CollectMetrics = true
	conf.MetricsListen = "127.0.0.1:0"
	ctx, cancel = context.WithCancel(context.Background())
	StartMetrics(ctx, &eg, &conf, logtest.New(t), "test")
	cancel()
	require.NoError(t, eg.Wait())
}
