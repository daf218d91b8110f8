// janus-server relays timelines between connected peers and keeps their
// clocks in sync.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spacemeshos/go-janus/api"
	"github.com/spacemeshos/go-janus/cmd"
	"github.com/spacemeshos/go-janus/config"
	"github.com/spacemeshos/go-janus/server"
	"github.com/spacemeshos/go-janus/synchronizer"
	"github.com/spacemeshos/go-janus/transport"
)

var (
	version string
	commit  string
	branch  string
)

func main() {
	cmd.Version = version
	cmd.Commit = commit
	cmd.Branch = branch
	if err := getCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func getCommand() *cobra.Command {
	conf := config.DefaultConfig()
	var configPath *string
	c := &cobra.Command{
		Use:   "janus-server",
		Short: "run the timeline relay server",
		RunE: func(c *cobra.Command, _ []string) error {
			if err := cmd.Configure(c, os.Args[1:], *configPath, &conf); err != nil {
				return err
			}
			c.SilenceUsage = true

			// os.Interrupt for all systems, syscall.SIGTERM is mainly for docker.
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return run(ctx, &conf)
		},
	}
	configPath = cmd.AddFlags(c.PersistentFlags(), &conf)
	addServerFlags(c, &conf)
	c.AddCommand(cmd.VersionCmd())
	return c
}

func addServerFlags(c *cobra.Command, conf *config.Config) {
	flags := c.PersistentFlags()
	flags.StringVar(&conf.Server.Listen, "listen",
		conf.Server.Listen, "address for listening")
	flags.IntVar(&conf.Server.MaxConnections, "max-connections",
		conf.Server.MaxConnections, "peers served at once")
	flags.Float64Var(&conf.Server.StepRate, "step-rate",
		conf.Server.StepRate, "relay steps per second")
	flags.Float64Var(&conf.Synchronizer.PingRate, "ping-rate",
		conf.Synchronizer.PingRate, "clock sync rounds per second")
	flags.StringVar((*string)(&conf.Synchronizer.SamplingRule), "sampling-rule",
		string(conf.Synchronizer.SamplingRule), "clock samples averaged into a correction, best-rtts or most-recent")
	flags.Uint16Var(&conf.Synchronizer.EntryCacheSize, "entry-cache-size",
		conf.Synchronizer.EntryCacheSize, "relayed entries cached per timeline")
	flags.BoolVar(&conf.StartAPI, "api",
		conf.StartAPI, "serve the http inspection api")
	flags.StringVar(&conf.API.Listen, "api-listen",
		conf.API.Listen, "http api address")
}

func run(ctx context.Context, conf *config.Config) error {
	loggers, err := cmd.NewLoggers(conf.LOGGING)
	if err != nil {
		return err
	}
	logger := loggers.Get(config.AppLogger)
	logger.Info("starting janus server",
		zap.String("version", cmd.Version),
		zap.Object("config", conf),
	)

	syncer := synchronizer.New(
		synchronizer.WithLogger(loggers.Get(config.SynchronizerLogger)),
		synchronizer.WithConfig(conf.Synchronizer),
	)
	defer syncer.Close()

	l, err := transport.Listen(conf.Server.Listen, conf.Transport,
		transport.WithLogger(loggers.Get(config.TransportLogger)))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	defer l.Close()

	srv := server.New(syncer,
		server.WithLogger(loggers.Get(config.ServerLogger)),
		server.WithConfig(conf.Server),
	)
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return srv.Serve(ctx, l)
	})
	if conf.StartAPI {
		a := api.New(syncer,
			api.WithLogger(loggers.Get(config.APILogger)),
			api.WithConfig(conf.API),
			api.WithConnections(srv),
		)
		eg.Go(func() error {
			return a.Run(ctx)
		})
	}
	cmd.StartMetrics(ctx, eg, conf, loggers.Get(config.MetricsLogger), "janus-server")

	err = eg.Wait()
	logger.Info("janus server stopped", zap.Error(err))
	return err
}
