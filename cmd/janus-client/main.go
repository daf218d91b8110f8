// janus-client connects to a janus server and edits float64 timelines from
// the terminal.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spacemeshos/go-janus/client"
	"github.com/spacemeshos/go-janus/cmd"
	"github.com/spacemeshos/go-janus/config"
	"github.com/spacemeshos/go-janus/timeline"
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
	// keep the terminal for the prompt unless asked otherwise
	conf.LOGGING.AppLoggerLevel = "warn"
	var configPath *string
	c := &cobra.Command{
		Use:   "janus-client",
		Short: "connect to a janus server and edit timelines",
		RunE: func(c *cobra.Command, _ []string) error {
			if err := cmd.Configure(c, os.Args[1:], *configPath, &conf); err != nil {
				return err
			}
			c.SilenceUsage = true

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return run(ctx, &conf, os.Stdin, os.Stdout)
		},
	}
	configPath = cmd.AddFlags(c.PersistentFlags(), &conf)
	flags := c.PersistentFlags()
	flags.StringVar(&conf.Client.Server, "server",
		conf.Client.Server, "server address")
	flags.Float64Var(&conf.Client.StepRate, "step-rate",
		conf.Client.StepRate, "manager steps per second")
	c.AddCommand(cmd.VersionCmd())
	return c
}

func run(ctx context.Context, conf *config.Config, in io.Reader, out io.Writer) error {
	loggers, err := cmd.NewLoggers(conf.LOGGING)
	if err != nil {
		return err
	}
	logger := loggers.Get(config.AppLogger)
	logger.Info("starting janus client",
		zap.String("version", cmd.Version),
		zap.Object("config", conf),
	)

	m := timeline.NewManager(
		timeline.WithLogger(loggers.Get(config.TimelineLogger)),
		timeline.WithManagerConfig(conf.Manager),
	)
	r := newREPL(m, out)
	cl := client.New(m,
		client.WithLogger(loggers.Get(config.ClientLogger)),
		client.WithConfig(conf.Client),
		client.WithTransport(conf.Transport),
		client.OnConnected(func() {
			r.printf("connected to %s\n%s", conf.Client.Server, help)
		}),
		client.OnDisconnected(func(err error) {
			if err != nil {
				r.printf("disconnected: %v\n", err)
			}
		}),
	)

	eg, ctx := errgroup.WithContext(ctx)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	eg.Go(func() error {
		defer cancel()
		return cl.Run(ctx)
	})
	eg.Go(func() error {
		defer cancel()
		return r.run(ctx, in)
	})
	return eg.Wait()
}
