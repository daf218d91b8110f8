package presets

import (
	"time"

	"github.com/spacemeshos/go-janus/config"
	"github.com/spacemeshos/go-janus/synchronizer"
	"github.com/spacemeshos/go-janus/transport"
)

func init() {
	register("lan", lan())
}

// lan tunes for peers on a local network with stable low latency.
func lan() config.Config {
	conf := config.DefaultConfig()
	conf.Synchronizer.PingRate = 10
	conf.Synchronizer.SamplingRule = synchronizer.MostRecent
	conf.Transport.Network = transport.TCP
	conf.Transport.DialTimeout = 2 * time.Second
	conf.Server.StepRate = 120
	conf.Client.StepRate = 120
	return conf
}
