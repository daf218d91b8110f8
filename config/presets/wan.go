package presets

import (
	"time"

	"github.com/spacemeshos/go-janus/config"
	"github.com/spacemeshos/go-janus/synchronizer"
	"github.com/spacemeshos/go-janus/transport"
)

func init() {
	register("wan", wan())
}

// wan tunes for peers behind lossy links with jittery round trips.
func wan() config.Config {
	conf := config.DefaultConfig()
	conf.Synchronizer.PingRate = 2
	conf.Synchronizer.SamplingRule = synchronizer.BestRTTs
	conf.Synchronizer.EntryCacheSize = 8
	conf.Transport.Network = transport.QUIC
	conf.Transport.DialTimeout = 30 * time.Second
	conf.Transport.KeepAlive = 5 * time.Second
	conf.Manager.CorrectionFactor = 0.5
	conf.Manager.MinCorrectionRate = 0.25
	return conf
}
