package synchronizer

import (
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/spacemeshos/go-janus/message"
)

type clockSample struct {
	rtt    float32
	offset float32
}

type peer struct {
	index     uint16
	connected map[uint16]*timelineInfo

	// byAge and byImportance hold the same samples.
	byAge        []*clockSample
	byImportance []*clockSample
	lastRTT      float32
	correction   float32

	outgoing          []message.Message
	bytesIn, bytesOut int
	pinging           bool
}

func newPeer(index uint16) *peer {
	return &peer{index: index, connected: map[uint16]*timelineInfo{}}
}

func (p *peer) enqueue(msg message.Message) {
	p.outgoing = append(p.outgoing, msg)
}

func (p *peer) drain() []message.Message {
	msgs := p.outgoing
	p.outgoing = nil
	for _, msg := range msgs {
		p.bytesOut += len(msg.Payload)
	}
	return msgs
}

// addSample records a clock sample and evicts the oldest beyond history.
func (p *peer) addSample(sample *clockSample, rule SamplingRule, history int) {
	p.byAge = append(p.byAge, sample)
	pos := 0
	if rule == BestRTTs {
		pos = len(p.byImportance)
		for i, s := range p.byImportance {
			if s.rtt >= sample.rtt {
				pos = i
				break
			}
		}
	}
	p.byImportance = slices.Insert(p.byImportance, pos, sample)
	for len(p.byAge) > history {
		oldest := p.byAge[0]
		p.byAge = p.byAge[1:]
		if i := slices.Index(p.byImportance, oldest); i >= 0 {
			p.byImportance = slices.Delete(p.byImportance, i, i+1)
		}
	}
	p.lastRTT = sample.rtt
}

// clockCorrection averages the offsets of the most important samples. With
// few samples only the best one counts.
func (p *peer) clockCorrection(history int) float32 {
	n := len(p.byImportance)
	if n == 0 {
		return 0
	}
	best := 1
	if n > 8 {
		best = min(history/2, (n+1)/2)
	}
	var total float32
	for _, s := range p.byImportance[:best] {
		total += s.offset
	}
	p.correction = total / float32(best)
	return p.correction
}

// timelineInfo is the synchronizer side of one shared timeline.
type timelineInfo struct {
	id        []byte
	connected map[*peer]uint16

	cache     *lru.Cache[uint64, message.Message]
	cacheSize uint16
	seq       uint64
}

func newTimelineInfo(id []byte, cacheSize uint16) *timelineInfo {
	// lru rejects a zero size on construction, but not on resize.
	cache, err := lru.New[uint64, message.Message](max(1, int(cacheSize)))
	if err != nil {
		panic(err)
	}
	info := &timelineInfo{
		id:        id,
		connected: map[*peer]uint16{},
		cache:     cache,
		cacheSize: cacheSize,
	}
	if cacheSize == 0 {
		info.cache.Resize(0)
	}
	return info
}

func (t *timelineInfo) remember(msg message.Message) {
	t.seq++
	t.cache.Add(t.seq, msg)
}

func (t *timelineInfo) resize(size uint16) {
	t.cacheSize = size
	t.cache.Resize(int(size))
}

// cached returns the cached relays, oldest first.
func (t *timelineInfo) cached() []message.Message {
	return t.cache.Values()
}
