package synchronizer

// Observer receives synchronizer events. Methods are called after the
// synchronizer released its locks, in the order the events happened, and
// may call back into the synchronizer.
type Observer interface {
	PeerConnected(peer uint16)
	PeerDisconnected(peer uint16)
	// PeerUpdated reports a completed clock sync. Traffic is in kilobits per
	// second since the previous sample.
	PeerUpdated(peer uint16, rtt float32, toKbps, fromKbps int)
	TimelineCreated(id []byte)
	// TimelineUpdated reports a changed subscriber count. It is not reported
	// when a timeline is created or destroyed.
	TimelineUpdated(subscribers int, id []byte)
	TimelineConnected(peer, remoteIndex uint16, id []byte)
	TimelineDisconnected(peer, remoteIndex uint16, id []byte)
	TimelineDestroyed(id []byte)
	TimelineSet(remoteIndex uint16, id []byte)
}

// NopObserver ignores every event. Embed it to implement a subset of Observer.
type NopObserver struct{}

func (NopObserver) PeerConnected(uint16) {}
func (NopObserver) PeerDisconnected(uint16) {}
func (NopObserver) PeerUpdated(uint16, float32, int, int) {}
func (NopObserver) TimelineCreated([]byte) {}
func (NopObserver) TimelineUpdated(int, []byte) {}
func (NopObserver) TimelineConnected(uint16, uint16, []byte) {}
func (NopObserver) TimelineDisconnected(uint16, uint16, []byte) {}
func (NopObserver) TimelineDestroyed([]byte) {}
func (NopObserver) TimelineSet(uint16, []byte) {}

type event func(Observer)

// events collects notifications while locks are held.
type events []event

func (e *events) add(ev event) {
	*e = append(*e, ev)
}
