package timeline

// Handlers are invoked from Step after the timeline lock is released, so they
// may read from and insert into the timeline.

// OnEntryInserted registers a handler for every inserted entry, local or remote.
func (t *Timeline[T]) OnEntryInserted(h EntryHandler[T]) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onInserted = append(t.onInserted, h)
}

// OnRemoteEntryInserted registers a handler for entries received from the network.
func (t *Timeline[T]) OnRemoteEntryInserted(h EntryHandler[T]) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onRemoteInserted = append(t.onRemoteInserted, h)
}

// OnEntryPassed registers a handler for entries that are at or before now,
// either because they were inserted in the past or because now reached them.
func (t *Timeline[T]) OnEntryPassed(h EntryHandler[T]) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onPassed = append(t.onPassed, h)
}

// OnEntryMet registers a handler for entries that now moved across.
func (t *Timeline[T]) OnEntryMet(h EntryHandler[T]) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onMet = append(t.onMet, h)
}

// ClearHandlers removes all entry handlers.
func (t *Timeline[T]) ClearHandlers() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onInserted, t.onRemoteInserted, t.onPassed, t.onMet = nil, nil, nil, nil
}
