package api

import (
	"reflect"

	"go.uber.org/mock/gomock"

	"github.com/spacemeshos/go-janus/message"
	"github.com/spacemeshos/go-janus/server"
	"github.com/spacemeshos/go-janus/synchronizer"
)

// MocksyncState is a mock of syncState interface.
type MocksyncState struct {
	ctrl     *gomock.Controller
	recorder *MocksyncStateMockRecorder
}

// MocksyncStateMockRecorder is the mock recorder for MocksyncState.
type MocksyncStateMockRecorder struct {
	mock *MocksyncState
}

// NewMocksyncState creates a new mock instance.
func NewMocksyncState(ctrl *gomock.Controller) *MocksyncState {
	mock := &MocksyncState{ctrl: ctrl}
	mock.recorder = &MocksyncStateMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MocksyncState) EXPECT() *MocksyncStateMockRecorder {
	return m.recorder
}

// CachedEntries mocks base method.
func (m *MocksyncState) CachedEntries(id []byte) ([]message.Message, bool) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CachedEntries", id)
	ret0, _ := ret[0].([]message.Message)
	ret1, _ := ret[1].(bool)
	return ret0, ret1
}

// CachedEntries indicates an expected call of CachedEntries.
func (mr *MocksyncStateMockRecorder) CachedEntries(id any) *MocksyncStateCachedEntriesCall {
	mr.mock.ctrl.T.Helper()
	call := mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CachedEntries", reflect.TypeOf((*MocksyncState)(nil).CachedEntries), id)
	return &MocksyncStateCachedEntriesCall{Call: call}
}

// MocksyncStateCachedEntriesCall wrap *gomock.Call.
type MocksyncStateCachedEntriesCall struct {
	*gomock.Call
}

// Return rewrite *gomock.Call.Return.
func (c *MocksyncStateCachedEntriesCall) Return(arg0 []message.Message, arg1 bool) *MocksyncStateCachedEntriesCall {
	c.Call = c.Call.Return(arg0, arg1)
	return c
}

// Do rewrite *gomock.Call.Do.
func (c *MocksyncStateCachedEntriesCall) Do(f func([]byte) ([]message.Message, bool)) *MocksyncStateCachedEntriesCall {
	c.Call = c.Call.Do(f)
	return c
}

// DoAndReturn rewrite *gomock.Call.DoAndReturn.
func (c *MocksyncStateCachedEntriesCall) DoAndReturn(f func([]byte) ([]message.Message, bool)) *MocksyncStateCachedEntriesCall {
	c.Call = c.Call.DoAndReturn(f)
	return c
}

// Now mocks base method.
func (m *MocksyncState) Now() float64 {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Now")
	ret0, _ := ret[0].(float64)
	return ret0
}

// Now indicates an expected call of Now.
func (mr *MocksyncStateMockRecorder) Now() *MocksyncStateNowCall {
	mr.mock.ctrl.T.Helper()
	call := mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Now", reflect.TypeOf((*MocksyncState)(nil).Now))
	return &MocksyncStateNowCall{Call: call}
}

// MocksyncStateNowCall wrap *gomock.Call.
type MocksyncStateNowCall struct {
	*gomock.Call
}

// Return rewrite *gomock.Call.Return.
func (c *MocksyncStateNowCall) Return(arg0 float64) *MocksyncStateNowCall {
	c.Call = c.Call.Return(arg0)
	return c
}

// Do rewrite *gomock.Call.Do.
func (c *MocksyncStateNowCall) Do(f func() float64) *MocksyncStateNowCall {
	c.Call = c.Call.Do(f)
	return c
}

// DoAndReturn rewrite *gomock.Call.DoAndReturn.
func (c *MocksyncStateNowCall) DoAndReturn(f func() float64) *MocksyncStateNowCall {
	c.Call = c.Call.DoAndReturn(f)
	return c
}

// Peers mocks base method.
func (m *MocksyncState) Peers() []synchronizer.PeerStats {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Peers")
	ret0, _ := ret[0].([]synchronizer.PeerStats)
	return ret0
}

// Peers indicates an expected call of Peers.
func (mr *MocksyncStateMockRecorder) Peers() *MocksyncStatePeersCall {
	mr.mock.ctrl.T.Helper()
	call := mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Peers", reflect.TypeOf((*MocksyncState)(nil).Peers))
	return &MocksyncStatePeersCall{Call: call}
}

// MocksyncStatePeersCall wrap *gomock.Call.
type MocksyncStatePeersCall struct {
	*gomock.Call
}

// Return rewrite *gomock.Call.Return.
func (c *MocksyncStatePeersCall) Return(arg0 []synchronizer.PeerStats) *MocksyncStatePeersCall {
	c.Call = c.Call.Return(arg0)
	return c
}

// Do rewrite *gomock.Call.Do.
func (c *MocksyncStatePeersCall) Do(f func() []synchronizer.PeerStats) *MocksyncStatePeersCall {
	c.Call = c.Call.Do(f)
	return c
}

// DoAndReturn rewrite *gomock.Call.DoAndReturn.
func (c *MocksyncStatePeersCall) DoAndReturn(f func() []synchronizer.PeerStats) *MocksyncStatePeersCall {
	c.Call = c.Call.DoAndReturn(f)
	return c
}

// Timelines mocks base method.
func (m *MocksyncState) Timelines() []synchronizer.TimelineStats {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Timelines")
	ret0, _ := ret[0].([]synchronizer.TimelineStats)
	return ret0
}

// Timelines indicates an expected call of Timelines.
func (mr *MocksyncStateMockRecorder) Timelines() *MocksyncStateTimelinesCall {
	mr.mock.ctrl.T.Helper()
	call := mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Timelines", reflect.TypeOf((*MocksyncState)(nil).Timelines))
	return &MocksyncStateTimelinesCall{Call: call}
}

// MocksyncStateTimelinesCall wrap *gomock.Call.
type MocksyncStateTimelinesCall struct {
	*gomock.Call
}

// Return rewrite *gomock.Call.Return.
func (c *MocksyncStateTimelinesCall) Return(arg0 []synchronizer.TimelineStats) *MocksyncStateTimelinesCall {
	c.Call = c.Call.Return(arg0)
	return c
}

// Do rewrite *gomock.Call.Do.
func (c *MocksyncStateTimelinesCall) Do(f func() []synchronizer.TimelineStats) *MocksyncStateTimelinesCall {
	c.Call = c.Call.Do(f)
	return c
}

// DoAndReturn rewrite *gomock.Call.DoAndReturn.
func (c *MocksyncStateTimelinesCall) DoAndReturn(f func() []synchronizer.TimelineStats) *MocksyncStateTimelinesCall {
	c.Call = c.Call.DoAndReturn(f)
	return c
}

// MockconnState is a mock of connState interface.
type MockconnState struct {
	ctrl     *gomock.Controller
	recorder *MockconnStateMockRecorder
}

// MockconnStateMockRecorder is the mock recorder for MockconnState.
type MockconnStateMockRecorder struct {
	mock *MockconnState
}

// NewMockconnState creates a new mock instance.
func NewMockconnState(ctrl *gomock.Controller) *MockconnState {
	mock := &MockconnState{ctrl: ctrl}
	mock.recorder = &MockconnStateMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockconnState) EXPECT() *MockconnStateMockRecorder {
	return m.recorder
}

// Connections mocks base method.
func (m *MockconnState) Connections() []server.Connection {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Connections")
	ret0, _ := ret[0].([]server.Connection)
	return ret0
}

// Connections indicates an expected call of Connections.
func (mr *MockconnStateMockRecorder) Connections() *MockconnStateConnectionsCall {
	mr.mock.ctrl.T.Helper()
	call := mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Connections", reflect.TypeOf((*MockconnState)(nil).Connections))
	return &MockconnStateConnectionsCall{Call: call}
}

// MockconnStateConnectionsCall wrap *gomock.Call.
type MockconnStateConnectionsCall struct {
	*gomock.Call
}

// Return rewrite *gomock.Call.Return.
func (c *MockconnStateConnectionsCall) Return(arg0 []server.Connection) *MockconnStateConnectionsCall {
	c.Call = c.Call.Return(arg0)
	return c
}

// Do rewrite *gomock.Call.Do.
func (c *MockconnStateConnectionsCall) Do(f func() []server.Connection) *MockconnStateConnectionsCall {
	c.Call = c.Call.Do(f)
	return c
}

// DoAndReturn rewrite *gomock.Call.DoAndReturn.
func (c *MockconnStateConnectionsCall) DoAndReturn(f func() []server.Connection) *MockconnStateConnectionsCall {
	c.Call = c.Call.DoAndReturn(f)
	return c
}
