package server

import (
	"reflect"

	"go.uber.org/mock/gomock"

	"github.com/spacemeshos/go-janus/message"
)

// Mockrelay is a mock of relay interface.
type Mockrelay struct {
	ctrl     *gomock.Controller
	recorder *MockrelayMockRecorder
}

// MockrelayMockRecorder is the mock recorder for Mockrelay.
type MockrelayMockRecorder struct {
	mock *Mockrelay
}

// NewMockrelay creates a new mock instance.
func NewMockrelay(ctrl *gomock.Controller) *Mockrelay {
	mock := &Mockrelay{ctrl: ctrl}
	mock.recorder = &MockrelayMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *Mockrelay) EXPECT() *MockrelayMockRecorder {
	return m.recorder
}

// ConnectPeer mocks base method.
func (m *Mockrelay) ConnectPeer(index uint16, rtt float64) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "ConnectPeer", index, rtt)
}

// ConnectPeer indicates an expected call of ConnectPeer.
func (mr *MockrelayMockRecorder) ConnectPeer(index, rtt any) *MockrelayConnectPeerCall {
	mr.mock.ctrl.T.Helper()
	call := mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ConnectPeer", reflect.TypeOf((*Mockrelay)(nil).ConnectPeer), index, rtt)
	return &MockrelayConnectPeerCall{Call: call}
}

// MockrelayConnectPeerCall wrap *gomock.Call.
type MockrelayConnectPeerCall struct {
	*gomock.Call
}

// Return rewrite *gomock.Call.Return.
func (c *MockrelayConnectPeerCall) Return() *MockrelayConnectPeerCall {
	c.Call = c.Call.Return()
	return c
}

// Do rewrite *gomock.Call.Do.
func (c *MockrelayConnectPeerCall) Do(f func(uint16, float64)) *MockrelayConnectPeerCall {
	c.Call = c.Call.Do(f)
	return c
}

// DoAndReturn rewrite *gomock.Call.DoAndReturn.
func (c *MockrelayConnectPeerCall) DoAndReturn(f func(uint16, float64)) *MockrelayConnectPeerCall {
	c.Call = c.Call.DoAndReturn(f)
	return c
}

// DisconnectPeer mocks base method.
func (m *Mockrelay) DisconnectPeer(index uint16) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "DisconnectPeer", index)
}

// DisconnectPeer indicates an expected call of DisconnectPeer.
func (mr *MockrelayMockRecorder) DisconnectPeer(index any) *MockrelayDisconnectPeerCall {
	mr.mock.ctrl.T.Helper()
	call := mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "DisconnectPeer", reflect.TypeOf((*Mockrelay)(nil).DisconnectPeer), index)
	return &MockrelayDisconnectPeerCall{Call: call}
}

// MockrelayDisconnectPeerCall wrap *gomock.Call.
type MockrelayDisconnectPeerCall struct {
	*gomock.Call
}

// Return rewrite *gomock.Call.Return.
func (c *MockrelayDisconnectPeerCall) Return() *MockrelayDisconnectPeerCall {
	c.Call = c.Call.Return()
	return c
}

// Do rewrite *gomock.Call.Do.
func (c *MockrelayDisconnectPeerCall) Do(f func(uint16)) *MockrelayDisconnectPeerCall {
	c.Call = c.Call.Do(f)
	return c
}

// DoAndReturn rewrite *gomock.Call.DoAndReturn.
func (c *MockrelayDisconnectPeerCall) DoAndReturn(f func(uint16)) *MockrelayDisconnectPeerCall {
	c.Call = c.Call.DoAndReturn(f)
	return c
}

// GetOutgoingMessages mocks base method.
func (m *Mockrelay) GetOutgoingMessages(index uint16) []message.Message {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetOutgoingMessages", index)
	ret0, _ := ret[0].([]message.Message)
	return ret0
}

// GetOutgoingMessages indicates an expected call of GetOutgoingMessages.
func (mr *MockrelayMockRecorder) GetOutgoingMessages(index any) *MockrelayGetOutgoingMessagesCall {
	mr.mock.ctrl.T.Helper()
	call := mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetOutgoingMessages", reflect.TypeOf((*Mockrelay)(nil).GetOutgoingMessages), index)
	return &MockrelayGetOutgoingMessagesCall{Call: call}
}

// MockrelayGetOutgoingMessagesCall wrap *gomock.Call.
type MockrelayGetOutgoingMessagesCall struct {
	*gomock.Call
}

// Return rewrite *gomock.Call.Return.
func (c *MockrelayGetOutgoingMessagesCall) Return(arg0 []message.Message) *MockrelayGetOutgoingMessagesCall {
	c.Call = c.Call.Return(arg0)
	return c
}

// Do rewrite *gomock.Call.Do.
func (c *MockrelayGetOutgoingMessagesCall) Do(f func(uint16) []message.Message) *MockrelayGetOutgoingMessagesCall {
	c.Call = c.Call.Do(f)
	return c
}

// DoAndReturn rewrite *gomock.Call.DoAndReturn.
func (c *MockrelayGetOutgoingMessagesCall) DoAndReturn(f func(uint16) []message.Message) *MockrelayGetOutgoingMessagesCall {
	c.Call = c.Call.DoAndReturn(f)
	return c
}

// ProcessIncomingMessage mocks base method.
func (m *Mockrelay) ProcessIncomingMessage(index uint16, msg message.Message) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "ProcessIncomingMessage", index, msg)
}

// ProcessIncomingMessage indicates an expected call of ProcessIncomingMessage.
func (mr *MockrelayMockRecorder) ProcessIncomingMessage(index, msg any) *MockrelayProcessIncomingMessageCall {
	mr.mock.ctrl.T.Helper()
	call := mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ProcessIncomingMessage", reflect.TypeOf((*Mockrelay)(nil).ProcessIncomingMessage), index, msg)
	return &MockrelayProcessIncomingMessageCall{Call: call}
}

// MockrelayProcessIncomingMessageCall wrap *gomock.Call.
type MockrelayProcessIncomingMessageCall struct {
	*gomock.Call
}

// Return rewrite *gomock.Call.Return.
func (c *MockrelayProcessIncomingMessageCall) Return() *MockrelayProcessIncomingMessageCall {
	c.Call = c.Call.Return()
	return c
}

// Do rewrite *gomock.Call.Do.
func (c *MockrelayProcessIncomingMessageCall) Do(f func(uint16, message.Message)) *MockrelayProcessIncomingMessageCall {
	c.Call = c.Call.Do(f)
	return c
}

// DoAndReturn rewrite *gomock.Call.DoAndReturn.
func (c *MockrelayProcessIncomingMessageCall) DoAndReturn(f func(uint16, message.Message)) *MockrelayProcessIncomingMessageCall {
	c.Call = c.Call.DoAndReturn(f)
	return c
}

// StepElapsed mocks base method.
func (m *Mockrelay) StepElapsed() {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "StepElapsed")
}

// StepElapsed indicates an expected call of StepElapsed.
func (mr *MockrelayMockRecorder) StepElapsed() *MockrelayStepElapsedCall {
	mr.mock.ctrl.T.Helper()
	call := mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "StepElapsed", reflect.TypeOf((*Mockrelay)(nil).StepElapsed))
	return &MockrelayStepElapsedCall{Call: call}
}

// MockrelayStepElapsedCall wrap *gomock.Call.
type MockrelayStepElapsedCall struct {
	*gomock.Call
}

// Return rewrite *gomock.Call.Return.
func (c *MockrelayStepElapsedCall) Return() *MockrelayStepElapsedCall {
	c.Call = c.Call.Return()
	return c
}

// Do rewrite *gomock.Call.Do.
func (c *MockrelayStepElapsedCall) Do(f func()) *MockrelayStepElapsedCall {
	c.Call = c.Call.Do(f)
	return c
}

// DoAndReturn rewrite *gomock.Call.DoAndReturn.
func (c *MockrelayStepElapsedCall) DoAndReturn(f func()) *MockrelayStepElapsedCall {
	c.Call = c.Call.DoAndReturn(f)
	return c
}
