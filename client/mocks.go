package client

import (
	"reflect"

	"go.uber.org/mock/gomock"

	"github.com/spacemeshos/go-janus/message"
)

// Mockmanager is a mock of manager interface.
type Mockmanager struct {
	ctrl     *gomock.Controller
	recorder *MockmanagerMockRecorder
}

// MockmanagerMockRecorder is the mock recorder for Mockmanager.
type MockmanagerMockRecorder struct {
	mock *Mockmanager
}

// NewMockmanager creates a new mock instance.
func NewMockmanager(ctrl *gomock.Controller) *Mockmanager {
	mock := &Mockmanager{ctrl: ctrl}
	mock.recorder = &MockmanagerMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *Mockmanager) EXPECT() *MockmanagerMockRecorder {
	return m.recorder
}

// GetOutgoingMessages mocks base method.
func (m *Mockmanager) GetOutgoingMessages() []message.Message {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetOutgoingMessages")
	ret0, _ := ret[0].([]message.Message)
	return ret0
}

// GetOutgoingMessages indicates an expected call of GetOutgoingMessages.
func (mr *MockmanagerMockRecorder) GetOutgoingMessages() *MockmanagerGetOutgoingMessagesCall {
	mr.mock.ctrl.T.Helper()
	call := mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetOutgoingMessages", reflect.TypeOf((*Mockmanager)(nil).GetOutgoingMessages))
	return &MockmanagerGetOutgoingMessagesCall{Call: call}
}

// MockmanagerGetOutgoingMessagesCall wrap *gomock.Call.
type MockmanagerGetOutgoingMessagesCall struct {
	*gomock.Call
}

// Return rewrite *gomock.Call.Return.
func (c *MockmanagerGetOutgoingMessagesCall) Return(arg0 []message.Message) *MockmanagerGetOutgoingMessagesCall {
	c.Call = c.Call.Return(arg0)
	return c
}

// Do rewrite *gomock.Call.Do.
func (c *MockmanagerGetOutgoingMessagesCall) Do(f func() []message.Message) *MockmanagerGetOutgoingMessagesCall {
	c.Call = c.Call.Do(f)
	return c
}

// DoAndReturn rewrite *gomock.Call.DoAndReturn.
func (c *MockmanagerGetOutgoingMessagesCall) DoAndReturn(f func() []message.Message) *MockmanagerGetOutgoingMessagesCall {
	c.Call = c.Call.DoAndReturn(f)
	return c
}

// ProcessIncomingMessage mocks base method.
func (m *Mockmanager) ProcessIncomingMessage(msg message.Message) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "ProcessIncomingMessage", msg)
}

// ProcessIncomingMessage indicates an expected call of ProcessIncomingMessage.
func (mr *MockmanagerMockRecorder) ProcessIncomingMessage(msg any) *MockmanagerProcessIncomingMessageCall {
	mr.mock.ctrl.T.Helper()
	call := mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ProcessIncomingMessage", reflect.TypeOf((*Mockmanager)(nil).ProcessIncomingMessage), msg)
	return &MockmanagerProcessIncomingMessageCall{Call: call}
}

// MockmanagerProcessIncomingMessageCall wrap *gomock.Call.
type MockmanagerProcessIncomingMessageCall struct {
	*gomock.Call
}

// Return rewrite *gomock.Call.Return.
func (c *MockmanagerProcessIncomingMessageCall) Return() *MockmanagerProcessIncomingMessageCall {
	c.Call = c.Call.Return()
	return c
}

// Do rewrite *gomock.Call.Do.
func (c *MockmanagerProcessIncomingMessageCall) Do(f func(message.Message)) *MockmanagerProcessIncomingMessageCall {
	c.Call = c.Call.Do(f)
	return c
}

// DoAndReturn rewrite *gomock.Call.DoAndReturn.
func (c *MockmanagerProcessIncomingMessageCall) DoAndReturn(f func(message.Message)) *MockmanagerProcessIncomingMessageCall {
	c.Call = c.Call.DoAndReturn(f)
	return c
}

// StepElapsed mocks base method.
func (m *Mockmanager) StepElapsed() {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "StepElapsed")
}

// StepElapsed indicates an expected call of StepElapsed.
func (mr *MockmanagerMockRecorder) StepElapsed() *MockmanagerStepElapsedCall {
	mr.mock.ctrl.T.Helper()
	call := mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "StepElapsed", reflect.TypeOf((*Mockmanager)(nil).StepElapsed))
	return &MockmanagerStepElapsedCall{Call: call}
}

// MockmanagerStepElapsedCall wrap *gomock.Call.
type MockmanagerStepElapsedCall struct {
	*gomock.Call
}

// Return rewrite *gomock.Call.Return.
func (c *MockmanagerStepElapsedCall) Return() *MockmanagerStepElapsedCall {
	c.Call = c.Call.Return()
	return c
}

// Do rewrite *gomock.Call.Do.
func (c *MockmanagerStepElapsedCall) Do(f func()) *MockmanagerStepElapsedCall {
	c.Call = c.Call.Do(f)
	return c
}

// DoAndReturn rewrite *gomock.Call.DoAndReturn.
func (c *MockmanagerStepElapsedCall) DoAndReturn(f func()) *MockmanagerStepElapsedCall {
	c.Call = c.Call.DoAndReturn(f)
	return c
}
