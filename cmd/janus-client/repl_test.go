package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spacemeshos/go-janus/log/logtest"
	"github.com/spacemeshos/go-janus/message"
	"github.com/spacemeshos/go-janus/timeline"
)

func newTestREPL(t *testing.T) (*repl, *timeline.Manager, *bytes.Buffer) {
	t.Helper()
	m := timeline.NewManager(timeline.WithLogger(logtest.New(t)))
	var out bytes.Buffer
	return newREPL(m, &out), m, &out
}

func exec(t *testing.T, r *repl, out *bytes.Buffer, line string) string {
	t.Helper()
	out.Reset()
	quit, err := r.exec(line)
	require.NoError(t, err)
	require.False(t, quit)
	return out.String()
}

func TestSetGet(t *testing.T) {
	r, m, out := newTestREPL(t)
	require.Empty(t, exec(t, r, out, "set x 1.5"))
	require.Empty(t, exec(t, r, out, "set x 2 -1"))
	require.Equal(t, "1.5\n", exec(t, r, out, "get x"))
	require.Equal(t, "2\n", exec(t, r, out, "get x -1"))
	require.Equal(t, "0\n", exec(t, r, out, "get y"))

	tl, err := timeline.GetString[float64](m, "x")
	require.NoError(t, err)
	require.Equal(t, 2, tl.NumEntries())
	require.Len(t, m.Timelines(), 2)
}

func TestSetEnqueuesMessage(t *testing.T) {
	r, m, out := newTestREPL(t)
	exec(t, r, out, "set x 4")
	var types []message.Type
	for _, msg := range m.GetOutgoingMessages() {
		types = append(types, msg.Type)
	}
	require.Equal(t, []message.Type{message.ConnectTimeline, message.RelayAbsolute}, types)
}

func TestListAndRemove(t *testing.T) {
	r, m, out := newTestREPL(t)
	exec(t, r, out, "set b 2")
	exec(t, r, out, "set a 1")
	_, err := timeline.GetString[int32](m, "c")
	require.NoError(t, err)
	require.Equal(t, "a entries=1 value=1\nb entries=1 value=2\nc entries=0 type=int32\n",
		exec(t, r, out, "list"))

	require.Equal(t, "a removed\n", exec(t, r, out, "remove a"))
	_, err = r.exec("remove a")
	require.ErrorContains(t, err, "unknown timeline a")
	require.Len(t, m.Timelines(), 2)
}

func TestNow(t *testing.T) {
	r, m, out := newTestREPL(t)
	m.SetNow(12.5)
	require.Equal(t, "12.500 offset=0.000\n", exec(t, r, out, "now"))
}

func TestExecErrors(t *testing.T) {
	r, _, _ := newTestREPL(t)
	for _, tc := range []struct {
		line string
		err  string
	}{
		{"set x", "usage"},
		{"set x one", "parse value"},
		{"set x 1 soon", "parse time"},
		{"get", "usage"},
		{"remove", "usage"},
		{"jump", "unknown command"},
	} {
		t.Run(tc.line, func(t *testing.T) {
			_, err := r.exec(tc.line)
			require.ErrorContains(t, err, tc.err)
		})
	}
}

func TestQuit(t *testing.T) {
	r, _, _ := newTestREPL(t)
	for _, line := range []string{"quit", "exit"} {
		quit, err := r.exec(line)
		require.NoError(t, err)
		require.True(t, quit)
	}
	quit, err := r.exec("   ")
	require.NoError(t, err)
	require.False(t, quit)
}

func TestRun(t *testing.T) {
	r, _, out := newTestREPL(t)
	in := strings.NewReader("set x 3\nbogus\nget x\nquit\nget x\n")
	require.NoError(t, r.run(context.Background(), in))
	require.Equal(t, "error: unknown command \"bogus\"\n3\n", out.String())
}

func TestRunCancelled(t *testing.T) {
	r, _, _ := newTestREPL(t)
	pr, pw := io.Pipe()
	t.Cleanup(func() { pw.Close() })
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.run(ctx, pr) }()
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		require.FailNow(t, "run did not return")
	}
}

func TestRemoteInsertIsPrinted(t *testing.T) {
	r, m, out := newTestREPL(t)
	exec(t, r, out, "get x")
	tl, err := timeline.GetString[float64](m, "x")
	require.NoError(t, err)
	value, err := tl.Functions().Encode(7)
	require.NoError(t, err)
	require.NoError(t, tl.RemoteSet(1, value, true, false))
	out.Reset()
	tl.Step()
	require.Equal(t, "inserted x 7 at 1.000\n", out.String())
}
