package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/spacemeshos/go-janus/log"
	"github.com/spacemeshos/go-janus/timeline"
)

var errUsage = errors.New("usage")

const help = `commands:
  set <id> <value> [time]  write value at now+time
  get <id> [time]          read the value at now+time
  remove <id>              drop the timeline
  list                     show every timeline
  now                      show the synchronized clock
  quit                     exit
`

// repl drives float64 timelines of a manager from text commands.
type repl struct {
	m *timeline.Manager

	mu      sync.Mutex
	out     io.Writer
	watched map[string]struct{}
}

func newREPL(m *timeline.Manager, out io.Writer) *repl {
	return &repl{m: m, out: out, watched: map[string]struct{}{}}
}

// printf is safe to call from entry handlers running in the step loop.
func (r *repl) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, format, args...)
}

func (r *repl) timeline(id string) (*timeline.Timeline[float64], error) {
	tl, err := timeline.GetString[float64](r.m, id)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	_, ok := r.watched[id]
	r.watched[id] = struct{}{}
	r.mu.Unlock()
	if !ok {
		tl.OnRemoteEntryInserted(func(tl *timeline.Timeline[float64], e *timeline.Entry[float64]) {
			r.printf("inserted %s %s at %.3f\n", tl.StringID(), formatValue(e.Value()), e.Time())
		})
	}
	return tl, nil
}

func parseTime(args []string, i int) (float64, error) {
	if len(args) <= i {
		return 0, nil
	}
	tm, err := strconv.ParseFloat(args[i], 64)
	if err != nil {
		return 0, fmt.Errorf("parse time %q: %w", args[i], err)
	}
	return tm, nil
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// exec runs one command line and reports whether the session should end.
func (r *repl) exec(line string) (bool, error) {
	args := strings.Fields(line)
	if len(args) == 0 {
		return false, nil
	}
	switch args[0] {
	case "set":
		if len(args) < 3 || len(args) > 4 {
			return false, fmt.Errorf("%w: set <id> <value> [time]", errUsage)
		}
		value, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return false, fmt.Errorf("parse value %q: %w", args[2], err)
		}
		tm, err := parseTime(args, 3)
		if err != nil {
			return false, err
		}
		tl, err := r.timeline(args[1])
		if err != nil {
			return false, err
		}
		return false, tl.Set(tm, value, false)
	case "get":
		if len(args) < 2 || len(args) > 3 {
			return false, fmt.Errorf("%w: get <id> [time]", errUsage)
		}
		tm, err := parseTime(args, 2)
		if err != nil {
			return false, err
		}
		tl, err := r.timeline(args[1])
		if err != nil {
			return false, err
		}
		r.printf("%s\n", formatValue(tl.Get(tm, false)))
	case "remove":
		if len(args) != 2 {
			return false, fmt.Errorf("%w: remove <id>", errUsage)
		}
		if !r.m.RemoveID(timeline.StringID(args[1])) {
			return false, fmt.Errorf("unknown timeline %s", args[1])
		}
		r.mu.Lock()
		delete(r.watched, args[1])
		r.mu.Unlock()
		r.printf("%s removed\n", args[1])
	case "list":
		handles := r.m.Timelines()
		slices.SortFunc(handles, func(a, b timeline.Handle) int {
			return strings.Compare(string(a.ID()), string(b.ID()))
		})
		for _, h := range handles {
			if tl, ok := h.(*timeline.Timeline[float64]); ok {
				r.printf("%s entries=%d value=%s\n", log.FormatID(h.ID()), h.NumEntries(), formatValue(tl.Value()))
			} else {
				r.printf("%s entries=%d type=%v\n", log.FormatID(h.ID()), h.NumEntries(), h.ValueType())
			}
		}
	case "now", "time":
		r.printf("%.3f offset=%.3f\n", r.m.Now(), r.m.TimeOffset())
	case "help":
		r.printf("%s", help)
	case "quit", "exit":
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %q", args[0])
	}
	return false, nil
}

// run reads commands from in until quit, end of input or ctx is done.
func (r *repl) run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-scanErr:
			return err
		case line := <-lines:
			quit, err := r.exec(line)
			if err != nil {
				r.printf("error: %v\n", err)
			}
			if quit {
				return nil
			}
		}
	}
}
