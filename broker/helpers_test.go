package broker

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/casualjim/evbroker/events"
	"github.com/phsym/zeroslog"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

// recorder collects delivered events. Deliveries happen on the broker's
// worker, so the slice is guarded even though the worker is sequential.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) record(evt events.Event) error {
	r.mu.Lock()
	r.events = append(r.events, evt)
	r.mu.Unlock()
	return nil
}

func (r *recorder) received() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

func (r *recorder) taskIDs() []string {
	var ids []string
	for _, evt := range r.received() {
		if ta, ok := evt.(events.TaskAdded); ok {
			ids = append(ids, ta.TaskID)
		}
	}
	return ids
}

func taskAdded(id any) events.TaskAdded {
	return events.TaskAdded{Base: events.Now(), TaskID: fmt.Sprint(id)}
}

// syncBuffer lets the delivery worker write log lines while the test reads them.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) lines() []gjson.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []gjson.Result
	for _, line := range strings.Split(strings.TrimSpace(s.buf.String()), "\n") {
		if line != "" {
			out = append(out, gjson.Parse(line))
		}
	}
	return out
}

// captureLogger returns a debug level slog logger backed by zerolog, the way
// the binaries wire it, writing JSON lines into the returned buffer.
func captureLogger() (*slog.Logger, *syncBuffer) {
	buf := new(syncBuffer)
	zl := zerolog.New(buf)
	return slog.New(zeroslog.NewHandler(zl, &zeroslog.HandlerOptions{Level: slog.LevelDebug})), buf
}

func newBroker(t *testing.T) *LocalBroker {
	t.Helper()
	logger, _ := captureLogger()
	b, err := New(WithLogger(logger))
	require.NoError(t, err)
	return b
}

func openBroker(t *testing.T) *LocalBroker {
	t.Helper()
	b := newBroker(t).Open()
	t.Cleanup(func() { _ = b.Close() })
	return b
}
