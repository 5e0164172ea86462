// Package eventlog implements the client's persistent, append-with-drain
// event queue (spec.md §4.6): the client appends user-facing completion
// notices (peg-in, peg-out, spend, lightning fund/claim completed) and
// the client surface drains them atomically for polling.
package eventlog

import (
	"encoding/json"

	"github.com/mintfed/federation/pkg/api"
	"github.com/mintfed/federation/pkg/kvdb"
)

const queueKey = "evt/queue"

// Log is a kvdb-backed FIFO of api.Event. The entire queue is kept as one
// JSON-encoded list under a single key, so Append/Drain are each a single
// read-modify-write rather than needing a range scan over the store.
type Log struct {
	kv kvdb.KV
}

func New(kv kvdb.KV) *Log {
	return &Log{kv: kv}
}

func (l *Log) read() ([]api.Event, error) {
	raw, err := l.kv.Get([]byte(queueKey))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	var events []api.Event
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (l *Log) write(events []api.Event) error {
	raw, err := json.Marshal(events)
	if err != nil {
		return err
	}
	return l.kv.Set([]byte(queueKey), raw)
}

// Append enqueues one event, preserving insertion order.
func (l *Log) Append(timeMsSinceEpoch int64, msg string) error {
	events, err := l.read()
	if err != nil {
		return err
	}
	events = append(events, api.Event{TimeMsSinceEpoch: timeMsSinceEpoch, Msg: msg})
	return l.write(events)
}

// Drain atomically returns the current queue contents and empties it.
// Draining an empty log returns an empty slice, never nil, and draining
// twice in a row with no intervening Append returns [] both times.
func (l *Log) Drain() ([]api.Event, error) {
	events, err := l.read()
	if err != nil {
		return nil, err
	}
	if err := l.write(nil); err != nil {
		return nil, err
	}
	if events == nil {
		events = []api.Event{}
	}
	return events, nil
}
