package eventlog

import (
	"testing"

	"github.com/mintfed/federation/pkg/kvdb"
)

func TestAppendPreservesOrder(t *testing.T) {
	l := New(kvdb.NewMemKV())
	if err := l.Append(1, "first"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := l.Append(2, "second"); err != nil {
		t.Fatalf("append: %v", err)
	}

	events, err := l.Drain()
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(events) != 2 || events[0].Msg != "first" || events[1].Msg != "second" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestDrainIsIdempotentWhenEmpty(t *testing.T) {
	l := New(kvdb.NewMemKV())
	if _, err := l.Drain(); err != nil {
		t.Fatalf("first drain: %v", err)
	}
	events, err := l.Drain()
	if err != nil {
		t.Fatalf("second drain: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected empty drain, got %+v", events)
	}
}

func TestDrainEmptiesQueue(t *testing.T) {
	l := New(kvdb.NewMemKV())
	if err := l.Append(1, "only"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := l.Drain(); err != nil {
		t.Fatalf("drain: %v", err)
	}
	events, err := l.Drain()
	if err != nil {
		t.Fatalf("second drain: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected empty queue after drain, got %+v", events)
	}
}
