package events

import (
	"testing"
	"time"
)

func TestNewEvent(t *testing.T) {
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ev := New(42, at, "cmd-1", EventTypeSold, SoldData{ItemID: "panel_basic", Refund: 50})
	if ev.ID != 42 {
		t.Fatalf("expected id 42 got %d", ev.ID)
	}
	if ev.Type != EventTypeSold {
		t.Fatalf("expected type Sold got %s", ev.Type)
	}
	data, ok := ev.Data.(SoldData)
	if !ok || data.Refund != 50 {
		t.Fatalf("unexpected payload %+v", ev.Data)
	}
	if !ev.At.Equal(at) || ev.CommandID != "cmd-1" {
		t.Fatalf("unexpected envelope %+v", ev)
	}
}

func TestRecorderIssuesIncreasingIDs(t *testing.T) {
	rec, err := NewRecorder(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	at := time.Now()
	prev := rec.Record(at, "c", EventTypeTicked, nil).ID
	for i := 0; i < 100; i++ {
		next := rec.Record(at, "c", EventTypeTicked, nil).ID
		if next <= prev {
			t.Fatalf("expected increasing ids got %d after %d", next, prev)
		}
		prev = next
	}
}

func TestRecorderRejectsBadNode(t *testing.T) {
	if _, err := NewRecorder(-1); err == nil {
		t.Fatalf("expected error for negative node id")
	}
}
