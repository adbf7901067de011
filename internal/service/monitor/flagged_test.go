package monitor

import (
	"fmt"
	"testing"
	"time"
)

func TestFlaggedLog_AddAndList(t *testing.T) {
	l := NewFlaggedLog(10)
	at := time.Unix(1700000000, 0)

	ft := l.Add("This is unacceptable", "confrontational phrasing", at)
	if ft.ID == "" {
		t.Error("expected generated ID")
	}

	got := l.List()
	if len(got) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got))
	}
	if got[0].Text != "This is unacceptable" || got[0].Reason != "confrontational phrasing" || !got[0].At.Equal(at) {
		t.Errorf("unexpected entry %+v", got[0])
	}
}

func TestFlaggedLog_EvictsOldest(t *testing.T) {
	l := NewFlaggedLog(3)
	for i := 0; i < 5; i++ {
		l.Add(fmt.Sprintf("text %d", i), "", time.Unix(int64(i), 0))
	}

	got := l.List()
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	for i, want := range []string{"text 2", "text 3", "text 4"} {
		if got[i].Text != want {
			t.Errorf("entry %d: expected %q, got %q", i, want, got[i].Text)
		}
	}
}

func TestFlaggedLog_Clear(t *testing.T) {
	l := NewFlaggedLog(3)
	l.Add("a", "", time.Now())
	l.Add("b", "", time.Now())

	if n := l.Clear(); n != 2 {
		t.Errorf("expected 2 cleared, got %d", n)
	}
	if len(l.List()) != 0 {
		t.Error("expected empty log after clear")
	}
}

func TestFlaggedLog_Disabled(t *testing.T) {
	l := NewFlaggedLog(0)
	l.Add("a", "", time.Now())

	if len(l.List()) != 0 {
		t.Error("expected zero-size log to keep nothing")
	}
}
