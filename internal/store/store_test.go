package store

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveCaptureAssignsID(t *testing.T) {
	s := newTestStore(t)

	c := &Capture{
		Target:     "NSE:NIFTY",
		Interval:   "15",
		URL:        "https://example.com",
		Selector:   "div.chart",
		FilePath:   "/tmp/a.png",
		Width:      400,
		Height:     2000,
		Tiled:      true,
		CapturedAt: time.Now(),
	}
	if err := s.SaveCapture(c); err != nil {
		t.Fatalf("SaveCapture: %v", err)
	}
	if c.ID == 0 {
		t.Fatal("ID not assigned")
	}
}

func TestMarkSentAndRecent(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()

	c := &Capture{Target: "a", Interval: "D", URL: "u", FilePath: "p", CapturedAt: now}
	if err := s.SaveCapture(c); err != nil {
		t.Fatalf("SaveCapture: %v", err)
	}
	if err := s.MarkSent(c.ID, now); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}

	got, err := s.RecentCaptures(now.Add(-time.Minute))
	if err != nil {
		t.Fatalf("RecentCaptures: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d captures, want 1", len(got))
	}
	if got[0].Interval != "D" {
		t.Errorf("Interval = %q, want %q", got[0].Interval, "D")
	}
	if got[0].SentAt == nil {
		t.Error("SentAt not recorded")
	}
	if got[0].SendError != "" {
		t.Errorf("unexpected send error %q", got[0].SendError)
	}

	// Outside the window
	got, err = s.RecentCaptures(now.Add(time.Minute))
	if err != nil {
		t.Fatalf("RecentCaptures: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d captures, want 0", len(got))
	}
}

func TestStatsSince(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()

	save := func(target string) *Capture {
		c := &Capture{Target: target, URL: "u", FilePath: "p", CapturedAt: now}
		if err := s.SaveCapture(c); err != nil {
			t.Fatalf("SaveCapture: %v", err)
		}
		return c
	}

	a1 := save("alpha")
	save("alpha")
	b1 := save("beta")

	if err := s.MarkSent(a1.ID, now); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}
	if err := s.MarkSendError(b1.ID, "chat not found"); err != nil {
		t.Fatalf("MarkSendError: %v", err)
	}

	stats, err := s.StatsSince(now.Add(-time.Minute))
	if err != nil {
		t.Fatalf("StatsSince: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("got %d targets, want 2: %+v", len(stats), stats)
	}

	// Ordered by target name
	if stats[0].Target != "alpha" || stats[0].Captured != 2 || stats[0].Sent != 1 || stats[0].Failed != 0 {
		t.Errorf("alpha stats = %+v", stats[0])
	}
	if stats[1].Target != "beta" || stats[1].Captured != 1 || stats[1].Sent != 0 || stats[1].Failed != 1 {
		t.Errorf("beta stats = %+v", stats[1])
	}
}
