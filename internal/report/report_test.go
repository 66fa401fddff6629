package report

import (
	"strings"
	"testing"
	"time"

	"github.com/chartsnap/chartsnap/internal/store"
)

func TestBuild(t *testing.T) {
	stats := []store.TargetStats{
		{Target: "NSE:NIFTY", Captured: 24, Sent: 23, Failed: 1},
		{Target: "NSE:BANKNIFTY", Captured: 24, Sent: 24},
	}

	r, err := Build(stats, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	for _, want := range []string{
		"NSE:NIFTY: 24 captured, 23 sent, 1 failed",
		"NSE:BANKNIFTY: 24 captured, 24 sent",
		"total: 48 captured, 47 sent, 1 failed",
	} {
		if !strings.Contains(r.Text, want) {
			t.Errorf("report missing %q:\n%s", want, r.Text)
		}
	}

	// No failure suffix for clean targets
	if strings.Contains(r.Text, "24 sent, 0 failed") {
		t.Errorf("clean target should not report failures:\n%s", r.Text)
	}
}

func TestBuildEmpty(t *testing.T) {
	if _, err := Build(nil, time.Now()); err == nil {
		t.Fatal("expected error for empty stats")
	}
}
