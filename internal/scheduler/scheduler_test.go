package scheduler

import (
	"context"
	"testing"
)

func TestNewInvalidTimezone(t *testing.T) {
	if _, err := New("Not/AZone"); err == nil {
		t.Fatal("expected error for invalid timezone")
	}
}

func TestAddReportJobTimeParsing(t *testing.T) {
	s, err := New("UTC")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	noop := func(ctx context.Context) error { return nil }

	if err := s.AddReportJob("18:00", noop); err != nil {
		t.Errorf("valid time rejected: %v", err)
	}
	if err := s.AddReportJob("25:99", noop); err == nil {
		t.Error("invalid time accepted")
	}
	if err := s.AddReportJob("6pm", noop); err == nil {
		t.Error("invalid format accepted")
	}
}

func TestAddCaptureJobInterval(t *testing.T) {
	s, err := New("UTC")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	noop := func(ctx context.Context) error { return nil }

	if err := s.AddCaptureJob(2, noop); err != nil {
		t.Errorf("valid interval rejected: %v", err)
	}
	if err := s.AddCaptureJob(0, noop); err == nil {
		t.Error("zero interval accepted")
	}
}

func TestListJobs(t *testing.T) {
	s, err := New("UTC")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	noop := func(ctx context.Context) error { return nil }
	if err := s.AddCaptureJob(1, noop); err != nil {
		t.Fatalf("AddCaptureJob: %v", err)
	}
	if err := s.AddReportJob("07:30", noop); err != nil {
		t.Fatalf("AddReportJob: %v", err)
	}

	jobs := s.ListJobs()
	if len(jobs) != 2 {
		t.Fatalf("got %d jobs, want 2", len(jobs))
	}

	s.RemoveJob("report")
	if len(s.ListJobs()) != 1 {
		t.Fatal("job not removed")
	}
}
