package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestNextRunTime(t *testing.T) {
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	next := nextRunTime(now, 11, 30)
	if next.Day() != 1 || next.Hour() != 11 || next.Minute() != 30 {
		t.Fatalf("same-day run mis-scheduled: %v", next)
	}

	next = nextRunTime(now, 9, 0)
	if next.Day() != 2 || next.Hour() != 9 {
		t.Fatalf("past time must roll to tomorrow: %v", next)
	}

	next = nextRunTime(now, 10, 0)
	if next.Day() != 2 {
		t.Fatalf("exact-now must roll to tomorrow: %v", next)
	}
}

func TestDailyRejectsBadTime(t *testing.T) {
	s := NewScheduler(zap.NewNop())
	if err := s.Daily("scan", "25:99", nil); err == nil {
		t.Fatal("expected error for invalid time")
	}
	if err := s.Daily("scan", "09:00", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("valid time rejected: %v", err)
	}
}

func TestRunOnceExecutesAllJobs(t *testing.T) {
	s := NewScheduler(zap.NewNop())

	var order []string
	s.Daily("scan", "09:00", func(context.Context) error {
		order = append(order, "scan")
		return nil
	})
	s.Daily("deadlines", "08:00", func(context.Context) error {
		order = append(order, "deadlines")
		return errors.New("sheet unavailable")
	})

	s.RunOnce(context.Background())
	if len(order) != 2 || order[0] != "scan" || order[1] != "deadlines" {
		t.Fatalf("order = %v", order)
	}
}

func TestRunRequiresJobs(t *testing.T) {
	s := NewScheduler(zap.NewNop())
	if err := s.Run(context.Background()); err == nil {
		t.Fatal("expected error with no jobs")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s := NewScheduler(zap.NewNop())
	s.Daily("scan", "09:00", func(context.Context) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
