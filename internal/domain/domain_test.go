package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestParseInvocationStatus(t *testing.T) {
	tests := []struct {
		in   string
		want InvocationStatus
		ok   bool
	}{
		{"SUCCEEDED", InvocationStatusSucceeded, true},
		{"FAILED", InvocationStatusFailed, true},
		{"TIMED_OUT", InvocationStatusTimedOut, true},
		{"CANCELLED", InvocationStatusCancelled, true},
		{"succeeded", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseInvocationStatus(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseInvocationStatus(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSchedule_Kind(t *testing.T) {
	cron := &Schedule{CronExpr: "* * * * *", IntervalSec: 10}
	if !cron.IsCron() || cron.IsInterval() {
		t.Error("cron expression should take precedence")
	}

	interval := &Schedule{IntervalSec: 10}
	if interval.IsCron() || !interval.IsInterval() {
		t.Error("expected interval schedule")
	}

	empty := &Schedule{}
	if empty.IsCron() || empty.IsInterval() {
		t.Error("empty schedule has no kind")
	}
}

func TestSchedule_IsDue(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	tests := []struct {
		name  string
		sched Schedule
		want  bool
	}{
		{"due", Schedule{Enabled: true, NextDueAt: &past}, true},
		{"exactly now", Schedule{Enabled: true, NextDueAt: &now}, true},
		{"future", Schedule{Enabled: true, NextDueAt: &future}, false},
		{"disabled", Schedule{Enabled: false, NextDueAt: &past}, false},
		{"no next due", Schedule{Enabled: true}, false},
	}

	for _, tt := range tests {
		if got := tt.sched.IsDue(now); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSchedule_RecordFire(t *testing.T) {
	s := &Schedule{Enabled: true}
	id := uuid.New()
	fired := time.Now()
	next := fired.Add(time.Hour)

	s.RecordFire(id, fired, next)

	if *s.LastRequestID != id || !s.LastFiredAt.Equal(fired) || !s.NextDueAt.Equal(next) {
		t.Errorf("unexpected schedule state: %+v", s)
	}
	if s.IsDue(fired) {
		t.Error("schedule should not be due right after firing")
	}
}
