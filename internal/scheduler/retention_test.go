package scheduler

import (
	"context"
	"testing"
	"time"

	"canna_portal_backend/platform/logger"
)

type fakePruner struct {
	before time.Time
}

func (f *fakePruner) DeleteReceivedBefore(_ context.Context, before time.Time) (int64, error) {
	f.before = before
	return 3, nil
}

func TestDeliveryRetentionCutoff(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	pruner := &fakePruner{}
	r := NewDeliveryRetention(pruner, logger.New("test"), 0, 7*24*time.Hour)
	r.now = func() time.Time { return now }

	r.prune(context.Background())

	if want := now.Add(-7 * 24 * time.Hour); !pruner.before.Equal(want) {
		t.Fatalf("expected cutoff %s, got %s", want, pruner.before)
	}
	if r.interval != defaultRetentionInterval {
		t.Fatalf("expected default interval, got %s", r.interval)
	}
}
