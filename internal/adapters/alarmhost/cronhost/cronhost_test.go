package cronhost

import (
	"testing"
	"time"
)

func TestHost_ScheduleDaily_ReplacesEntryForSameID(t *testing.T) {
	h := New(time.UTC, nil)
	defer h.Stop()

	if err := h.ScheduleDaily("user-1/Aspirin", 7, 30); err != nil {
		t.Fatalf("ScheduleDaily #1 error: %v", err)
	}
	if err := h.ScheduleDaily("user-1/Aspirin", 8, 0); err != nil {
		t.Fatalf("ScheduleDaily #2 error: %v", err)
	}

	h.mu.Lock()
	n := len(h.entries)
	h.mu.Unlock()
	if n != 1 {
		t.Fatalf("expected 1 entry after replace, got %d", n)
	}
	if got := len(h.cron.Entries()); got != 1 {
		t.Fatalf("expected 1 live cron entry, got %d", got)
	}
}

func TestHost_Cancel_AbsentIDIsNoop(t *testing.T) {
	h := New(time.UTC, nil)
	defer h.Stop()

	if err := h.Cancel("ghost"); err != nil {
		t.Fatalf("Cancel of absent id must be a no-op, got %v", err)
	}

	if err := h.ScheduleDaily("user-1/Zinc", 9, 0); err != nil {
		t.Fatalf("ScheduleDaily error: %v", err)
	}
	if err := h.Cancel("user-1/Zinc"); err != nil {
		t.Fatalf("Cancel error: %v", err)
	}
	if got := len(h.cron.Entries()); got != 0 {
		t.Fatalf("expected no live cron entries, got %d", got)
	}
}
