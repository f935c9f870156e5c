package alarms

import (
	"errors"
	"testing"

	"medibot-schedule/internal/timecodec"
)

// -------------------------
// Fake host
// -------------------------

type fakeHost struct {
	active  map[string][2]int // id -> (hour, minute)
	cancels int
	fail    error
}

func newFakeHost() *fakeHost {
	return &fakeHost{active: map[string][2]int{}}
}

func (h *fakeHost) ScheduleDaily(id string, hour, minute int) error {
	if h.fail != nil {
		return h.fail
	}
	h.active[id] = [2]int{hour, minute} // mismo id reemplaza, como el host real
	return nil
}

func (h *fakeHost) Cancel(id string) error {
	if h.fail != nil {
		return h.fail
	}
	h.cancels++
	delete(h.active, id)
	return nil
}

// -------------------------
// Tests
// -------------------------

func TestPlanner_Schedule_ReplacesInsteadOfDuplicating(t *testing.T) {
	host := newFakeHost()
	p := NewPlanner(host, nil)

	if err := p.Schedule("Aspirin", 7, 30); err != nil {
		t.Fatalf("Schedule #1 error: %v", err)
	}
	if err := p.Schedule("Aspirin", 8, 0); err != nil {
		t.Fatalf("Schedule #2 error: %v", err)
	}

	if len(host.active) != 1 {
		t.Fatalf("expected exactly 1 active registration, got %d", len(host.active))
	}
	if got := host.active["Aspirin"]; got != [2]int{8, 0} {
		t.Fatalf("expected 8:00 after reschedule, got %v", got)
	}

	reg, ok := p.Registration("Aspirin")
	if !ok || reg.Hour != 8 || reg.Minute != 0 {
		t.Fatalf("expected Registered(8,0), got %v ok=%v", reg, ok)
	}
}

func TestPlanner_Cancel_IdempotentAndClearsState(t *testing.T) {
	host := newFakeHost()
	p := NewPlanner(host, nil)

	// cancelar sin registrar: no-op, no error
	if err := p.Cancel("Ghost"); err != nil {
		t.Fatalf("Cancel of absent name must be a no-op, got %v", err)
	}

	if err := p.Schedule("Aspirin", 7, 30); err != nil {
		t.Fatalf("Schedule error: %v", err)
	}
	if err := p.Cancel("Aspirin"); err != nil {
		t.Fatalf("Cancel error: %v", err)
	}
	if _, ok := p.Registration("Aspirin"); ok {
		t.Fatalf("expected Unregistered after cancel")
	}
	if len(host.active) != 0 {
		t.Fatalf("host should have no registrations, got %v", host.active)
	}
	// al host se le pide siempre, por triggers huérfanos de procesos previos
	if host.cancels != 2 {
		t.Fatalf("expected host.Cancel called twice, got %d", host.cancels)
	}
}

func TestPlanner_Schedule_ValidatesRange(t *testing.T) {
	host := newFakeHost()
	p := NewPlanner(host, nil)

	if err := p.Schedule("Aspirin", 24, 0); !errors.Is(err, timecodec.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if err := p.Schedule("Aspirin", 7, 60); !errors.Is(err, timecodec.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if err := p.Schedule("  ", 7, 30); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
	if len(host.active) != 0 {
		t.Fatalf("invalid input must never reach the host")
	}
}

func TestPlanner_HostRefusal_ReportedAndStateUnchanged(t *testing.T) {
	host := newFakeHost()
	p := NewPlanner(host, nil)

	if err := p.Schedule("Aspirin", 7, 30); err != nil {
		t.Fatalf("Schedule error: %v", err)
	}

	host.fail = errors.New("exact alarm permission revoked")
	err := p.Schedule("Aspirin", 9, 0)

	var regErr *RegistrationError
	if !errors.As(err, &regErr) {
		t.Fatalf("expected RegistrationError, got %v", err)
	}
	if regErr.Name != "Aspirin" {
		t.Fatalf("expected error tagged with name, got %q", regErr.Name)
	}

	// el estado observable queda en la registración previa
	reg, ok := p.Registration("Aspirin")
	if !ok || reg.Hour != 7 || reg.Minute != 30 {
		t.Fatalf("expected previous Registered(7,30) kept, got %v ok=%v", reg, ok)
	}
}
