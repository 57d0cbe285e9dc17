package runner

import (
	"errors"
	"testing"
)

func TestFlightSingleFlightPerKey(t *testing.T) {
	f := NewFlight(true)

	release, err := f.Acquire("backup")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if !f.Active("backup") {
		t.Error("Active(backup) = false while held")
	}

	if _, err := f.Acquire("backup"); !errors.Is(err, ErrBusy) {
		t.Errorf("second Acquire() error = %v, want ErrBusy", err)
	}

	other, err := f.Acquire("compact")
	if err != nil {
		t.Errorf("Acquire(compact) error = %v, want nil for a different key", err)
	}
	other()

	release()
	release()

	again, err := f.Acquire("backup")
	if err != nil {
		t.Fatalf("Acquire() after release error = %v", err)
	}
	again()
}

func TestFlightDisabled(t *testing.T) {
	f := NewFlight(false)

	r1, err := f.Acquire("backup")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	r2, err := f.Acquire("backup")
	if err != nil {
		t.Errorf("Acquire() on disabled flight error = %v, want nil", err)
	}
	r1()
	r2()
}
