package progress

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestNilTracker(t *testing.T) {
	var tr *Tracker
	tr.Tick()
	tr.FinishSuccess()
	tr.FinishError(errors.New("ignored"))
	if tr.Func() != nil {
		t.Error("Func() on nil Tracker should be nil")
	}
}

func TestTrackerTicks(t *testing.T) {
	var buf bytes.Buffer
	tr := NewTrackerTo(&buf, "Parsing", 3)

	tick := tr.Func()
	for i := 0; i < 3; i++ {
		tick()
	}
	if got := tr.bar.State().CurrentNum; got != 3 {
		t.Errorf("CurrentNum = %d, want 3", got)
	}
	tr.FinishSuccess()
}

func TestTrackerFinishError(t *testing.T) {
	var buf bytes.Buffer
	tr := NewTrackerTo(&buf, "Parsing", 1)
	tr.FinishError(errors.New("disk full"))

	if !strings.Contains(buf.String(), "Parsing error: disk full") {
		t.Errorf("output = %q, want error message", buf.String())
	}
}

func TestSpinnerWrite(t *testing.T) {
	var buf bytes.Buffer
	sp := NewSpinner(&buf, "Cloning")

	n, err := sp.Write([]byte("Counting objects: 12"))
	if err != nil || n != 20 {
		t.Fatalf("Write() = %d, %v", n, err)
	}
	if got := sp.bar.State().CurrentBytes; got != 20 {
		t.Errorf("CurrentBytes = %v, want 20", got)
	}
	sp.FinishSuccess()

	var nilTracker *Tracker
	if n, err := nilTracker.Write([]byte("abc")); n != 3 || err != nil {
		t.Errorf("nil Write() = %d, %v", n, err)
	}
}
