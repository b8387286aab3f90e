package vm

import (
	"errors"
	"testing"
)

func TestHaltUnwindsEverything(t *testing.T) {
	rt := NewRuntime()
	rt.RequestHalt()
	_, err := rt.RunSource("while [true] [1]")
	if !errors.Is(err, ErrHalted) {
		t.Fatalf("halted loop = %v, want ErrHalted", err)
	}
	// The runtime survives a halt.
	wantInt(t, mustRun(t, rt, "add 1 2"), 3)
}

func TestHaltNotCatchable(t *testing.T) {
	rt := NewRuntime()
	rt.RequestHalt()
	// catch on the halt label must not intercept a real halt.
	_, err := rt.RunSource("catch halt [while [true] [1]]")
	if !errors.Is(err, ErrHalted) {
		t.Errorf("caught halt = %v, want ErrHalted", err)
	}
}

func TestSignalPriorityRecycleBeforeHalt(t *testing.T) {
	rt := NewRuntime()
	// Both pending: the recycle must run even though the halt unwinds.
	before := rt.gc.recycles
	rt.RequestRecycle()
	rt.RequestHalt()
	_, err := rt.RunSource("while [true] [1]")
	if !errors.Is(err, ErrHalted) {
		t.Fatalf("err = %v, want ErrHalted", err)
	}
	if rt.gc.recycles != before+1 {
		t.Errorf("recycles = %d, want %d (recycle services before halt)",
			rt.gc.recycles, before+1)
	}
}

func TestSignalPriorityAllPending(t *testing.T) {
	rt := NewRuntime()
	before := rt.gc.recycles
	rt.RequestRecycle()
	rt.RequestHalt()
	rt.RequestInterrupt()

	// Halt wins the unwind, but only after the recycle has run; the
	// interrupt stays queued behind it.
	_, err := rt.RunSource("while [true] [1]")
	if !errors.Is(err, ErrHalted) {
		t.Fatalf("err = %v, want ErrHalted", err)
	}
	if rt.gc.recycles != before+1 {
		t.Errorf("recycles = %d, want %d (recycle services before halt)",
			rt.gc.recycles, before+1)
	}
	if rt.sigs.Load()&sigInterrupt == 0 {
		t.Fatal("interrupt bit should still be pending after the halt")
	}

	// The next evaluation services the leftover interrupt.
	_, err = rt.RunSource("while [true] [1]")
	var raised *RaisedError
	if !errors.As(err, &raised) {
		t.Fatalf("pending interrupt = %v, want raised error", err)
	}
	if id := rt.ErrorID(raised.Cell); id != "debug-break" {
		t.Errorf("error id = %q, want debug-break", id)
	}
}

func TestInterruptFailsLoudly(t *testing.T) {
	rt := NewRuntime()
	rt.RequestInterrupt()
	_, err := rt.RunSource("while [true] [1]")
	var raised *RaisedError
	if !errors.As(err, &raised) {
		t.Fatalf("interrupt = %v, want raised error", err)
	}
	if id := rt.ErrorID(raised.Cell); id != "debug-break" {
		t.Errorf("error id = %q, want debug-break", id)
	}
}

func TestTickCountdownServicesSignals(t *testing.T) {
	rt := NewRuntimeWith(Config{TickPeriod: 16})
	// Set the halt bit without the immediate flag: only the countdown can
	// notice it.
	rt.sigs.Or(sigHalt)
	_, err := rt.RunSource("while [true] [1]")
	if !errors.Is(err, ErrHalted) {
		t.Errorf("countdown-serviced halt = %v, want ErrHalted", err)
	}
}

func TestWaitInterrupted(t *testing.T) {
	rt := NewRuntime()
	rt.RegisterDevice(&TimerDevice{Ticks: 1 << 30}) // never fires
	rt.sigs.Or(sigHalt)                             // pending when wait polls
	_, err := rt.RunSource("wait")
	var raised *RaisedError
	if !errors.As(err, &raised) {
		t.Fatalf("interrupted wait = %v, want raised error", err)
	}
	if id := rt.ErrorID(raised.Cell); id != "wait-interrupted" {
		t.Errorf("error id = %q, want wait-interrupted", id)
	}
}

func TestWaitActivityAndEndOfData(t *testing.T) {
	rt := NewRuntime()
	// No devices: end of data, reported as null.
	out := mustRun(t, rt, "wait")
	if !out.IsNull() {
		t.Errorf("wait with no devices = %s, want null", rt.Mold(out))
	}

	rt.RegisterDevice(&TimerDevice{Ticks: 3})
	out = mustRun(t, rt, "wait")
	if v, ok := out.IsLogic(); !ok || !v {
		t.Errorf("wait with activity = %s, want true", rt.Mold(out))
	}
}
