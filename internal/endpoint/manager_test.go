package endpoint

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/nerrad567/gray-logic-ledd/internal/gpio"
)

var acquireOps = []string{
	"region.alloc",
	"class.create",
	"node.create",
	"line.claim gpiochip0:20",
	"line.direction output",
	"line.level 0",
}

func TestInitializeReachesReady(t *testing.T) {
	h := newHarness()

	if got := h.m.State(); got != Unstarted {
		t.Fatalf("State() before Initialize = %v, want %v", got, Unstarted)
	}
	if err := h.m.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	if got := h.m.State(); got != Ready {
		t.Errorf("State() = %v, want %v", got, Ready)
	}
	if got := h.trace.snapshot(); !slices.Equal(got, acquireOps) {
		t.Errorf("ops = %v, want %v", got, acquireOps)
	}
	if h.line.Direction() != gpio.Output {
		t.Error("line is not an output")
	}
	if h.line.Level() || h.ctrl.Current() {
		t.Error("LED should start OFF")
	}
	if h.reg.ops != h.m {
		t.Error("node was not given the manager as its operations")
	}
}

func TestInitializeTwice(t *testing.T) {
	h := newReadyHarness(t)

	err := h.m.Initialize(context.Background())
	if !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("second Initialize() error = %v, want ErrAlreadyInitialized", err)
	}
	if got := h.trace.snapshot(); len(got) != 0 {
		t.Errorf("second Initialize() touched resources: %v", got)
	}
}

func TestInitializeRollback(t *testing.T) {
	tests := []struct {
		name    string
		inject  func(h *harness)
		step    Step
		wantErr error
		wantOps []string
	}{
		{
			name:    "region allocation fails",
			inject:  func(h *harness) { h.reg.allocErr = errInjected },
			step:    StepAllocRegion,
			wantErr: ErrAllocation,
			wantOps: []string{"region.alloc"},
		},
		{
			name:    "class registration fails",
			inject:  func(h *harness) { h.reg.classErr = errInjected },
			step:    StepRegisterClass,
			wantErr: ErrAllocation,
			wantOps: []string{"region.alloc", "class.create", "region.release"},
		},
		{
			name:    "node creation fails",
			inject:  func(h *harness) { h.reg.nodeErr = errInjected },
			step:    StepCreateNode,
			wantErr: ErrAllocation,
			wantOps: []string{
				"region.alloc", "class.create", "node.create",
				"class.release", "region.release",
			},
		},
		{
			name:    "line claim fails",
			inject:  func(h *harness) { h.line.ClaimErr = errInjected },
			step:    StepClaimLine,
			wantErr: ErrLineClaim,
			wantOps: []string{
				"region.alloc", "class.create", "node.create",
				"line.claim gpiochip0:20",
				"node.release", "class.release", "region.release",
			},
		},
		{
			name:    "direction fails",
			inject:  func(h *harness) { h.line.DirectionErr = errInjected },
			step:    StepSetDirection,
			wantErr: ErrDirectionConfig,
			wantOps: []string{
				"region.alloc", "class.create", "node.create",
				"line.claim gpiochip0:20", "line.direction output",
				"line.release", "node.release", "class.release", "region.release",
			},
		},
		{
			name:    "initial level fails",
			inject:  func(h *harness) { h.line.SetLevelErr = errInjected },
			step:    StepInitialState,
			wantErr: ErrHardware,
			wantOps: []string{
				"region.alloc", "class.create", "node.create",
				"line.claim gpiochip0:20", "line.direction output", "line.level 0",
				"line.release", "node.release", "class.release", "region.release",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			tt.inject(h)

			err := h.m.Initialize(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Initialize() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, errInjected) {
				t.Errorf("Initialize() error = %v, want cause preserved", err)
			}

			var initErr *InitError
			if !errors.As(err, &initErr) {
				t.Fatalf("Initialize() error type = %T, want *InitError", err)
			}
			if initErr.Step != tt.step {
				t.Errorf("InitError.Step = %v, want %v", initErr.Step, tt.step)
			}

			if got := h.trace.snapshot(); !slices.Equal(got, tt.wantOps) {
				t.Errorf("ops =\n  %v\nwant\n  %v", got, tt.wantOps)
			}
			if h.m.State() != Unstarted {
				t.Errorf("State() = %v, want %v", h.m.State(), Unstarted)
			}
			if h.line.Claimed() {
				t.Error("line still claimed after rollback")
			}

			// Nothing left to release.
			h.trace.reset()
			if err := h.m.Finalize(context.Background()); err != nil {
				t.Errorf("Finalize() after failed Initialize error = %v", err)
			}
			if got := h.trace.snapshot(); len(got) != 0 {
				t.Errorf("Finalize() after failed Initialize ops = %v, want none", got)
			}
		})
	}
}

func TestInitializeRollbackContinuesPastReleaseFailure(t *testing.T) {
	h := newHarness()
	h.line.ClaimErr = errInjected
	h.reg.releaseErr = map[string]error{"node": errors.New("node busy")}

	err := h.m.Initialize(context.Background())
	if !errors.Is(err, ErrLineClaim) {
		t.Fatalf("Initialize() error = %v, want ErrLineClaim", err)
	}

	want := []string{
		"region.alloc", "class.create", "node.create",
		"line.claim gpiochip0:20",
		"node.release", "class.release", "region.release",
	}
	if got := h.trace.snapshot(); !slices.Equal(got, want) {
		t.Errorf("ops = %v, want %v", got, want)
	}
}

func TestFinalizeForcesOffBeforeLineRelease(t *testing.T) {
	for name, on := range map[string]bool{"from on": true, "from off": false} {
		t.Run(name, func(t *testing.T) {
			h := newReadyHarness(t)
			if err := h.ctrl.Set(on); err != nil {
				t.Fatalf("Set(%v) error = %v", on, err)
			}
			h.trace.reset()

			if err := h.m.Finalize(context.Background()); err != nil {
				t.Fatalf("Finalize() error = %v", err)
			}

			want := []string{
				"line.level 0",
				"line.release",
				"node.release",
				"class.release",
				"region.release",
			}
			if got := h.trace.snapshot(); !slices.Equal(got, want) {
				t.Errorf("ops = %v, want %v", got, want)
			}
			if h.line.Level() {
				t.Error("LED left on after Finalize")
			}
			if h.line.Claimed() {
				t.Error("line still claimed after Finalize")
			}
			if h.m.State() != Unstarted {
				t.Errorf("State() = %v, want %v", h.m.State(), Unstarted)
			}
		})
	}
}

func TestFinalizeIdempotent(t *testing.T) {
	h := newReadyHarness(t)

	if err := h.m.Finalize(context.Background()); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	h.trace.reset()

	if err := h.m.Finalize(context.Background()); err != nil {
		t.Fatalf("second Finalize() error = %v", err)
	}
	if got := h.trace.snapshot(); len(got) != 0 {
		t.Errorf("second Finalize() ops = %v, want none", got)
	}
}

func TestFinalizeBeforeInitialize(t *testing.T) {
	h := newHarness()
	if err := h.m.Finalize(context.Background()); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	if got := h.trace.snapshot(); len(got) != 0 {
		t.Errorf("ops = %v, want none", got)
	}
}

func TestFinalizeReportsReleaseFailures(t *testing.T) {
	h := newHarness()
	h.reg.releaseErr = map[string]error{"class": errInjected}
	if err := h.m.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	h.trace.reset()

	err := h.m.Finalize(context.Background())
	if !errors.Is(err, errInjected) {
		t.Fatalf("Finalize() error = %v, want injected failure", err)
	}

	// The region is released even though the class release failed.
	want := []string{"line.level 0", "line.release", "node.release", "class.release", "region.release"}
	if got := h.trace.snapshot(); !slices.Equal(got, want) {
		t.Errorf("ops = %v, want %v", got, want)
	}
	if h.m.State() != Unstarted {
		t.Errorf("State() = %v, want %v", h.m.State(), Unstarted)
	}
}

func TestReinitializeAfterFinalize(t *testing.T) {
	h := newReadyHarness(t)
	if err := h.m.Finalize(context.Background()); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	h.trace.reset()

	if err := h.m.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() after Finalize error = %v", err)
	}
	if got := h.trace.snapshot(); !slices.Equal(got, acquireOps) {
		t.Errorf("ops = %v, want %v", got, acquireOps)
	}
}

func TestOpenRequiresReady(t *testing.T) {
	h := newHarness()

	if _, err := h.m.Open(); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Open() before Initialize error = %v, want ErrNotReady", err)
	}

	if err := h.m.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if err := h.m.Finalize(context.Background()); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	if _, err := h.m.Open(); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Open() after Finalize error = %v, want ErrNotReady", err)
	}
}

func TestLevelFollowsWrites(t *testing.T) {
	h := newReadyHarness(t)

	s, err := h.m.Open()
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	if h.m.Level() {
		t.Fatal("Level() = true after Initialize, want false")
	}
	if _, err := s.Write([]byte("1")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !h.m.Level() {
		t.Error("Level() = false after writing 1")
	}

	if err := h.m.Finalize(context.Background()); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	if h.m.Level() {
		t.Error("Level() = true after Finalize")
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{Unstarted, "unstarted"},
		{AddressAllocated, "address_allocated"},
		{LineClaimed, "line_claimed"},
		{Ready, "ready"},
		{State(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}

	if got := StepClaimLine.Reaches(); got != LineClaimed {
		t.Errorf("StepClaimLine.Reaches() = %v, want %v", got, LineClaimed)
	}
	if got := StepInitialState.Reaches(); got != Ready {
		t.Errorf("StepInitialState.Reaches() = %v, want %v", got, Ready)
	}
}
