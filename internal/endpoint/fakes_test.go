package endpoint

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/nerrad567/gray-logic-ledd/internal/gpio"
	"github.com/nerrad567/gray-logic-ledd/internal/gpio/gpiotest"
	"github.com/nerrad567/gray-logic-ledd/internal/led"
)

var errInjected = errors.New("injected")

// traceLog collects ops from the registrar and line fakes in one order.
type traceLog struct {
	mu  sync.Mutex
	ops []string
}

func (t *traceLog) add(op string) {
	t.mu.Lock()
	t.ops = append(t.ops, op)
	t.mu.Unlock()
}

func (t *traceLog) snapshot() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.ops...)
}

func (t *traceLog) reset() {
	t.mu.Lock()
	t.ops = nil
	t.mu.Unlock()
}

type fakeResource struct {
	name    string
	trace   *traceLog
	failErr error
}

func (r *fakeResource) Release(context.Context) error {
	r.trace.add(r.name + ".release")
	return r.failErr
}

func (r *fakeResource) Number() (int, int) { return 240, 0 }
func (r *fakeResource) Name() string       { return "my_gpio_class" }
func (r *fakeResource) Path() string       { return "my_gpio_class/my_gpio_device" }

type fakeRegistrar struct {
	trace *traceLog

	allocErr, classErr, nodeErr error

	// releaseErr makes the named resource's release fail.
	releaseErr map[string]error

	ops Operations
}

func (f *fakeRegistrar) resource(name string) *fakeResource {
	return &fakeResource{name: name, trace: f.trace, failErr: f.releaseErr[name]}
}

func (f *fakeRegistrar) AllocRegion(context.Context, string) (Region, error) {
	f.trace.add("region.alloc")
	if f.allocErr != nil {
		return nil, f.allocErr
	}
	return f.resource("region"), nil
}

func (f *fakeRegistrar) CreateClass(context.Context, string) (Class, error) {
	f.trace.add("class.create")
	if f.classErr != nil {
		return nil, f.classErr
	}
	return f.resource("class"), nil
}

func (f *fakeRegistrar) CreateNode(_ context.Context, _ Class, _ Region, _ string, ops Operations) (Node, error) {
	f.trace.add("node.create")
	if f.nodeErr != nil {
		return nil, f.nodeErr
	}
	f.ops = ops
	return f.resource("node"), nil
}

type harness struct {
	trace *traceLog
	reg   *fakeRegistrar
	line  *gpiotest.Line
	ctrl  *led.Controller
	m     *Manager
}

var testPin = gpio.Pin{Chip: "gpiochip0", Offset: 20}

func newHarness() *harness {
	trace := &traceLog{}
	line := gpiotest.New()
	line.Trace = trace.add
	reg := &fakeRegistrar{trace: trace}
	ctrl := led.NewController(line)
	m := NewManager(Config{
		Name:   "my_gpio_device",
		Driver: "my_gpio_driver",
		Class:  "my_gpio_class",
		Pin:    testPin,
	}, reg, line, ctrl)

	return &harness{trace: trace, reg: reg, line: line, ctrl: ctrl, m: m}
}

// newReadyHarness returns an initialised harness with an empty trace.
func newReadyHarness(t *testing.T) *harness {
	t.Helper()
	h := newHarness()
	if err := h.m.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	h.trace.reset()
	return h
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errInjected }

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) { return len(p) - 1, nil }

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errInjected }
