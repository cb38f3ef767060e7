package endpoint

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-ledd/internal/gpio"
	"github.com/nerrad567/gray-logic-ledd/internal/led"
)

// Logger defines the logging interface used by the endpoint.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Config names the endpoint and the line it drives.
type Config struct {
	// Name is the endpoint node name, e.g. "my_gpio_device".
	Name string

	// Driver is the name the device number is reserved under.
	Driver string

	// Class is the category the node is created in.
	Class string

	// Pin is the LED line.
	Pin gpio.Pin
}

// Manager owns the endpoint lifecycle and the sessions opened on it.
//
// Thread Safety: Initialize and Finalize are exclusive. Protocol calls may
// run concurrently with each other.
type Manager struct {
	cfg    Config
	reg    Registrar
	line   gpio.Line
	ctrl   *led.Controller
	logger Logger

	mu     sync.RWMutex
	state  State
	chain  chain
	region Region
	class  Class
	node   Node
	handle gpio.Handle

	open atomic.Int64
}

// NewManager returns an Unstarted manager. ctrl must be built over line.
func NewManager(cfg Config, reg Registrar, line gpio.Line, ctrl *led.Controller) *Manager {
	return &Manager{
		cfg:    cfg,
		reg:    reg,
		line:   line,
		ctrl:   ctrl,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger. Call before Initialize.
func (m *Manager) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	m.logger = logger
}

// Initialize walks the acquisition chain to Ready. On failure everything
// acquired so far is released in reverse order, the manager is Unstarted
// again and the error is an *InitError naming the failed step.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Unstarted {
		return ErrAlreadyInitialized
	}

	steps := []struct {
		step Step
		run  func(ctx context.Context) error
	}{
		{StepAllocRegion, m.allocRegion},
		{StepRegisterClass, m.registerClass},
		{StepCreateNode, m.createNode},
		{StepClaimLine, m.claimLine},
		{StepSetDirection, m.setDirection},
		{StepInitialState, m.initialState},
	}

	for _, s := range steps {
		if err := s.run(ctx); err != nil {
			m.logger.Error("endpoint initialisation failed",
				"device", m.cfg.Name,
				"step", s.step.String(),
				"error", err,
			)
			m.rollback(ctx)
			return &InitError{Step: s.step, Err: err}
		}
		m.state = s.step.Reaches()
		m.logger.Debug("endpoint step complete", "device", m.cfg.Name, "state", m.state.String())
	}

	major, minor := m.region.Number()
	m.logger.Info("endpoint ready",
		"device", m.cfg.Name,
		"node", m.node.Path(),
		"major", major,
		"minor", minor,
		"pin", m.cfg.Pin.String(),
	)
	return nil
}

func (m *Manager) allocRegion(ctx context.Context) error {
	region, err := m.reg.AllocRegion(ctx, m.cfg.Driver)
	if err != nil {
		return fmt.Errorf("%w: reserving device number for %q: %w", ErrAllocation, m.cfg.Driver, err)
	}
	m.region = region
	m.chain.push(StepAllocRegion, func(ctx context.Context) error {
		m.region = nil
		return region.Release(ctx)
	})
	return nil
}

func (m *Manager) registerClass(ctx context.Context) error {
	class, err := m.reg.CreateClass(ctx, m.cfg.Class)
	if err != nil {
		return fmt.Errorf("%w: registering class %q: %w", ErrAllocation, m.cfg.Class, err)
	}
	m.class = class
	m.chain.push(StepRegisterClass, func(ctx context.Context) error {
		m.class = nil
		return class.Release(ctx)
	})
	return nil
}

func (m *Manager) createNode(ctx context.Context) error {
	node, err := m.reg.CreateNode(ctx, m.class, m.region, m.cfg.Name, m)
	if err != nil {
		return fmt.Errorf("%w: creating node %q: %w", ErrAllocation, m.cfg.Name, err)
	}
	m.node = node
	m.chain.push(StepCreateNode, func(ctx context.Context) error {
		m.node = nil
		return node.Release(ctx)
	})
	return nil
}

func (m *Manager) claimLine(_ context.Context) error {
	h, err := m.line.Claim(m.cfg.Pin)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrLineClaim, m.cfg.Pin, err)
	}
	m.handle = h
	m.chain.push(StepClaimLine, func(context.Context) error {
		m.ctrl.Detach()
		m.handle = nil
		return m.line.Release(h)
	})
	return nil
}

func (m *Manager) setDirection(_ context.Context) error {
	if err := m.line.SetDirection(m.handle, gpio.Output); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDirectionConfig, m.cfg.Pin, err)
	}
	m.ctrl.Attach(m.handle)
	return nil
}

func (m *Manager) initialState(_ context.Context) error {
	return m.ctrl.Set(false)
}

// rollback releases the chain after a failed step. Release failures are
// logged; the caller reports the step failure. Releases ignore cancellation
// of ctx so a shutdown signal mid-startup cannot strand a resource.
func (m *Manager) rollback(ctx context.Context) {
	m.chain.unwind(context.WithoutCancel(ctx), func(step Step, err error) {
		m.logger.Warn("release failed during rollback",
			"device", m.cfg.Name,
			"step", step.String(),
			"error", err,
		)
	})
	m.state = Unstarted
}

// Finalize turns the LED off and releases everything Initialize acquired,
// newest first. It is safe to call in any state and more than once. Every
// release is attempted; failures are joined into the returned error.
func (m *Manager) Finalize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.chain) == 0 {
		m.state = Unstarted
		return nil
	}

	var errs []error
	if m.state >= DirectionSet {
		if err := m.ctrl.Set(false); err != nil {
			m.logger.Error("could not turn LED off", "device", m.cfg.Name, "error", err)
			errs = append(errs, err)
		}
	}

	m.chain.unwind(ctx, func(step Step, err error) {
		m.logger.Error("release failed", "device", m.cfg.Name, "step", step.String(), "error", err)
		errs = append(errs, fmt.Errorf("releasing %s: %w", step, err))
	})
	m.state = Unstarted

	if open := m.open.Load(); open > 0 {
		m.logger.Warn("endpoint finalized with open sessions", "device", m.cfg.Name, "open_sessions", open)
	}
	m.logger.Info("endpoint finalized", "device", m.cfg.Name)
	return errors.Join(errs...)
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Name returns the endpoint node name.
func (m *Manager) Name() string {
	return m.cfg.Name
}

// OpenSessions is the number of sessions opened and not yet closed.
func (m *Manager) OpenSessions() int64 {
	return m.open.Load()
}

// Level is the stored LED level. It reads the controller directly, so it
// answers in any state; outside Ready it is false.
func (m *Manager) Level() bool {
	return m.ctrl.Current()
}

// Open starts a session. It fails with ErrNotReady unless the manager is
// Ready.
func (m *Manager) Open() (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.state != Ready {
		return nil, ErrNotReady
	}

	s := &Session{id: uuid.NewString(), m: m}
	n := m.open.Add(1)
	m.logger.Info("device opened", "device", m.cfg.Name, "session", s.id, "open_sessions", n)
	return s, nil
}

// ready runs fn under the read lock if the manager is Ready.
func (m *Manager) ready(fn func() error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.state != Ready {
		return ErrNotReady
	}
	return fn()
}

var _ Operations = (*Manager)(nil)
