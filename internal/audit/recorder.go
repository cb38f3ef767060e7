package audit

import (
	"context"
	"time"
)

// writeTimeout bounds a single event insert made from an observer.
const writeTimeout = 2 * time.Second

// Logger is the logging interface used by the recorder.
type Logger interface {
	Warn(msg string, args ...any)
}

// Recorder writes events for one device. Recording never fails the
// operation that triggered it; errors are logged.
type Recorder struct {
	repo   Repository
	device string
	source string
	logger Logger
}

// NewRecorder returns a recorder tagging events with device and source.
func NewRecorder(repo Repository, device, source string, logger Logger) *Recorder {
	return &Recorder{repo: repo, device: device, source: source, logger: logger}
}

// LevelChanged records a level change. Its signature matches
// led.Controller.OnChange.
func (r *Recorder) LevelChanged(level bool) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	r.record(ctx, &Event{Action: ActionLevelChanged, Level: &level})
}

// Lifecycle records an endpoint lifecycle action such as ActionInitialized.
func (r *Recorder) Lifecycle(ctx context.Context, action string, details map[string]any) {
	r.record(ctx, &Event{Action: action, Details: details})
}

func (r *Recorder) record(ctx context.Context, e *Event) {
	e.Device = r.device
	e.Source = r.source
	if err := r.repo.Create(ctx, e); err != nil && r.logger != nil {
		r.logger.Warn("recording event failed", "device", r.device, "action", e.Action, "error", err)
	}
}
