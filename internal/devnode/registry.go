package devnode

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-ledd/internal/endpoint"
	"github.com/nerrad567/gray-logic-ledd/internal/infrastructure/mqtt"
)

// DefaultReadSize is the capacity of a read request with an empty payload.
const DefaultReadSize = 64

// Bus is the part of the MQTT client the registry uses. *mqtt.Client
// satisfies it.
type Bus interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	ClearRetained(topic string) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// Logger is the logging interface used by the registry.
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

// Options tune a Registry.
type Options struct {
	Topics   mqtt.Topics
	QoS      byte
	ReadSize int
}

// Registry implements endpoint.Registrar over a NumberStore and an MQTT bus.
type Registry struct {
	store  *NumberStore
	bus    Bus
	opts   Options
	logger Logger
}

// NewRegistry returns a registry. A ReadSize of zero or less means
// DefaultReadSize.
func NewRegistry(store *NumberStore, bus Bus, opts Options) *Registry {
	if opts.ReadSize <= 0 {
		opts.ReadSize = DefaultReadSize
	}
	return &Registry{store: store, bus: bus, opts: opts, logger: noopLogger{}}
}

// SetLogger sets the logger.
func (r *Registry) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	r.logger = logger
}

// region is a reserved device number.
type region struct {
	store *NumberStore
	res   Reservation
}

func (g *region) Number() (int, int) { return g.res.Number.Major, g.res.Number.Minor }

func (g *region) Release(ctx context.Context) error {
	return g.store.Free(ctx, g.res.Number)
}

// AllocRegion reserves a device number for driver.
func (r *Registry) AllocRegion(ctx context.Context, driver string) (endpoint.Region, error) {
	res, err := r.store.Alloc(ctx, driver)
	if err != nil {
		return nil, err
	}
	if res.Reclaimed {
		r.logger.Warn("reclaimed stale device number", "driver", driver, "number", res.Number.String())
	}
	r.logger.Info("device number reserved", "driver", driver, "number", res.Number.String())
	return &region{store: r.store, res: res}, nil
}

type classDescriptor struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type class struct {
	bus   Bus
	name  string
	topic string
}

func (c *class) Name() string { return c.name }

func (c *class) Release(context.Context) error {
	return c.bus.ClearRetained(c.topic)
}

// CreateClass publishes a retained class descriptor.
func (r *Registry) CreateClass(_ context.Context, name string) (endpoint.Class, error) {
	topic := r.opts.Topics.Class(name)
	payload, err := json.Marshal(classDescriptor{Name: name, CreatedAt: time.Now().UTC()})
	if err != nil {
		return nil, fmt.Errorf("encoding class descriptor: %w", err)
	}
	if err := r.bus.Publish(topic, payload, r.opts.QoS, true); err != nil {
		return nil, fmt.Errorf("publishing class %s: %w", name, err)
	}
	r.logger.Info("class registered", "class", name, "topic", topic)
	return &class{bus: r.bus, name: name, topic: topic}, nil
}

// NodeTopics lists where a node can be reached.
type NodeTopics struct {
	Write string `json:"write"`
	Read  string `json:"read"`
	Data  string `json:"data"`
}

// NodeDescriptor is retained on the node topic while the endpoint exists.
type NodeDescriptor struct {
	Name      string     `json:"name"`
	Class     string     `json:"class"`
	Driver    string     `json:"driver,omitempty"`
	Major     int        `json:"major"`
	Minor     int        `json:"minor"`
	Topics    NodeTopics `json:"topics"`
	CreatedAt time.Time  `json:"created_at"`
}

type node struct {
	bus    Bus
	path   string
	topic  string
	topics NodeTopics

	once sync.Once
	err  error
}

func (n *node) Path() string { return n.path }

// Release removes the descriptor first so nobody discovers a node that
// no longer answers, then drops the request subscriptions.
func (n *node) Release(context.Context) error {
	n.once.Do(func() {
		n.err = errors.Join(
			n.bus.ClearRetained(n.topic),
			n.bus.Unsubscribe(n.topics.Write),
			n.bus.Unsubscribe(n.topics.Read),
		)
	})
	return n.err
}

// CreateNode subscribes to the node's request topics and publishes its
// retained descriptor. On failure nothing stays subscribed.
func (r *Registry) CreateNode(_ context.Context, cls endpoint.Class, reg endpoint.Region, name string, ops endpoint.Operations) (endpoint.Node, error) {
	className := cls.Name()
	t := r.opts.Topics
	n := &node{
		bus:   r.bus,
		path:  className + "/" + name,
		topic: t.Node(className, name),
		topics: NodeTopics{
			Write: t.NodeWrite(className, name),
			Read:  t.NodeRead(className, name),
			Data:  t.NodeData(className, name),
		},
	}

	if err := r.bus.Subscribe(n.topics.Write, r.opts.QoS, r.writeHandler(name, ops)); err != nil {
		return nil, fmt.Errorf("subscribing %s: %w", n.topics.Write, err)
	}
	if err := r.bus.Subscribe(n.topics.Read, r.opts.QoS, r.readHandler(name, n.topics.Data, ops)); err != nil {
		r.unsubscribe(n.topics.Write)
		return nil, fmt.Errorf("subscribing %s: %w", n.topics.Read, err)
	}

	major, minor := reg.Number()
	desc := NodeDescriptor{
		Name:      name,
		Class:     className,
		Major:     major,
		Minor:     minor,
		Topics:    n.topics,
		CreatedAt: time.Now().UTC(),
	}
	if g, ok := reg.(*region); ok {
		desc.Driver = g.res.Driver
	}

	payload, err := json.Marshal(desc)
	if err == nil {
		err = r.bus.Publish(n.topic, payload, r.opts.QoS, true)
	}
	if err != nil {
		r.unsubscribe(n.topics.Read)
		r.unsubscribe(n.topics.Write)
		return nil, fmt.Errorf("publishing node %s: %w", n.path, err)
	}

	r.logger.Info("node created", "node", n.path, "major", major, "minor", minor)
	return n, nil
}

func (r *Registry) unsubscribe(topic string) {
	if err := r.bus.Unsubscribe(topic); err != nil {
		r.logger.Warn("unsubscribe failed", "topic", topic, "error", err)
	}
}

// writeHandler runs one session per write message.
func (r *Registry) writeHandler(name string, ops endpoint.Operations) mqtt.MessageHandler {
	return func(_ string, payload []byte) error {
		s, err := ops.Open()
		if err != nil {
			return fmt.Errorf("opening %s: %w", name, err)
		}
		defer s.Close()

		if _, err := s.Write(payload); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		return nil
	}
}

// readHandler runs one session per read message and publishes what was
// read to dataTopic.
func (r *Registry) readHandler(name, dataTopic string, ops endpoint.Operations) mqtt.MessageHandler {
	return func(_ string, payload []byte) error {
		capacity, err := r.parseCapacity(payload)
		if err != nil {
			return err
		}

		s, err := ops.Open()
		if err != nil {
			return fmt.Errorf("opening %s: %w", name, err)
		}
		defer s.Close()

		var buf bytes.Buffer
		if _, err := s.ReadTo(&buf, capacity); err != nil {
			return fmt.Errorf("reading %s: %w", name, err)
		}
		return r.bus.Publish(dataTopic, buf.Bytes(), r.opts.QoS, false)
	}
}

func (r *Registry) parseCapacity(payload []byte) (int, error) {
	text := strings.TrimSpace(string(payload))
	if text == "" {
		return r.opts.ReadSize, nil
	}
	n, err := strconv.Atoi(text)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrBadCapacity, text)
	}
	return n, nil
}

var _ endpoint.Registrar = (*Registry)(nil)
