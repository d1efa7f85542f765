package cimcore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/smnsjas/go-cimcore/engine"
)

// Application is the process-level root of the object model and the factory
// for Sessions and for freestanding Instances used as method input before any
// session exists. Create one per process with NewApplication and close it at
// teardown.
type Application struct {
	mu     sync.Mutex
	eng    engine.Engine
	appID  string
	sink   logSink
	closed bool
}

// ApplicationOption configures an Application.
type ApplicationOption func(*Application)

// WithAppID attaches an application identity reported to the engine.
func WithAppID(id string) ApplicationOption {
	return func(a *Application) {
		a.appID = id
	}
}

// WithLogger sets an optional debug logger, inherited by Sessions the
// application creates.
func WithLogger(logger Logger) ApplicationOption {
	return func(a *Application) {
		a.sink.logger = logger
	}
}

// WithSlogLogger sets an optional structured debug logger, inherited by
// Sessions the application creates.
func WithSlogLogger(logger *slog.Logger) ApplicationOption {
	return func(a *Application) {
		a.sink.slogLogger = logger
	}
}

// NewApplication creates the process root over the given engine.
func NewApplication(eng engine.Engine, opts ...ApplicationOption) (*Application, error) {
	if eng == nil {
		return nil, fmt.Errorf("new application: engine must not be nil")
	}
	a := &Application{eng: eng}
	for _, opt := range opts {
		opt(a)
	}
	if a.appID != "" {
		a.sink.logf("application %q initialized", a.appID)
	}
	return a, nil
}

// SessionOption configures a Session created by NewSession.
type SessionOption func(*engine.SessionOptions)

// WithProtocol selects the protocol dialect for the conversation. The empty
// string selects the engine default.
func WithProtocol(protocol string) SessionOption {
	return func(o *engine.SessionOptions) {
		o.Protocol = protocol
	}
}

// WithTarget names the endpoint to connect to. The default is ".", the local
// endpoint.
func WithTarget(target string) SessionOption {
	return func(o *engine.SessionOptions) {
		o.Target = target
	}
}

// WithUILocale requests localized schema text, e.g. "en-US".
func WithUILocale(locale string) SessionOption {
	return func(o *engine.SessionOptions) {
		o.UILocale = locale
	}
}

// WithTransport selects the wire transport, engine-defined (e.g. "http").
func WithTransport(transport string) SessionOption {
	return func(o *engine.SessionOptions) {
		o.Transport = transport
	}
}

// WithPort overrides the transport's default port.
func WithPort(port uint32) SessionOption {
	return func(o *engine.SessionOptions) {
		o.Port = port
	}
}

// NewSession opens a conversation with a target endpoint and returns the
// Session wrapping it. The target defaults to the local endpoint ".".
// Unreachable targets and failed credential negotiation surface as
// engine.ErrConnectionFailed.
func (a *Application) NewSession(ctx context.Context, opts ...SessionOption) (*Session, error) {
	sessOpts := engine.SessionOptions{Target: "."}
	for _, opt := range opts {
		opt(&sessOpts)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, fmt.Errorf("new session: %w", engine.ErrInvalidHandle)
	}

	h, err := a.eng.OpenSession(ctx, sessOpts)
	if err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}
	s := &Session{
		eng:    a.eng,
		h:      h,
		id:     uuid.New(),
		target: sessOpts.Target,
		sink:   a.sink,
	}
	a.sink.logf("opened session %s to %q", s.id, sessOpts.Target)
	return s, nil
}

// NewInstance allocates a freestanding, owned Instance of the named class
// for use as method input. When the engine can resolve the class schema the
// elements are pre-populated from it; otherwise the instance starts empty
// and its schema stays unresolved.
func (a *Application) NewInstance(className string) (*Instance, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, fmt.Errorf("new instance: %w", engine.ErrInvalidHandle)
	}

	h, err := a.eng.NewInstance(className)
	if err != nil {
		return nil, fmt.Errorf("new instance %q: %w", className, err)
	}
	return newInstance(a.eng, h, Owned), nil
}

// Close shuts the application down. Further factory calls fail
// engine.ErrInvalidHandle. Sessions already created stay usable until closed
// individually.
func (a *Application) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	return nil
}
