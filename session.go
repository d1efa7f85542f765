package cimcore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/smnsjas/go-cimcore/engine"
)

// DefaultDialect is the query dialect used when none is requested.
const DefaultDialect = "WQL"

// Session is one open conversation with a target endpoint. It is the factory
// for Operations and the entry point for direct method invocation and class
// lookup.
//
// A Session is safe for concurrent use: its lock is held exactly for the
// duration of each synchronous engine call, so at most one call is inside
// the engine for this session at a time while callers on other handles make
// progress. Do not issue nested calls on the same Session from within a call
// on it.
type Session struct {
	mu     sync.Mutex
	eng    engine.Engine
	h      engine.SessionHandle
	id     uuid.UUID
	target string
	sink   logSink
	closed bool
}

// ID returns the session's unique identifier.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Target returns the endpoint this session is connected to.
func (s *Session) Target() string {
	return s.target
}

// SetLogger sets an optional debug logger for this session, replacing the
// one inherited from the Application.
func (s *Session) SetLogger(logger Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink.logger = logger
}

// SetSlogLogger sets an optional structured debug logger for this session.
func (s *Session) SetSlogLogger(logger *slog.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink.slogLogger = logger
}

// ExecQuery runs a query in the given namespace using the default dialect
// and returns an active Operation streaming instance results. Rejections the
// engine reports up front surface here as engine.ErrInvalidNamespace,
// engine.ErrInvalidQuery, or engine.ErrUnsupportedDialect; failures
// discovered during streaming surface as engine.ErrProtocol on later pulls.
func (s *Session) ExecQuery(ctx context.Context, namespace, query string) (*Operation, error) {
	return s.ExecQueryDialect(ctx, namespace, query, DefaultDialect)
}

// ExecQueryDialect runs a query expressed in an explicit dialect.
func (s *Session) ExecQueryDialect(ctx context.Context, namespace, query, dialect string) (*Operation, error) {
	if dialect == "" {
		dialect = DefaultDialect
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("exec query: %w", engine.ErrInvalidHandle)
	}

	c, err := s.eng.ExecQuery(ctx, s.h, namespace, query, dialect)
	if err != nil {
		return nil, fmt.Errorf("exec query in %q: %w", namespace, err)
	}
	op := newOperation(s.eng, c, kindInstances, s.sink)
	s.sink.logf("session %s: query operation %s started in %q", s.id, op.id, namespace)
	return op, nil
}

// EnumerateInstances begins a query-free enumeration of all instances of a
// class and returns an active Operation streaming instance results.
func (s *Session) EnumerateInstances(ctx context.Context, namespace, className string) (*Operation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("enumerate instances: %w", engine.ErrInvalidHandle)
	}

	c, err := s.eng.EnumerateInstances(ctx, s.h, namespace, className)
	if err != nil {
		return nil, fmt.Errorf("enumerate instances of %q in %q: %w", className, namespace, err)
	}
	op := newOperation(s.eng, c, kindInstances, s.sink)
	s.sink.logf("session %s: instance enumeration %s started for %q", s.id, op.id, className)
	return op, nil
}

// EnumerateClasses begins an enumeration of the class definitions in a
// namespace and returns an active Operation streaming class results.
func (s *Session) EnumerateClasses(ctx context.Context, namespace string) (*Operation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("enumerate classes: %w", engine.ErrInvalidHandle)
	}

	c, err := s.eng.EnumerateClasses(ctx, s.h, namespace)
	if err != nil {
		return nil, fmt.Errorf("enumerate classes in %q: %w", namespace, err)
	}
	op := newOperation(s.eng, c, kindClasses, s.sink)
	s.sink.logf("session %s: class enumeration %s started in %q", s.id, op.id, namespace)
	return op, nil
}

// InvokeMethod invokes a method on a live instance. in carries the input
// parameters and may be nil for methods taking none. The result is an owned
// Instance holding the output parameters and the method's return value.
func (s *Session) InvokeMethod(ctx context.Context, inst *Instance, methodName string, in *Instance) (*Instance, error) {
	if inst == nil {
		return nil, fmt.Errorf("invoke %q: %w", methodName, engine.ErrInvalidHandle)
	}
	target, err := inst.handleRef()
	if err != nil {
		return nil, fmt.Errorf("invoke %q: %w", methodName, err)
	}
	inHandle, err := inputHandle(in)
	if err != nil {
		return nil, fmt.Errorf("invoke %q: %w", methodName, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("invoke %q: %w", methodName, engine.ErrInvalidHandle)
	}

	out, err := s.eng.InvokeMethod(ctx, s.h, target, methodName, inHandle)
	if err != nil {
		return nil, fmt.Errorf("invoke %q: %w", methodName, err)
	}
	s.sink.logf("session %s: invoked %q", s.id, methodName)
	return newInstance(s.eng, out, Owned), nil
}

// InvokeClassMethod invokes a method addressed by namespace and class name
// rather than by a live instance.
func (s *Session) InvokeClassMethod(ctx context.Context, namespace, className, methodName string, in *Instance) (*Instance, error) {
	inHandle, err := inputHandle(in)
	if err != nil {
		return nil, fmt.Errorf("invoke %s.%s: %w", className, methodName, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("invoke %s.%s: %w", className, methodName, engine.ErrInvalidHandle)
	}

	out, err := s.eng.InvokeClassMethod(ctx, s.h, namespace, className, methodName, inHandle)
	if err != nil {
		return nil, fmt.Errorf("invoke %s.%s: %w", className, methodName, err)
	}
	s.sink.logf("session %s: invoked %s.%s in %q", s.id, className, methodName, namespace)
	return newInstance(s.eng, out, Owned), nil
}

// GetClass retrieves a class definition from the namespace. The returned
// Class is owned by the caller.
func (s *Session) GetClass(ctx context.Context, namespace, className string) (*Class, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("get class %q: %w", className, engine.ErrInvalidHandle)
	}

	h, err := s.eng.GetClass(ctx, s.h, namespace, className)
	if err != nil {
		return nil, fmt.Errorf("get class %q in %q: %w", className, namespace, err)
	}
	return newClass(s.eng, h), nil
}

// Close closes the underlying conversation. Any use of the session after
// Close fails engine.ErrInvalidHandle. Close is idempotent.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.sink.logf("session %s: closing", s.id)
	if err := s.eng.CloseSession(ctx, s.h); err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	return nil
}

// inputHandle resolves the engine handle of an optional input-parameter
// instance. A nil instance means no input parameters.
func inputHandle(in *Instance) (engine.InstanceHandle, error) {
	if in == nil {
		return 0, nil
	}
	return in.handleRef()
}
