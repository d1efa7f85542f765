package cimcore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/smnsjas/go-cimcore/engine"
)

// OperationState represents the streaming state of an Operation.
type OperationState int

const (
	// StateActive means more results may exist and pulls are permitted.
	StateActive OperationState = iota
	// StateExhausted is terminal: the stream ended normally and further
	// pulls report end-of-stream.
	StateExhausted
	// StateFailed is terminal: a pull failed and further pulls return the
	// same failure.
	StateFailed
)

// String returns a string representation of the state.
func (s OperationState) String() string {
	switch s {
	case StateActive:
		return "Active"
	case StateExhausted:
		return "Exhausted"
	case StateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// resultKind fixes which item kind a cursor streams. It is determined by
// what produced the Operation and never changes.
type resultKind int

const (
	kindInstances resultKind = iota
	kindClasses
)

func (k resultKind) String() string {
	if k == kindClasses {
		return "classes"
	}
	return "instances"
}

// Operation is a streaming cursor over the results of a query, instance
// enumeration, or class enumeration. Results are pulled one at a time, in
// the order the engine streams them; pulls on one Operation are strictly
// sequential.
//
// Each successfully pulled item is owned by the caller and independent of the
// cursor: it may be retained, mutated, and closed regardless of the cursor's
// own lifetime and of sibling items. Closing the Operation before it is
// exhausted is a supported pattern and releases the cursor without draining.
type Operation struct {
	mu     sync.Mutex
	eng    engine.Engine
	h      engine.CursorHandle
	id     uuid.UUID
	kind   resultKind
	state  OperationState
	err    error
	view   *Instance
	sink   logSink
	closed bool
}

func newOperation(eng engine.Engine, h engine.CursorHandle, kind resultKind, sink logSink) *Operation {
	return &Operation{
		eng:   eng,
		h:     h,
		id:    uuid.New(),
		kind:  kind,
		state: StateActive,
		sink:  sink,
	}
}

// ID returns the operation's unique identifier.
func (o *Operation) ID() uuid.UUID {
	return o.id
}

// State returns the current streaming state.
func (o *Operation) State() OperationState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Exhausted reports whether the stream has ended, normally or by failure.
func (o *Operation) Exhausted() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state != StateActive
}

// GetNextInstance pulls the next result from an instance-streaming cursor,
// transferring ownership of the result to the caller. It returns ok=false at
// end-of-stream; pulling an exhausted operation is a no-op that keeps
// reporting end-of-stream. A failure during a pull latches the operation
// into its failed state and is returned again by every later pull.
func (o *Operation) GetNextInstance(ctx context.Context) (*Instance, bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.pullable(kindInstances); err != nil {
		return nil, false, err
	}
	if o.state != StateActive {
		return nil, false, o.err
	}

	h, ok, err := o.eng.PullInstance(ctx, o.h)
	if err != nil {
		return nil, false, o.fail(err)
	}
	o.dropView()
	if !ok {
		o.state = StateExhausted
		o.sink.logf("operation %s: exhausted", o.id)
		return nil, false, nil
	}
	return newInstance(o.eng, h, Owned), true, nil
}

// NextInstanceView pulls the next result as a borrowed Instance. The view is
// on loan from the cursor: it is valid only until the next pull or Close,
// must not be mutated, and is never released by its own Close. Use Clone to
// retain it as an owned copy.
func (o *Operation) NextInstanceView(ctx context.Context) (*Instance, bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.pullable(kindInstances); err != nil {
		return nil, false, err
	}
	if o.state != StateActive {
		return nil, false, o.err
	}

	h, ok, err := o.eng.PullInstanceView(ctx, o.h)
	if err != nil {
		return nil, false, o.fail(err)
	}
	o.dropView()
	if !ok {
		o.state = StateExhausted
		o.sink.logf("operation %s: exhausted", o.id)
		return nil, false, nil
	}
	o.view = newInstance(o.eng, h, Borrowed)
	return o.view, true, nil
}

// GetNextClass pulls the next result from a class-streaming cursor,
// transferring ownership of the result to the caller. End-of-stream and
// failure semantics match GetNextInstance.
func (o *Operation) GetNextClass(ctx context.Context) (*Class, bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.pullable(kindClasses); err != nil {
		return nil, false, err
	}
	if o.state != StateActive {
		return nil, false, o.err
	}

	h, ok, err := o.eng.PullClass(ctx, o.h)
	if err != nil {
		return nil, false, o.fail(err)
	}
	o.dropView()
	if !ok {
		o.state = StateExhausted
		o.sink.logf("operation %s: exhausted", o.id)
		return nil, false, nil
	}
	return newClass(o.eng, h), true, nil
}

// Close releases the underlying cursor in any state, including Active, and
// revokes any outstanding view. It never blocks on draining remaining
// results and is idempotent.
func (o *Operation) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil
	}
	o.closed = true
	o.dropView()
	o.sink.logf("operation %s: closed in state %s", o.id, o.state)
	if err := o.eng.CloseCursor(o.h); err != nil && !errors.Is(err, engine.ErrInvalidHandle) {
		return fmt.Errorf("close operation: %w", err)
	}
	return nil
}

// pullable checks that the cursor is usable and streams the requested kind.
// Callers hold o.mu.
func (o *Operation) pullable(kind resultKind) error {
	if o.closed {
		return fmt.Errorf("pull: %w", engine.ErrInvalidHandle)
	}
	if o.kind != kind {
		return fmt.Errorf("pull: operation streams %s: %w", o.kind, engine.ErrWrongResultKind)
	}
	return nil
}

// fail latches a pull failure. The operation becomes unusable for further
// results; every later pull returns the same error. Callers hold o.mu.
func (o *Operation) fail(err error) error {
	if !errors.Is(err, engine.ErrProtocol) {
		err = fmt.Errorf("%w: %v", engine.ErrProtocol, err)
	}
	o.state = StateFailed
	o.err = err
	o.dropView()
	o.sink.logf("operation %s: failed: %v", o.id, err)
	return err
}

// dropView revokes the loan backing the previous view, if any. Callers hold
// o.mu.
func (o *Operation) dropView() {
	if o.view != nil {
		o.view.invalidate()
		o.view = nil
	}
}
