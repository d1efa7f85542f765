// Package engine defines the boundary to the native management-protocol
// engine: a handle-based contract covering session setup, query and
// enumeration cursors, schema lookup, method invocation, element access, and
// handle release. The engine owns wire encoding, transport, authentication,
// and timeouts; this package only names the primitives the object model
// calls.
//
// # Handles
//
// Handles are opaque tokens minted by the engine. The object model tracks
// which handles it owns and releases each owned handle exactly once; handles
// obtained from a view pull are on loan and are invalidated by the engine on
// the next pull. Using a released or never-issued handle fails
// ErrInvalidHandle.
//
// # Blocking
//
// Every call that may perform a remote round trip takes a context. Release
// primitives do not: abandoning a cursor or an instance must never block on
// draining or on the network.
package engine

import (
	"context"

	"github.com/smnsjas/go-cimcore/cim"
)

// SessionHandle identifies an open conversation with a target.
type SessionHandle uint64

// CursorHandle identifies an in-flight query or enumeration.
type CursorHandle uint64

// InstanceHandle identifies one data object allocation.
type InstanceHandle uint64

// ClassHandle identifies one schema object allocation.
type ClassHandle uint64

// SessionOptions carries the destination parameters for opening a session.
// Zero values select engine defaults; the empty target means the local
// endpoint (".").
type SessionOptions struct {
	// Protocol selects the transport protocol dialect, engine-defined.
	Protocol string
	// Target names the endpoint to connect to. "." is the local endpoint.
	Target string
	// UILocale requests localized schema text, e.g. "en-US".
	UILocale string
	// Transport selects the wire transport, engine-defined (e.g. "http").
	Transport string
	// Port overrides the transport's default port when non-zero.
	Port uint32
}

// Engine is the handle-based native engine contract. Implementations must be
// safe for concurrent use; the object model serializes calls per handle but
// calls on distinct handles may overlap.
type Engine interface {
	// OpenSession opens a conversation with the target endpoint.
	OpenSession(ctx context.Context, opts SessionOptions) (SessionHandle, error)
	// CloseSession closes the conversation and invalidates the handle.
	CloseSession(ctx context.Context, s SessionHandle) error

	// ExecQuery begins a query in the given namespace and returns a cursor
	// streaming instance results. Rejections (bad namespace, bad query,
	// unsupported dialect) are reported here, before any pull.
	ExecQuery(ctx context.Context, s SessionHandle, namespace, query, dialect string) (CursorHandle, error)
	// EnumerateInstances begins a query-free enumeration of all instances
	// of a class.
	EnumerateInstances(ctx context.Context, s SessionHandle, namespace, className string) (CursorHandle, error)
	// EnumerateClasses begins an enumeration of the class definitions in a
	// namespace; the cursor streams class results.
	EnumerateClasses(ctx context.Context, s SessionHandle, namespace string) (CursorHandle, error)

	// PullInstance pulls the next instance from a cursor, transferring
	// ownership of the returned handle to the caller. The second return is
	// false at end-of-stream.
	PullInstance(ctx context.Context, c CursorHandle) (InstanceHandle, bool, error)
	// PullInstanceView pulls the next instance as a loaned handle. The loan
	// is revoked by the next pull on the same cursor and by CloseCursor;
	// the caller must not release it.
	PullInstanceView(ctx context.Context, c CursorHandle) (InstanceHandle, bool, error)
	// PullClass pulls the next class definition, transferring ownership.
	// The second return is false at end-of-stream.
	PullClass(ctx context.Context, c CursorHandle) (ClassHandle, bool, error)
	// CloseCursor releases the cursor in any state, without draining.
	CloseCursor(c CursorHandle) error

	// GetClass retrieves a class definition; the caller owns the handle.
	GetClass(ctx context.Context, s SessionHandle, namespace, className string) (ClassHandle, error)
	// InvokeMethod invokes a method on an instance. The returned handle,
	// owned by the caller, carries the output parameters and return value.
	// in may be zero for methods without input parameters.
	InvokeMethod(ctx context.Context, s SessionHandle, inst InstanceHandle, methodName string, in InstanceHandle) (InstanceHandle, error)
	// InvokeClassMethod invokes a method addressed by namespace and class
	// name rather than by a live instance.
	InvokeClassMethod(ctx context.Context, s SessionHandle, namespace, className, methodName string, in InstanceHandle) (InstanceHandle, error)

	// NewInstance allocates a freestanding instance of the named class,
	// pre-populated from the class schema when the engine can resolve it.
	NewInstance(className string) (InstanceHandle, error)
	// CloneInstance allocates an independent copy; the caller owns it.
	CloneInstance(h InstanceHandle) (InstanceHandle, error)

	// InstanceClassName returns the class name of an instance.
	InstanceClassName(h InstanceHandle) (string, error)
	// InstanceNamespace returns the namespace of an instance. Freestanding
	// instances have an empty namespace.
	InstanceNamespace(h InstanceHandle) (string, error)
	// InstanceClass returns the schema of an instance as an owned class
	// handle, or ErrSchemaUnavailable when no schema is reachable.
	InstanceClass(h InstanceHandle) (ClassHandle, error)
	// InstanceElementCount returns the number of elements.
	InstanceElementCount(h InstanceHandle) (int, error)
	// InstanceElement returns the named element.
	InstanceElement(h InstanceHandle, name string) (cim.Element, error)
	// InstanceElementAt returns the element at a zero-based index.
	InstanceElementAt(h InstanceHandle, index int) (cim.Element, error)
	// InstanceAddElement adds a new element; the name must not be present.
	InstanceAddElement(h InstanceHandle, name string, value any, typ cim.Type) error
	// InstanceSetElement sets the named element; typ must match the
	// element's declared type.
	InstanceSetElement(h InstanceHandle, name string, value any, typ cim.Type) error
	// InstanceSetElementAt sets the element at an index.
	InstanceSetElementAt(h InstanceHandle, index int, value any, typ cim.Type) error
	// InstanceClearElement resets the named element to its type's null
	// representation without removing it.
	InstanceClearElement(h InstanceHandle, name string) error
	// InstanceClearElementAt resets the element at an index.
	InstanceClearElementAt(h InstanceHandle, index int) error
	// ReleaseInstance frees the allocation behind an owned handle.
	ReleaseInstance(h InstanceHandle) error

	// ClassName returns the class's name.
	ClassName(h ClassHandle) (string, error)
	// ClassElementCount returns the number of property declarations.
	ClassElementCount(h ClassHandle) (int, error)
	// ClassElement returns the named property declaration; its value is the
	// schema default.
	ClassElement(h ClassHandle, name string) (cim.Element, error)
	// ClassElementAt returns the property declaration at an index.
	ClassElementAt(h ClassHandle, index int) (cim.Element, error)
	// ClassMethodCount returns the number of methods.
	ClassMethodCount(h ClassHandle) (int, error)
	// ClassMethod returns the named method descriptor as an independent
	// copy.
	ClassMethod(h ClassHandle, name string) (cim.MethodInfo, error)
	// ClassMethodAt returns the method descriptor at an index.
	ClassMethodAt(h ClassHandle, index int) (cim.MethodInfo, error)
	// ReleaseClass frees the allocation behind a class handle.
	ReleaseClass(h ClassHandle) error
}
