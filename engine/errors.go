package engine

import "errors"

var (
	// ErrConnectionFailed is returned when a session cannot be opened
	// against the target endpoint.
	ErrConnectionFailed = errors.New("connection failed")
	// ErrInvalidHandle is returned when a released or never-issued handle
	// is used.
	ErrInvalidHandle = errors.New("invalid handle")
	// ErrInvalidNamespace is returned when the namespace does not exist.
	ErrInvalidNamespace = errors.New("invalid namespace")
	// ErrInvalidQuery is returned when the engine rejects the query text
	// before streaming begins.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrUnsupportedDialect is returned when the engine does not speak the
	// requested query dialect.
	ErrUnsupportedDialect = errors.New("unsupported query dialect")
	// ErrProtocol is returned for failures surfaced mid-stream or mid-call
	// by the engine, including engine-side timeouts.
	ErrProtocol = errors.New("protocol error")
	// ErrNotFound is returned when an element, method, or class lookup
	// misses.
	ErrNotFound = errors.New("not found")
	// ErrIndexOutOfRange is returned when an index lookup is past the end.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrDuplicateElement is returned when adding an element whose name is
	// already present.
	ErrDuplicateElement = errors.New("duplicate element")
	// ErrTypeMismatch is returned when a value or its stated type is
	// incompatible with the element's declared type.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrWrongResultKind is returned when the wrong item kind is pulled
	// from a cursor.
	ErrWrongResultKind = errors.New("wrong result kind")
	// ErrMethodNotFound is returned when the class declares no such method.
	ErrMethodNotFound = errors.New("method not found")
	// ErrInvocationFailed is returned when the engine reports a method
	// invocation failure.
	ErrInvocationFailed = errors.New("method invocation failed")
	// ErrReadOnlyInstance is returned when mutation is attempted on a
	// borrowed instance.
	ErrReadOnlyInstance = errors.New("instance is read-only")
	// ErrSchemaUnavailable is returned when no class information is
	// reachable for an instance.
	ErrSchemaUnavailable = errors.New("schema unavailable")
)
