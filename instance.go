package cimcore

import (
	"errors"
	"fmt"
	"sync"

	"github.com/smnsjas/go-cimcore/cim"
	"github.com/smnsjas/go-cimcore/engine"
)

// Ownership tags who is responsible for the engine allocation behind an
// Instance.
type Ownership int

const (
	// Owned means this wrapper exclusively owns the allocation and releases
	// it on Close.
	Owned Ownership = iota
	// Borrowed means the allocation is on loan from another scope (a cursor
	// view); Close never releases it and mutation is rejected.
	Borrowed
)

// String returns a string representation of the ownership tag.
func (o Ownership) String() string {
	if o == Borrowed {
		return "Borrowed"
	}
	return "Owned"
}

// Instance is a named, namespaced bag of typed elements representing one
// data object of a class. Instances are produced by Operations, by method
// invocation, by Application.NewInstance, and by Clone; there is no public
// constructor.
//
// An owned Instance releases its engine allocation exactly once, on Close. A
// borrowed Instance (see Operation.NextInstanceView) must not outlive the
// pull that produced it; Clone it to retain a durable, owned copy.
type Instance struct {
	mu        sync.Mutex
	eng       engine.Engine
	h         engine.InstanceHandle
	ownership Ownership
	className string
	namespace string
	fetched   bool
	closed    bool
}

func newInstance(eng engine.Engine, h engine.InstanceHandle, ownership Ownership) *Instance {
	return &Instance{eng: eng, h: h, ownership: ownership}
}

// Ownership returns the instance's ownership tag.
func (i *Instance) Ownership() Ownership {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.ownership
}

// ClassName returns the name of the instance's class.
func (i *Instance) ClassName() (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.fetchIdentity(); err != nil {
		return "", err
	}
	return i.className, nil
}

// Namespace returns the namespace the instance lives in. Freestanding
// instances created by Application.NewInstance have an empty namespace.
func (i *Instance) Namespace() (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.fetchIdentity(); err != nil {
		return "", err
	}
	return i.namespace, nil
}

// Clone returns a new, independently owned Instance with the same element
// values, namespace, and class name. The copy never aliases the source's
// storage, so mutating one never affects the other. Clone is valid on
// borrowed instances and is the way to retain a cursor view.
func (i *Instance) Clone() (*Instance, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return nil, fmt.Errorf("clone: %w", engine.ErrInvalidHandle)
	}
	h, err := i.eng.CloneInstance(i.h)
	if err != nil {
		return nil, fmt.Errorf("clone: %w", err)
	}
	return newInstance(i.eng, h, Owned), nil
}

// GetClass returns the schema object describing this instance's type. The
// returned Class is owned by the caller. Instances whose class could not be
// resolved fail engine.ErrSchemaUnavailable.
func (i *Instance) GetClass() (*Class, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return nil, fmt.Errorf("get class: %w", engine.ErrInvalidHandle)
	}
	h, err := i.eng.InstanceClass(i.h)
	if err != nil {
		return nil, fmt.Errorf("get class: %w", err)
	}
	return newClass(i.eng, h), nil
}

// ElementCount returns the number of elements.
func (i *Instance) ElementCount() (int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return 0, fmt.Errorf("element count: %w", engine.ErrInvalidHandle)
	}
	n, err := i.eng.InstanceElementCount(i.h)
	if err != nil {
		return 0, fmt.Errorf("element count: %w", err)
	}
	return n, nil
}

// GetElement returns the named element.
func (i *Instance) GetElement(name string) (cim.Element, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return cim.Element{}, fmt.Errorf("get element %q: %w", name, engine.ErrInvalidHandle)
	}
	el, err := i.eng.InstanceElement(i.h, name)
	if err != nil {
		return cim.Element{}, fmt.Errorf("get element %q: %w", name, err)
	}
	return el, nil
}

// GetElementAt returns the element at a zero-based index.
func (i *Instance) GetElementAt(index int) (cim.Element, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return cim.Element{}, fmt.Errorf("get element %d: %w", index, engine.ErrInvalidHandle)
	}
	el, err := i.eng.InstanceElementAt(i.h, index)
	if err != nil {
		return cim.Element{}, fmt.Errorf("get element %d: %w", index, err)
	}
	return el, nil
}

// GetElementType returns the declared type of the named element.
func (i *Instance) GetElementType(name string) (cim.Type, error) {
	el, err := i.GetElement(name)
	if err != nil {
		return 0, err
	}
	return el.Type, nil
}

// GetElementTypeAt returns the declared type of the element at an index.
func (i *Instance) GetElementTypeAt(index int) (cim.Type, error) {
	el, err := i.GetElementAt(index)
	if err != nil {
		return 0, err
	}
	return el.Type, nil
}

// AddElement adds a new element. Adding a name that is already present fails
// engine.ErrDuplicateElement.
func (i *Instance) AddElement(name string, value any, typ cim.Type) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.mutable(); err != nil {
		return fmt.Errorf("add element %q: %w", name, err)
	}
	if err := i.eng.InstanceAddElement(i.h, name, value, typ); err != nil {
		return fmt.Errorf("add element %q: %w", name, err)
	}
	return nil
}

// SetElement sets the named element's value. typ must match the element's
// declared type; on engine.ErrTypeMismatch the prior value is preserved.
func (i *Instance) SetElement(name string, value any, typ cim.Type) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.mutable(); err != nil {
		return fmt.Errorf("set element %q: %w", name, err)
	}
	if err := i.eng.InstanceSetElement(i.h, name, value, typ); err != nil {
		return fmt.Errorf("set element %q: %w", name, err)
	}
	return nil
}

// SetElementAt sets the element at a zero-based index.
func (i *Instance) SetElementAt(index int, value any, typ cim.Type) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.mutable(); err != nil {
		return fmt.Errorf("set element %d: %w", index, err)
	}
	if err := i.eng.InstanceSetElementAt(i.h, index, value, typ); err != nil {
		return fmt.Errorf("set element %d: %w", index, err)
	}
	return nil
}

// ClearElement resets the named element to its type's null representation.
// The element stays in the element set.
func (i *Instance) ClearElement(name string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.mutable(); err != nil {
		return fmt.Errorf("clear element %q: %w", name, err)
	}
	if err := i.eng.InstanceClearElement(i.h, name); err != nil {
		return fmt.Errorf("clear element %q: %w", name, err)
	}
	return nil
}

// ClearElementAt resets the element at a zero-based index to its type's null
// representation.
func (i *Instance) ClearElementAt(index int) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.mutable(); err != nil {
		return fmt.Errorf("clear element %d: %w", index, err)
	}
	if err := i.eng.InstanceClearElementAt(i.h, index); err != nil {
		return fmt.Errorf("clear element %d: %w", index, err)
	}
	return nil
}

// Close releases the underlying allocation if and only if this Instance owns
// it; closing a borrowed Instance only invalidates the wrapper. Close is
// idempotent, and release failures caused by an allocation the engine
// already tore down are not treated as errors.
func (i *Instance) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return nil
	}
	i.closed = true
	if i.ownership != Owned {
		return nil
	}
	if err := i.eng.ReleaseInstance(i.h); err != nil && !errors.Is(err, engine.ErrInvalidHandle) {
		return fmt.Errorf("close instance: %w", err)
	}
	return nil
}

// mutable checks that the instance accepts mutation. Callers hold i.mu.
func (i *Instance) mutable() error {
	if i.closed {
		return engine.ErrInvalidHandle
	}
	if i.ownership != Owned {
		return engine.ErrReadOnlyInstance
	}
	return nil
}

// fetchIdentity caches class name and namespace on first use. Callers hold
// i.mu.
func (i *Instance) fetchIdentity() error {
	if i.closed {
		return fmt.Errorf("instance identity: %w", engine.ErrInvalidHandle)
	}
	if i.fetched {
		return nil
	}
	name, err := i.eng.InstanceClassName(i.h)
	if err != nil {
		return fmt.Errorf("instance identity: %w", err)
	}
	ns, err := i.eng.InstanceNamespace(i.h)
	if err != nil {
		return fmt.Errorf("instance identity: %w", err)
	}
	i.className, i.namespace, i.fetched = name, ns, true
	return nil
}

// handleRef exposes the engine handle for same-package collaborators
// (method invocation uses the instance as a call target or input bag).
func (i *Instance) handleRef() (engine.InstanceHandle, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return 0, engine.ErrInvalidHandle
	}
	return i.h, nil
}

// invalidate revokes a borrowed wrapper when its loan ends. No engine
// release happens; the engine reclaims the allocation itself.
func (i *Instance) invalidate() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.closed = true
}
