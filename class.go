package cimcore

import (
	"errors"
	"fmt"
	"sync"

	"github.com/smnsjas/go-cimcore/cim"
	"github.com/smnsjas/go-cimcore/engine"
)

// Class is a schema reflection object: the ordered property declarations of
// a named type plus its method descriptors. Classes are produced by
// Session.GetClass, Instance.GetClass, and class-enumeration pulls; there is
// no public constructor.
//
// A Class always owns its allocation and releases it on Close. Metadata it
// hands out (MethodInfo, ParameterInfo, Qualifier) is always an independent
// copy that outlives the Class.
type Class struct {
	mu     sync.Mutex
	eng    engine.Engine
	h      engine.ClassHandle
	name   string
	closed bool
}

func newClass(eng engine.Engine, h engine.ClassHandle) *Class {
	return &Class{eng: eng, h: h}
}

// Name returns the class's name.
func (c *Class) Name() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return "", fmt.Errorf("class name: %w", engine.ErrInvalidHandle)
	}
	if c.name == "" {
		name, err := c.eng.ClassName(c.h)
		if err != nil {
			return "", fmt.Errorf("class name: %w", err)
		}
		c.name = name
	}
	return c.name, nil
}

// ElementCount returns the number of property declarations.
func (c *Class) ElementCount() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, fmt.Errorf("element count: %w", engine.ErrInvalidHandle)
	}
	n, err := c.eng.ClassElementCount(c.h)
	if err != nil {
		return 0, fmt.Errorf("element count: %w", err)
	}
	return n, nil
}

// GetElement returns the named property declaration. Its value is the
// schema-declared default.
func (c *Class) GetElement(name string) (cim.Element, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return cim.Element{}, fmt.Errorf("get element %q: %w", name, engine.ErrInvalidHandle)
	}
	el, err := c.eng.ClassElement(c.h, name)
	if err != nil {
		return cim.Element{}, fmt.Errorf("get element %q: %w", name, err)
	}
	return el, nil
}

// GetElementAt returns the property declaration at a zero-based index.
func (c *Class) GetElementAt(index int) (cim.Element, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return cim.Element{}, fmt.Errorf("get element %d: %w", index, engine.ErrInvalidHandle)
	}
	el, err := c.eng.ClassElementAt(c.h, index)
	if err != nil {
		return cim.Element{}, fmt.Errorf("get element %d: %w", index, err)
	}
	return el, nil
}

// MethodCount returns the number of methods the class declares.
func (c *Class) MethodCount() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, fmt.Errorf("method count: %w", engine.ErrInvalidHandle)
	}
	n, err := c.eng.ClassMethodCount(c.h)
	if err != nil {
		return 0, fmt.Errorf("method count: %w", err)
	}
	return n, nil
}

// GetMethod returns an independent descriptor of the named method.
func (c *Class) GetMethod(name string) (cim.MethodInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return cim.MethodInfo{}, fmt.Errorf("get method %q: %w", name, engine.ErrInvalidHandle)
	}
	mi, err := c.eng.ClassMethod(c.h, name)
	if err != nil {
		return cim.MethodInfo{}, fmt.Errorf("get method %q: %w", name, err)
	}
	return mi, nil
}

// GetMethodAt returns the method descriptor at a zero-based index.
func (c *Class) GetMethodAt(index int) (cim.MethodInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return cim.MethodInfo{}, fmt.Errorf("get method %d: %w", index, engine.ErrInvalidHandle)
	}
	mi, err := c.eng.ClassMethodAt(c.h, index)
	if err != nil {
		return cim.MethodInfo{}, fmt.Errorf("get method %d: %w", index, err)
	}
	return mi, nil
}

// Close releases the schema allocation. Close is idempotent, and release
// failures caused by an allocation the engine already tore down are not
// treated as errors.
func (c *Class) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if err := c.eng.ReleaseClass(c.h); err != nil && !errors.Is(err, engine.ErrInvalidHandle) {
		return fmt.Errorf("close class: %w", err)
	}
	return nil
}
