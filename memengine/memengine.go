// Package memengine implements the engine contract entirely in memory.
//
// The engine's content — namespaces, class schemas, seed instances, and
// canned method outputs — is defined in YAML (see Store) or built
// programmatically. It backs the cimq command and the object-model tests:
// queries run against the seeded instances, a WQL subset with
// expression-evaluated WHERE clauses is supported, and every handle the
// engine mints is tracked so tests can assert that nothing leaks.
//
// All calls complete without blocking; contexts are accepted for contract
// fidelity but never waited on.
package memengine

import (
	"context"
	"fmt"
	"sync"

	"github.com/smnsjas/go-cimcore/cim"
	"github.com/smnsjas/go-cimcore/engine"
)

// Dialect is the only query dialect the engine speaks.
const Dialect = "WQL"

// outputClassName names the instance carrying a method's output parameters
// and return value.
const outputClassName = "__PARAMETERS"

type cursorKind int

const (
	cursorInstances cursorKind = iota
	cursorClasses
)

type sessionState struct {
	opts engine.SessionOptions
}

type classRef struct {
	schema    *classSchema
	namespace string
}

type cursorState struct {
	kind    cursorKind
	items   []*record
	classes []*classRef
	pos     int
	view    engine.InstanceHandle
}

// Engine is an in-memory implementation of engine.Engine.
type Engine struct {
	mu             sync.Mutex
	namespaces     map[string]*namespaceData
	nsOrder        []string
	allowedTargets map[string]bool
	failPullsAfter int
	pulls          int
	next           uint64
	sessions       map[engine.SessionHandle]*sessionState
	cursors        map[engine.CursorHandle]*cursorState
	instances      map[engine.InstanceHandle]*record
	classes        map[engine.ClassHandle]*classRef
}

var _ engine.Engine = (*Engine)(nil)

// Option configures an Engine.
type Option func(*Engine)

// AllowTarget permits sessions against the named endpoint in addition to the
// local endpoint.
func AllowTarget(target string) Option {
	return func(e *Engine) {
		e.allowedTargets[target] = true
	}
}

// FailPullsAfter makes every pull past the first n fail with a protocol
// error, for exercising mid-stream failure handling.
func FailPullsAfter(n int) Option {
	return func(e *Engine) {
		e.failPullsAfter = n
	}
}

// New compiles a store definition into a ready engine.
func New(store *Store, opts ...Option) (*Engine, error) {
	namespaces, order, err := compile(store)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		namespaces:     namespaces,
		nsOrder:        order,
		allowedTargets: map[string]bool{".": true, "localhost": true},
		failPullsAfter: -1,
		sessions:       make(map[engine.SessionHandle]*sessionState),
		cursors:        make(map[engine.CursorHandle]*cursorState),
		instances:      make(map[engine.InstanceHandle]*record),
		classes:        make(map[engine.ClassHandle]*classRef),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// OpenHandles reports how many handles of any kind are currently live. Tests
// use it to assert release correctness.
func (e *Engine) OpenHandles() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sessions) + len(e.cursors) + len(e.instances) + len(e.classes)
}

func (e *Engine) handle() uint64 {
	e.next++
	return e.next
}

// OpenSession opens a conversation. Only the local endpoint and explicitly
// allowed targets are reachable.
func (e *Engine) OpenSession(_ context.Context, opts engine.SessionOptions) (engine.SessionHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	target := opts.Target
	if target == "" {
		target = "."
	}
	if !e.allowedTargets[target] {
		return 0, fmt.Errorf("%w: target %q unreachable", engine.ErrConnectionFailed, target)
	}
	h := engine.SessionHandle(e.handle())
	e.sessions[h] = &sessionState{opts: opts}
	return h, nil
}

// CloseSession closes a conversation.
func (e *Engine) CloseSession(_ context.Context, s engine.SessionHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.sessions[s]; !ok {
		return fmt.Errorf("close session: %w", engine.ErrInvalidHandle)
	}
	delete(e.sessions, s)
	return nil
}

func (e *Engine) session(s engine.SessionHandle) error {
	if _, ok := e.sessions[s]; !ok {
		return engine.ErrInvalidHandle
	}
	return nil
}

func (e *Engine) namespace(name string) (*namespaceData, error) {
	ns, ok := e.namespaces[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", engine.ErrInvalidNamespace, name)
	}
	return ns, nil
}

// ExecQuery runs a WQL data query and returns an instance cursor. The result
// set is fixed when the query starts.
func (e *Engine) ExecQuery(_ context.Context, s engine.SessionHandle, namespace, query, dialect string) (engine.CursorHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.session(s); err != nil {
		return 0, err
	}
	if dialect != Dialect {
		return 0, fmt.Errorf("%w: %q", engine.ErrUnsupportedDialect, dialect)
	}
	ns, err := e.namespace(namespace)
	if err != nil {
		return 0, err
	}
	st, err := parseSelect(query)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", engine.ErrInvalidQuery, err)
	}
	cs, ok := ns.classes[st.class]
	if !ok {
		return 0, fmt.Errorf("%w: no class %q in %q", engine.ErrInvalidQuery, st.class, namespace)
	}
	for _, prop := range st.properties {
		if !hasProp(cs, prop) {
			return 0, fmt.Errorf("%w: class %q has no property %q", engine.ErrInvalidQuery, st.class, prop)
		}
	}

	var items []*record
	for _, rec := range ns.instances {
		if rec.className != st.class {
			continue
		}
		ok, err := st.matches(rec)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", engine.ErrInvalidQuery, err)
		}
		if ok {
			items = append(items, project(rec, st.properties))
		}
	}
	return e.newInstanceCursor(items), nil
}

// EnumerateInstances returns a cursor over every instance of a class.
func (e *Engine) EnumerateInstances(_ context.Context, s engine.SessionHandle, namespace, className string) (engine.CursorHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.session(s); err != nil {
		return 0, err
	}
	ns, err := e.namespace(namespace)
	if err != nil {
		return 0, err
	}
	if _, ok := ns.classes[className]; !ok {
		return 0, fmt.Errorf("%w: class %q", engine.ErrNotFound, className)
	}
	var items []*record
	for _, rec := range ns.instances {
		if rec.className == className {
			items = append(items, rec.clone())
		}
	}
	return e.newInstanceCursor(items), nil
}

// EnumerateClasses returns a cursor over the class definitions of a
// namespace, in declaration order.
func (e *Engine) EnumerateClasses(_ context.Context, s engine.SessionHandle, namespace string) (engine.CursorHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.session(s); err != nil {
		return 0, err
	}
	ns, err := e.namespace(namespace)
	if err != nil {
		return 0, err
	}
	refs := make([]*classRef, 0, len(ns.classOrder))
	for _, name := range ns.classOrder {
		refs = append(refs, &classRef{schema: ns.classes[name], namespace: namespace})
	}
	h := engine.CursorHandle(e.handle())
	e.cursors[h] = &cursorState{kind: cursorClasses, classes: refs}
	return h, nil
}

func (e *Engine) newInstanceCursor(items []*record) engine.CursorHandle {
	h := engine.CursorHandle(e.handle())
	e.cursors[h] = &cursorState{kind: cursorInstances, items: items}
	return h
}

func (e *Engine) cursor(c engine.CursorHandle, kind cursorKind) (*cursorState, error) {
	cur, ok := e.cursors[c]
	if !ok {
		return nil, engine.ErrInvalidHandle
	}
	if cur.kind != kind {
		return nil, engine.ErrWrongResultKind
	}
	if e.failPullsAfter >= 0 && e.pulls >= e.failPullsAfter {
		return nil, fmt.Errorf("%w: stream interrupted", engine.ErrProtocol)
	}
	e.pulls++
	return cur, nil
}

// dropView revokes the loan backing a cursor's current view.
func (e *Engine) dropView(cur *cursorState) {
	if cur.view != 0 {
		delete(e.instances, cur.view)
		cur.view = 0
	}
}

// PullInstance hands the next result to the caller as an owned handle.
func (e *Engine) PullInstance(_ context.Context, c engine.CursorHandle) (engine.InstanceHandle, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cur, err := e.cursor(c, cursorInstances)
	if err != nil {
		return 0, false, err
	}
	e.dropView(cur)
	if cur.pos >= len(cur.items) {
		return 0, false, nil
	}
	h := engine.InstanceHandle(e.handle())
	e.instances[h] = cur.items[cur.pos]
	cur.pos++
	return h, true, nil
}

// PullInstanceView loans the next result to the caller. The loan ends at the
// next pull or when the cursor closes.
func (e *Engine) PullInstanceView(_ context.Context, c engine.CursorHandle) (engine.InstanceHandle, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cur, err := e.cursor(c, cursorInstances)
	if err != nil {
		return 0, false, err
	}
	e.dropView(cur)
	if cur.pos >= len(cur.items) {
		return 0, false, nil
	}
	h := engine.InstanceHandle(e.handle())
	e.instances[h] = cur.items[cur.pos]
	cur.pos++
	cur.view = h
	return h, true, nil
}

// PullClass hands the next class definition to the caller as an owned
// handle.
func (e *Engine) PullClass(_ context.Context, c engine.CursorHandle) (engine.ClassHandle, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cur, err := e.cursor(c, cursorClasses)
	if err != nil {
		return 0, false, err
	}
	if cur.pos >= len(cur.classes) {
		return 0, false, nil
	}
	h := engine.ClassHandle(e.handle())
	e.classes[h] = cur.classes[cur.pos]
	cur.pos++
	return h, true, nil
}

// CloseCursor releases a cursor in any state.
func (e *Engine) CloseCursor(c engine.CursorHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	cur, ok := e.cursors[c]
	if !ok {
		return fmt.Errorf("close cursor: %w", engine.ErrInvalidHandle)
	}
	e.dropView(cur)
	delete(e.cursors, c)
	return nil
}

// GetClass retrieves a class definition as an owned handle.
func (e *Engine) GetClass(_ context.Context, s engine.SessionHandle, namespace, className string) (engine.ClassHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.session(s); err != nil {
		return 0, err
	}
	ns, err := e.namespace(namespace)
	if err != nil {
		return 0, err
	}
	cs, ok := ns.classes[className]
	if !ok {
		return 0, fmt.Errorf("%w: class %q in %q", engine.ErrNotFound, className, namespace)
	}
	h := engine.ClassHandle(e.handle())
	e.classes[h] = &classRef{schema: cs, namespace: namespace}
	return h, nil
}

// InvokeMethod invokes a method on a live instance and returns an owned
// output handle.
func (e *Engine) InvokeMethod(_ context.Context, s engine.SessionHandle, inst engine.InstanceHandle, methodName string, in engine.InstanceHandle) (engine.InstanceHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.session(s); err != nil {
		return 0, err
	}
	rec, ok := e.instances[inst]
	if !ok {
		return 0, engine.ErrInvalidHandle
	}
	if in != 0 {
		if _, ok := e.instances[in]; !ok {
			return 0, engine.ErrInvalidHandle
		}
	}
	if rec.schema == nil {
		return 0, fmt.Errorf("%w: %q on schemaless instance", engine.ErrMethodNotFound, methodName)
	}
	return e.dispatch(rec.schema, rec.namespace, methodName)
}

// InvokeClassMethod invokes a method addressed by namespace and class name.
func (e *Engine) InvokeClassMethod(_ context.Context, s engine.SessionHandle, namespace, className, methodName string, in engine.InstanceHandle) (engine.InstanceHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.session(s); err != nil {
		return 0, err
	}
	ns, err := e.namespace(namespace)
	if err != nil {
		return 0, err
	}
	cs, ok := ns.classes[className]
	if !ok {
		return 0, fmt.Errorf("%w: class %q in %q", engine.ErrNotFound, className, namespace)
	}
	if in != 0 {
		if _, ok := e.instances[in]; !ok {
			return 0, engine.ErrInvalidHandle
		}
	}
	return e.dispatch(cs, namespace, methodName)
}

// dispatch builds the canned output instance a method invocation produces:
// the method's out parameters, each set from the declared returns, plus any
// return-only elements such as ReturnValue.
func (e *Engine) dispatch(cs *classSchema, namespace, methodName string) (engine.InstanceHandle, error) {
	ms, ok := cs.methods[methodName]
	if !ok {
		return 0, fmt.Errorf("%w: %s.%s", engine.ErrMethodNotFound, cs.name, methodName)
	}
	if ms.fail {
		return 0, fmt.Errorf("%w: %s.%s", engine.ErrInvocationFailed, cs.name, methodName)
	}

	returned := func(name string) (returnSchema, bool) {
		for _, r := range ms.returns {
			if r.name == name {
				return r, true
			}
		}
		return returnSchema{}, false
	}

	out := &record{className: outputClassName, namespace: namespace}
	emitted := make(map[string]bool)
	for _, p := range ms.info.Parameters {
		if _, isOut := p.Qualifier("Out"); !isOut {
			continue
		}
		el := element{name: p.Name, typ: p.Type, flags: cim.FlagOut | cim.FlagNull}
		if r, ok := returned(p.Name); ok {
			el.value = r.value
			el.flags &^= cim.FlagNull
		}
		out.elems = append(out.elems, el)
		emitted[p.Name] = true
	}
	for _, r := range ms.returns {
		if emitted[r.name] {
			continue
		}
		flags := cim.FlagOut
		if r.value == nil {
			flags |= cim.FlagNull
		}
		out.elems = append(out.elems, element{name: r.name, typ: r.typ, value: r.value, flags: flags})
	}

	h := engine.InstanceHandle(e.handle())
	e.instances[h] = out
	return h, nil
}

// NewInstance allocates a freestanding instance. When exactly one loaded
// class matches the name its schema pre-populates the elements; otherwise
// the instance starts empty with no schema.
func (e *Engine) NewInstance(className string) (engine.InstanceHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec := &record{className: className}
	for _, nsName := range e.nsOrder {
		if cs, ok := e.namespaces[nsName].classes[className]; ok {
			rec = newRecord(cs, "")
			rec.namespace = ""
			break
		}
	}
	h := engine.InstanceHandle(e.handle())
	e.instances[h] = rec
	return h, nil
}

// CloneInstance allocates an independent copy of an instance.
func (e *Engine) CloneInstance(h engine.InstanceHandle) (engine.InstanceHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, ok := e.instances[h]
	if !ok {
		return 0, engine.ErrInvalidHandle
	}
	nh := engine.InstanceHandle(e.handle())
	e.instances[nh] = rec.clone()
	return nh, nil
}

func (e *Engine) record(h engine.InstanceHandle) (*record, error) {
	rec, ok := e.instances[h]
	if !ok {
		return nil, engine.ErrInvalidHandle
	}
	return rec, nil
}

// InstanceClassName returns the instance's class name.
func (e *Engine) InstanceClassName(h engine.InstanceHandle) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, err := e.record(h)
	if err != nil {
		return "", err
	}
	return rec.className, nil
}

// InstanceNamespace returns the instance's namespace.
func (e *Engine) InstanceNamespace(h engine.InstanceHandle) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, err := e.record(h)
	if err != nil {
		return "", err
	}
	return rec.namespace, nil
}

// InstanceClass returns the instance's schema as an owned class handle.
func (e *Engine) InstanceClass(h engine.InstanceHandle) (engine.ClassHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, err := e.record(h)
	if err != nil {
		return 0, err
	}
	if rec.schema == nil {
		return 0, fmt.Errorf("%w: class %q not loaded", engine.ErrSchemaUnavailable, rec.className)
	}
	ch := engine.ClassHandle(e.handle())
	e.classes[ch] = &classRef{schema: rec.schema, namespace: rec.namespace}
	return ch, nil
}

// InstanceElementCount returns the number of elements.
func (e *Engine) InstanceElementCount(h engine.InstanceHandle) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, err := e.record(h)
	if err != nil {
		return 0, err
	}
	return len(rec.elems), nil
}

func (el element) export() cim.Element {
	value := el.value
	if arr, ok := value.([]any); ok {
		cp := make([]any, len(arr))
		copy(cp, arr)
		value = cp
	}
	return cim.Element{Name: el.name, Value: value, Type: el.typ, Flags: el.flags}
}

func findElement(elems []element, name string) (int, error) {
	for i := range elems {
		if elems[i].name == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: element %q", engine.ErrNotFound, name)
}

// InstanceElement returns the named element.
func (e *Engine) InstanceElement(h engine.InstanceHandle, name string) (cim.Element, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, err := e.record(h)
	if err != nil {
		return cim.Element{}, err
	}
	i, err := findElement(rec.elems, name)
	if err != nil {
		return cim.Element{}, err
	}
	return rec.elems[i].export(), nil
}

// InstanceElementAt returns the element at an index.
func (e *Engine) InstanceElementAt(h engine.InstanceHandle, index int) (cim.Element, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, err := e.record(h)
	if err != nil {
		return cim.Element{}, err
	}
	if index < 0 || index >= len(rec.elems) {
		return cim.Element{}, fmt.Errorf("%w: %d of %d", engine.ErrIndexOutOfRange, index, len(rec.elems))
	}
	return rec.elems[index].export(), nil
}

// InstanceAddElement adds a new element.
func (e *Engine) InstanceAddElement(h engine.InstanceHandle, name string, value any, typ cim.Type) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, err := e.record(h)
	if err != nil {
		return err
	}
	if _, err := findElement(rec.elems, name); err == nil {
		return fmt.Errorf("%w: %q", engine.ErrDuplicateElement, name)
	}
	v, ok := cim.Coerce(value, typ)
	if !ok {
		return fmt.Errorf("%w: value %v does not fit %s", engine.ErrTypeMismatch, value, typ)
	}
	el := element{name: name, typ: typ, value: v}
	if v == nil {
		el.flags |= cim.FlagNull
	}
	rec.elems = append(rec.elems, el)
	return nil
}

func setElement(el *element, value any, typ cim.Type) error {
	if typ != el.typ {
		return fmt.Errorf("%w: element %q is %s, not %s", engine.ErrTypeMismatch, el.name, el.typ, typ)
	}
	v, ok := cim.Coerce(value, typ)
	if !ok {
		return fmt.Errorf("%w: value %v does not fit %s", engine.ErrTypeMismatch, value, typ)
	}
	el.value = v
	if v == nil {
		el.flags |= cim.FlagNull
	} else {
		el.flags &^= cim.FlagNull
	}
	return nil
}

// InstanceSetElement sets the named element.
func (e *Engine) InstanceSetElement(h engine.InstanceHandle, name string, value any, typ cim.Type) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, err := e.record(h)
	if err != nil {
		return err
	}
	i, err := findElement(rec.elems, name)
	if err != nil {
		return err
	}
	return setElement(&rec.elems[i], value, typ)
}

// InstanceSetElementAt sets the element at an index.
func (e *Engine) InstanceSetElementAt(h engine.InstanceHandle, index int, value any, typ cim.Type) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, err := e.record(h)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(rec.elems) {
		return fmt.Errorf("%w: %d of %d", engine.ErrIndexOutOfRange, index, len(rec.elems))
	}
	return setElement(&rec.elems[index], value, typ)
}

// InstanceClearElement resets the named element to null.
func (e *Engine) InstanceClearElement(h engine.InstanceHandle, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, err := e.record(h)
	if err != nil {
		return err
	}
	i, err := findElement(rec.elems, name)
	if err != nil {
		return err
	}
	rec.elems[i].value = nil
	rec.elems[i].flags |= cim.FlagNull
	return nil
}

// InstanceClearElementAt resets the element at an index to null.
func (e *Engine) InstanceClearElementAt(h engine.InstanceHandle, index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, err := e.record(h)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(rec.elems) {
		return fmt.Errorf("%w: %d of %d", engine.ErrIndexOutOfRange, index, len(rec.elems))
	}
	rec.elems[index].value = nil
	rec.elems[index].flags |= cim.FlagNull
	return nil
}

// ReleaseInstance frees an instance allocation.
func (e *Engine) ReleaseInstance(h engine.InstanceHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.instances[h]; !ok {
		return fmt.Errorf("release instance: %w", engine.ErrInvalidHandle)
	}
	delete(e.instances, h)
	return nil
}

func (e *Engine) class(h engine.ClassHandle) (*classRef, error) {
	ref, ok := e.classes[h]
	if !ok {
		return nil, engine.ErrInvalidHandle
	}
	return ref, nil
}

// ClassName returns the class's name.
func (e *Engine) ClassName(h engine.ClassHandle) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ref, err := e.class(h)
	if err != nil {
		return "", err
	}
	return ref.schema.name, nil
}

// ClassElementCount returns the number of property declarations.
func (e *Engine) ClassElementCount(h engine.ClassHandle) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ref, err := e.class(h)
	if err != nil {
		return 0, err
	}
	return len(ref.schema.props), nil
}

func (p propSchema) export() cim.Element {
	return cim.Element{Name: p.name, Value: p.def, Type: p.typ, Flags: p.flags}
}

// ClassElement returns the named property declaration.
func (e *Engine) ClassElement(h engine.ClassHandle, name string) (cim.Element, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ref, err := e.class(h)
	if err != nil {
		return cim.Element{}, err
	}
	for _, p := range ref.schema.props {
		if p.name == name {
			return p.export(), nil
		}
	}
	return cim.Element{}, fmt.Errorf("%w: property %q", engine.ErrNotFound, name)
}

// ClassElementAt returns the property declaration at an index.
func (e *Engine) ClassElementAt(h engine.ClassHandle, index int) (cim.Element, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ref, err := e.class(h)
	if err != nil {
		return cim.Element{}, err
	}
	if index < 0 || index >= len(ref.schema.props) {
		return cim.Element{}, fmt.Errorf("%w: %d of %d", engine.ErrIndexOutOfRange, index, len(ref.schema.props))
	}
	return ref.schema.props[index].export(), nil
}

// ClassMethodCount returns the number of methods.
func (e *Engine) ClassMethodCount(h engine.ClassHandle) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ref, err := e.class(h)
	if err != nil {
		return 0, err
	}
	return len(ref.schema.methodOrder), nil
}

// ClassMethod returns an independent copy of the named method descriptor.
func (e *Engine) ClassMethod(h engine.ClassHandle, name string) (cim.MethodInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ref, err := e.class(h)
	if err != nil {
		return cim.MethodInfo{}, err
	}
	ms, ok := ref.schema.methods[name]
	if !ok {
		return cim.MethodInfo{}, fmt.Errorf("%w: method %q", engine.ErrNotFound, name)
	}
	return ms.info.Clone(), nil
}

// ClassMethodAt returns the method descriptor at an index.
func (e *Engine) ClassMethodAt(h engine.ClassHandle, index int) (cim.MethodInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ref, err := e.class(h)
	if err != nil {
		return cim.MethodInfo{}, err
	}
	if index < 0 || index >= len(ref.schema.methodOrder) {
		return cim.MethodInfo{}, fmt.Errorf("%w: %d of %d", engine.ErrIndexOutOfRange, index, len(ref.schema.methodOrder))
	}
	return ref.schema.methods[ref.schema.methodOrder[index]].info.Clone(), nil
}

// ReleaseClass frees a class allocation.
func (e *Engine) ReleaseClass(h engine.ClassHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.classes[h]; !ok {
		return fmt.Errorf("release class: %w", engine.ErrInvalidHandle)
	}
	delete(e.classes, h)
	return nil
}

func hasProp(cs *classSchema, name string) bool {
	for _, p := range cs.props {
		if p.name == name {
			return true
		}
	}
	return false
}

// project builds a result record carrying the selected properties, or a full
// copy for SELECT *.
func project(rec *record, properties []string) *record {
	if properties == nil {
		return rec.clone()
	}
	out := &record{className: rec.className, namespace: rec.namespace, schema: rec.schema}
	for _, name := range properties {
		for _, el := range rec.elems {
			if el.name == name {
				out.elems = append(out.elems, el)
				break
			}
		}
	}
	return out.clone()
}
