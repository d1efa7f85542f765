package memengine

import (
	"fmt"
	"os"
	"sort"

	"github.com/goccy/go-yaml"

	"github.com/smnsjas/go-cimcore/cim"
)

// Store is the YAML-definable content of an in-memory engine: namespaces,
// each holding class definitions and instances.
type Store struct {
	Namespaces map[string]*NamespaceDef `yaml:"namespaces"`
}

// NamespaceDef holds one namespace's classes and seed instances.
type NamespaceDef struct {
	Classes   []*ClassDef    `yaml:"classes"`
	Instances []*InstanceDef `yaml:"instances"`
}

// ClassDef defines one class: its ordered property declarations and methods.
type ClassDef struct {
	Name       string         `yaml:"name"`
	Properties []*PropertyDef `yaml:"properties"`
	Methods    []*MethodDef   `yaml:"methods"`
}

// PropertyDef defines one property declaration. Type is a canonical cim type
// name such as "uint32" or "string[]".
type PropertyDef struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Default  any    `yaml:"default"`
	Key      bool   `yaml:"key"`
	ReadOnly bool   `yaml:"read_only"`
}

// MethodDef defines one method: its qualifiers, its parameters, and the
// canned output elements an invocation produces. A method marked fail always
// reports an invocation failure, for exercising error paths.
type MethodDef struct {
	Name       string          `yaml:"name"`
	Fail       bool            `yaml:"fail"`
	Qualifiers []*QualifierDef `yaml:"qualifiers"`
	Parameters []*ParameterDef `yaml:"parameters"`
	Returns    []*ReturnDef    `yaml:"returns"`
}

// QualifierDef defines one schema annotation on a method or parameter.
type QualifierDef struct {
	Name  string `yaml:"name"`
	Type  string `yaml:"type"`
	Value any    `yaml:"value"`
}

// ParameterDef defines one method parameter.
type ParameterDef struct {
	Name       string          `yaml:"name"`
	Type       string          `yaml:"type"`
	In         bool            `yaml:"in"`
	Out        bool            `yaml:"out"`
	Qualifiers []*QualifierDef `yaml:"qualifiers"`
}

// ReturnDef defines one element of a method's canned output instance.
type ReturnDef struct {
	Name  string `yaml:"name"`
	Type  string `yaml:"type"`
	Value any    `yaml:"value"`
}

// InstanceDef seeds one instance of a class. Properties not listed keep
// their declared defaults.
type InstanceDef struct {
	Class      string         `yaml:"class"`
	Properties map[string]any `yaml:"properties"`
}

// Parse decodes a YAML store definition.
func Parse(data []byte) (*Store, error) {
	var s Store
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse store: %w", err)
	}
	return &s, nil
}

// Load reads and decodes a YAML store definition from a file.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load store: %w", err)
	}
	return Parse(data)
}

// Compiled, type-checked forms of the store definitions.

type propSchema struct {
	name  string
	typ   cim.Type
	def   any
	flags cim.ElementFlags
}

type methodSchema struct {
	info    cim.MethodInfo
	fail    bool
	returns []returnSchema
}

type returnSchema struct {
	name  string
	typ   cim.Type
	value any
}

type classSchema struct {
	name        string
	props       []propSchema
	methodOrder []string
	methods     map[string]*methodSchema
}

// record is one instance's live data: an ordered element set plus identity.
type record struct {
	className string
	namespace string
	schema    *classSchema
	elems     []element
}

type element struct {
	name  string
	typ   cim.Type
	value any
	flags cim.ElementFlags
}

type namespaceData struct {
	name       string
	classOrder []string
	classes    map[string]*classSchema
	instances  []*record
}

// compile validates a Store and produces the engine's internal form.
func compile(s *Store) (map[string]*namespaceData, []string, error) {
	namespaces := make(map[string]*namespaceData, len(s.Namespaces))
	order := make([]string, 0, len(s.Namespaces))
	for name := range s.Namespaces {
		order = append(order, name)
	}
	sort.Strings(order)

	for _, nsName := range order {
		def := s.Namespaces[nsName]
		ns := &namespaceData{name: nsName, classes: make(map[string]*classSchema)}
		for _, cd := range def.Classes {
			cs, err := compileClass(cd)
			if err != nil {
				return nil, nil, fmt.Errorf("namespace %q: %w", nsName, err)
			}
			if _, dup := ns.classes[cs.name]; dup {
				return nil, nil, fmt.Errorf("namespace %q: duplicate class %q", nsName, cs.name)
			}
			ns.classes[cs.name] = cs
			ns.classOrder = append(ns.classOrder, cs.name)
		}
		for _, id := range def.Instances {
			rec, err := compileInstance(ns, nsName, id)
			if err != nil {
				return nil, nil, fmt.Errorf("namespace %q: %w", nsName, err)
			}
			ns.instances = append(ns.instances, rec)
		}
		namespaces[nsName] = ns
	}
	return namespaces, order, nil
}

func compileClass(cd *ClassDef) (*classSchema, error) {
	if cd.Name == "" {
		return nil, fmt.Errorf("class with empty name")
	}
	cs := &classSchema{name: cd.Name, methods: make(map[string]*methodSchema)}
	seen := make(map[string]bool)
	for _, pd := range cd.Properties {
		if seen[pd.Name] {
			return nil, fmt.Errorf("class %q: duplicate property %q", cd.Name, pd.Name)
		}
		seen[pd.Name] = true
		typ, err := cim.ParseType(pd.Type)
		if err != nil {
			return nil, fmt.Errorf("class %q property %q: %w", cd.Name, pd.Name, err)
		}
		def, ok := cim.Coerce(pd.Default, typ)
		if !ok {
			return nil, fmt.Errorf("class %q property %q: default %v does not fit %s", cd.Name, pd.Name, pd.Default, typ)
		}
		var flags cim.ElementFlags
		if pd.Key {
			flags |= cim.FlagKey
		}
		if pd.ReadOnly {
			flags |= cim.FlagReadOnly
		}
		if def == nil {
			flags |= cim.FlagNull
		}
		cs.props = append(cs.props, propSchema{name: pd.Name, typ: typ, def: def, flags: flags})
	}
	for idx, md := range cd.Methods {
		ms, err := compileMethod(cd.Name, idx, md)
		if err != nil {
			return nil, err
		}
		if _, dup := cs.methods[md.Name]; dup {
			return nil, fmt.Errorf("class %q: duplicate method %q", cd.Name, md.Name)
		}
		cs.methods[md.Name] = ms
		cs.methodOrder = append(cs.methodOrder, md.Name)
	}
	return cs, nil
}

func compileMethod(className string, index int, md *MethodDef) (*methodSchema, error) {
	quals, err := compileQualifiers(md.Qualifiers)
	if err != nil {
		return nil, fmt.Errorf("class %q method %q: %w", className, md.Name, err)
	}
	info := cim.MethodInfo{Name: md.Name, Index: index, Qualifiers: quals}
	for pi, pd := range md.Parameters {
		typ, err := cim.ParseType(pd.Type)
		if err != nil {
			return nil, fmt.Errorf("class %q method %q parameter %q: %w", className, md.Name, pd.Name, err)
		}
		pquals, err := compileQualifiers(pd.Qualifiers)
		if err != nil {
			return nil, fmt.Errorf("class %q method %q parameter %q: %w", className, md.Name, pd.Name, err)
		}
		if pd.In {
			pquals = append(pquals, cim.Qualifier{Name: "In", Type: cim.TypeBoolean, Value: true})
		}
		if pd.Out {
			pquals = append(pquals, cim.Qualifier{Name: "Out", Type: cim.TypeBoolean, Value: true})
		}
		info.Parameters = append(info.Parameters, cim.ParameterInfo{
			Name:       pd.Name,
			Index:      pi,
			Type:       typ,
			Qualifiers: pquals,
		})
	}
	ms := &methodSchema{info: info, fail: md.Fail}
	for _, rd := range md.Returns {
		typ, err := cim.ParseType(rd.Type)
		if err != nil {
			return nil, fmt.Errorf("class %q method %q return %q: %w", className, md.Name, rd.Name, err)
		}
		value, ok := cim.Coerce(rd.Value, typ)
		if !ok {
			return nil, fmt.Errorf("class %q method %q return %q: value %v does not fit %s", className, md.Name, rd.Name, rd.Value, typ)
		}
		ms.returns = append(ms.returns, returnSchema{name: rd.Name, typ: typ, value: value})
	}
	return ms, nil
}

func compileQualifiers(defs []*QualifierDef) ([]cim.Qualifier, error) {
	var out []cim.Qualifier
	for _, qd := range defs {
		typ, err := cim.ParseType(qd.Type)
		if err != nil {
			return nil, fmt.Errorf("qualifier %q: %w", qd.Name, err)
		}
		value, ok := cim.Coerce(qd.Value, typ)
		if !ok {
			return nil, fmt.Errorf("qualifier %q: value %v does not fit %s", qd.Name, qd.Value, typ)
		}
		out = append(out, cim.Qualifier{Name: qd.Name, Type: typ, Value: value})
	}
	return out, nil
}

func compileInstance(ns *namespaceData, nsName string, id *InstanceDef) (*record, error) {
	cs, ok := ns.classes[id.Class]
	if !ok {
		return nil, fmt.Errorf("instance of unknown class %q", id.Class)
	}
	rec := newRecord(cs, nsName)
	assigned := make(map[string]bool, len(id.Properties))
	for i := range rec.elems {
		el := &rec.elems[i]
		raw, ok := id.Properties[el.name]
		if !ok {
			continue
		}
		assigned[el.name] = true
		value, ok := cim.Coerce(raw, el.typ)
		if !ok {
			return nil, fmt.Errorf("instance of %q: property %q: value %v does not fit %s", id.Class, el.name, raw, el.typ)
		}
		el.value = value
		if value == nil {
			el.flags |= cim.FlagNull
		} else {
			el.flags &^= cim.FlagNull
		}
	}
	for name := range id.Properties {
		if !assigned[name] {
			return nil, fmt.Errorf("instance of %q: unknown property %q", id.Class, name)
		}
	}
	return rec, nil
}

// newRecord builds an instance record with every declared property at its
// default value.
func newRecord(cs *classSchema, namespace string) *record {
	rec := &record{className: cs.name, namespace: namespace, schema: cs}
	for _, p := range cs.props {
		rec.elems = append(rec.elems, element{name: p.name, typ: p.typ, value: p.def, flags: p.flags})
	}
	return rec
}

// clone deep-copies a record. Array values are copied so the clone never
// aliases the source's storage.
func (r *record) clone() *record {
	out := &record{className: r.className, namespace: r.namespace, schema: r.schema}
	out.elems = make([]element, len(r.elems))
	copy(out.elems, r.elems)
	for i := range out.elems {
		if arr, ok := out.elems[i].value.([]any); ok {
			cp := make([]any, len(arr))
			copy(cp, arr)
			out.elems[i].value = cp
		}
	}
	return out
}
