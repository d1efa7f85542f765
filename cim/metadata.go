package cim

// QualifierFlags carries qualifier flavor bits.
type QualifierFlags uint32

const (
	// QualifierToSubclass propagates the qualifier to derived classes.
	QualifierToSubclass QualifierFlags = 1 << iota
	// QualifierOverridable allows derived classes to override the value.
	QualifierOverridable
	// QualifierTranslatable marks the value as localizable.
	QualifierTranslatable
)

// Qualifier is a named, typed schema annotation attached to a class,
// property, method, or parameter.
type Qualifier struct {
	Name  string
	Type  Type
	Value any
	Flags QualifierFlags
}

// ParameterInfo describes one method parameter.
type ParameterInfo struct {
	Name       string
	Index      int
	Type       Type
	Qualifiers []Qualifier
}

// Qualifier returns the named qualifier, if present.
func (p ParameterInfo) Qualifier(name string) (Qualifier, bool) {
	return findQualifier(p.Qualifiers, name)
}

// MethodInfo describes one method: its qualifiers and its ordered parameter
// list.
type MethodInfo struct {
	Name       string
	Index      int
	Qualifiers []Qualifier
	Parameters []ParameterInfo
}

// Qualifier returns the named qualifier, if present.
func (m MethodInfo) Qualifier(name string) (Qualifier, bool) {
	return findQualifier(m.Qualifiers, name)
}

// Parameter returns the named parameter, if present.
func (m MethodInfo) Parameter(name string) (ParameterInfo, bool) {
	for _, p := range m.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return ParameterInfo{}, false
}

// Clone returns a deep copy of the method descriptor. Engines hand out
// clones so that callers can never alias schema-owned storage.
func (m MethodInfo) Clone() MethodInfo {
	out := m
	out.Qualifiers = cloneQualifiers(m.Qualifiers)
	out.Parameters = make([]ParameterInfo, len(m.Parameters))
	for i, p := range m.Parameters {
		cp := p
		cp.Qualifiers = cloneQualifiers(p.Qualifiers)
		out.Parameters[i] = cp
	}
	return out
}

func cloneQualifiers(qs []Qualifier) []Qualifier {
	if qs == nil {
		return nil
	}
	out := make([]Qualifier, len(qs))
	copy(out, qs)
	return out
}

func findQualifier(qs []Qualifier, name string) (Qualifier, bool) {
	for _, q := range qs {
		if q.Name == name {
			return q, true
		}
	}
	return Qualifier{}, false
}
