package registry

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/wirevm/serval/errors"
)

// Builtin handles pre-registered by New, in this order.
const (
	AnyType TypeID = iota
	IntType
	FloatType
	StringType
)

// Registry holds the live type descriptors decoders resolve against.
// Registration is guarded by a mutex; decoders never read the live
// tables directly but take an immutable Snapshot at decode start, so a
// lookup can never observe a half-registered type.
type Registry struct {
	mu    sync.Mutex
	types []Type
	named map[string]TypeID // materialized named types
	decls map[string][]decl // subclass search index, declared name keyed
	bySer map[uint32]TypeID
	enums []enumTable
	memo  map[memoKey]TypeID // nilable and vector wrappers
	snap  atomic.Pointer[Snapshot]
}

// decl records one declared class name. impl stays None until the class
// body is registered; unmaterialized declarations are skipped during
// subclass resolution.
type decl struct {
	super TypeID
	impl  TypeID
}

type memoKey struct {
	shape Shape
	elem  TypeID
}

type enumTable struct {
	name   string
	byName map[string]int64
	names  []string
	vals   []int64
}

// EnumValue is one named constant of an enum.
type EnumValue struct {
	Name string
	Val  int64
}

// New returns a registry with the builtin scalar types materialized.
func New() *Registry {
	r := &Registry{
		named: make(map[string]TypeID),
		decls: make(map[string][]decl),
		bySer: make(map[uint32]TypeID),
		memo:  make(map[memoKey]TypeID),
	}
	r.types = []Type{
		{Shape: Any, Elem: None, Super: None, SerID: -1, Enum: NoEnum},
		{Shape: Int, Elem: None, Super: None, SerID: -1, Enum: NoEnum},
		{Shape: Float, Elem: None, Super: None, SerID: -1, Enum: NoEnum},
		{Shape: String, Elem: None, Super: None, SerID: -1, Enum: NoEnum},
	}
	return r
}

func (r *Registry) add(t Type) TypeID {
	id := TypeID(len(r.types))
	r.types = append(r.types, t)
	r.snap.Store(nil)
	return id
}

// Nilable returns the nilable wrapper of elem, registering it on first
// use. An invalid element handle yields None.
func (r *Registry) Nilable(elem TypeID) TypeID {
	return r.wrapper(Nilable, elem)
}

// VectorOf returns the vector type over elem, registering it on first
// use. An invalid element handle yields None.
func (r *Registry) VectorOf(elem TypeID) TypeID {
	return r.wrapper(Vector, elem)
}

func (r *Registry) wrapper(shape Shape, elem TypeID) TypeID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !elem.Valid() || int(elem) >= len(r.types) {
		return None
	}
	key := memoKey{shape, elem}
	if id, ok := r.memo[key]; ok {
		return id
	}
	id := r.add(Type{Shape: shape, Elem: elem, Super: None, SerID: -1, Enum: NoEnum})
	r.memo[key] = id
	return id
}

// RegisterEnum registers an enum symbol table and returns its int-shaped
// type. Identifier tokens against this type resolve through the table.
func (r *Registry) RegisterEnum(name string, values []EnumValue) (TypeID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.named[name]; ok {
		return None, errors.Registration(name, errors.InvalidInput(errors.PhaseRegister, "name already registered"))
	}
	tbl := enumTable{name: name, byName: make(map[string]int64, len(values))}
	for _, v := range values {
		if _, dup := tbl.byName[v.Name]; dup {
			return None, errors.Registration(name, errors.InvalidInput(errors.PhaseRegister, "duplicate enum value "+v.Name))
		}
		tbl.byName[v.Name] = v.Val
		tbl.names = append(tbl.names, v.Name)
		tbl.vals = append(tbl.vals, v.Val)
	}
	eid := EnumID(len(r.enums))
	r.enums = append(r.enums, tbl)
	id := r.add(Type{Shape: Int, Name: name, Elem: None, Super: None, SerID: -1, Enum: eid})
	r.named[name] = id
	return id, nil
}

// RegisterStruct registers a flattened aggregate. byRef selects the
// struct-by-reference flavor; both are inlined wherever they occur.
func (r *Registry) RegisterStruct(name string, byRef bool, fields []Field) (TypeID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.named[name]; ok {
		return None, errors.Registration(name, errors.InvalidInput(errors.PhaseRegister, "name already registered"))
	}
	shape := StructValue
	if byRef {
		shape = StructRef
	}
	id := r.add(Type{Shape: shape, Name: name, Elem: None, Fields: fields, Super: None, SerID: -1, Enum: NoEnum})
	r.named[name] = id
	return id, nil
}

// DeclareClass records a class name and its supertype without
// materializing a descriptor. Subclass resolution skips such entries
// until RegisterClass provides the body.
func (r *Registry) DeclareClass(name string, super TypeID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decls[name] = append(r.decls[name], decl{super: super, impl: None})
	r.snap.Store(nil)
}

// RegisterClass materializes a class. super is None for root classes;
// serID below zero opts out of compact-wire polymorphic dispatch.
func (r *Registry) RegisterClass(name string, super TypeID, serID int32, fields []Field) (TypeID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.named[name]; ok {
		return None, errors.Registration(name, errors.InvalidInput(errors.PhaseRegister, "name already registered"))
	}
	if serID >= 0 {
		if _, dup := r.bySer[uint32(serID)]; dup {
			return None, errors.Registration(name, errors.New(errors.PhaseRegister, errors.KindRegistration).
				Detail("serialization id %d already in use", serID).Build())
		}
	}
	id := r.add(Type{Shape: Class, Name: name, Elem: None, Fields: fields, Super: super, SerID: serID, Enum: NoEnum})
	r.named[name] = id
	if serID >= 0 {
		r.bySer[uint32(serID)] = id
	}
	// Fill the first matching unmaterialized declaration, if any.
	ds := r.decls[name]
	filled := false
	for i := range ds {
		if ds[i].super == super && !ds[i].impl.Valid() {
			ds[i].impl = id
			filled = true
			break
		}
	}
	if !filled {
		r.decls[name] = append(ds, decl{super: super, impl: id})
	}
	return id, nil
}

// TypeByName returns the materialized type registered under name.
func (r *Registry) TypeByName(name string) (TypeID, bool) {
	return r.Snapshot().TypeByName(name)
}

// Snapshot returns an immutable view of the registry. The view stays
// coherent for the duration of a decode even if registration continues
// concurrently; take a fresh snapshot to observe later registrations.
func (r *Registry) Snapshot() *Snapshot {
	if s := r.snap.Load(); s != nil {
		return s
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if s := r.snap.Load(); s != nil {
		return s
	}
	s := &Snapshot{
		types: append([]Type(nil), r.types...),
		named: make(map[string]TypeID, len(r.named)),
		decls: make(map[string][]decl, len(r.decls)),
		bySer: make(map[uint32]TypeID, len(r.bySer)),
		enums: append([]enumTable(nil), r.enums...),
	}
	for k, v := range r.named {
		s.named[k] = v
	}
	for k, v := range r.decls {
		s.decls[k] = append([]decl(nil), v...)
	}
	for k, v := range r.bySer {
		s.bySer[k] = v
	}
	r.snap.Store(s)
	return s
}

// Snapshot is an immutable registry view. All decoder lookups go
// through it.
type Snapshot struct {
	types []Type
	named map[string]TypeID
	decls map[string][]decl
	bySer map[uint32]TypeID
	enums []enumTable
}

// Lookup resolves a handle to its descriptor, or nil for invalid handles.
func (s *Snapshot) Lookup(t TypeID) *Type {
	if !t.Valid() || int(t) >= len(s.types) {
		return nil
	}
	return &s.types[t]
}

// Shape returns the shape of t, or Any for invalid handles.
func (s *Snapshot) Shape(t TypeID) Shape {
	ti := s.Lookup(t)
	if ti == nil {
		return Any
	}
	return ti.Shape
}

// Name returns a descriptive name for t: the declared name of a named
// type, otherwise the shape name.
func (s *Snapshot) Name(t TypeID) string {
	ti := s.Lookup(t)
	if ti == nil {
		return "invalid"
	}
	if ti.Name != "" {
		return ti.Name
	}
	return ti.Shape.String()
}

// TypeByName returns the materialized type registered under name.
func (s *Snapshot) TypeByName(name string) (TypeID, bool) {
	id, ok := s.named[name]
	return id, ok
}

// NamedTypes returns every registered type name in sorted order.
func (s *Snapshot) NamedTypes() []string {
	names := make([]string, 0, len(s.named))
	for name := range s.named {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Width returns the number of flattened slots one value of t occupies
// inside an enclosing aggregate: 1 for everything except flattened
// structs, which span their flattened length.
func (s *Snapshot) Width(t TypeID) int {
	ti := s.Lookup(t)
	if ti == nil || !ti.Shape.IsStruct() {
		return 1
	}
	return s.FlatLen(t)
}

// FlatLen returns the flattened slot count of an aggregate: nested
// flattened structs contribute their own flattened length in place.
func (s *Snapshot) FlatLen(t TypeID) int {
	ti := s.Lookup(t)
	if ti == nil {
		return 0
	}
	n := 0
	for _, f := range ti.Fields {
		n += s.Width(f.Type)
	}
	return n
}

// SlotAt returns the field occupying flattened slot i of aggregate t.
// For a slot where a nested flattened struct begins, the struct-typed
// field itself is returned; a slot inside a nested struct resolves
// within it.
func (s *Snapshot) SlotAt(t TypeID, slot int) (Field, bool) {
	ti := s.Lookup(t)
	if ti == nil {
		return Field{}, false
	}
	off := 0
	for _, f := range ti.Fields {
		w := s.Width(f.Type)
		if slot == off {
			return f, true
		}
		if slot < off+w {
			return s.SlotAt(f.Type, slot-off)
		}
		off += w
	}
	return Field{}, false
}

// FieldName returns the declared name of field position i of t.
func (s *Snapshot) FieldName(t TypeID, i int) string {
	ti := s.Lookup(t)
	if ti == nil || i < 0 || i >= len(ti.Fields) {
		return ""
	}
	return ti.Fields[i].Name
}

// Unwrap strips one nilable wrapper, or returns t unchanged.
func (s *Snapshot) Unwrap(t TypeID) TypeID {
	ti := s.Lookup(t)
	if ti != nil && ti.Shape == Nilable {
		return ti.Elem
	}
	return t
}

// SubclassByName searches the declared-name index for a materialized
// type whose declared supertype is exactly expected. Resolution covers
// one level of subclassing only: a grandchild's name is not found.
func (s *Snapshot) SubclassByName(name string, expected TypeID) (TypeID, bool) {
	for _, d := range s.decls[name] {
		if d.super == expected && d.impl.Valid() {
			return d.impl, true
		}
	}
	return None, false
}

// SubclassBySerID maps a wire serialization id to a concrete class
// compatible with expected: the class itself or one reachable through
// its supertype chain.
func (s *Snapshot) SubclassBySerID(expected TypeID, id uint32) (TypeID, bool) {
	cand, ok := s.bySer[id]
	if !ok {
		return None, false
	}
	for t := cand; t.Valid(); {
		if t == expected {
			return cand, true
		}
		ti := s.Lookup(t)
		if ti == nil {
			break
		}
		t = ti.Super
	}
	return None, false
}

// EnumValue resolves an enum constant by name.
func (s *Snapshot) EnumValue(e EnumID, name string) (int64, bool) {
	if e < 0 || int(e) >= len(s.enums) {
		return 0, false
	}
	v, ok := s.enums[e].byName[name]
	return v, ok
}

// EnumValueName returns the declared name for an enum constant, if the
// value maps back to exactly one registered name.
func (s *Snapshot) EnumValueName(e EnumID, val int64) (string, bool) {
	if e < 0 || int(e) >= len(s.enums) {
		return "", false
	}
	tbl := s.enums[e]
	name := ""
	for i, v := range tbl.vals {
		if v == val {
			if name != "" {
				return "", false
			}
			name = tbl.names[i]
		}
	}
	return name, name != ""
}
