package registry

import (
	"testing"
)

func mustClass(t *testing.T, r *Registry, name string, super TypeID, serID int32, fields []Field) TypeID {
	t.Helper()
	id, err := r.RegisterClass(name, super, serID, fields)
	if err != nil {
		t.Fatalf("RegisterClass(%s): %v", name, err)
	}
	return id
}

func TestBuiltins(t *testing.T) {
	r := New()
	s := r.Snapshot()
	tests := []struct {
		id   TypeID
		want Shape
	}{
		{AnyType, Any},
		{IntType, Int},
		{FloatType, Float},
		{StringType, String},
	}
	for _, tt := range tests {
		if got := s.Shape(tt.id); got != tt.want {
			t.Errorf("Shape(%d) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestWrapperMemoization(t *testing.T) {
	r := New()
	v1 := r.VectorOf(IntType)
	v2 := r.VectorOf(IntType)
	if v1 != v2 {
		t.Errorf("VectorOf(int) not memoized: %d vs %d", v1, v2)
	}
	n1 := r.Nilable(StringType)
	n2 := r.Nilable(StringType)
	if n1 != n2 {
		t.Errorf("Nilable(string) not memoized: %d vs %d", n1, n2)
	}
	s := r.Snapshot()
	if s.Unwrap(n1) != StringType {
		t.Errorf("Unwrap(nilable string) = %d, want %d", s.Unwrap(n1), StringType)
	}
	if s.Unwrap(IntType) != IntType {
		t.Error("Unwrap of a non-nilable type should be identity")
	}
}

func TestFlattenedLayout(t *testing.T) {
	r := New()
	point, err := r.RegisterStruct("Point", false, []Field{
		{Type: FloatType, Name: "x"},
		{Type: FloatType, Name: "y"},
	})
	if err != nil {
		t.Fatal(err)
	}
	line, err := r.RegisterStruct("Line", false, []Field{
		{Type: point, Name: "a"},
		{Type: point, Name: "b"},
	})
	if err != nil {
		t.Fatal(err)
	}
	s := r.Snapshot()

	if got := s.FlatLen(point); got != 2 {
		t.Errorf("FlatLen(Point) = %d, want 2", got)
	}
	if got := s.FlatLen(line); got != 4 {
		t.Errorf("FlatLen(Line) = %d, want 4", got)
	}
	if got := s.Width(point); got != 2 {
		t.Errorf("Width(Point) = %d, want 2", got)
	}
	if got := s.Width(IntType); got != 1 {
		t.Errorf("Width(int) = %d, want 1", got)
	}

	// Slot 0 and 2 of Line are the nested Point fields; slot 1 resolves
	// inside the first Point.
	f, ok := s.SlotAt(line, 0)
	if !ok || f.Type != point {
		t.Errorf("SlotAt(Line, 0) = %+v, want Point field", f)
	}
	f, ok = s.SlotAt(line, 2)
	if !ok || f.Type != point {
		t.Errorf("SlotAt(Line, 2) = %+v, want Point field", f)
	}
	f, ok = s.SlotAt(line, 1)
	if !ok || f.Type != FloatType {
		t.Errorf("SlotAt(Line, 1) = %+v, want float field", f)
	}
}

func TestSubclassByName(t *testing.T) {
	r := New()
	entity := mustClass(t, r, "Entity", None, 1, []Field{{Type: IntType, Name: "hp", Default: 1}})
	monster := mustClass(t, r, "Monster", entity, 2, []Field{
		{Type: IntType, Name: "hp", Default: 1},
		{Type: IntType, Name: "rage"},
	})
	boss := mustClass(t, r, "Boss", monster, 3, []Field{
		{Type: IntType, Name: "hp", Default: 1},
		{Type: IntType, Name: "rage"},
		{Type: IntType, Name: "phase"},
	})
	s := r.Snapshot()

	got, ok := s.SubclassByName("Monster", entity)
	if !ok || got != monster {
		t.Errorf("SubclassByName(Monster, Entity) = %d,%v want %d", got, ok, monster)
	}
	// One level only: a grandchild name does not resolve.
	if _, ok := s.SubclassByName("Boss", entity); ok {
		t.Error("SubclassByName resolved a grandchild; resolution must stop at one level")
	}
	got, ok = s.SubclassByName("Boss", monster)
	if !ok || got != boss {
		t.Errorf("SubclassByName(Boss, Monster) = %d,%v want %d", got, ok, boss)
	}
	if _, ok := s.SubclassByName("Wizard", entity); ok {
		t.Error("SubclassByName resolved an unregistered name")
	}
}

func TestSubclassByNameSkipsUnmaterialized(t *testing.T) {
	r := New()
	entity := mustClass(t, r, "Entity", None, -1, nil)
	r.DeclareClass("Ghost", entity)
	s := r.Snapshot()
	if _, ok := s.SubclassByName("Ghost", entity); ok {
		t.Error("SubclassByName resolved an unmaterialized declaration")
	}
	ghost := mustClass(t, r, "Ghost", entity, -1, []Field{{Type: FloatType, Name: "fade"}})
	s = r.Snapshot()
	got, ok := s.SubclassByName("Ghost", entity)
	if !ok || got != ghost {
		t.Errorf("SubclassByName(Ghost, Entity) after materialization = %d,%v want %d", got, ok, ghost)
	}
}

func TestSubclassBySerID(t *testing.T) {
	r := New()
	entity := mustClass(t, r, "Entity", None, 1, nil)
	monster := mustClass(t, r, "Monster", entity, 2, nil)
	other := mustClass(t, r, "Other", None, 9, nil)
	s := r.Snapshot()

	if got, ok := s.SubclassBySerID(entity, 2); !ok || got != monster {
		t.Errorf("SubclassBySerID(Entity, 2) = %d,%v want %d", got, ok, monster)
	}
	if got, ok := s.SubclassBySerID(entity, 1); !ok || got != entity {
		t.Errorf("SubclassBySerID(Entity, 1) = %d,%v want %d", got, ok, entity)
	}
	if _, ok := s.SubclassBySerID(entity, 9); ok {
		t.Errorf("SubclassBySerID accepted id of incompatible class %d", other)
	}
	if _, ok := s.SubclassBySerID(entity, 77); ok {
		t.Error("SubclassBySerID accepted unknown id")
	}
}

func TestDuplicateSerID(t *testing.T) {
	r := New()
	mustClass(t, r, "A", None, 5, nil)
	if _, err := r.RegisterClass("B", None, 5, nil); err == nil {
		t.Error("expected duplicate serialization id to fail registration")
	}
}

func TestEnums(t *testing.T) {
	r := New()
	dir, err := r.RegisterEnum("Direction", []EnumValue{
		{Name: "North", Val: 0},
		{Name: "East", Val: 1},
		{Name: "South", Val: 2},
		{Name: "West", Val: 3},
	})
	if err != nil {
		t.Fatal(err)
	}
	s := r.Snapshot()
	ti := s.Lookup(dir)
	if ti == nil || ti.Shape != Int || ti.Enum == NoEnum {
		t.Fatalf("enum type not int-shaped with a table: %+v", ti)
	}
	if v, ok := s.EnumValue(ti.Enum, "South"); !ok || v != 2 {
		t.Errorf("EnumValue(South) = %d,%v want 2", v, ok)
	}
	if _, ok := s.EnumValue(ti.Enum, "Up"); ok {
		t.Error("EnumValue resolved unknown name")
	}
	if name, ok := s.EnumValueName(ti.Enum, 1); !ok || name != "East" {
		t.Errorf("EnumValueName(1) = %q,%v want East", name, ok)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	r := New()
	s1 := r.Snapshot()
	mustClass(t, r, "Late", None, -1, nil)
	if _, ok := s1.TypeByName("Late"); ok {
		t.Error("old snapshot observed a later registration")
	}
	s2 := r.Snapshot()
	if _, ok := s2.TypeByName("Late"); !ok {
		t.Error("new snapshot missing registration")
	}
	if s1 == s2 {
		t.Error("snapshot not invalidated by registration")
	}
}

func TestDefaultScalars(t *testing.T) {
	d := FloatDefault(2.5)
	if got := DefaultFloat(d); got != 2.5 {
		t.Errorf("DefaultFloat(FloatDefault(2.5)) = %v", got)
	}
}

func TestWrapperRejectsInvalidElem(t *testing.T) {
	r := New()
	for _, tc := range []struct {
		name string
		elem TypeID
	}{
		{"none", None},
		{"negative", TypeID(-7)},
		{"out of range", TypeID(999)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if id := r.Nilable(tc.elem); id != None {
				t.Errorf("Nilable(%d) = %d, want None", tc.elem, id)
			}
			if id := r.VectorOf(tc.elem); id != None {
				t.Errorf("VectorOf(%d) = %d, want None", tc.elem, id)
			}
		})
	}
}
