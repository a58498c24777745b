package codec

import (
	"testing"

	"github.com/wirevm/serval/registry"
	"github.com/wirevm/serval/value"
)

// testTypes is the fixture schema shared by the codec tests.
type testTypes struct {
	reg *registry.Registry

	color   registry.TypeID // enum RED GREEN BLUE
	point   registry.TypeID // struct {x, y float}
	monster registry.TypeID // class {pos Point, hp int = 10, name string, color Color = GREEN}
	entity  registry.TypeID // class ser 1 {id int}
	player  registry.TypeID // class ser 2 : Entity {id int, score int = 5}
	boss    registry.TypeID // class ser 3 : Player {id int, score int = 5, phase int}

	intVec    registry.TypeID
	pointVec  registry.TypeID
	nilString registry.TypeID
	nilEntity registry.TypeID
}

func newTestTypes(t *testing.T) *testTypes {
	t.Helper()
	r := registry.New()
	tt := &testTypes{reg: r}
	var err error
	tt.color, err = r.RegisterEnum("Color", []registry.EnumValue{
		{Name: "RED", Val: 0},
		{Name: "GREEN", Val: 1},
		{Name: "BLUE", Val: 2},
	})
	if err != nil {
		t.Fatal(err)
	}
	tt.point, err = r.RegisterStruct("Point", false, []registry.Field{
		{Type: registry.FloatType, Name: "x"},
		{Type: registry.FloatType, Name: "y"},
	})
	if err != nil {
		t.Fatal(err)
	}
	tt.monster, err = r.RegisterClass("Monster", registry.None, 7, []registry.Field{
		{Type: tt.point, Name: "pos"},
		{Type: registry.IntType, Name: "hp", Default: 10},
		{Type: registry.StringType, Name: "name"},
		{Type: tt.color, Name: "color", Default: 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	tt.entity, err = r.RegisterClass("Entity", registry.None, 1, []registry.Field{
		{Type: registry.IntType, Name: "id"},
	})
	if err != nil {
		t.Fatal(err)
	}
	tt.player, err = r.RegisterClass("Player", tt.entity, 2, []registry.Field{
		{Type: registry.IntType, Name: "id"},
		{Type: registry.IntType, Name: "score", Default: 5},
	})
	if err != nil {
		t.Fatal(err)
	}
	tt.boss, err = r.RegisterClass("Boss", tt.player, 3, []registry.Field{
		{Type: registry.IntType, Name: "id"},
		{Type: registry.IntType, Name: "score", Default: 5},
		{Type: registry.IntType, Name: "phase"},
	})
	if err != nil {
		t.Fatal(err)
	}
	tt.intVec = r.VectorOf(registry.IntType)
	tt.pointVec = r.VectorOf(tt.point)
	tt.nilString = r.Nilable(registry.StringType)
	tt.nilEntity = r.Nilable(tt.entity)
	return tt
}

// ints extracts the elements of a decoded int vector.
func ints(t *testing.T, v value.Value) []int64 {
	t.Helper()
	if !v.IsRef() {
		t.Fatalf("expected vector, got %s", v.Sprint())
	}
	vec, ok := v.Ref().(*value.Vector)
	if !ok {
		t.Fatalf("expected vector, got %s", v.Sprint())
	}
	out := make([]int64, 0, len(vec.Elems))
	for _, e := range vec.Elems {
		out = append(out, e.Int())
	}
	return out
}

// object asserts the value is a class instance and returns it.
func object(t *testing.T, v value.Value) *value.Object {
	t.Helper()
	if !v.IsRef() {
		t.Fatalf("expected object, got %s", v.Sprint())
	}
	o, ok := v.Ref().(*value.Object)
	if !ok {
		t.Fatalf("expected object, got %s", v.Sprint())
	}
	return o
}

func equalInts(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
