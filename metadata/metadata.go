package metadata

import (
	"fmt"
	"reflect"
)

// In marks a struct parameter as a parameter object. Each exported field of
// the struct is resolved as its own dependency.
type In struct{}

// TagKey is the struct tag read from parameter object fields.
const TagKey = "inject"

// Kind tells methods and constructors apart.
type Kind int

const (
	MethodKind Kind = iota
	ConstructorKind
)

func (k Kind) String() string {
	switch k {
	case MethodKind:
		return "method"
	case ConstructorKind:
		return "constructor"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Member is an injection method or a constructor.
type Member struct {
	Kind Kind
	Name string
	// DeclaringType is the level type for methods and the result type for constructors.
	DeclaringType reflect.Type
	// Func is the method expression (receiver first) or the constructor function.
	Func reflect.Value

	errIndex int
}

// String returns a readable name such as "(*game.Warrior).InjectWeapon".
func (m *Member) String() string {
	if m.Kind == MethodKind {
		return fmt.Sprintf("(*%s).%s", m.DeclaringType, m.Name)
	}
	return m.Name
}

// NumIn returns the number of declared inputs, excluding the receiver.
func (m *Member) NumIn() int {
	n := m.Func.Type().NumIn()
	if m.Kind == MethodKind {
		n--
	}
	return n
}

// In returns the type of the i-th declared input, excluding the receiver.
func (m *Member) In(i int) reflect.Type {
	if m.Kind == MethodKind {
		i++
	}
	return m.Func.Type().In(i)
}

// Level is one step of a type hierarchy.
type Level struct {
	Type reflect.Type
	// Path is the embedding index path from the most derived struct.
	Path []int
}

// Receiver returns the pointer to this level inside root, a pointer to the
// most derived struct.
func (l Level) Receiver(root reflect.Value) reflect.Value {
	if len(l.Path) == 0 {
		return root
	}
	return root.Elem().FieldByIndex(l.Path).Addr()
}

// Parameter is a single dependency of a member.
type Parameter struct {
	// Position is the index of the declared input, excluding the receiver.
	Position int
	// Field is set when the parameter is a field of a parameter object.
	Field    []int
	Name     string
	Type     reflect.Type
	Optional bool

	tag    string
	tagged bool
}

// Call is a compiled invocation. Methods take the level receiver;
// constructors ignore it and return the new instance.
type Call func(receiver reflect.Value) (reflect.Value, error)

// Provider reads type metadata and performs the reflective calls the di
// engine needs.
type Provider interface {
	// Hierarchy returns the levels of t, most derived first. t may be a
	// struct or a pointer to one.
	Hierarchy(t reflect.Type) []Level
	// Constructors returns the constructors known for t, in no particular order.
	Constructors(t reflect.Type) []*Member
	// InjectMethod returns the injection method declared on level t, or nil
	// when there is none.
	InjectMethod(t reflect.Type, prefix string) (*Member, error)
	Parameters(m *Member) []Parameter
	// TagAnnotation returns the tag attached to p, if any.
	TagAnnotation(p Parameter) (string, bool)
	// Bind assembles call arguments from one resolved value per parameter.
	// An invalid value stands for the parameter's zero value.
	Bind(m *Member, params []Parameter, values []reflect.Value) ([]reflect.Value, error)
	// Invoke calls m through reflection.
	Invoke(m *Member, receiver reflect.Value, args []reflect.Value) (reflect.Value, error)
	// CompileCall binds args to m and returns a reusable Call.
	CompileCall(m *Member, args []reflect.Value) Call
}

// Catalog accepts constructor functions.
type Catalog interface {
	// RegisterConstructor adds fn and returns the type it constructs.
	RegisterConstructor(fn any) (reflect.Type, error)
}
