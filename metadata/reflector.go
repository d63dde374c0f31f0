package metadata

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kbukum/lifescope/errors"
)

var (
	inType    = reflect.TypeOf(In{})
	errorType = reflect.TypeOf((*error)(nil)).Elem()
)

// Reflector implements Provider and Catalog on top of package reflect.
type Reflector struct {
	constructors map[reflect.Type][]*Member
}

var (
	_ Provider = (*Reflector)(nil)
	_ Catalog  = (*Reflector)(nil)
)

// NewReflector creates a Reflector with an empty constructor catalog.
func NewReflector() *Reflector {
	return &Reflector{constructors: make(map[reflect.Type][]*Member)}
}

// Hierarchy walks exported structs embedded by value, depth first.
// Pointer embeds are not levels: their target is not owned by the client.
func (r *Reflector) Hierarchy(t reflect.Type) []Level {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var levels []Level
	var walk func(t reflect.Type, path []int)
	walk = func(t reflect.Type, path []int) {
		levels = append(levels, Level{Type: t, Path: path})
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !isLevel(f) {
				continue
			}
			sub := make([]int, len(path)+1)
			copy(sub, path)
			sub[len(path)] = i
			walk(f.Type, sub)
		}
	}
	walk(t, nil)
	return levels
}

// Constructors returns a copy of the constructors registered for t.
func (r *Reflector) Constructors(t reflect.Type) []*Member {
	ctors := r.constructors[t]
	if len(ctors) == 0 {
		return nil
	}
	out := make([]*Member, len(ctors))
	copy(out, ctors)
	return out
}

// RegisterConstructor accepts func(deps...) T and func(deps...) (T, error).
func (r *Reflector) RegisterConstructor(fn any) (reflect.Type, error) {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return nil, errors.InvalidArgument("constructor", fmt.Sprintf("expected a non-nil function, got %T", fn))
	}

	ft := v.Type()
	if ft.IsVariadic() {
		return nil, errors.InvalidArgument("constructor", fmt.Sprintf("%s is variadic", ft))
	}
	errIndex := -1
	switch {
	case ft.NumOut() == 1 && ft.Out(0) != errorType:
	case ft.NumOut() == 2 && ft.Out(0) != errorType && ft.Out(1) == errorType:
		errIndex = 1
	default:
		return nil, errors.InvalidArgument("constructor", fmt.Sprintf("%s must return (T) or (T, error)", ft))
	}

	t := ft.Out(0)
	r.constructors[t] = append(r.constructors[t], &Member{
		Kind:          ConstructorKind,
		Name:          funcName(v),
		DeclaringType: t,
		Func:          v,
		errIndex:      errIndex,
	})
	return t, nil
}

// InjectMethod finds the injection method declared on level t. A method
// matches when its name is prefix or prefix followed by an upper-case
// letter. Methods promoted from embedded levels belong to their own level
// and are skipped here. Methods promoted from unexported embedded structs
// belong to t; those promoted through pointer or interface embeds are
// rejected, since no level would ever call them.
func (r *Reflector) InjectMethod(t reflect.Type, prefix string) (*Member, error) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	pt := reflect.PointerTo(t)

	var found []reflect.Method
	for i := 0; i < pt.NumMethod(); i++ {
		m := pt.Method(i)
		if !hasInjectPrefix(m.Name, prefix) {
			continue
		}
		if inherited, ok := embeddedMethod(t, m.Name); ok {
			if !sameSignature(m.Type, 1, inherited.typ, inherited.skip) {
				// Same name with a new signature: t declares its own method and
				// hides the embedded one, so both levels would claim it.
				return nil, errors.AmbiguousInjectMethod(t.String(), []string{m.Name}).
					WithDetail("shadows", inherited.owner.String())
			}
			if isLevel(inherited.field) {
				continue
			}
			if inherited.field.Type.Kind() != reflect.Struct {
				return nil, errors.InvalidArgument("inject_method", fmt.Sprintf(
					"(*%s).%s is promoted through embedded %s field %s, which is not injected",
					t, m.Name, inherited.field.Type.Kind(), inherited.field.Name))
			}
			// An unexported struct is not a level of its own: its method runs
			// as part of t.
		}
		found = append(found, m)
	}

	switch len(found) {
	case 0:
		return nil, nil
	case 1:
	default:
		names := make([]string, len(found))
		for i, m := range found {
			names[i] = m.Name
		}
		return nil, errors.AmbiguousInjectMethod(t.String(), names)
	}

	m := found[0]
	if m.Type.IsVariadic() {
		return nil, errors.InvalidArgument("inject_method", fmt.Sprintf("(*%s).%s is variadic", t, m.Name))
	}
	return &Member{
		Kind:          MethodKind,
		Name:          m.Name,
		DeclaringType: t,
		Func:          m.Func,
		errIndex:      trailingError(m.Type),
	}, nil
}

// Parameters lists the dependencies of m. A parameter object contributes one
// parameter per exported field.
func (r *Reflector) Parameters(m *Member) []Parameter {
	n := m.NumIn()
	params := make([]Parameter, 0, n)
	for i := 0; i < n; i++ {
		t := m.In(i)
		if !isParameterObject(t) {
			params = append(params, Parameter{Position: i, Name: fmt.Sprintf("arg%d", i), Type: t})
			continue
		}
		for j := 0; j < t.NumField(); j++ {
			f := t.Field(j)
			if f.Type == inType || !f.IsExported() {
				continue
			}
			tag, optional := parseTag(f.Tag.Get(TagKey))
			params = append(params, Parameter{
				Position: i,
				Field:    f.Index,
				Name:     f.Name,
				Type:     f.Type,
				Optional: optional,
				tag:      tag,
				tagged:   tag != "",
			})
		}
	}
	return params
}

// TagAnnotation returns the tag from the field's inject struct tag.
func (r *Reflector) TagAnnotation(p Parameter) (string, bool) {
	return p.tag, p.tagged
}

// Bind builds the argument list for m, filling parameter objects field by field.
func (r *Reflector) Bind(m *Member, params []Parameter, values []reflect.Value) ([]reflect.Value, error) {
	if len(params) != len(values) {
		return nil, errors.InvalidArgument("values", fmt.Sprintf("%s: %d values for %d parameters", m, len(values), len(params)))
	}

	args := make([]reflect.Value, m.NumIn())
	for i, p := range params {
		v := values[i]
		if !v.IsValid() {
			v = reflect.Zero(p.Type)
		} else if !v.Type().AssignableTo(p.Type) {
			return nil, errors.TypeMismatch(p.Type.String(), v.Type().String()).
				WithDetail("parameter", p.Name)
		}

		if p.Field == nil {
			args[p.Position] = v
			continue
		}
		if !args[p.Position].IsValid() {
			args[p.Position] = reflect.New(m.In(p.Position)).Elem()
		}
		args[p.Position].FieldByIndex(p.Field).Set(v)
	}

	for i, a := range args {
		if !a.IsValid() {
			args[i] = reflect.Zero(m.In(i))
		}
	}
	return args, nil
}

// Invoke calls m through reflection. For constructors the receiver is ignored.
func (r *Reflector) Invoke(m *Member, receiver reflect.Value, args []reflect.Value) (reflect.Value, error) {
	in := args
	if m.Kind == MethodKind {
		in = make([]reflect.Value, 0, len(args)+1)
		in = append(in, receiver)
		in = append(in, args...)
	}
	return result(m, m.Func.Call(in))
}

// CompileCall closes over the function value and a copy of args. The
// returned Call performs no metadata or parameter work.
func (r *Reflector) CompileCall(m *Member, args []reflect.Value) Call {
	fn := m.Func
	bound := make([]reflect.Value, len(args))
	copy(bound, args)

	if m.Kind == ConstructorKind {
		return func(reflect.Value) (reflect.Value, error) {
			return result(m, fn.Call(bound))
		}
	}
	return func(receiver reflect.Value) (reflect.Value, error) {
		in := make([]reflect.Value, len(bound)+1)
		in[0] = receiver
		copy(in[1:], bound)
		return result(m, fn.Call(in))
	}
}

func result(m *Member, out []reflect.Value) (reflect.Value, error) {
	if m.errIndex >= 0 && !out[m.errIndex].IsNil() {
		return reflect.Value{}, errors.InvocationFailed(m.String(), out[m.errIndex].Interface().(error))
	}
	if m.Kind == ConstructorKind {
		return out[0], nil
	}
	return reflect.Value{}, nil
}

type inheritedMethod struct {
	field reflect.StructField
	owner reflect.Type
	typ   reflect.Type
	skip  int
}

// embeddedMethod reports whether an anonymous field of t provides a method
// called name, and returns its signature.
func embeddedMethod(t reflect.Type, name string) (inheritedMethod, bool) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}
		ft := f.Type
		switch ft.Kind() {
		case reflect.Interface:
			if m, ok := ft.MethodByName(name); ok {
				return inheritedMethod{field: f, owner: ft, typ: m.Type, skip: 0}, true
			}
		case reflect.Pointer:
			if m, ok := ft.MethodByName(name); ok {
				return inheritedMethod{field: f, owner: ft, typ: m.Type, skip: 1}, true
			}
		default:
			if m, ok := reflect.PointerTo(ft).MethodByName(name); ok {
				return inheritedMethod{field: f, owner: ft, typ: m.Type, skip: 1}, true
			}
		}
	}
	return inheritedMethod{}, false
}

// isLevel reports whether Hierarchy walks into the embedded field f.
func isLevel(f reflect.StructField) bool {
	return f.Anonymous && f.IsExported() && f.Type.Kind() == reflect.Struct && f.Type != inType
}

// sameSignature compares two func types, ignoring the first aSkip and bSkip
// inputs (receivers).
func sameSignature(a reflect.Type, aSkip int, b reflect.Type, bSkip int) bool {
	if a.NumIn()-aSkip != b.NumIn()-bSkip || a.NumOut() != b.NumOut() || a.IsVariadic() != b.IsVariadic() {
		return false
	}
	for i := 0; i < a.NumIn()-aSkip; i++ {
		if a.In(i+aSkip) != b.In(i+bSkip) {
			return false
		}
	}
	for i := 0; i < a.NumOut(); i++ {
		if a.Out(i) != b.Out(i) {
			return false
		}
	}
	return true
}

func hasInjectPrefix(name, prefix string) bool {
	if !strings.HasPrefix(name, prefix) {
		return false
	}
	if len(name) == len(prefix) {
		return true
	}
	next, _ := utf8.DecodeRuneInString(name[len(prefix):])
	return unicode.IsUpper(next)
}

func trailingError(ft reflect.Type) int {
	n := ft.NumOut()
	if n > 0 && ft.Out(n-1) == errorType {
		return n - 1
	}
	return -1
}

func isParameterObject(t reflect.Type) bool {
	if t.Kind() != reflect.Struct {
		return false
	}
	for i := 0; i < t.NumField(); i++ {
		if f := t.Field(i); f.Anonymous && f.Type == inType {
			return true
		}
	}
	return false
}

// parseTag splits `inject:"name,optional"`.
func parseTag(raw string) (tag string, optional bool) {
	parts := strings.Split(raw, ",")
	tag = strings.TrimSpace(parts[0])
	for _, opt := range parts[1:] {
		if strings.TrimSpace(opt) == "optional" {
			optional = true
		}
	}
	return tag, optional
}

func funcName(v reflect.Value) string {
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return v.Type().String()
	}
	name := f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}
