package autoload

import (
	"fmt"
	"reflect"
	"unsafe"
)

// memberValue returns an addressable, settable view of the member in the
// target allocation starting at base. Unexported fields are reachable because
// the view is built from the raw address rather than through field access.
func memberValue(base unsafe.Pointer, member *MemberMeta) reflect.Value {
	return reflect.NewAt(member.Type, unsafe.Add(base, member.Offset)).Elem()
}

// readMember copies the member out of the target. Slices and maps are cloned
// so that callers cannot mutate target state except through writeMember.
func readMember(base unsafe.Pointer, member *MemberMeta) any {
	return cloneValue(memberValue(base, member)).Interface()
}

// writeMember stores v into the member. v must be assignable to the member
// type, or be a numeric/string value convertible to it; nil stores the zero value.
func writeMember(base unsafe.Pointer, member *MemberMeta, v any) error {
	dst := memberValue(base, member)

	if v == nil {
		dst.Set(reflect.Zero(member.Type))
		return nil
	}

	src := reflect.ValueOf(v)
	switch {
	case src.Type().AssignableTo(member.Type):
		dst.Set(src)
	case convertibleScalar(src.Type(), member.Type):
		dst.Set(src.Convert(member.Type))
	default:
		return fmt.Errorf("%w: cannot assign %s to %s (%s)", ErrAccess, src.Type(), member.Path, member.Type)
	}
	return nil
}

// convertibleScalar reports whether from converts losslessly enough to to for
// the purposes of a slot write: same kind family, numeric or string.
func convertibleScalar(from, to reflect.Type) bool {
	if !from.ConvertibleTo(to) {
		return false
	}
	switch {
	case isInt(from) && isInt(to):
		return true
	case isFloat(from) && isFloat(to):
		return true
	case from.Kind() == reflect.String && to.Kind() == reflect.String:
		return true
	case from.Kind() == reflect.Bool && to.Kind() == reflect.Bool:
		return true
	}
	return false
}

func isInt(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func isFloat(t reflect.Type) bool {
	return t.Kind() == reflect.Float32 || t.Kind() == reflect.Float64
}

// cloneValue returns a shallow copy of slices and maps, and v otherwise.
func cloneValue(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		reflect.Copy(out, v)
		return out
	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), iter.Value())
		}
		return out
	default:
		// Detach from the target memory.
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		return out
	}
}

// callValue invokes fn with args, converting an error result into ErrAccess.
func callValue(name string, fn reflect.Value, args []any) error {
	ft := fn.Type()
	if ft.IsVariadic() || ft.NumIn() != len(args) {
		return fmt.Errorf("%w: %s takes %d arguments, got %d", ErrAccess, name, ft.NumIn(), len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		want := ft.In(i)
		if arg == nil {
			in[i] = reflect.Zero(want)
			continue
		}
		v := reflect.ValueOf(arg)
		switch {
		case v.Type().AssignableTo(want):
			in[i] = v
		case convertibleScalar(v.Type(), want):
			in[i] = v.Convert(want)
		default:
			return fmt.Errorf("%w: %s argument %d: cannot use %s as %s", ErrAccess, name, i, v.Type(), want)
		}
	}

	out := fn.Call(in)
	errType := reflect.TypeOf((*error)(nil)).Elem()
	for _, o := range out {
		if o.Type() == errType && !o.IsNil() {
			return fmt.Errorf("%w: %s: %v", ErrAccess, name, o.Interface())
		}
	}
	return nil
}
