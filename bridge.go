package autoload

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unsafe"
)

// Handle is a capability to read and write named members of a probed target
// system. Every operation is fallible and none of them panics: failures come
// back as ErrAccess (or ErrUnsupported for members the target does not have).
//
// Members are addressed by selector, a dotted path through value structs,
// optionally suffixed with ",opt":
//
//	h.Get("cfg.profileFromClient")
//	h.Invoke("ResetProfileCache,opt")
//
// Unexported fields are reachable. Methods must be exported.
type Handle struct {
	id    string
	value reflect.Value
	meta  *TargetMeta
}

// ID returns the system identifier the handle was probed with.
func (h *Handle) ID() string {
	if h == nil {
		return ""
	}
	return h.id
}

// Available reports whether the handle refers to a live target.
func (h *Handle) Available() bool {
	return h != nil && h.value.IsValid() && !h.value.IsNil()
}

// Meta returns the member table of the target.
func (h *Handle) Meta() *TargetMeta {
	if h == nil {
		return nil
	}
	return h.meta
}

// base returns the address of the target struct.
func (h *Handle) base() unsafe.Pointer {
	return h.value.UnsafePointer()
}

// member resolves a data member by selector.
func (h *Handle) member(name string) (*MemberMeta, error) {
	if !h.Available() {
		return nil, ErrTargetUnavailable
	}
	sel := parseSelector(name)
	member, ok := h.meta.lookup(sel.Path)
	if !ok {
		return nil, fmt.Errorf("%w: %w: %s has no member %q", ErrAccess, ErrUnsupported, h.meta.Name, sel.Path)
	}
	return member, nil
}

// Has reports whether the target has a member or method reachable by name.
func (h *Handle) Has(name string) bool {
	if !h.Available() {
		return false
	}
	sel := parseSelector(name)
	if _, ok := h.meta.lookup(sel.Path); ok {
		return true
	}
	_, err := h.method(sel.Path)
	return err == nil
}

// Get reads the member named by name. Slices and maps are returned as copies.
func (h *Handle) Get(name string) (v any, err error) {
	defer recoverAccess(name, &err)

	member, err := h.member(name)
	if err != nil {
		return nil, err
	}
	return readMember(h.base(), member), nil
}

// GetAs reads the member named by name as T.
func GetAs[T any](h *Handle, name string) (T, error) {
	var zero T
	v, err := h.Get(name)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s is %T, not %T", ErrAccess, name, v, zero)
	}
	return out, nil
}

// Set writes v into the member named by name.
func (h *Handle) Set(name string, v any) (err error) {
	defer recoverAccess(name, &err)

	member, err := h.member(name)
	if err != nil {
		return err
	}
	if member.Kind != KindField {
		return fmt.Errorf("%w: %s is a %s, not a data field", ErrAccess, name, member.Kind)
	}
	return writeMember(h.base(), member, v)
}

// Keys returns the sorted keys of a string-keyed map member. A nil map has
// no keys.
func (h *Handle) Keys(name string) (keys []string, err error) {
	defer recoverAccess(name, &err)

	member, err := h.member(name)
	if err != nil {
		return nil, err
	}
	if member.Type.Kind() != reflect.Map || member.Type.Key().Kind() != reflect.String {
		return nil, fmt.Errorf("%w: %s is %s, not a string-keyed map", ErrAccess, name, member.Type)
	}

	m := memberValue(h.base(), member)
	keys = make([]string, 0, m.Len())
	iter := m.MapRange()
	for iter.Next() {
		keys = append(keys, iter.Key().String())
	}
	sort.Strings(keys)
	return keys, nil
}

// Invoke calls the hook named by name: an exported method, or a func-typed
// field. A missing hook, or a nil func field, is ErrUnsupported.
func (h *Handle) Invoke(name string, args ...any) (err error) {
	defer recoverAccess(name, &err)

	if !h.Available() {
		return ErrTargetUnavailable
	}
	sel := parseSelector(name)

	if member, ok := h.meta.lookup(sel.Path); ok && member.Kind == KindFunc {
		fn := memberValue(h.base(), member)
		if fn.IsNil() {
			return fmt.Errorf("%w: %s is nil", ErrUnsupported, sel.Path)
		}
		return callValue(sel.Path, fn, args)
	}

	fn, err := h.method(sel.Path)
	if err != nil {
		return err
	}
	return callValue(sel.Path, fn, args)
}

// method resolves an exported method either on the target itself or on a
// nested value struct ("cfg.Reset").
func (h *Handle) method(path string) (reflect.Value, error) {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 {
		if i, ok := h.meta.Methods[path]; ok {
			return h.value.Method(i), nil
		}
		return reflect.Value{}, fmt.Errorf("%w: %s has no method %q", ErrUnsupported, h.meta.Name, path)
	}

	parent, ok := h.meta.lookup(path[:idx])
	if !ok || parent.Type.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("%w: %s has no method %q", ErrUnsupported, h.meta.Name, path)
	}
	recv := reflect.NewAt(parent.Type, unsafe.Add(h.base(), parent.Offset))
	fn := recv.MethodByName(path[idx+1:])
	if !fn.IsValid() {
		return reflect.Value{}, fmt.Errorf("%w: %s has no method %q", ErrUnsupported, parent.Type, path[idx+1:])
	}
	return fn, nil
}

// recoverAccess converts a panic during target access into ErrAccess.
func recoverAccess(name string, err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %s panicked: %v", ErrAccess, name, r)
	}
}
