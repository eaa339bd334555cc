package autoload

import (
	"fmt"
	"reflect"
	"sort"
)

// maxMemberDepth bounds how deep nested value structs are flattened.
const maxMemberDepth = 4

// TargetMeta holds pre-computed metadata about a target system's state type.
// This is computed once per probe and reused for every access; it never holds
// values read from the target.
type TargetMeta struct {
	// Type is the reflect.Type of the target struct
	Type reflect.Type

	// Name is the type name for logging
	Name string

	// Members maps dotted field paths to their layout
	Members map[string]*MemberMeta

	// Methods maps exported method names on *Type to their index
	Methods map[string]int
}

// MemberMeta holds metadata about a single reachable field.
type MemberMeta struct {
	// Path is the dotted path from the target root, e.g. "cfg.profileFromClient"
	Path string

	// Offset is the byte offset from the start of the target struct
	Offset uintptr

	// Type is the field type
	Type reflect.Type

	// Kind is KindField or KindFunc
	Kind MemberKind

	// Exported reports whether every segment of the path is exported
	Exported bool
}

// analyzeTarget analyzes a target struct type and returns its member table.
// Nested value structs are flattened into dotted paths; pointers are not
// followed, since their offsets are not part of the root allocation.
func analyzeTarget(t reflect.Type) (*TargetMeta, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("target must be a struct, got %v", t.Kind())
	}

	meta := &TargetMeta{
		Type:    t,
		Name:    t.String(),
		Members: make(map[string]*MemberMeta),
		Methods: make(map[string]int),
	}
	meta.walk(t, "", 0, true, 0)

	pt := reflect.PointerTo(t)
	for i := 0; i < pt.NumMethod(); i++ {
		meta.Methods[pt.Method(i).Name] = i
	}

	return meta, nil
}

// walk records every field of t below prefix.
func (m *TargetMeta) walk(t reflect.Type, prefix string, base uintptr, exported bool, depth int) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Name == "_" {
			continue
		}

		path := field.Name
		if prefix != "" {
			path = prefix + "." + field.Name
		}

		member := &MemberMeta{
			Path:     path,
			Offset:   base + field.Offset,
			Type:     field.Type,
			Kind:     KindField,
			Exported: exported && field.IsExported(),
		}
		if field.Type.Kind() == reflect.Func {
			member.Kind = KindFunc
		}
		m.Members[path] = member

		if field.Type.Kind() == reflect.Struct && depth+1 < maxMemberDepth {
			m.walk(field.Type, path, member.Offset, member.Exported, depth+1)
		}
	}
}

// lookup returns the member at path.
func (m *TargetMeta) lookup(path string) (*MemberMeta, bool) {
	member, ok := m.Members[path]
	return member, ok
}

// Paths returns every member path, sorted. Primarily for diagnostics.
func (m *TargetMeta) Paths() []string {
	paths := make([]string, 0, len(m.Members))
	for p := range m.Members {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
