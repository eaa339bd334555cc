package autoload

import (
	"strings"
)

// Selector modifiers
const (
	modOpt = "opt" // Optional (absence is normal)
)

// MemberKind represents how a member of the target is reached.
type MemberKind int

const (
	// KindField indicates a plain data field
	KindField MemberKind = iota
	// KindFunc indicates a func-typed field that can be invoked
	KindFunc
)

// String returns the string representation of MemberKind.
func (k MemberKind) String() string {
	switch k {
	case KindField:
		return "Field"
	case KindFunc:
		return "Func"
	default:
		return "Unknown"
	}
}

// Selector is a parsed member selector such as "cfg.profileFromClient,opt".
type Selector struct {
	Path     string // dotted path, e.g. "cfg.profileFromClient"
	Optional bool   // ,opt
}

// parseSelector parses a member selector.
func parseSelector(s string) Selector {
	sel := Selector{}
	parts := strings.Split(s, ",")
	sel.Path = strings.TrimSpace(parts[0])
	for _, part := range parts[1:] {
		switch strings.TrimSpace(part) {
		case modOpt:
			sel.Optional = true
		}
	}
	return sel
}

// String renders the selector back to its textual form.
func (s Selector) String() string {
	if s.Optional {
		return s.Path + "," + modOpt
	}
	return s.Path
}
