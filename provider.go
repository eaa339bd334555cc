package autoload

import (
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"sync"
)

// Provider supplies the live value of a target system.
// Target returns nil while the system is not loaded.
type Provider interface {
	// Name returns the system identifier used to probe it (e.g. "lostcities").
	Name() string

	// Target returns a pointer to the system's state struct, or nil.
	Target() any
}

// staticProvider wraps an already constructed value.
type staticProvider struct {
	name   string
	target any
}

func (p staticProvider) Name() string { return p.name }
func (p staticProvider) Target() any  { return p.target }

// Static returns a Provider that always yields v.
func Static(name string, v any) Provider {
	return staticProvider{name: name, target: v}
}

// ProviderFunc adapts a function to a Provider.
type ProviderFunc struct {
	ID string
	Fn func() any
}

func (p ProviderFunc) Name() string { return p.ID }

func (p ProviderFunc) Target() any {
	if p.Fn == nil {
		return nil
	}
	return p.Fn()
}

// Systems is the registry of target systems present in the process.
// It plays the role of a plugin list: a system that was never registered is
// simply not loaded.
type Systems struct {
	mu        sync.RWMutex
	providers map[string]Provider
	log       *slog.Logger
}

// NewSystems creates an empty registry.
func NewSystems() *Systems {
	return &Systems{
		providers: make(map[string]Provider),
		log:       slog.Default(),
	}
}

// WithLogger sets the logger used by Probe.
func (s *Systems) WithLogger(log *slog.Logger) *Systems {
	if log != nil {
		s.log = log
	}
	return s
}

// Register adds or replaces a provider.
func (s *Systems) Register(p Provider) {
	s.mu.Lock()
	s.providers[p.Name()] = p
	s.mu.Unlock()
}

// Lookup returns the provider registered under id.
func (s *Systems) Lookup(id string) (Provider, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.providers[id]
	return p, ok
}

// IsLoaded reports whether a provider is registered under id and currently
// yields a target.
func (s *Systems) IsLoaded(id string) bool {
	p, ok := s.Lookup(id)
	if !ok {
		return false
	}
	return p.Target() != nil
}

// Names returns the registered system identifiers, sorted.
func (s *Systems) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.providers))
	for n := range s.providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Probe locates the target system registered under id and analyses its
// members. Every failure, including a panic inside the provider, is reported
// as ErrTargetUnavailable.
func (s *Systems) Probe(id string) (h *Handle, err error) {
	defer func() {
		if r := recover(); r != nil {
			h = nil
			err = fmt.Errorf("%w: probing %q panicked: %v", ErrTargetUnavailable, id, r)
		}
		if err != nil {
			s.log.Warn("autoload: target system not available", "system", id, "error", err)
		}
	}()

	p, ok := s.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not loaded", ErrTargetUnavailable, id)
	}

	v := p.Target()
	if v == nil {
		return nil, fmt.Errorf("%w: %q yielded no target", ErrTargetUnavailable, id)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %q must be a non-nil pointer to struct, got %T", ErrTargetUnavailable, id, v)
	}

	meta, err := analyzeTarget(rv.Type().Elem())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTargetUnavailable, err)
	}

	s.log.Info("autoload: connected to target system", "system", id, "type", meta.Name, "members", len(meta.Members))
	return &Handle{id: id, value: rv, meta: meta}, nil
}
