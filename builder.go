package autoload

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Builder configures the engine and spawner before initialization.
// Use NewBuilder() to create a builder and chain configuration methods.
type Builder struct {
	systems  *Systems
	store    *Store
	log      *slog.Logger
	reg      prometheus.Registerer
	metrics  bool
	members  *Members
	systemID string
	worlds   *Worlds
}

// NewBuilder creates a new builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Systems sets the registry the target system is probed from.
func (b *Builder) Systems(s *Systems) *Builder {
	b.systems = s
	return b
}

// Settings sets the settings store shared by the engine and spawner.
func (b *Builder) Settings(s *Store) *Builder {
	b.store = s
	return b
}

// Logger sets the logger. Defaults to slog.Default().
func (b *Builder) Logger(log *slog.Logger) *Builder {
	b.log = log
	return b
}

// Metrics enables outcome counters registered with reg. A nil reg keeps the
// counters unregistered.
//
// Example:
//
//	builder.Metrics(prometheus.DefaultRegisterer)
func (b *Builder) Metrics(reg prometheus.Registerer) *Builder {
	b.reg = reg
	b.metrics = true
	return b
}

// Members overrides the target member layout. Defaults to DefaultMembers().
func (b *Builder) Members(m Members) *Builder {
	b.members = &m
	return b
}

// TargetSystem overrides the id of the target system. Defaults to the
// target_system setting, or "lostcities" when settings are not loaded yet.
func (b *Builder) TargetSystem(id string) *Builder {
	b.systemID = id
	return b
}

// Worlds sets the dimension registry of the spawner. It can also be set later
// with Spawner.UseWorlds.
func (b *Builder) Worlds(w *Worlds) *Builder {
	b.worlds = w
	return b
}

// Init creates the engine and spawner. The target is probed once here; an
// absent target is not an error.
func (b *Builder) Init() (*Engine, *Spawner) {
	log := b.log
	if log == nil {
		log = slog.Default()
	}

	systems := b.systems
	if systems == nil {
		systems = NewSystems()
	}
	systems.WithLogger(log)

	store := b.store
	if store == nil {
		store = NewStore()
	}
	store.WithLogger(log)

	members := DefaultMembers()
	if b.members != nil {
		members = *b.members
	}

	id := b.systemID
	if id == "" {
		id = DefaultSettings().TargetSystem
		if s, ok := store.Settings(); ok && s.TargetSystem != "" {
			id = s.TargetSystem
		}
	}

	var metrics *Metrics
	if b.metrics {
		metrics = NewMetrics(b.reg)
	}

	eng := newEngine(systems, id, store, members, log, metrics)
	sp := &Spawner{
		store:   store,
		worlds:  b.worlds,
		log:     log,
		metrics: metrics,
	}
	return eng, sp
}
