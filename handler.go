package autoload

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/df-mc/dragonfly/server"
	"github.com/df-mc/dragonfly/server/player"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/go-gl/mathgl/mgl64"
)

// Dimension ids of the worlds every server has.
const (
	Overworld = DefaultDimension
	Nether    = "minecraft:the_nether"
	End       = "minecraft:the_end"
)

// Worlds maps dimension ids to worlds.
type Worlds struct {
	mu   sync.RWMutex
	byID map[string]*world.World
}

// NewWorlds creates an empty registry.
func NewWorlds() *Worlds {
	return &Worlds{byID: make(map[string]*world.World)}
}

// WorldsFromServer registers the three default worlds of srv.
func WorldsFromServer(srv *server.Server) *Worlds {
	w := NewWorlds()
	w.Add(Overworld, srv.World())
	w.Add(Nether, srv.Nether())
	w.Add(End, srv.End())
	return w
}

// Add registers w under id, replacing any previous world.
func (w *Worlds) Add(id string, wd *world.World) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.byID[id] = wd
}

// Get returns the world registered under id.
func (w *Worlds) Get(id string) (*world.World, bool) {
	if w == nil {
		return nil, false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	wd, ok := w.byID[id]
	return wd, ok && wd != nil
}

// ID returns the id wd is registered under.
func (w *Worlds) ID(wd *world.World) (string, bool) {
	if w == nil {
		return "", false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	for id, v := range w.byID {
		if v == wd {
			return id, true
		}
	}
	return "", false
}

// IDs returns the registered ids, sorted.
func (w *Worlds) IDs() []string {
	if w == nil {
		return nil
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Sorted(maps.Keys(w.byID))
}

// Plan is the outcome of placement resolution for one player.
type Plan struct {
	Spec     PlacementSpec
	Transfer bool
}

// Spawner places joining players into the configured dimension.
//
// Concurrency:
// HandleJoin runs inside the joining player's world transaction. Transfers to
// another world are queued on that world and complete asynchronously.
type Spawner struct {
	store   *Store
	worlds  *Worlds
	log     *slog.Logger
	metrics *Metrics
}

// UseWorlds sets the dimension registry. Until it is called every dimension is
// unknown.
func (s *Spawner) UseWorlds(w *Worlds) {
	s.worlds = w
}

// ResolvePlacement builds the destination from configured strings, falling
// back to fallbackPos and fallbackYaw for blank or malformed values.
func (s *Spawner) ResolvePlacement(dim, coords, facing string, fallbackPos mgl64.Vec3, fallbackYaw float64) PlacementSpec {
	return resolvePlacement(s.log, dim, coords, facing, fallbackPos, fallbackYaw)
}

// Plan decides where a player at current goes. spawnOf returns the default
// spawn of a dimension and whether the dimension exists.
func (s *Spawner) Plan(current Location, spawnOf func(dim string) (mgl64.Vec3, bool)) (Plan, error) {
	st, ok := s.store.Settings()
	if !ok {
		return Plan{}, fmt.Errorf("%w: settings not loaded", ErrNotReady)
	}
	if !st.EnableCustomSpawn {
		return Plan{}, ErrDisabled
	}

	spawn, ok := spawnOf(st.PlayerSpawnDimension)
	if !ok {
		return Plan{}, fmt.Errorf("%w: %s", ErrDimensionNotFound, st.PlayerSpawnDimension)
	}

	spec := s.ResolvePlacement(st.PlayerSpawnDimension, st.PlayerSpawnCoordinates, st.PlayerSpawnFacing, spawn, current.Yaw)
	return Plan{Spec: spec, Transfer: ShouldTransfer(spec, current)}, nil
}

// HandleJoin moves p to the configured spawn if custom spawning is enabled.
// It must be called from within p's transaction, as the server's Accept loop
// does. Failures are logged and never stop the join.
func (s *Spawner) HandleJoin(p *player.Player) {
	log := s.log.With("player", p.Name(), "uuid", p.UUID().String())
	tx := p.Tx()
	from := tx.World()

	dim, _ := s.worlds.ID(from)
	current := Location{
		Dimension: dim,
		Position:  p.Position(),
		Yaw:       p.Rotation().Yaw(),
	}

	var to *world.World
	plan, err := s.Plan(current, func(id string) (mgl64.Vec3, bool) {
		w, ok := s.worlds.Get(id)
		if !ok {
			return mgl64.Vec3{}, false
		}
		to = w
		return w.Spawn().Vec3Middle(), true
	})
	switch {
	case errors.Is(err, ErrDimensionNotFound):
		log.Error("autoload: spawn dimension not found", "error", err, "available", s.worlds.IDs())
		s.metrics.placement(PlacementDimensionNotFound)
		return
	case err != nil:
		log.Debug("autoload: custom spawn inactive", "reason", err)
		s.metrics.placement(PlacementDisabled)
		return
	}

	spec := plan.Spec
	if !plan.Transfer {
		log.Debug("autoload: player already at spawn", "dimension", spec.Dimension, "position", spec.Coordinates)
		s.metrics.placement(PlacementSuppressed)
		return
	}

	log.Info("autoload: moving player to spawn",
		"from", current.Dimension,
		"dimension", spec.Dimension,
		"position", spec.Coordinates,
		"yaw", spec.Yaw)
	s.metrics.placement(PlacementTransferred)

	if to == from {
		place(p, spec)
		return
	}

	h := tx.RemoveEntity(p)
	to.Exec(func(tx *world.Tx) {
		e := tx.AddEntity(h)
		if np, ok := e.(*player.Player); ok {
			place(np, spec)
		}
	})
}

// place teleports p and turns it to the spec's yaw.
func place(p *player.Player, spec PlacementSpec) {
	p.Teleport(spec.Coordinates)
	if spec.HasFacing {
		p.Move(mgl64.Vec3{}, spec.Yaw-p.Rotation().Yaw(), 0)
	}
}
