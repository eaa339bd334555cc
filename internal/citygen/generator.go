// Package citygen is a world generator that places simple cities on flat
// terrain. Its profile selection lives in unexported state that the
// generators read on demand, the way a generator mod keeps its configuration.
package citygen

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/df-mc/dragonfly/server/block"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/df-mc/dragonfly/server/world/chunk"
)

// DefaultProfile is the profile used when nothing else is selected.
const DefaultProfile = "default"

// groundLevel is the y of the grass layer.
const groundLevel = 63

// floorHeight is the height of one building floor.
const floorHeight = 5

type config struct {
	// profileFromClient is the selected profile name.
	profileFromClient string

	// jsonFromClient holds custom settings applied over the selected profile.
	jsonFromClient string

	// dimensionsWithProfiles holds "<dimension>=<profile>" overrides.
	dimensionsWithProfiles []string
}

type profileSetup struct {
	standardProfiles map[string]Profile
}

type feature struct {
	// globalDimensionInfoDirtyCounter invalidates the resolved profile when
	// it changes.
	globalDimensionInfoDirtyCounter int
}

// System is the generator mod: configuration and the profile registry shared
// by the generators of every dimension.
//
// Concurrency:
// Chunks may be generated from several goroutines. The resolved profiles are
// guarded by mu. The configuration fields are expected to change only before
// generation starts.
type System struct {
	cfg     config
	setup   profileSetup
	feature feature

	log *slog.Logger

	mu       sync.Mutex
	resolved map[string]Profile
	counter  int
}

// NewSystem creates a system whose profile registry stays empty until Init.
func NewSystem(log *slog.Logger) *System {
	if log == nil {
		log = slog.Default()
	}
	return &System{
		cfg: config{profileFromClient: DefaultProfile},
		log: log,
	}
}

// Init populates the profile registry. Calling it again has no effect.
func (s *System) Init() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()
}

// init populates the registry. s.mu must be held.
func (s *System) init() {
	if s.setup.standardProfiles != nil {
		return
	}
	s.setup.standardProfiles = StandardProfiles()
	s.log.Debug("citygen: profiles registered", "count", len(s.setup.standardProfiles))
}

// ResetProfileCache drops the resolved profiles. The next chunk of every
// dimension resolves its profile again from the current configuration.
func (s *System) ResetProfileCache() {
	s.mu.Lock()
	s.resolved = nil
	s.mu.Unlock()
}

// Profile returns the profile used for new chunks of dimension.
func (s *System) Profile(dimension string) Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()

	if s.counter != s.feature.globalDimensionInfoDirtyCounter {
		s.resolved = nil
		s.counter = s.feature.globalDimensionInfoDirtyCounter
	}
	if p, ok := s.resolved[dimension]; ok {
		return p
	}
	if s.resolved == nil {
		s.resolved = make(map[string]Profile)
	}
	p := s.resolve(dimension)
	s.resolved[dimension] = p
	return p
}

// resolve picks the profile for dimension. s.mu must be held.
func (s *System) resolve(dimension string) Profile {
	name := s.cfg.profileFromClient
	for _, entry := range s.cfg.dimensionsWithProfiles {
		dim, profile, ok := strings.Cut(entry, "=")
		if ok && dim == dimension {
			name = profile
			break
		}
	}

	p, ok := s.setup.standardProfiles[name]
	if !ok {
		s.log.Warn("citygen: unknown profile, using default", "profile", name)
		p = s.setup.standardProfiles[DefaultProfile]
	}

	custom, err := p.withOverrides(s.cfg.jsonFromClient)
	if err != nil {
		s.log.Warn("citygen: ignoring custom settings", "error", err)
		custom = p
	}
	custom = custom.clamped()

	s.log.Info("citygen: profile resolved", "dimension", dimension, "profile", name)
	return custom
}

// Generator implements world.Generator for one dimension of a System.
type Generator struct {
	sys       *System
	dimension string
	seed      uint64

	// runtimeID maps blocks to runtime ids. Nil means world.BlockRuntimeID,
	// which is only usable once the server has finalised the block registry.
	runtimeID func(world.Block) uint32
	once      sync.Once
	blocks    palette
}

// palette holds runtime ids of the blocks the generator places.
type palette struct {
	bedrock, stone, dirt, grass   uint32
	bricks, ruin, glass, lighting uint32
	air                           uint32
}

// Generator creates the generator of the dimension with the given id. Block
// runtime ids are resolved on the first generated chunk.
func (s *System) Generator(dimension string, seed int64) *Generator {
	return &Generator{
		sys:       s,
		dimension: dimension,
		seed:      uint64(seed),
	}
}

// resolveBlocks fills g.blocks once.
func (g *Generator) resolveBlocks() {
	g.once.Do(func() {
		rid := g.runtimeID
		if rid == nil {
			rid = world.BlockRuntimeID
		}
		g.blocks = palette{
			bedrock:  rid(block.Bedrock{}),
			stone:    rid(block.Stone{}),
			dirt:     rid(block.Dirt{}),
			grass:    rid(block.Grass{}),
			bricks:   rid(block.StoneBricks{Type: block.NormalStoneBricks()}),
			ruin:     rid(block.Cobblestone{Mossy: true}),
			glass:    rid(block.Glass{}),
			lighting: rid(block.Glowstone{}),
			air:      rid(block.Air{}),
		}
	})
}

// Dimension returns the dimension id the generator was created for.
func (g *Generator) Dimension() string {
	return g.dimension
}

// GenerateChunk fills c with flat terrain and, inside cities, a building.
func (g *Generator) GenerateChunk(pos world.ChunkPos, c *chunk.Chunk) {
	g.resolveBlocks()
	p := g.sys.Profile(g.dimension)
	minY := int16(c.Range().Min())

	for x := uint8(0); x < 16; x++ {
		for z := uint8(0); z < 16; z++ {
			c.SetBlock(x, minY, z, 0, g.blocks.bedrock)
			for y := minY + 1; y < groundLevel-3; y++ {
				c.SetBlock(x, y, z, 0, g.blocks.stone)
			}
			for y := int16(groundLevel - 3); y < groundLevel; y++ {
				c.SetBlock(x, y, z, 0, g.blocks.dirt)
			}
			c.SetBlock(x, groundLevel, z, 0, g.blocks.grass)
		}
	}

	if b, ok := g.plan(pos, p); ok {
		g.place(c, b, p)
	}
}

// building describes the building of one chunk.
type building struct {
	floors int
	ruined bool
}

// plan decides whether the chunk at pos holds a building.
func (g *Generator) plan(pos world.ChunkPos, p Profile) (building, bool) {
	if p.CityChance <= 0 {
		return building{}, false
	}

	// Cities are laid out on a grid of cells twice the city radius wide.
	cell := int32(2 * p.CityRadius)
	bx, bz := pos[0]*16+8, pos[1]*16+8
	cx, cz := floorDiv(bx, cell), floorDiv(bz, cell)

	// Scale the per-chunk chance to the cell so that the density of city
	// chunks stays close to CityChance.
	chunks := float64(cell/16) * float64(cell/16)
	if unit(g.seed, cx, cz, 0) >= min(p.CityChance*chunks/4, 1) {
		return building{}, false
	}

	dx := float64(bx - (cx*cell + cell/2))
	dz := float64(bz - (cz*cell + cell/2))
	r := float64(p.CityRadius)
	if dx*dx+dz*dz > r*r {
		return building{}, false
	}

	span := p.MaxFloors - p.MinFloors + 1
	return building{
		floors: p.MinFloors + int(unit(g.seed, pos[0], pos[1], 1)*float64(span)),
		ruined: unit(g.seed, pos[0], pos[1], 2) < p.RuinChance,
	}, true
}

// place builds b into c.
func (g *Generator) place(c *chunk.Chunk, b building, p Profile) {
	maxY := int16(c.Range().Max())
	top := min(int16(groundLevel+b.floors*floorHeight), maxY-1)
	if b.ruined {
		top = groundLevel + (top-groundLevel)/2
	}

	wall := g.blocks.bricks
	if b.ruined {
		wall = g.blocks.ruin
	}

	for x := uint8(2); x <= 13; x++ {
		for z := uint8(2); z <= 13; z++ {
			edge := x == 2 || x == 13 || z == 2 || z == 13
			for y := int16(groundLevel + 1); y <= top; y++ {
				floor := (y-groundLevel)%floorHeight == 0
				switch {
				case floor:
					c.SetBlock(x, y, z, 0, wall)
				case edge && (y-groundLevel)%floorHeight == 2 && x%3 != 0 && z%3 != 0:
					c.SetBlock(x, y, z, 0, g.blocks.glass)
				case edge:
					c.SetBlock(x, y, z, 0, wall)
				default:
					c.SetBlock(x, y, z, 0, g.blocks.air)
				}
			}
			if p.GenerateLighting && !b.ruined && x%4 == 0 && z%4 == 0 {
				c.SetBlock(x, top+1, z, 0, g.blocks.lighting)
			}
		}
	}
}

// floorDiv divides rounding towards negative infinity.
func floorDiv(a, b int32) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// unit returns a deterministic value in [0, 1) for the given inputs.
func unit(seed uint64, x, z int32, salt uint64) float64 {
	h := seed ^ uint64(uint32(x))<<32 ^ uint64(uint32(z)) ^ salt*0x9e3779b97f4a7c15
	// splitmix64 finalizer
	h ^= h >> 30
	h *= 0xbf58476d1ce4e5b9
	h ^= h >> 27
	h *= 0x94d049bb133111eb
	h ^= h >> 31
	return float64(h>>11) / (1 << 53)
}
