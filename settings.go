package autoload

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
)

// DefaultDimension is the dimension the target system generates in unless
// told otherwise.
const DefaultDimension = "minecraft:overworld"

// envPrefix prefixes every environment override, e.g. AUTOLOAD_CONFIG_FILE_NAME.
const envPrefix = "AUTOLOAD_"

// Settings is the local configuration of the autoloader. A Settings value is
// never mutated after it has been loaded; reloading stores a new value.
type Settings struct {
	EnableAutoloader       bool   `toml:"enable_autoloader" env:"ENABLE_AUTOLOADER" comment:"Enable the Lost Cities autoloader functionality"`
	ConfigFileName         string `toml:"config_file_name" env:"CONFIG_FILE_NAME" comment:"Name of the profile file to load from profile_directory (without .json extension)"`
	LostCityDimension      string `toml:"lost_city_dimension" env:"LOST_CITY_DIMENSION" comment:"Dimension where Lost Cities should generate, e.g. minecraft:overworld or lostcities:lostcity"`
	EnableCustomSpawn      bool   `toml:"enable_custom_spawn" env:"ENABLE_CUSTOM_SPAWN" comment:"Move joining players to player_spawn_dimension"`
	PlayerSpawnDimension   string `toml:"player_spawn_dimension" env:"PLAYER_SPAWN_DIMENSION" comment:"Dimension where players spawn when joining; only used if enable_custom_spawn is true"`
	PlayerSpawnCoordinates string `toml:"player_spawn_coordinates" env:"PLAYER_SPAWN_COORDINATES" comment:"Spawn position as \"x,y,z\"; empty uses the dimension spawn"`
	PlayerSpawnFacing      string `toml:"player_spawn_facing" env:"PLAYER_SPAWN_FACING" comment:"Facing in degrees (0 north, 90 east, 180 south, 270 west); empty keeps the player's rotation"`

	ProfileDirectory string `toml:"profile_directory" env:"PROFILE_DIRECTORY" comment:"Directory holding profile files"`
	TargetSystem     string `toml:"target_system" env:"TARGET_SYSTEM" comment:"Identifier of the target world-generator system"`
	TargetConfigPath string `toml:"target_config_path" env:"TARGET_CONFIG_PATH" comment:"Target system's own config file, patched only when its dimension list is unreachable; empty disables"`
}

// DefaultSettings returns the settings used when no file exists.
func DefaultSettings() Settings {
	return Settings{
		EnableAutoloader:     true,
		ConfigFileName:       "survival_cities",
		LostCityDimension:    DefaultDimension,
		EnableCustomSpawn:    false,
		PlayerSpawnDimension: DefaultDimension,
		ProfileDirectory:     filepath.Join("config", "lost_cities_autoloader"),
		TargetSystem:         "lostcities",
		TargetConfigPath:     filepath.Join("config", "lostcities", "common.toml"),
	}
}

// normalize fills empty values that have a meaningful default.
func (s Settings) normalize() Settings {
	def := DefaultSettings()
	if s.ConfigFileName == "" {
		s.ConfigFileName = def.ConfigFileName
	}
	if s.LostCityDimension == "" {
		s.LostCityDimension = def.LostCityDimension
	}
	if s.PlayerSpawnDimension == "" {
		s.PlayerSpawnDimension = def.PlayerSpawnDimension
	}
	if s.ProfileDirectory == "" {
		s.ProfileDirectory = def.ProfileDirectory
	}
	if s.TargetSystem == "" {
		s.TargetSystem = def.TargetSystem
	}
	return s
}

// LogValue implements slog.LogValuer.
func (s Settings) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("enable_autoloader", s.EnableAutoloader),
		slog.String("config_file_name", s.ConfigFileName),
		slog.String("lost_city_dimension", s.LostCityDimension),
		slog.Bool("enable_custom_spawn", s.EnableCustomSpawn),
		slog.String("player_spawn_dimension", s.PlayerSpawnDimension),
		slog.String("player_spawn_coordinates", s.PlayerSpawnCoordinates),
		slog.String("player_spawn_facing", s.PlayerSpawnFacing),
	)
}

// LoadSettings reads settings from the TOML file at path and applies AUTOLOAD_*
// environment overrides. A missing file is created with the defaults.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := writeSettings(path, s); err != nil {
			return Settings{}, err
		}
	case err != nil:
		return Settings{}, fmt.Errorf("read settings %s: %w", path, err)
	default:
		if err := toml.Unmarshal(data, &s); err != nil {
			return Settings{}, fmt.Errorf("decode settings %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&s, env.Options{Prefix: envPrefix}); err != nil {
		return Settings{}, fmt.Errorf("settings environment: %w", err)
	}

	return s.normalize(), nil
}

// writeSettings writes s to path, creating parent directories.
func writeSettings(path string, s Settings) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create settings directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write settings %s: %w", path, err)
	}
	return nil
}

// Store holds the current Settings. It starts out not loaded; the engine and
// spawner treat an unloaded store as "not ready".
type Store struct {
	cur atomic.Pointer[Settings]
	log *slog.Logger
}

// NewStore creates an unloaded store.
func NewStore() *Store {
	return &Store{log: slog.Default()}
}

// WithLogger sets the logger used when settings are loaded.
func (s *Store) WithLogger(log *slog.Logger) *Store {
	if log != nil {
		s.log = log
	}
	return s
}

// Load reads the settings file at path and stores the result. On error the
// previously stored settings, if any, are kept.
func (s *Store) Load(path string) error {
	reload := s.Loaded()

	v, err := LoadSettings(path)
	if err != nil {
		s.log.Error("autoload: failed to load settings", "file", path, "error", err)
		return err
	}
	s.Set(v)

	if reload {
		s.log.Info("autoload: settings reloaded", "file", path)
	} else {
		s.log.Info("autoload: settings loaded", "file", path)
	}
	s.log.Debug("autoload: settings", "settings", v)
	return nil
}

// Set stores v and marks the store as loaded.
func (s *Store) Set(v Settings) {
	v = v.normalize()
	s.cur.Store(&v)
}

// Settings returns the stored settings and whether the store is loaded.
func (s *Store) Settings() (Settings, bool) {
	if s == nil {
		return Settings{}, false
	}
	v := s.cur.Load()
	if v == nil {
		return Settings{}, false
	}
	return *v, true
}

// Loaded reports whether settings have been stored.
func (s *Store) Loaded() bool {
	_, ok := s.Settings()
	return ok
}
