package autoload

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettingsWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "autoload.toml")

	s, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "config_file_name = 'survival_cities'")
	assert.Contains(t, string(data), "# Enable the Lost Cities autoloader functionality")

	again, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, s, again)
}

func TestLoadSettingsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autoload.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
enable_autoloader = false
config_file_name = "creative_cities"
lost_city_dimension = "lostcities:lostcity"
enable_custom_spawn = true
player_spawn_coordinates = "10,64,-3"
`), 0o644))

	s, err := LoadSettings(path)
	require.NoError(t, err)
	assert.False(t, s.EnableAutoloader)
	assert.Equal(t, "creative_cities", s.ConfigFileName)
	assert.Equal(t, "lostcities:lostcity", s.LostCityDimension)
	assert.True(t, s.EnableCustomSpawn)
	assert.Equal(t, "10,64,-3", s.PlayerSpawnCoordinates)
	// Unset keys keep their defaults.
	assert.Equal(t, DefaultDimension, s.PlayerSpawnDimension)
	assert.Equal(t, DefaultSettings().ProfileDirectory, s.ProfileDirectory)
}

func TestLoadSettingsEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autoload.toml")
	require.NoError(t, os.WriteFile(path, []byte(`config_file_name = "from_file"`), 0o644))

	t.Setenv("AUTOLOAD_CONFIG_FILE_NAME", "from_env")
	t.Setenv("AUTOLOAD_ENABLE_CUSTOM_SPAWN", "true")

	s, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, "from_env", s.ConfigFileName)
	assert.True(t, s.EnableCustomSpawn)

	t.Setenv("AUTOLOAD_ENABLE_AUTOLOADER", "maybe")
	_, err = LoadSettings(path)
	assert.Error(t, err)
}

func TestLoadSettingsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autoload.toml")
	require.NoError(t, os.WriteFile(path, []byte(`enable_autoloader = "yes`), 0o644))

	_, err := LoadSettings(path)
	assert.Error(t, err)
}

func TestStore(t *testing.T) {
	log, buf := newTestLogger()
	store := NewStore().WithLogger(log)
	assert.False(t, store.Loaded())

	path := filepath.Join(t.TempDir(), "autoload.toml")
	require.NoError(t, store.Load(path))
	assert.True(t, store.Loaded())
	assert.Contains(t, buf.String(), "settings loaded")
	assert.Contains(t, buf.String(), "settings.config_file_name=survival_cities")

	require.NoError(t, os.WriteFile(path, []byte(`config_file_name = "other"`), 0o644))
	require.NoError(t, store.Load(path))
	assert.Contains(t, buf.String(), "settings reloaded")
	s, ok := store.Settings()
	require.True(t, ok)
	assert.Equal(t, "other", s.ConfigFileName)

	// A failed reload keeps the previous value.
	require.NoError(t, os.WriteFile(path, []byte(`config_file_name = `), 0o644))
	assert.Error(t, store.Load(path))
	s, _ = store.Settings()
	assert.Equal(t, "other", s.ConfigFileName)

	var none *Store
	_, ok = none.Settings()
	assert.False(t, ok)
}
