package autoload

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveMissing(t *testing.T) {
	dir := t.TempDir()

	_, err := Resolve(filepath.Join(dir, "nope"), "survival_cities")
	assert.ErrorIs(t, err, ErrConfigNotFound)

	_, err = Resolve(dir, "survival_cities")
	assert.ErrorIs(t, err, ErrConfigNotFound)

	file := writeProfile(t, dir, "plain", `{"profile":"default"}`)
	_, err = Resolve(file, "plain")
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestResolveProfile(t *testing.T) {
	dir := t.TempDir()
	path := writeProfile(t, dir, "survival_cities", `{
		"profile": "tallbuildings",
		"description": "tall cities"
	}`)

	desc, err := Resolve(dir, "survival_cities")
	require.NoError(t, err)
	assert.Equal(t, Descriptor{
		Profile:     "tallbuildings",
		Description: "tall cities",
		Path:        path,
	}, desc)

	again, err := Resolve(dir, "survival_cities")
	require.NoError(t, err)
	assert.Equal(t, desc, again)
}

func TestResolveCanonicalSettings(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "custom", `{
		"profile": "default",
		"settings": {
			"ruinChance": 0.1,
			"cityChance": 0.02,
			"nested": {"b": [1, 2.50, true], "a": null},
			"cityRadius": 128
		}
	}`)

	desc, err := Resolve(dir, "custom")
	require.NoError(t, err)
	require.True(t, desc.HasSettings)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(desc.Settings), &decoded))
	want, err := json.Marshal(decoded)
	require.NoError(t, err)

	assert.JSONEq(t, string(want), desc.Settings)
	assert.Equal(t, `{"cityChance":0.02,"cityRadius":128,"nested":{"a":null,"b":[1,2.50,true]},"ruinChance":0.1}`, desc.Settings)
}

func TestResolveNullSettings(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "nullsettings", `{"profile": "default", "settings": null, "description": 12}`)

	desc, err := Resolve(dir, "nullsettings")
	require.NoError(t, err)
	assert.False(t, desc.HasSettings)
	assert.Empty(t, desc.Settings)
	assert.Empty(t, desc.Description)
}

func TestResolveParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing_profile", `{"settings": {"cityChance": 0.1}}`},
		{"numeric_profile", `{"profile": 3}`},
		{"empty_profile", `{"profile": ""}`},
		{"array", `["default"]`},
		{"truncated", `{"profile": "default"`},
		{"empty_file", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeProfile(t, dir, tt.name, tt.content)

			_, err := Resolve(dir, tt.name)
			require.ErrorIs(t, err, ErrConfigParse)
			assert.Contains(t, err.Error(), path)
		})
	}
}

func TestResolveKeepsCause(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "survival_cities.json"), 0o755))

	_, err := Resolve(dir, "survival_cities")
	assert.ErrorIs(t, err, ErrConfigNotFound)
	var pathErr *fs.PathError
	assert.True(t, errors.As(err, &pathErr), "%v", err)

	writeProfile(t, dir, "broken", `{"profile": "default",}`)
	_, err = Resolve(dir, "broken")
	assert.ErrorIs(t, err, ErrConfigParse)
	var syntaxErr *json.SyntaxError
	assert.True(t, errors.As(err, &syntaxErr), "%v", err)
}
