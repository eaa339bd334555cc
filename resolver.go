package autoload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Descriptor is a parsed profile file.
type Descriptor struct {
	// Profile is the name of the target profile to select.
	Profile string

	// Description is informational only.
	Description string

	// Settings is the canonical JSON encoding of the "settings" value.
	// Empty when HasSettings is false.
	Settings string

	// HasSettings reports whether the file carried a non-null "settings" value.
	HasSettings bool

	// Path is the file the descriptor was read from.
	Path string
}

// profileFile mirrors the on-disk document.
type profileFile struct {
	Profile     *json.RawMessage `json:"profile"`
	Description json.RawMessage  `json:"description"`
	Settings    json.RawMessage  `json:"settings"`
}

// Resolve locates dir/base.json and parses it into a Descriptor.
//
// A missing directory or file yields ErrConfigNotFound. A document that is not
// a JSON object, or whose "profile" is missing or not a non-empty string,
// yields ErrConfigParse. Resolve never writes to the file.
func Resolve(dir, base string) (Descriptor, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Descriptor{}, fmt.Errorf("%w: directory %s does not exist", ErrConfigNotFound, dir)
		}
		return Descriptor{}, fmt.Errorf("%w: stat %s: %w", ErrConfigNotFound, dir, err)
	}
	if !info.IsDir() {
		return Descriptor{}, fmt.Errorf("%w: %s is not a directory", ErrConfigNotFound, dir)
	}

	path := ProfilePath(dir, base)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Descriptor{}, fmt.Errorf("%w: file %s does not exist", ErrConfigNotFound, path)
		}
		return Descriptor{}, fmt.Errorf("%w: read %s: %w", ErrConfigNotFound, path, err)
	}

	return parseProfile(path, data)
}

// ProfilePath returns the path of the profile file base inside dir.
func ProfilePath(dir, base string) string {
	return filepath.Join(dir, base+".json")
}

// parseProfile parses a profile document read from path.
func parseProfile(path string, data []byte) (Descriptor, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Descriptor{}, fmt.Errorf("%w: %s: document is not a JSON object", ErrConfigParse, path)
	}

	var doc profileFile
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return Descriptor{}, fmt.Errorf("%w: %s: %w", ErrConfigParse, path, err)
	}

	if doc.Profile == nil {
		return Descriptor{}, fmt.Errorf("%w: %s: missing required field \"profile\"", ErrConfigParse, path)
	}
	var profile string
	if err := json.Unmarshal(*doc.Profile, &profile); err != nil {
		return Descriptor{}, fmt.Errorf("%w: %s: \"profile\" must be a string", ErrConfigParse, path)
	}
	if profile == "" {
		return Descriptor{}, fmt.Errorf("%w: %s: \"profile\" must not be empty", ErrConfigParse, path)
	}

	desc := Descriptor{
		Profile: profile,
		Path:    path,
	}
	// Descriptions are free text; anything that is not a string is ignored.
	_ = json.Unmarshal(doc.Description, &desc.Description)

	raw := bytes.TrimSpace(doc.Settings)
	if len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		settings, err := canonicalJSON(raw)
		if err != nil {
			return Descriptor{}, fmt.Errorf("%w: %s: settings: %w", ErrConfigParse, path, err)
		}
		desc.Settings = settings
		desc.HasSettings = true
	}

	return desc, nil
}

// canonicalJSON re-encodes raw compactly with object keys sorted. Numbers are
// kept verbatim.
func canonicalJSON(raw []byte) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return "", err
	}
	out, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
