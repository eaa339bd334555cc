package autoload

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
)

// dimensionsLineKey starts the line patched in the target's own config file.
const dimensionsLineKey = "dimensionsWithProfiles"

// DimensionEntry formats a "<dimension>=<profile>" list entry.
func DimensionEntry(dim, profile string) string {
	return dim + "=" + profile
}

// UpsertDimensionProfile replaces the first entry for dim in entries with
// "<dim>=<profile>", or appends one. The input slice is not modified.
func UpsertDimensionProfile(entries []string, dim, profile string) (out []string, replaced bool) {
	entry := DimensionEntry(dim, profile)
	prefix := dim + "="

	out = make([]string, len(entries), len(entries)+1)
	copy(out, entries)
	for i, e := range out {
		if strings.HasPrefix(e, prefix) {
			out[i] = entry
			return out, true
		}
	}
	return append(out, entry), false
}

// applyDimension records that dim generates with profile. Nothing is done for
// the default dimension. When the target does not expose its dimension list,
// the legacy line patch of the target's config file is used instead.
func (e *Engine) applyDimension(log *slog.Logger, s Settings, profile string) error {
	dim := s.LostCityDimension
	if dim == "" || dim == DefaultDimension {
		return nil
	}
	log.Info("autoload: configuring profile for dimension", "profile", profile, "dimension", dim)

	entries, err := GetAs[[]string](e.target, e.members.DimensionProfiles)
	if errors.Is(err, ErrUnsupported) {
		log.Debug("autoload: target has no dimension list, patching its config file", "file", s.TargetConfigPath)
		return patchTargetConfig(log, s.TargetConfigPath, dim, profile)
	}
	if err != nil {
		return err
	}

	updated, replaced := UpsertDimensionProfile(entries, dim, profile)
	if err := e.target.Set(e.members.DimensionProfiles, updated); err != nil {
		return err
	}
	if replaced {
		log.Info("autoload: updated dimension profile", "entry", DimensionEntry(dim, profile))
	} else {
		log.Info("autoload: added dimension profile", "entry", DimensionEntry(dim, profile))
	}
	log.Debug("autoload: dimensions with profiles", "entries", updated)
	return nil
}

// patchTargetConfig rewrites the dimensionsWithProfiles line of the file at
// path. A missing file or line is a no-op.
func patchTargetConfig(log *slog.Logger, path, dim, profile string) error {
	if path == "" {
		return nil
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn("autoload: target config file not found", "file", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	patched, ok := PatchDimensionsLine(string(data), dim, profile)
	if !ok {
		log.Warn("autoload: no dimensionsWithProfiles line in target config", "file", path)
		return nil
	}
	if patched == string(data) {
		return nil
	}

	if err := os.WriteFile(path, []byte(patched), info.Mode().Perm()); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	log.Info("autoload: target config file updated", "file", path, "dimension", dim)
	return nil
}

// PatchDimensionsLine replaces the first line whose trimmed form starts with
// dimensionsWithProfiles by a one-entry list for dim. It assumes exactly that
// line shape and reports false when no such line exists.
func PatchDimensionsLine(content, dim, profile string) (string, bool) {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), dimensionsLineKey) {
			lines[i] = fmt.Sprintf("\t%s = [%s]", dimensionsLineKey, quoteBasic(DimensionEntry(dim, profile)))
			if strings.HasSuffix(line, "\r") {
				lines[i] += "\r"
			}
			return strings.Join(lines, "\n"), true
		}
	}
	return content, false
}

// quoteBasic quotes s as a TOML basic string.
func quoteBasic(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			b.WriteString(`\n`)
		case '\f':
			b.WriteString(`\f`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u%04X`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
