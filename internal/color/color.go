// Package color assigns a stable visual theme to every category name.
//
// Resolution order: user-saved override, then the builtin table, then a
// deterministic hash of the normalized name into the palette. The hash is
// the classic djb2-style rolling hash (h = c + (h<<5) - h) computed over
// the normalized name; only its stability matters, not its distribution.
package color

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// A Theme is the five style tokens rendered for a category.
type Theme struct {
	Text       string `json:"text"`
	Background string `json:"bg"`
	Border     string `json:"border"`
	Ring       string `json:"ring"`
	Glow       string `json:"glow"`
}

// Themes is the builtin table keyed by palette key. Keys double as the
// normalized names of the commonly used categories.
var Themes = map[string]Theme{
	"general":    {Text: "text-indigo-400", Background: "bg-indigo-500/10", Border: "border-indigo-500/30", Ring: "ring-indigo-500", Glow: "bg-indigo-500/20"},
	"azure":      {Text: "text-blue-400", Background: "bg-blue-500/10", Border: "border-blue-500/30", Ring: "ring-blue-500", Glow: "bg-blue-500/20"},
	"npm":        {Text: "text-red-400", Background: "bg-red-500/10", Border: "border-red-500/30", Ring: "ring-red-500", Glow: "bg-red-500/20"},
	"react":      {Text: "text-cyan-400", Background: "bg-cyan-500/10", Border: "border-cyan-500/30", Ring: "ring-cyan-500", Glow: "bg-cyan-500/20"},
	"supabase":   {Text: "text-emerald-400", Background: "bg-emerald-500/10", Border: "border-emerald-500/30", Ring: "ring-emerald-500", Glow: "bg-emerald-500/20"},
	"git":        {Text: "text-orange-400", Background: "bg-orange-500/10", Border: "border-orange-500/30", Ring: "ring-orange-500", Glow: "bg-orange-500/20"},
	"javascript": {Text: "text-yellow-400", Background: "bg-yellow-500/10", Border: "border-yellow-500/30", Ring: "ring-yellow-500", Glow: "bg-yellow-500/20"},
	"python":     {Text: "text-blue-300", Background: "bg-blue-400/10", Border: "border-blue-400/30", Ring: "ring-blue-400", Glow: "bg-blue-400/20"},
	"docker":     {Text: "text-sky-400", Background: "bg-sky-500/10", Border: "border-sky-500/30", Ring: "ring-sky-500", Glow: "bg-sky-500/20"},
	"secrets":    {Text: "text-rose-400", Background: "bg-rose-500/10", Border: "border-rose-500/30", Ring: "ring-rose-500", Glow: "bg-rose-500/20"},
	"api":        {Text: "text-violet-400", Background: "bg-violet-500/10", Border: "border-violet-500/30", Ring: "ring-violet-500", Glow: "bg-violet-500/20"},
}

// paletteKeys is the fixed ordered palette indexed by the hash fallback.
// Map iteration order is random, a stable order is required here.
var paletteKeys = func() []string {
	keys := make([]string, 0, len(Themes))
	for key := range Themes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}()

// An OverrideStore persists user-chosen palette keys, keyed by normalized
// category name. Overrides are only ever added or replaced.
type OverrideStore interface {
	// ColorOverrides returns the saved normalized-name to palette-key table.
	ColorOverrides() (map[string]string, error)
	// SaveColorOverride inserts or replaces an override.
	SaveColorOverride(name, colorKey string) error
}

// MemoryOverrides is an in-memory OverrideStore.
type MemoryOverrides map[string]string

// ColorOverrides implements OverrideStore.
func (m MemoryOverrides) ColorOverrides() (map[string]string, error) {
	return m, nil
}

// SaveColorOverride implements OverrideStore.
func (m MemoryOverrides) SaveColorOverride(name, colorKey string) error {
	m[name] = colorKey
	return nil
}

// An Assigner resolves category names to themes.
type Assigner struct {
	overrides OverrideStore
}

// NewAssigner returns an assigner backed by the given override store.
// A nil store means no overrides.
func NewAssigner(overrides OverrideStore) *Assigner {
	if overrides == nil {
		overrides = MemoryOverrides{}
	}
	return &Assigner{overrides: overrides}
}

// Normalize returns the lookup key for a category name.
func Normalize(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

// ThemeFor resolves the theme of the given category name.
func (a *Assigner) ThemeFor(category string) (Theme, error) {
	normalized := Normalize(category)

	overrides, err := a.overrides.ColorOverrides()
	if err != nil {
		return Theme{}, err
	}
	if key, ok := overrides[normalized]; ok {
		if theme, ok := Themes[key]; ok {
			return theme, nil
		}
	}

	if theme, ok := Themes[normalized]; ok {
		return theme, nil
	}

	return Themes[paletteKeys[hashIndex(normalized)]], nil
}

// SaveOverride records a user-chosen palette key for a category.
func (a *Assigner) SaveOverride(category, colorKey string) error {
	if _, ok := Themes[colorKey]; !ok {
		return errors.Errorf("unknown color key %q", colorKey)
	}
	return a.overrides.SaveColorOverride(Normalize(category), colorKey)
}

// hashIndex hashes the normalized name into the palette.
func hashIndex(normalized string) int {
	var h int32
	for _, c := range normalized {
		h = c + ((h << 5) - h)
	}

	// Widen before negating: -math.MinInt32 does not fit in an int32.
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return int(v % int64(len(paletteKeys)))
}
