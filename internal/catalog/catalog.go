// Package catalog holds the immutable registry of yoga poses and their tiers.
//
// A Catalog is built once at startup and shared read-only by every caller;
// none of its methods mutate it, so no locking is needed.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed poses.yaml
var defaultPoses []byte

// Entry is a single pose in the catalog.
type Entry struct {
	Name       string     `yaml:"name" json:"name"`
	Difficulty Difficulty `yaml:"difficulty" json:"difficulty"`
}

// Catalog maps pose names to difficulty tiers.
type Catalog struct {
	entries []Entry // sorted by name
	byName  map[string]Difficulty
	byTier  map[Difficulty][]string
}

type file struct {
	Poses []Entry `yaml:"poses"`
}

// New builds a catalog from entries. Names must be unique and non-empty and
// every entry must carry a real tier.
func New(entries []Entry) (*Catalog, error) {
	c := &Catalog{
		entries: make([]Entry, 0, len(entries)),
		byName:  make(map[string]Difficulty, len(entries)),
		byTier:  make(map[Difficulty][]string, 3),
	}
	for _, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return nil, fmt.Errorf("pose with empty name")
		}
		if !e.Difficulty.Valid() {
			return nil, fmt.Errorf("pose %q: invalid difficulty %s", name, e.Difficulty)
		}
		if _, dup := c.byName[name]; dup {
			return nil, fmt.Errorf("duplicate pose %q", name)
		}
		c.byName[name] = e.Difficulty
		c.entries = append(c.entries, Entry{Name: name, Difficulty: e.Difficulty})
	}

	slices.SortFunc(c.entries, func(a, b Entry) int { return strings.Compare(a.Name, b.Name) })
	for _, e := range c.entries {
		c.byTier[e.Difficulty] = append(c.byTier[e.Difficulty], e.Name)
	}
	return c, nil
}

// Parse decodes a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	return New(f.Poses)
}

// Load reads a YAML catalog file from disk.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	return Parse(data)
}

// Default returns the built-in 15 pose catalog.
func Default() *Catalog {
	c, err := Parse(defaultPoses)
	if err != nil {
		panic("catalog: embedded poses.yaml is invalid: " + err.Error())
	}
	return c
}

// PosesByDifficulty returns the pose names of a tier, sorted by name.
// The returned slice is a copy.
func (c *Catalog) PosesByDifficulty(d Difficulty) []string {
	return slices.Clone(c.byTier[d])
}

// DifficultyOf returns the tier of a pose, or Unknown if it is not catalogued.
func (c *Catalog) DifficultyOf(pose string) Difficulty {
	if d, ok := c.byName[pose]; ok {
		return d
	}
	return Unknown
}

// Contains reports whether the pose is catalogued.
func (c *Catalog) Contains(pose string) bool {
	_, ok := c.byName[pose]
	return ok
}

// Names returns every pose name, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.entries))
	for i, e := range c.entries {
		names[i] = e.Name
	}
	return names
}

// Entries returns a copy of all entries, sorted by name.
func (c *Catalog) Entries() []Entry {
	return slices.Clone(c.entries)
}

// Len returns the number of poses.
func (c *Catalog) Len() int {
	return len(c.entries)
}
