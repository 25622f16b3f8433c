// Package catalog holds the static per-mutation greenhouse facts: slot
// limits, growth stages, recipes and crop drops.
package catalog

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed mutations.yaml
var embedded []byte

type Mutation struct {
	Name         string             `yaml:"name" json:"name"`
	ID           string             `yaml:"id" json:"id"`
	Limit        int                `yaml:"limit" json:"limit"`
	GrowthStages int                `yaml:"growth_stages" json:"growthStages"`
	Recipe       map[string]float64 `yaml:"recipe" json:"recipe,omitempty"`
	Drops        map[string]float64 `yaml:"drops" json:"drops,omitempty"`
}

// Stages is the growth stage count with a floor of one; mutations that
// mature instantly still take a stage to appear.
func (m Mutation) Stages() int {
	if m.GrowthStages < 1 {
		return 1
	}
	return m.GrowthStages
}

type Catalog struct {
	NPCPrices       map[string]float64            `yaml:"npc_prices"`
	IngredientIDs   map[string]string             `yaml:"ingredient_ids"`
	FreeIngredients []string                      `yaml:"free_ingredients"`
	Destructive     []string                      `yaml:"destructive"`
	DropMultipliers map[string]float64            `yaml:"drop_multipliers"`
	SetupOverrides  map[string]map[string]float64 `yaml:"setup_overrides"`
	Mutations       []Mutation                    `yaml:"mutations"`

	byName map[string]int
	free   map[string]bool
	destr  map[string]bool
}

// Load parses the embedded catalog.
func Load() (*Catalog, error) {
	return Parse(embedded)
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	c.byName = make(map[string]int, len(c.Mutations))
	for i, m := range c.Mutations {
		if m.Name == "" {
			return nil, fmt.Errorf("parse catalog: mutation %d has no name", i)
		}
		if _, dup := c.byName[m.Name]; dup {
			return nil, fmt.Errorf("parse catalog: duplicate mutation %q", m.Name)
		}
		if m.ID == "" {
			c.Mutations[i].ID = productID(m.Name)
		}
		c.byName[m.Name] = i
	}
	c.free = toSet(c.FreeIngredients)
	c.destr = toSet(c.Destructive)
	return &c, nil
}

func (c *Catalog) Mutation(name string) (Mutation, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Mutation{}, false
	}
	return c.Mutations[i], true
}

// Names returns the mutation names sorted alphabetically.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.Mutations))
	for _, m := range c.Mutations {
		names = append(names, m.Name)
	}
	sort.Strings(names)
	return names
}

func (c *Catalog) IsFree(ingredient string) bool      { return c.free[ingredient] }
func (c *Catalog) IsDestructive(mutation string) bool { return c.destr[mutation] }
func (c *Catalog) DropMultiplier(mutation string) float64 {
	if m, ok := c.DropMultipliers[mutation]; ok {
		return m
	}
	return 1
}

// ProductID maps a mutation or ingredient name to its bazaar product ID.
// NPC-sold crops and free ingredients have none.
func (c *Catalog) ProductID(name string) (string, bool) {
	if m, ok := c.Mutation(name); ok {
		return m.ID, true
	}
	if id, ok := c.IngredientIDs[name]; ok {
		return id, true
	}
	return "", false
}

// ProductIDs lists every product the leaderboard needs priced.
func (c *Catalog) ProductIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, m := range c.Mutations {
		add(m.ID)
	}
	for _, id := range c.IngredientIDs {
		add(id)
	}
	sort.Strings(ids)
	return ids
}

func productID(name string) string {
	r := strings.NewReplacer(" ", "_", "-", "_")
	return strings.ToUpper(r.Replace(strings.TrimSpace(name)))
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, it := range items {
		set[it] = true
	}
	return set
}
