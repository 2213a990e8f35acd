// Package catalog is the static registry of purchasable item definitions.
// A Catalog is built once at start-up and never mutated afterwards.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ItemID identifies an item definition.
type ItemID string

type Tier string

const (
	TierBasic      Tier = "BASIC"
	TierAdvanced   Tier = "ADVANCED"
	TierIndustrial Tier = "INDUSTRIAL"
	TierFuturistic Tier = "FUTURISTIC"
	TierCosmic     Tier = "COSMIC"
)

func (t Tier) valid() bool {
	switch t {
	case TierBasic, TierAdvanced, TierIndustrial, TierFuturistic, TierCosmic:
		return true
	}
	return false
}

// ItemDefinition describes one purchasable item.
type ItemDefinition struct {
	ID              ItemID  `yaml:"id" json:"id"`
	Name            string  `yaml:"name" json:"name"`
	Description     string  `yaml:"description" json:"description"`
	Price           float64 `yaml:"price" json:"price"`
	ProductionRate  float64 `yaml:"production_rate" json:"productionRate"`
	Tier            Tier    `yaml:"tier" json:"tier"`
	MaxStock        int     `yaml:"max_stock" json:"maxStock"`
	RequiredRebirth int     `yaml:"required_rebirth" json:"requiredRebirth"`
}

//go:embed items.yaml
var defaultItems []byte

type Catalog struct {
	items map[ItemID]ItemDefinition
	order []ItemID
}

type document struct {
	Items []ItemDefinition `yaml:"items"`
}

// New validates definitions and builds a catalog preserving their order.
func New(defs ...ItemDefinition) (*Catalog, error) {
	if len(defs) == 0 {
		return nil, errors.New("catalog: no item definitions")
	}
	c := &Catalog{
		items: make(map[ItemID]ItemDefinition, len(defs)),
		order: make([]ItemID, 0, len(defs)),
	}
	for _, d := range defs {
		if err := validate(d); err != nil {
			return nil, err
		}
		if _, dup := c.items[d.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate item id %q", d.ID)
		}
		c.items[d.ID] = d
		c.order = append(c.order, d.ID)
	}
	return c, nil
}

func validate(d ItemDefinition) error {
	if d.ID == "" {
		return errors.New("catalog: item definition missing id")
	}
	if d.Price < 0 {
		return fmt.Errorf("catalog: item %q has negative price", d.ID)
	}
	if d.ProductionRate < 0 {
		return fmt.Errorf("catalog: item %q has negative production rate", d.ID)
	}
	if d.MaxStock < 0 {
		return fmt.Errorf("catalog: item %q has negative max stock", d.ID)
	}
	if d.RequiredRebirth < 0 {
		return fmt.Errorf("catalog: item %q has negative rebirth requirement", d.ID)
	}
	if !d.Tier.valid() {
		return fmt.Errorf("catalog: item %q has unknown tier %q", d.ID, d.Tier)
	}
	return nil
}

// Parse reads a YAML document with a top-level items list.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}
	return New(doc.Items...)
}

func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(data)
}

// Default returns the built-in solar catalog.
func Default() *Catalog {
	c, err := Parse(defaultItems)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Lookup(id ItemID) (ItemDefinition, bool) {
	d, ok := c.items[id]
	return d, ok
}

func (c *Catalog) Len() int { return len(c.order) }

// All returns every definition in declaration order.
func (c *Catalog) All() []ItemDefinition {
	out := make([]ItemDefinition, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.items[id])
	}
	return out
}

// Available returns the definitions unlocked at the given rebirth level.
func (c *Catalog) Available(rebirthLevel int) []ItemDefinition {
	out := make([]ItemDefinition, 0, len(c.order))
	for _, id := range c.order {
		d := c.items[id]
		if d.RequiredRebirth <= rebirthLevel {
			out = append(out, d)
		}
	}
	return out
}

// FullStock returns a fresh ledger with every item at its cap.
func (c *Catalog) FullStock() map[ItemID]int {
	out := make(map[ItemID]int, len(c.order))
	for _, id := range c.order {
		out[id] = c.items[id].MaxStock
	}
	return out
}
