package domain

import (
	"time"

	"solartycoon/internal/catalog"
)

// State holds the current in-memory game aggregate. Level, Multiplier and
// TotalProductionRate are cached projections recomputed by the engine.
type State struct {
	Money               float64
	Experience          float64
	Credits             int64
	Grid                []GridCell
	Inventory           Inventory
	ShopStock           Stock
	NextStockRefresh    time.Time
	LastSaveAt          time.Time
	TotalProductionRate float64
	Level               int
	RebirthLevel        int
	Multiplier          float64
	ExchangeUnlocked    bool
	LastCreditClaimAt   time.Time
}

// GridCell is one fixed slot of the grid. An empty Occupant means no item.
type GridCell struct {
	Index    int
	Occupant catalog.ItemID
}

func (c GridCell) Empty() bool {
	return c.Occupant == ""
}

// NewGrid returns n empty cells indexed 0..n-1.
func NewGrid(n int) []GridCell {
	cells := make([]GridCell, n)
	for i := range cells {
		cells[i].Index = i
	}
	return cells
}

// Inventory counts owned units that are not placed on the grid.
type Inventory map[catalog.ItemID]int

func (inv Inventory) Count(id catalog.ItemID) int {
	return inv[id]
}

func (inv Inventory) Add(id catalog.ItemID, n int) {
	if n <= 0 {
		return
	}
	inv[id] += n
}

// Remove takes n units and reports false, leaving the ledger unchanged, if
// fewer are owned. Entries that reach zero are pruned.
func (inv Inventory) Remove(id catalog.ItemID, n int) bool {
	have := inv[id]
	if n <= 0 || have < n {
		return false
	}
	if have == n {
		delete(inv, id)
		return true
	}
	inv[id] = have - n
	return true
}

// Stock holds remaining purchasable units per item for the current cycle.
type Stock map[catalog.ItemID]int

// Clone returns a deep copy safe to hand outside the owning service.
func (s State) Clone() State {
	out := s
	out.Grid = make([]GridCell, len(s.Grid))
	copy(out.Grid, s.Grid)
	out.Inventory = make(Inventory, len(s.Inventory))
	for k, v := range s.Inventory {
		out.Inventory[k] = v
	}
	out.ShopStock = make(Stock, len(s.ShopStock))
	for k, v := range s.ShopStock {
		out.ShopStock[k] = v
	}
	return out
}

// PlacedCount returns how many cells hold the given item.
func (s State) PlacedCount(id catalog.ItemID) int {
	n := 0
	for _, c := range s.Grid {
		if c.Occupant == id {
			n++
		}
	}
	return n
}
