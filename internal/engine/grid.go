package engine

import (
	"fmt"

	"solartycoon/internal/catalog"
	"solartycoon/internal/domain"
)

func inRange(st *domain.State, idx int) bool {
	return idx >= 0 && idx < len(st.Grid)
}

// Place puts one owned unit on an empty cell.
func (e *Engine) Place(st *domain.State, idx int, id catalog.ItemID) bool {
	if !inRange(st, idx) || !st.Grid[idx].Empty() {
		return false
	}
	if _, ok := e.cat.Lookup(id); !ok {
		return false
	}
	if !st.Inventory.Remove(id, 1) {
		return false
	}
	st.Grid[idx].Occupant = id
	e.Recompute(st)
	return true
}

// Store moves a placed unit back into the inventory.
func (e *Engine) Store(st *domain.State, idx int) (catalog.ItemID, bool) {
	if !inRange(st, idx) || st.Grid[idx].Empty() {
		return "", false
	}
	id := st.Grid[idx].Occupant
	st.Grid[idx].Occupant = ""
	if st.Inventory == nil {
		st.Inventory = domain.Inventory{}
	}
	st.Inventory.Add(id, 1)
	e.Recompute(st)
	return id, true
}

// Swap exchanges the occupants of two cells. Either side may be empty.
func (e *Engine) Swap(st *domain.State, a, b int) error {
	if !inRange(st, a) || !inRange(st, b) {
		return fmt.Errorf("swap %d<->%d: %w", a, b, domain.ErrCellOutOfRange)
	}
	st.Grid[a].Occupant, st.Grid[b].Occupant = st.Grid[b].Occupant, st.Grid[a].Occupant
	return nil
}
