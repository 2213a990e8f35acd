package engine

import (
	"fmt"
	"math"

	"solartycoon/internal/catalog"
	"solartycoon/internal/domain"
)

// Buy moves qty units from the shop into the inventory.
func (e *Engine) Buy(st *domain.State, id catalog.ItemID, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("buy %s x%d: %w", id, qty, domain.ErrInvalidQuantity)
	}
	def, ok := e.cat.Lookup(id)
	if !ok {
		return fmt.Errorf("buy %s: %w", id, domain.ErrUnknownItem)
	}
	if st.Level >= e.cfg.MaxLevel {
		return fmt.Errorf("buy %s at level %d: %w", id, st.Level, domain.ErrLevelCapped)
	}
	if def.RequiredRebirth > st.RebirthLevel {
		return fmt.Errorf("buy %s needs rebirth %d: %w", id, def.RequiredRebirth, domain.ErrItemLocked)
	}
	if st.ShopStock[id] < qty {
		return fmt.Errorf("buy %s x%d (left %d): %w", id, qty, st.ShopStock[id], domain.ErrInsufficientStock)
	}
	cost := def.Price * float64(qty)
	if st.Money < cost {
		return fmt.Errorf("buy %s x%d costs %.0f: %w", id, qty, cost, domain.ErrInsufficientFunds)
	}

	if err := e.PurchaseStock(st, id, qty); err != nil {
		return err
	}
	st.Money -= cost
	if st.Inventory == nil {
		st.Inventory = domain.Inventory{}
	}
	st.Inventory.Add(id, qty)
	return nil
}

// SellValue is the refund for one unit.
func (e *Engine) SellValue(def catalog.ItemDefinition) float64 {
	return math.Floor(def.Price * e.cfg.SellRefundRatio)
}

// Sell returns one unplaced unit to the shop for a partial refund. It is a
// no-op when none are owned.
func (e *Engine) Sell(st *domain.State, id catalog.ItemID) (float64, bool) {
	def, ok := e.cat.Lookup(id)
	if !ok || st.Inventory.Count(id) == 0 {
		return 0, false
	}
	st.Inventory.Remove(id, 1)
	refund := e.SellValue(def)
	st.Money += refund
	return refund, true
}
