package engine

import (
	"fmt"
	"time"

	"solartycoon/internal/catalog"
	"solartycoon/internal/domain"
)

// RefreshStockIfDue restores every item to its cap once now passes the
// deadline. The next deadline is measured from now so a long pause yields a
// single refresh.
func (e *Engine) RefreshStockIfDue(st *domain.State, now time.Time) bool {
	if !now.After(st.NextStockRefresh) {
		return false
	}
	st.ShopStock = domain.Stock(e.cat.FullStock())
	st.NextStockRefresh = now.Add(e.cfg.StockRefreshInterval)
	return true
}

// PurchaseStock debits qty units from the current cycle.
func (e *Engine) PurchaseStock(st *domain.State, id catalog.ItemID, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("purchase %s x%d: %w", id, qty, domain.ErrInvalidQuantity)
	}
	if st.ShopStock[id] < qty {
		return fmt.Errorf("purchase %s x%d (left %d): %w", id, qty, st.ShopStock[id], domain.ErrInsufficientStock)
	}
	st.ShopStock[id] -= qty
	return nil
}
