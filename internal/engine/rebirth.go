package engine

import (
	"fmt"
	"math"
	"time"

	"solartycoon/internal/domain"
)

// NextRebirthCost grows geometrically with each rebirth already taken.
func (e *Engine) NextRebirthCost(rebirthLevel int) float64 {
	return e.cfg.RebirthBaseCost * math.Pow(e.cfg.RebirthCostGrowth, float64(rebirthLevel))
}

func (e *Engine) CanRebirth(st *domain.State) bool {
	return st.Level >= e.cfg.MaxLevel && st.Money >= e.NextRebirthCost(st.RebirthLevel)
}

// Rebirth resets progress in exchange for a higher multiplier and bonus
// money. Only credits and the credit-claim timestamp survive; the exchange
// re-locks.
func (e *Engine) Rebirth(st *domain.State, now time.Time) error {
	if st.Level < e.cfg.MaxLevel {
		return fmt.Errorf("rebirth at level %d of %d: %w", st.Level, e.cfg.MaxLevel, domain.ErrLevelTooLow)
	}
	cost := e.NextRebirthCost(st.RebirthLevel)
	if st.Money < cost {
		return fmt.Errorf("rebirth costs %.0f: %w", cost, domain.ErrInsufficientFunds)
	}

	next := st.RebirthLevel + 1
	fresh := e.NewState(now)
	fresh.RebirthLevel = next
	fresh.Money = e.cfg.InitialMoney + float64(next)*e.cfg.RebirthBonusMoney
	fresh.Credits = st.Credits
	fresh.LastCreditClaimAt = st.LastCreditClaimAt
	e.Recompute(fresh)

	*st = *fresh
	return nil
}
