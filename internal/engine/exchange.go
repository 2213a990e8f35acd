package engine

import (
	"fmt"
	"time"

	"solartycoon/internal/domain"
)

// UnlockExchange is a one-time purchase; only rebirth re-locks it.
func (e *Engine) UnlockExchange(st *domain.State) error {
	if st.ExchangeUnlocked {
		return domain.ErrAlreadyUnlocked
	}
	if st.Money < e.cfg.ExchangeUnlockCost {
		return fmt.Errorf("unlock costs %.0f: %w", e.cfg.ExchangeUnlockCost, domain.ErrInsufficientFunds)
	}
	st.Money -= e.cfg.ExchangeUnlockCost
	st.ExchangeUnlocked = true
	return nil
}

// CreditCooldownRemaining is zero when a claim is allowed. The window rolls
// from the last claim, not from calendar weeks.
func (e *Engine) CreditCooldownRemaining(st *domain.State, now time.Time) time.Duration {
	if st.LastCreditClaimAt.IsZero() {
		return 0
	}
	remaining := e.cfg.CreditClaimCooldown - now.Sub(st.LastCreditClaimAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ClaimCredit converts money into one credit.
func (e *Engine) ClaimCredit(st *domain.State, now time.Time) error {
	if !st.ExchangeUnlocked {
		return domain.ErrNotUnlocked
	}
	if st.Money < e.cfg.CreditClaimCost {
		return fmt.Errorf("claim costs %.0f: %w", e.cfg.CreditClaimCost, domain.ErrInsufficientFunds)
	}
	if remaining := e.CreditCooldownRemaining(st, now); remaining > 0 {
		return fmt.Errorf("next claim in %s: %w", remaining, domain.ErrCooldownActive)
	}
	st.Money -= e.cfg.CreditClaimCost
	st.Credits++
	st.LastCreditClaimAt = now
	return nil
}
