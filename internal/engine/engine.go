// Package engine holds the transition rules of the game. Every operation
// takes the aggregate by pointer and either applies its whole mutation or
// returns an error and leaves the state untouched.
package engine

import (
	"time"

	"solartycoon/internal/catalog"
	"solartycoon/internal/config"
	"solartycoon/internal/domain"
)

type Engine struct {
	cfg config.GameConfig
	cat *catalog.Catalog
}

func New(cfg config.GameConfig, cat *catalog.Catalog) *Engine {
	if cat == nil {
		cat = catalog.Default()
	}
	return &Engine{cfg: cfg, cat: cat}
}

func (e *Engine) Config() config.GameConfig { return e.cfg }

func (e *Engine) Catalog() *catalog.Catalog { return e.cat }

// NewState builds a pristine aggregate as of now.
func (e *Engine) NewState(now time.Time) *domain.State {
	st := &domain.State{
		Money:            e.cfg.InitialMoney,
		Grid:             domain.NewGrid(e.cfg.TotalCells()),
		Inventory:        domain.Inventory{},
		ShopStock:        domain.Stock(e.cat.FullStock()),
		NextStockRefresh: now.Add(e.cfg.StockRefreshInterval),
		LastSaveAt:       now,
	}
	e.Recompute(st)
	return st
}

// Multiplier is the permanent production factor granted by rebirths.
func (e *Engine) Multiplier(rebirthLevel int) float64 {
	if rebirthLevel < 0 {
		rebirthLevel = 0
	}
	return 1 + float64(rebirthLevel)*e.cfg.RebirthMultiplierStep
}
