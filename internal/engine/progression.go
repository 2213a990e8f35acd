package engine

import (
	"math"
	"time"

	"solartycoon/internal/domain"
)

// ProductionRate sums the base rate of every occupied cell.
func (e *Engine) ProductionRate(grid []domain.GridCell) float64 {
	var rate float64
	for _, cell := range grid {
		if cell.Empty() {
			continue
		}
		if def, ok := e.cat.Lookup(cell.Occupant); ok {
			rate += def.ProductionRate
		}
	}
	return rate
}

// Level maps accumulated experience onto 1..MaxLevel.
func (e *Engine) Level(experience float64) int {
	if math.IsNaN(experience) || experience <= 0 {
		return 1
	}
	level := math.Floor(math.Sqrt(experience/e.cfg.LevelScalingFactor)) + 1
	if level >= float64(e.cfg.MaxLevel) {
		return e.cfg.MaxLevel
	}
	return int(level)
}

// LevelThreshold is the experience at which a level is first reached.
func (e *Engine) LevelThreshold(level int) float64 {
	if level <= 1 {
		return 0
	}
	n := float64(level - 1)
	return n * n * e.cfg.LevelScalingFactor
}

type LevelProgress struct {
	Level    int
	Current  float64
	Next     float64
	Fraction float64
}

// Progress reports how far experience has advanced toward the next level.
// At the cap the fraction is 1.
func (e *Engine) Progress(experience float64) LevelProgress {
	level := e.Level(experience)
	p := LevelProgress{
		Level:   level,
		Current: e.LevelThreshold(level),
	}
	if level >= e.cfg.MaxLevel {
		p.Next = p.Current
		p.Fraction = 1
		return p
	}
	p.Next = e.LevelThreshold(level + 1)
	p.Fraction = (experience - p.Current) / (p.Next - p.Current)
	if p.Fraction < 0 {
		p.Fraction = 0
	}
	if p.Fraction > 1 {
		p.Fraction = 1
	}
	return p
}

// Recompute refreshes the cached projections after any grid, experience or
// rebirth change.
func (e *Engine) Recompute(st *domain.State) {
	st.TotalProductionRate = e.ProductionRate(st.Grid)
	st.Level = e.Level(st.Experience)
	st.Multiplier = e.Multiplier(st.RebirthLevel)
}

type TickResult struct {
	Gained         float64
	Halted         bool
	StockRefreshed bool
}

// Tick accrues one interval of production. At the level cap both money and
// experience freeze until the player rebirths.
func (e *Engine) Tick(st *domain.State, now time.Time) TickResult {
	var res TickResult
	if st.Level < e.cfg.MaxLevel {
		res.Gained = st.TotalProductionRate * st.Multiplier
		st.Money += res.Gained
		st.Experience += res.Gained
		st.Level = e.Level(st.Experience)
	} else {
		res.Halted = true
	}
	res.StockRefreshed = e.RefreshStockIfDue(st, now)
	return res
}
