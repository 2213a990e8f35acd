package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"solartycoon/internal/catalog"
	"solartycoon/internal/clock"
	"solartycoon/internal/commands"
	"solartycoon/internal/domain"
	"solartycoon/internal/engine"
	"solartycoon/internal/events"
	"solartycoon/internal/metrics"
)

var ErrUnknownCommand = errors.New("unknown command")

// Selection is the transient placement session. It is never persisted.
type Selection struct {
	ItemID    catalog.ItemID
	StoreMode bool
}

// GameService owns the live aggregate. Every command and tick runs to
// completion under one mutex.
type GameService struct {
	mu        sync.Mutex
	eng       *engine.Engine
	clk       clock.Clock
	log       *zap.Logger
	rec       *events.Recorder
	metrics   *metrics.Metrics
	st        domain.State
	sel       Selection
	suspended bool
}

type Option func(*GameService)

func WithLogger(log *zap.Logger) Option {
	return func(s *GameService) { s.log = log }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *GameService) { s.metrics = m }
}

func WithRecorder(rec *events.Recorder) Option {
	return func(s *GameService) { s.rec = rec }
}

func NewGameService(eng *engine.Engine, clk clock.Clock, opts ...Option) *GameService {
	s := &GameService{
		eng: eng,
		clk: clk,
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rec == nil {
		rec, err := events.NewRecorder(1)
		if err != nil {
			panic(err)
		}
		s.rec = rec
	}
	s.log = s.log.Named("game")
	s.st = *eng.NewState(clk.Now())
	s.publish()
	return s
}

func (s *GameService) Engine() *engine.Engine { return s.eng }

func (s *GameService) GetState() domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.Clone()
}

func (s *GameService) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel
}

// Replace adopts a loaded aggregate. Cached projections are recomputed
// rather than trusted and the placement session is dropped.
func (s *GameService) Replace(st domain.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st = st.Clone()
	s.eng.Recompute(&s.st)
	s.sel = Selection{}
	s.publish()
}

// Suspend stops ticks from mutating the aggregate until Resume.
func (s *GameService) Suspend() {
	s.mu.Lock()
	s.suspended = true
	s.mu.Unlock()
}

func (s *GameService) Resume() {
	s.mu.Lock()
	s.suspended = false
	s.mu.Unlock()
}

func (s *GameService) Suspended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.suspended
}

// Tick runs one production interval. It is skipped while suspended.
func (s *GameService) Tick() (engine.TickResult, []events.Event) {
	cmd := &commands.Tick{ID: commands.NewID()}
	evs, _ := s.Execute(cmd)
	return engine.TickResult{Gained: cmd.Gained, Halted: cmd.Halted}, evs
}

// Run ticks on the configured interval until ctx is done.
func (s *GameService) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.eng.Config().TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		s.Tick()
	}
}

func (s *GameService) Execute(cmd commands.Command) ([]events.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clk.Now()
	evs, err := s.apply(cmd, now)
	if _, ok := cmd.(*commands.Tick); !ok {
		s.metrics.ObserveAction(cmd.Name(), err)
		if err != nil {
			s.log.Debug("command rejected",
				zap.String("command", cmd.Name()),
				zap.String("command_id", cmd.CommandID()),
				zap.Error(err),
			)
		}
	}
	s.publish()
	return evs, err
}

func (s *GameService) apply(cmd commands.Command, now time.Time) ([]events.Event, error) {
	id := cmd.CommandID()
	emit := func(t events.EventType, data any) []events.Event {
		return []events.Event{s.rec.Record(now, id, t, data)}
	}

	switch c := cmd.(type) {
	case commands.SyncState:
		return emit(events.EventTypeStateSynced, events.StateSyncedData{
			Money:            s.st.Money,
			Experience:       s.st.Experience,
			Level:            s.st.Level,
			LevelFraction:    s.eng.Progress(s.st.Experience).Fraction,
			ProductionRate:   s.st.TotalProductionRate,
			Credits:          s.st.Credits,
			RebirthLevel:     s.st.RebirthLevel,
			Multiplier:       s.st.Multiplier,
			NextRebirthCost:  s.eng.NextRebirthCost(s.st.RebirthLevel),
			CanRebirth:       s.eng.CanRebirth(&s.st),
			CreditCooldown:   s.eng.CreditCooldownRemaining(&s.st, now),
			NextStockRefresh: s.st.NextStockRefresh,
			SelectedItem:     s.sel.ItemID,
			StoreMode:        s.sel.StoreMode,
		}), nil

	case *commands.Tick:
		if s.suspended {
			return nil, nil
		}
		res := s.eng.Tick(&s.st, now)
		s.metrics.ObserveTick(res.Halted, res.StockRefreshed)
		c.Gained = res.Gained
		c.Halted = res.Halted
		evs := emit(events.EventTypeTicked, events.TickedData{Gained: res.Gained, Halted: res.Halted, Level: s.st.Level})
		if res.StockRefreshed {
			evs = append(evs, s.rec.Record(now, id, events.EventTypeStockRefreshed, events.StockRefreshedData{NextRefresh: s.st.NextStockRefresh}))
		}
		return evs, nil

	case commands.Buy:
		before := s.st.Money
		if err := s.eng.Buy(&s.st, c.ItemID, c.Quantity); err != nil {
			return nil, err
		}
		return emit(events.EventTypeBought, events.BoughtData{ItemID: c.ItemID, Quantity: c.Quantity, Cost: before - s.st.Money}), nil

	case *commands.Sell:
		refund, ok := s.eng.Sell(&s.st, c.ItemID)
		if !ok {
			return nil, nil
		}
		c.Refund = refund
		s.dropSelectionIfExhausted()
		return emit(events.EventTypeSold, events.SoldData{ItemID: c.ItemID, Refund: refund}), nil

	case commands.SelectItem:
		if _, ok := s.eng.Catalog().Lookup(c.ItemID); !ok {
			return nil, fmt.Errorf("select %s: %w", c.ItemID, domain.ErrUnknownItem)
		}
		if s.st.Inventory.Count(c.ItemID) == 0 {
			return nil, nil
		}
		s.sel = Selection{ItemID: c.ItemID}
		return emit(events.EventTypeSelectionChanged, events.SelectionChangedData{ItemID: c.ItemID}), nil

	case commands.ClearSelection:
		if s.sel.ItemID == "" {
			return nil, nil
		}
		s.sel.ItemID = ""
		return emit(events.EventTypeSelectionChanged, events.SelectionChangedData{StoreMode: s.sel.StoreMode}), nil

	case commands.ToggleStoreMode:
		s.sel.StoreMode = !s.sel.StoreMode
		if s.sel.StoreMode {
			s.sel.ItemID = ""
		}
		return emit(events.EventTypeSelectionChanged, events.SelectionChangedData{ItemID: s.sel.ItemID, StoreMode: s.sel.StoreMode}), nil

	case commands.ClickCell:
		if c.Index < 0 || c.Index >= len(s.st.Grid) {
			return nil, fmt.Errorf("click %d: %w", c.Index, domain.ErrCellOutOfRange)
		}
		if s.sel.StoreMode {
			return s.store(c.Index, emit), nil
		}
		if s.sel.ItemID == "" {
			return nil, nil
		}
		return s.place(c.Index, s.sel.ItemID, emit), nil

	case commands.Place:
		return s.place(c.Index, c.ItemID, emit), nil

	case commands.Store:
		return s.store(c.Index, emit), nil

	case commands.Swap:
		if err := s.eng.Swap(&s.st, c.From, c.To); err != nil {
			return nil, err
		}
		if c.From == c.To {
			return nil, nil
		}
		return emit(events.EventTypeSwapped, events.SwappedData{From: c.From, To: c.To}), nil

	case commands.Rebirth:
		cost := s.eng.NextRebirthCost(s.st.RebirthLevel)
		if err := s.eng.Rebirth(&s.st, now); err != nil {
			return nil, err
		}
		s.sel = Selection{}
		s.log.Info("rebirth",
			zap.Int("rebirth_level", s.st.RebirthLevel),
			zap.Float64("multiplier", s.st.Multiplier),
		)
		return emit(events.EventTypeReborn, events.RebornData{RebirthLevel: s.st.RebirthLevel, Multiplier: s.st.Multiplier, Cost: cost}), nil

	case commands.UnlockExchange:
		if err := s.eng.UnlockExchange(&s.st); err != nil {
			return nil, err
		}
		return emit(events.EventTypeExchangeUnlocked, nil), nil

	case commands.ClaimCredit:
		if err := s.eng.ClaimCredit(&s.st, now); err != nil {
			return nil, err
		}
		return emit(events.EventTypeCreditClaimed, events.CreditClaimedData{Credits: s.st.Credits}), nil

	case commands.HardReset:
		s.st = *s.eng.NewState(now)
		s.sel = Selection{}
		s.log.Info("hard reset")
		return emit(events.EventTypeReset, nil), nil

	default:
		return nil, fmt.Errorf("%s: %w", cmd.Name(), ErrUnknownCommand)
	}
}

func (s *GameService) place(idx int, id catalog.ItemID, emit func(events.EventType, any) []events.Event) []events.Event {
	if !s.eng.Place(&s.st, idx, id) {
		return nil
	}
	s.dropSelectionIfExhausted()
	return emit(events.EventTypePlaced, events.PlacedData{Index: idx, ItemID: id})
}

func (s *GameService) store(idx int, emit func(events.EventType, any) []events.Event) []events.Event {
	id, ok := s.eng.Store(&s.st, idx)
	if !ok {
		return nil
	}
	return emit(events.EventTypeStored, events.StoredData{Index: idx, ItemID: id})
}

func (s *GameService) dropSelectionIfExhausted() {
	if s.sel.ItemID != "" && s.st.Inventory.Count(s.sel.ItemID) == 0 {
		s.sel.ItemID = ""
	}
}

func (s *GameService) publish() {
	s.metrics.SetEconomy(s.st.Money, s.st.TotalProductionRate, s.st.RebirthLevel)
}
