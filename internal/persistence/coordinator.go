package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"solartycoon/internal/clock"
	"solartycoon/internal/config"
	"solartycoon/internal/domain"
	"solartycoon/internal/metrics"
)

type Status string

const (
	StatusIdle   Status = "idle"
	StatusSaving Status = "saving"
	StatusError  Status = "error"
)

// TargetStatus is the last known sync state of one sink.
type TargetStatus struct {
	State       Status
	LastSuccess time.Time
	LastError   string
}

// Game is the live aggregate the coordinator reads from and restores into.
type Game interface {
	GetState() domain.State
	Replace(domain.State)
}

type target struct {
	sink     Sink
	inFlight atomic.Bool
	// writeMu orders a forced write after any save already running.
	writeMu sync.Mutex

	mu     sync.Mutex
	status TargetStatus
}

func (t *target) set(fn func(*TargetStatus)) {
	t.mu.Lock()
	fn(&t.status)
	t.mu.Unlock()
}

func (t *target) get() TargetStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

type Coordinator struct {
	cfg     config.PersistenceConfig
	codec   *Codec
	game    Game
	clk     clock.Clock
	log     *zap.Logger
	metrics *metrics.Metrics

	store  *LocalSink
	local  *target
	remote *target

	suspended atomic.Bool
}

type Option func(*Coordinator)

func WithLogger(log *zap.Logger) Option {
	return func(c *Coordinator) { c.log = log }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// WithRemote adds the remote sink. Without it only local saves run.
func WithRemote(sink Sink) Option {
	return func(c *Coordinator) {
		c.remote = &target{sink: sink, status: TargetStatus{State: StatusIdle}}
	}
}

func NewCoordinator(cfg config.PersistenceConfig, codec *Codec, game Game, clk clock.Clock, local *LocalSink, opts ...Option) *Coordinator {
	c := &Coordinator{
		cfg:   cfg,
		codec: codec,
		game:  game,
		clk:   clk,
		log:   zap.NewNop(),
		store: local,
		local: &target{sink: local, status: TargetStatus{State: StatusIdle}},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.Named("persistence")
	return c
}

func (c *Coordinator) LocalStatus() TargetStatus {
	return c.local.get()
}

// RemoteStatus reports idle when no remote sink is configured.
func (c *Coordinator) RemoteStatus() TargetStatus {
	if c.remote == nil {
		return TargetStatus{State: StatusIdle}
	}
	return c.remote.get()
}

// Suspend makes every scheduled save a no-op until Resume.
func (c *Coordinator) Suspend() { c.suspended.Store(true) }
func (c *Coordinator) Resume()  { c.suspended.Store(false) }

func (c *Coordinator) SaveLocal(ctx context.Context) error {
	return c.save(ctx, c.local)
}

// SaveRemote is a no-op without a remote sink. Failures wrap
// domain.ErrRemoteUnavailable and only change the status.
func (c *Coordinator) SaveRemote(ctx context.Context) error {
	if c.remote == nil {
		return nil
	}
	return c.save(ctx, c.remote)
}

func (c *Coordinator) save(ctx context.Context, t *target) error {
	name := t.sink.Name()
	if c.suspended.Load() || !t.sink.Enabled() {
		c.metrics.ObserveSave(name, metrics.ResultSkipped, 0)
		return nil
	}
	// last write wins: a save already running makes this one redundant
	if !t.inFlight.CompareAndSwap(false, true) {
		c.metrics.ObserveSave(name, metrics.ResultSkipped, 0)
		return nil
	}
	defer t.inFlight.Store(false)

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if c.suspended.Load() {
		c.metrics.ObserveSave(name, metrics.ResultSkipped, 0)
		return nil
	}

	return c.write(ctx, t, c.game.GetState())
}

func (c *Coordinator) write(ctx context.Context, t *target, st domain.State) error {
	name := t.sink.Name()
	now := c.clk.Now()
	data, err := c.codec.Encode(st, now)
	if err != nil {
		return err
	}

	t.set(func(s *TargetStatus) { s.State = StatusSaving })
	started := time.Now()
	err = t.sink.Write(ctx, data)
	took := time.Since(started)

	if err != nil {
		t.set(func(s *TargetStatus) {
			s.State = StatusError
			s.LastError = err.Error()
		})
		c.metrics.ObserveSave(name, metrics.ResultError, took)
		c.log.Warn("save failed", zap.String("target", name), zap.Error(err))
		return err
	}
	t.set(func(s *TargetStatus) {
		s.State = StatusIdle
		s.LastSuccess = now
		s.LastError = ""
	})
	c.metrics.ObserveSave(name, metrics.ResultOK, took)
	c.log.Debug("saved", zap.String("target", name), zap.Int("bytes", len(data)))
	return nil
}

// WriteLocalNow writes st to the local store even while suspended, after any
// save already running has finished.
func (c *Coordinator) WriteLocalNow(ctx context.Context, st domain.State) error {
	c.local.writeMu.Lock()
	defer c.local.writeMu.Unlock()
	return c.write(ctx, c.local, st)
}

// WriteRemoteNow uploads st after any upload already running, even while
// suspended. It is a no-op without an enabled remote sink.
func (c *Coordinator) WriteRemoteNow(ctx context.Context, st domain.State) error {
	if c.remote == nil || !c.remote.sink.Enabled() {
		return nil
	}
	c.remote.writeMu.Lock()
	defer c.remote.writeMu.Unlock()
	return c.write(ctx, c.remote, st)
}

// Flush is the best-effort local write on teardown.
func (c *Coordinator) Flush(ctx context.Context) {
	if err := c.SaveLocal(ctx); err != nil {
		c.log.Warn("flush failed", zap.Error(err))
	}
}

// Load restores the local snapshot into the game. A missing, corrupt or
// incompatible snapshot leaves the fresh default in place and reports false.
func (c *Coordinator) Load(ctx context.Context) (bool, error) {
	data, err := c.store.Read(ctx)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return c.restore(data, "local"), nil
}

// Adopt restores a saveData payload handed over by /auth. Null keeps the
// current game.
func (c *Coordinator) Adopt(saveData json.RawMessage) bool {
	if len(saveData) == 0 || string(saveData) == "null" {
		return false
	}
	return c.restore(saveData, "remote")
}

func (c *Coordinator) restore(data []byte, origin string) bool {
	st, err := c.codec.Decode(data, c.clk.Now())
	if err != nil {
		if errors.Is(err, domain.ErrCorruptSnapshot) || errors.Is(err, domain.ErrIncompatibleSnapshot) {
			c.log.Warn("discarding snapshot", zap.String("origin", origin), zap.Error(err))
			return false
		}
		c.log.Error("decode snapshot", zap.String("origin", origin), zap.Error(err))
		return false
	}
	c.game.Replace(st)
	c.log.Info("snapshot restored",
		zap.String("origin", origin),
		zap.Float64("money", st.Money),
		zap.Int("rebirth_level", st.RebirthLevel),
	)
	return true
}

// RunLocal saves locally every LocalInterval until ctx is done.
func (c *Coordinator) RunLocal(ctx context.Context) error {
	return c.runEvery(ctx, c.cfg.LocalInterval, func(ctx context.Context) {
		_ = c.SaveLocal(ctx)
	})
}

// RunRemote uploads every RemoteInterval, each attempt bounded by
// RemoteTimeout. It returns immediately without a remote sink.
func (c *Coordinator) RunRemote(ctx context.Context) error {
	if c.remote == nil {
		return nil
	}
	return c.runEvery(ctx, c.cfg.RemoteInterval, func(ctx context.Context) {
		// uploads never hold up the ticker; overlaps are dropped by the
		// in-flight guard
		go func() {
			saveCtx, cancel := context.WithTimeout(ctx, c.cfg.RemoteTimeout)
			defer cancel()
			_ = c.SaveRemote(saveCtx)
		}()
	})
}

func (c *Coordinator) runEvery(ctx context.Context, every time.Duration, fn func(context.Context)) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		fn(ctx)
	}
}
