// Package host runs an embedded game: it resolves server time, restores the
// last snapshot and drives the tick and save timers until shutdown.
package host

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"solartycoon/internal/catalog"
	"solartycoon/internal/clock"
	"solartycoon/internal/commands"
	"solartycoon/internal/config"
	"solartycoon/internal/engine"
	"solartycoon/internal/metrics"
	"solartycoon/internal/persistence"
	"solartycoon/internal/service"
)

const flushTimeout = 5 * time.Second

var ErrNoRemote = errors.New("remote endpoint not configured")

type Host struct {
	cfg    config.Config
	log    *zap.Logger
	clk    *clock.OffsetClock
	src    clock.Source
	svc    *service.GameService
	coord  *persistence.Coordinator
	client *persistence.RemoteClient
	remote *persistence.RemoteSink
	closer func() error
}

type options struct {
	store    persistence.Store
	base     clock.Clock
	source   clock.Source
	registry prometheus.Registerer
}

type Option func(*options)

// WithStore replaces the configured local store.
func WithStore(s persistence.Store) Option {
	return func(o *options) { o.store = s }
}

func WithBaseClock(c clock.Clock) Option {
	return func(o *options) { o.base = c }
}

func WithTimeSource(src clock.Source) Option {
	return func(o *options) { o.source = src }
}

// WithRegistry registers the host metrics on reg instead of a private
// registry.
func WithRegistry(reg prometheus.Registerer) Option {
	return func(o *options) { o.registry = reg }
}

func New(cfg config.Config, log *zap.Logger, opts ...Option) (*Host, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if log == nil {
		log = zap.NewNop()
	}

	cat := catalog.Default()
	if cfg.Game.CatalogPath != "" {
		loaded, err := catalog.LoadFile(cfg.Game.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
		cat = loaded
	}
	eng := engine.New(cfg.Game, cat)

	h := &Host{
		cfg:    cfg,
		log:    log.Named("host"),
		clk:    clock.NewOffsetClock(o.base),
		src:    o.source,
		closer: func() error { return nil },
	}
	if h.src == nil && cfg.TimeSync.URL != "" {
		h.src = &clock.HTTPSource{
			Client: &http.Client{Timeout: cfg.TimeSync.Timeout},
			URL:    cfg.TimeSync.URL,
		}
	}

	if o.registry == nil {
		o.registry = prometheus.NewRegistry()
	}
	m := metrics.New(o.registry)
	h.svc = service.NewGameService(eng, h.clk,
		service.WithLogger(log),
		service.WithMetrics(m),
	)

	store := o.store
	if store == nil {
		opened, closer, err := persistence.OpenStore(cfg.Persistence)
		if err != nil {
			return nil, fmt.Errorf("open local store: %w", err)
		}
		store, h.closer = opened, closer
	}

	coordOpts := []persistence.Option{
		persistence.WithLogger(log),
		persistence.WithMetrics(m),
	}
	if cfg.Remote.BaseURL != "" {
		h.client = persistence.NewRemoteClient(cfg.Remote.BaseURL, cfg.Persistence.RemoteTimeout)
		h.remote = persistence.NewRemoteSink(h.client, cfg.Remote.UserID)
		coordOpts = append(coordOpts, persistence.WithRemote(h.remote))
	}
	h.coord = persistence.NewCoordinator(
		cfg.Persistence,
		persistence.NewCodec(eng),
		h.svc,
		h.clk,
		persistence.NewLocalSink(store, cfg.Persistence.StorageKey),
		coordOpts...,
	)
	return h, nil
}

func (h *Host) Service() *service.GameService { return h.svc }

func (h *Host) Coordinator() *persistence.Coordinator { return h.coord }

func (h *Host) Clock() *clock.OffsetClock { return h.clk }

// TimeSynced reports whether server time came from a successful fetch.
func (h *Host) TimeSynced() bool { return h.clk.Synced() }

// Start resolves the server offset and restores the local snapshot.
func (h *Host) Start(ctx context.Context) error {
	h.clk.Sync(ctx, h.src, h.cfg.TimeSync.Timeout, h.log)

	loaded, err := h.coord.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	h.log.Info("game ready", zap.Bool("restored", loaded), zap.Bool("time_synced", h.clk.Synced()))
	return nil
}

// Run drives the tick, local-save and remote-save timers until ctx is done,
// then flushes locally.
func (h *Host) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return h.svc.Run(gctx) })
	g.Go(func() error { return h.coord.RunLocal(gctx) })
	g.Go(func() error { return h.coord.RunRemote(gctx) })
	err := g.Wait()

	flushCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	h.coord.Flush(flushCtx)
	return err
}

// Login authenticates against the remote endpoint, enables remote saves for
// the user and adopts their saved game when one exists.
func (h *Host) Login(ctx context.Context, username, password string) (persistence.User, error) {
	if h.client == nil {
		return persistence.User{}, ErrNoRemote
	}
	res, err := h.client.Login(ctx, username, password)
	if err != nil {
		return persistence.User{}, err
	}
	h.signIn(res)
	return res.User, nil
}

func (h *Host) Register(ctx context.Context, username, password string) (persistence.User, error) {
	if h.client == nil {
		return persistence.User{}, ErrNoRemote
	}
	res, err := h.client.Register(ctx, username, password)
	if err != nil {
		return persistence.User{}, err
	}
	h.signIn(res)
	return res.User, nil
}

func (h *Host) signIn(res persistence.AuthResult) {
	h.remote.SetUser(res.User.ID)
	adopted := h.coord.Adopt(res.SaveData)
	h.log.Info("signed in", zap.String("user_id", res.User.ID), zap.Bool("adopted_save", adopted))
}

// HardReset replaces the game with a pristine one and writes it locally, and
// remotely when signed in, while ticks and scheduled saves are held off. A
// failed upload only marks the remote status.
func (h *Host) HardReset(ctx context.Context) error {
	h.svc.Suspend()
	h.coord.Suspend()
	defer func() {
		h.coord.Resume()
		h.svc.Resume()
	}()

	if _, err := h.svc.Execute(commands.HardReset{ID: commands.NewID()}); err != nil {
		return err
	}
	pristine := h.svc.GetState()
	if err := h.coord.WriteLocalNow(ctx, pristine); err != nil {
		return err
	}
	if err := h.coord.WriteRemoteNow(ctx, pristine); err != nil {
		h.log.Warn("remote reset upload failed", zap.Error(err))
	}
	return nil
}

func (h *Host) Close() error {
	return h.closer()
}
