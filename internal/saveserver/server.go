package saveserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"solartycoon/internal/config"
	"solartycoon/internal/logger"
)

var Module = fx.Module("saveserver",
	fx.Provide(
		newLogger,
		newDB,
		NewRepository,
		NewHandler,
		NewEngine,
	),
	fx.Invoke(func(h *Handler, r *gin.Engine) { h.RegisterRoutes(r) }),
	fx.Invoke(run),
)

func newLogger(cfg config.Config) (*zap.Logger, error) {
	return logger.New(cfg.Logger.Level)
}

func newDB(cfg config.Config) (*gorm.DB, error) {
	return OpenDB(cfg.SaveServer)
}

func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.SaveServer.Addr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("save server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("save server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			_ = log.Sync()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
