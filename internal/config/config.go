package config

import (
	"errors"
	"fmt"
	"time"
)

type Config struct {
	Game        GameConfig        `mapstructure:"game"`
	Persistence PersistenceConfig `mapstructure:"persistence"`
	Remote      RemoteConfig      `mapstructure:"remote"`
	TimeSync    TimeSyncConfig    `mapstructure:"timesync"`
	Logger      LoggerConfig      `mapstructure:"logger"`
	SaveServer  SaveServerConfig  `mapstructure:"saveserver"`
}

// GameConfig holds balance constants shared by every engine.
type GameConfig struct {
	GridSide              int           `mapstructure:"grid_side"`
	TickInterval          time.Duration `mapstructure:"tick_interval"`
	StockRefreshInterval  time.Duration `mapstructure:"stock_refresh_interval"`
	MaxLevel              int           `mapstructure:"max_level"`
	LevelScalingFactor    float64       `mapstructure:"level_scaling_factor"`
	InitialMoney          float64       `mapstructure:"initial_money"`
	RebirthBaseCost       float64       `mapstructure:"rebirth_base_cost"`
	RebirthCostGrowth     float64       `mapstructure:"rebirth_cost_growth"`
	RebirthMultiplierStep float64       `mapstructure:"rebirth_multiplier_step"`
	RebirthBonusMoney     float64       `mapstructure:"rebirth_bonus_money"`
	ExchangeUnlockCost    float64       `mapstructure:"exchange_unlock_cost"`
	CreditClaimCost       float64       `mapstructure:"credit_claim_cost"`
	CreditClaimCooldown   time.Duration `mapstructure:"credit_claim_cooldown"`
	SellRefundRatio       float64       `mapstructure:"sell_refund_ratio"`
	CatalogPath           string        `mapstructure:"catalog_path"`
}

// TotalCells is the fixed grid length.
func (g GameConfig) TotalCells() int {
	return g.GridSide * g.GridSide
}

type PersistenceConfig struct {
	StorageKey     string        `mapstructure:"storage_key"`
	LocalInterval  time.Duration `mapstructure:"local_interval"`
	RemoteInterval time.Duration `mapstructure:"remote_interval"`
	RemoteTimeout  time.Duration `mapstructure:"remote_timeout"`
	LocalDriver    string        `mapstructure:"local_driver"`
	SQLitePath     string        `mapstructure:"sqlite_path"`
	RedisAddr      string        `mapstructure:"redis_addr"`
	RedisPassword  string        `mapstructure:"redis_password"`
	RedisDB        int           `mapstructure:"redis_db"`
}

type RemoteConfig struct {
	BaseURL string `mapstructure:"base_url"`
	UserID  string `mapstructure:"user_id"`
}

type TimeSyncConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type LoggerConfig struct {
	Level string `mapstructure:"level"`
}

type SaveServerConfig struct {
	Addr     string `mapstructure:"addr"`
	DBDriver string `mapstructure:"db_driver"`
	DSN      string `mapstructure:"dsn"`
}

const (
	LocalDriverSQLite = "sqlite"
	LocalDriverRedis  = "redis"
)

func Default() Config {
	return Config{
		Game: GameConfig{
			GridSide:              8,
			TickInterval:          time.Second,
			StockRefreshInterval:  5 * time.Minute,
			MaxLevel:              20,
			LevelScalingFactor:    500,
			InitialMoney:          150,
			RebirthBaseCost:       1_000_000,
			RebirthCostGrowth:     1.5,
			RebirthMultiplierStep: 0.5,
			RebirthBonusMoney:     10_000,
			ExchangeUnlockCost:    35_000,
			CreditClaimCost:       100_000,
			CreditClaimCooldown:   7 * 24 * time.Hour,
			SellRefundRatio:       0.5,
		},
		Persistence: PersistenceConfig{
			StorageKey:     "solar_tycoon_save",
			LocalInterval:  5 * time.Second,
			RemoteInterval: 10 * time.Second,
			RemoteTimeout:  10 * time.Second,
			LocalDriver:    LocalDriverSQLite,
			SQLitePath:     "solar_tycoon.db",
			RedisAddr:      "localhost:6379",
		},
		TimeSync: TimeSyncConfig{
			URL:     "https://worldtimeapi.org/api/timezone/Etc/UTC",
			Timeout: 5 * time.Second,
		},
		Logger: LoggerConfig{
			Level: "info",
		},
		SaveServer: SaveServerConfig{
			Addr:     ":8080",
			DBDriver: "sqlite",
			DSN:      "saves.db",
		},
	}
}

func (c Config) Validate() error {
	g := c.Game
	if g.GridSide <= 0 {
		return errors.New("game.grid_side must be positive")
	}
	if g.TickInterval <= 0 {
		return errors.New("game.tick_interval must be positive")
	}
	if g.StockRefreshInterval <= 0 {
		return errors.New("game.stock_refresh_interval must be positive")
	}
	if g.MaxLevel < 1 {
		return errors.New("game.max_level must be at least 1")
	}
	if g.LevelScalingFactor <= 0 {
		return errors.New("game.level_scaling_factor must be positive")
	}
	if g.SellRefundRatio < 0 || g.SellRefundRatio > 1 {
		return fmt.Errorf("game.sell_refund_ratio %.2f outside [0,1]", g.SellRefundRatio)
	}
	p := c.Persistence
	if p.LocalInterval <= 0 || p.RemoteInterval <= 0 {
		return errors.New("persistence intervals must be positive")
	}
	if p.RemoteTimeout <= 0 {
		return errors.New("persistence.remote_timeout must be positive")
	}
	if p.StorageKey == "" {
		return errors.New("persistence.storage_key cannot be empty")
	}
	switch p.LocalDriver {
	case LocalDriverSQLite, LocalDriverRedis:
	default:
		return fmt.Errorf("unknown persistence.local_driver %q", p.LocalDriver)
	}
	return nil
}
