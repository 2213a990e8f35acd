package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "SOLAR"

// Load layers Default(), an optional YAML file and SOLAR_* environment
// variables. An empty path skips the file.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, Default())

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("game.grid_side", d.Game.GridSide)
	v.SetDefault("game.tick_interval", d.Game.TickInterval)
	v.SetDefault("game.stock_refresh_interval", d.Game.StockRefreshInterval)
	v.SetDefault("game.max_level", d.Game.MaxLevel)
	v.SetDefault("game.level_scaling_factor", d.Game.LevelScalingFactor)
	v.SetDefault("game.initial_money", d.Game.InitialMoney)
	v.SetDefault("game.rebirth_base_cost", d.Game.RebirthBaseCost)
	v.SetDefault("game.rebirth_cost_growth", d.Game.RebirthCostGrowth)
	v.SetDefault("game.rebirth_multiplier_step", d.Game.RebirthMultiplierStep)
	v.SetDefault("game.rebirth_bonus_money", d.Game.RebirthBonusMoney)
	v.SetDefault("game.exchange_unlock_cost", d.Game.ExchangeUnlockCost)
	v.SetDefault("game.credit_claim_cost", d.Game.CreditClaimCost)
	v.SetDefault("game.credit_claim_cooldown", d.Game.CreditClaimCooldown)
	v.SetDefault("game.sell_refund_ratio", d.Game.SellRefundRatio)
	v.SetDefault("game.catalog_path", d.Game.CatalogPath)

	v.SetDefault("persistence.storage_key", d.Persistence.StorageKey)
	v.SetDefault("persistence.local_interval", d.Persistence.LocalInterval)
	v.SetDefault("persistence.remote_interval", d.Persistence.RemoteInterval)
	v.SetDefault("persistence.remote_timeout", d.Persistence.RemoteTimeout)
	v.SetDefault("persistence.local_driver", d.Persistence.LocalDriver)
	v.SetDefault("persistence.sqlite_path", d.Persistence.SQLitePath)
	v.SetDefault("persistence.redis_addr", d.Persistence.RedisAddr)
	v.SetDefault("persistence.redis_password", d.Persistence.RedisPassword)
	v.SetDefault("persistence.redis_db", d.Persistence.RedisDB)

	v.SetDefault("remote.base_url", d.Remote.BaseURL)
	v.SetDefault("remote.user_id", d.Remote.UserID)

	v.SetDefault("timesync.url", d.TimeSync.URL)
	v.SetDefault("timesync.timeout", d.TimeSync.Timeout)

	v.SetDefault("logger.level", d.Logger.Level)

	v.SetDefault("saveserver.addr", d.SaveServer.Addr)
	v.SetDefault("saveserver.db_driver", d.SaveServer.DBDriver)
	v.SetDefault("saveserver.dsn", d.SaveServer.DSN)
}
