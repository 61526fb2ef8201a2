package config

import (
	"log/slog"

	"github.com/spf13/viper"
)

func Load() App {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("JWT_SECRET", "local_dev_secret")
	v.SetDefault("JWT_TTL_HOURS", 24)
	v.SetDefault("APP_ENV", "dev")

	cfg := App{
		Port:        v.GetString("APP_PORT"),
		DatabaseURL: v.GetString("DATABASE_URL"),
		RedisAddr:   v.GetString("REDIS_ADDR"),
		JWTSecret:   v.GetString("JWT_SECRET"),
		JWTTTLHours: v.GetInt("JWT_TTL_HOURS"),
		Env:         v.GetString("APP_ENV"),
	}
	if cfg.DatabaseURL == "" {
		slog.Error("required env missing", "key", "DATABASE_URL")
		panic("missing env DATABASE_URL")
	}
	return cfg
}
