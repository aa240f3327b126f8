package main

import (
	"fmt"

	"storefront/internal/config"
	"storefront/internal/infra/db"
	"storefront/internal/infra/logger"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type env struct {
	cfg config.Config
	log zerolog.Logger
	db  *gorm.DB
}

func loadConfig() (config.Config, zerolog.Logger, error) {
	if err := config.LoadEnvFiles(".env"); err != nil {
		return config.Config{}, zerolog.Nop(), err
	}
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, zerolog.Nop(), err
	}
	return cfg, logger.New(cfg.GoEnv, cfg.LogLevel), nil
}

// openEnv は設定とDBを用意する。closeは呼び出し側で
func openEnv() (*env, func(), error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	gdb, err := db.Open(cfg.DSN())
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("sql.DB: %w", err)
	}
	return &env{cfg: cfg, log: log, db: gdb}, func() { _ = sqlDB.Close() }, nil
}
