package main

import (
	"fmt"

	"github.com/bitmark-inc/logger"
	"github.com/jmoiron/sqlx"

	"github.com/joestump/joe-market/internal/config"
	"github.com/joestump/joe-market/internal/db"
)

// env is what every command that touches the database needs.
type env struct {
	cfg *config.Config
	db  *sqlx.DB
	log *logger.L
}

// setup loads config, starts the logger and opens a migrated database.
// The returned close func must be called before exit.
func setup(tag string) (*env, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	err = logger.Initialise(logger.Configuration{
		Directory: cfg.Log.Directory,
		File:      cfg.Log.File,
		Size:      cfg.Log.Size,
		Count:     cfg.Log.Count,
		Console:   cfg.Log.Console,
		Levels: map[string]string{
			logger.DefaultTag: cfg.Log.Level,
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("initialise logger: %w", err)
	}

	database, err := db.New(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		logger.Finalise()
		return nil, nil, err
	}
	if err := db.Migrate(database, cfg.DB.Driver); err != nil {
		_ = database.Close()
		logger.Finalise()
		return nil, nil, err
	}

	closer := func() {
		_ = database.Close()
		logger.Finalise()
	}
	return &env{cfg: cfg, db: database, log: logger.New(tag)}, closer, nil
}
