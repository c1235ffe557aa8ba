package bootstrap

import (
	"fmt"
	"log"

	"github.com/RengaN02/api.ss13.org/internal/config"
	"github.com/RengaN02/api.ss13.org/internal/store"
)

// initializeDatabase opens the store and runs migrations.
func initializeDatabase(cfg *config.Config) (*store.Store, error) {
	db, err := store.New(cfg.DatabaseDriver, cfg.DatabaseDSN, cfg.FreshnessWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	log.Printf("Database initialized: driver=%s", cfg.DatabaseDriver)
	return db, nil
}
