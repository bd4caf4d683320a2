package database

import (
	"github.com/rs/zerolog/log"

	"github.com/example/bloomdesk/internal/config"
	"github.com/example/bloomdesk/internal/store"
)

// OpenStore returns the record store selected by STORE_DRIVER.
func OpenStore(cfg *config.Config) (store.Store, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		log.Warn().Msg("using in-memory store, data is lost on restart")
		return store.NewMemoryStore(), nil
	}

	conn, err := Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return store.NewGormStore(conn), nil
}
