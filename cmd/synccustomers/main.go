// Command synccustomers registers a customer for every order phone number
// that has none yet, then exits.
package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/example/bloomdesk/internal/config"
	"github.com/example/bloomdesk/internal/database"
	"github.com/example/bloomdesk/internal/logging"
	"github.com/example/bloomdesk/internal/services"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel)

	st, err := database.OpenStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	created, err := services.NewCustomerService(st).SyncFromOrders(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("sync failed")
	}
	log.Info().Int("created", created).Msg("sync finished")
}
