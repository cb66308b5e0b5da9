package postgresql

import (
	"github.com/ratepipe/ratepipe/pkg/config"
	"github.com/ratepipe/ratepipe/pkg/connector/registry"
	"github.com/ratepipe/ratepipe/pkg/logger"
)

func init() {
	_ = registry.RegisterDestination("postgresql", "PostgreSQL table replaced on every run via COPY",
		func(cfg *config.Config) (registry.RateDestination, error) {
			return NewDestination(cfg.Postgres, logger.Get()), nil
		})
}
