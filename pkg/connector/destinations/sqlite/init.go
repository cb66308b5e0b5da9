package sqlite

import (
	"github.com/ratepipe/ratepipe/pkg/config"
	"github.com/ratepipe/ratepipe/pkg/connector/registry"
	"github.com/ratepipe/ratepipe/pkg/logger"
)

func init() {
	_ = registry.RegisterDestination("sqlite", "Embedded SQLite database file, table replaced on every run",
		func(cfg *config.Config) (registry.RateDestination, error) {
			return NewDestination(cfg.SQLite, logger.Get()), nil
		})
}
