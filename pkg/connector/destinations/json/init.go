package json

import (
	"github.com/ratepipe/ratepipe/pkg/config"
	"github.com/ratepipe/ratepipe/pkg/connector/registry"
	"github.com/ratepipe/ratepipe/pkg/logger"
)

func init() {
	_ = registry.RegisterDestination("json", "JSON file (array or line-delimited), replaced on every run",
		func(cfg *config.Config) (registry.RateDestination, error) {
			return NewJSONDestination(cfg.JSON, logger.Get()), nil
		})
}
