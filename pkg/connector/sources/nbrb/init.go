package nbrb

import (
	"github.com/ratepipe/ratepipe/pkg/config"
	"github.com/ratepipe/ratepipe/pkg/connector/registry"
	"github.com/ratepipe/ratepipe/pkg/logger"
)

func init() {
	_ = registry.RegisterSource("nbrb", "NBRB official exchange rates (api.nbrb.by)",
		func(cfg *config.Config) (registry.RateSource, error) {
			return NewSource(cfg.Rates, logger.Get()), nil
		})
}
