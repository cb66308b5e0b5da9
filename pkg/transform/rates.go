// Package transform holds the in-memory transformation stages of the
// ratepipe pipelines.
package transform

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ratepipe/ratepipe/pkg/errors"
	"github.com/ratepipe/ratepipe/pkg/models"
)

// allowedCodes is the fixed set of currencies kept by RateNormalizer.
var allowedCodes = map[string]struct{}{
	"USD": {},
	"EUR": {},
	"RUB": {},
	"CNY": {},
}

// AllowedCodes returns the kept currency codes in sorted order.
func AllowedCodes() []string {
	codes := make([]string, 0, len(allowedCodes))
	for c := range allowedCodes {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// normPrecision is the number of decimal places kept by the rate_norm
// division, well past float64 resolution.
const normPrecision = 32

// RateNormalizer drops records without a rate, rejects zero scales, keeps
// the allowed currencies and attaches rate_norm = rate / scale.
type RateNormalizer struct {
	logger *zap.Logger
}

// NewRateNormalizer creates a normalizer. A nil logger is replaced by a no-op one.
func NewRateNormalizer(logger *zap.Logger) *RateNormalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateNormalizer{logger: logger.With(zap.String("component", "rate_normalizer"))}
}

// Transform implements core.Transformer. It does not modify its input.
func (n *RateNormalizer) Transform(_ context.Context, records []models.RateRecord) ([]models.NormalizedRateRecord, error) {
	out := make([]models.NormalizedRateRecord, 0, len(allowedCodes))
	nullRates := 0

	for _, r := range records {
		if r.Rate == nil {
			nullRates++
			continue
		}
		// A zero scale fails the run even for currencies filtered out below.
		if r.Scale == 0 {
			return nil, errors.Newf(errors.ErrorTypeArithmetic, "division by zero: currency %s has scale 0", r.Code).
				WithDetail("code", r.Code)
		}
		if _, ok := allowedCodes[r.Code]; !ok {
			continue
		}

		norm, _ := decimal.NewFromFloat(*r.Rate).DivRound(decimal.NewFromInt(int64(r.Scale)), normPrecision).Float64()
		out = append(out, models.NormalizedRateRecord{RateRecord: r, RateNorm: norm})
	}

	n.logger.Debug("rates normalized",
		zap.Int("input", len(records)),
		zap.Int("null_rates", nullRates),
		zap.Int("output", len(out)))

	return out, nil
}
