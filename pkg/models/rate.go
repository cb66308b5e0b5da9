// Package models provides the record types that flow through ratepipe
// pipelines: exchange rates, superstore orders and generic report tables.
package models

import "time"

// RateRecord is one currency entry returned by the rates source.
type RateRecord struct {
	// Code is the 3-letter currency abbreviation
	Code string `json:"code"`
	// Name is the currency name as published by the source
	Name string `json:"name"`
	// Scale is the number of currency units the official rate is quoted for
	Scale int `json:"scale"`
	// Rate is the official rate; nil when the source publishes none
	Rate *float64 `json:"rate"`
	// Date is the rate date
	Date time.Time `json:"date"`
}

// NormalizedRateRecord is a RateRecord with the per-unit rate attached.
type NormalizedRateRecord struct {
	RateRecord
	// RateNorm is Rate divided by Scale
	RateNorm float64 `json:"rate_norm"`
}

// RateColumns lists the persisted columns in table order.
var RateColumns = []string{"code", "name", "scale", "rate", "date", "rate_norm"}

// RateTimeLayout is the layout used to persist rate dates as text.
const RateTimeLayout = "2006-01-02 15:04:05"

// Float64 returns a pointer to v. Handy for building RateRecord literals.
func Float64(v float64) *float64 {
	return &v
}

// Values returns the record as a row matching RateColumns.
func (r NormalizedRateRecord) Values() []any {
	var rate any
	if r.Rate != nil {
		rate = *r.Rate
	}
	return []any{r.Code, r.Name, r.Scale, rate, r.Date.Format(RateTimeLayout), r.RateNorm}
}
