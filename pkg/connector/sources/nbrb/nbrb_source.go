// Package nbrb implements the rates source backed by the National Bank of
// the Republic of Belarus exchange rates API.
package nbrb

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ratepipe/ratepipe/pkg/clients"
	"github.com/ratepipe/ratepipe/pkg/config"
	"github.com/ratepipe/ratepipe/pkg/errors"
	"github.com/ratepipe/ratepipe/pkg/json"
	"github.com/ratepipe/ratepipe/pkg/models"
)

// DateLayout is the timestamp format of the Date field.
const DateLayout = "2006-01-02T15:04:05"

// Payload field names.
const (
	fieldCode  = "Cur_Abbreviation"
	fieldName  = "Cur_Name"
	fieldScale = "Cur_Scale"
	fieldRate  = "Cur_OfficialRate"
	fieldDate  = "Date"
)

// Source fetches the official rates with a single GET request.
type Source struct {
	endpoint    string
	periodicity int
	client      *clients.HTTPClient
	logger      *zap.Logger
}

// NewSource creates a source for cfg. A nil logger is replaced by a no-op one.
func NewSource(cfg config.RatesConfig, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "nbrb_source"))

	httpConfig := clients.DefaultHTTPConfig()
	httpConfig.RequestTimeout = cfg.RequestTimeout

	return &Source{
		endpoint:    cfg.Endpoint,
		periodicity: cfg.Periodicity,
		client:      clients.NewHTTPClient(httpConfig, logger),
		logger:      logger,
	}
}

// URL returns the request URL including the periodicity parameter.
func (s *Source) URL() (string, error) {
	u, err := url.Parse(s.endpoint)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeConfig, "invalid rates endpoint")
	}
	q := u.Query()
	q.Set("periodicity", strconv.Itoa(s.periodicity))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Extract performs the request and decodes one RateRecord per entry.
func (s *Source) Extract(ctx context.Context) ([]models.RateRecord, error) {
	target, err := s.URL()
	if err != nil {
		return nil, err
	}

	s.logger.Info("fetching rates", zap.String("url", target))
	body, err := s.client.Get(ctx, target, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, err
	}

	records, err := Decode(body)
	if err != nil {
		return nil, err
	}

	s.logger.Info("rates fetched", zap.Int("records", len(records)))
	return records, nil
}

// Close logs the request statistics and releases idle HTTP connections.
func (s *Source) Close() error {
	stats := s.client.GetStats()
	if stats.TotalRequests > 0 {
		s.logger.Info("http client stats",
			zap.Int64("requests", stats.TotalRequests),
			zap.Int64("failed", stats.FailedRequests),
			zap.Float64("success_rate", stats.SuccessRate),
			zap.Duration("avg_latency", stats.AverageLatency))
	}
	return s.client.Close()
}

// Decode parses a rates payload. Every entry must carry all five fields;
// only the rate may be null.
func Decode(body []byte) ([]models.RateRecord, error) {
	var entries []map[string]any
	if err := json.UnmarshalNumbers(body, &entries); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "rates payload is not a JSON array of objects")
	}
	// null decodes without error but is not a rates list.
	if entries == nil {
		return nil, errors.New(errors.ErrorTypeData, "rates payload is not a JSON array of objects")
	}

	records := make([]models.RateRecord, 0, len(entries))
	for i, entry := range entries {
		rec, err := decodeEntry(entry)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, fmt.Sprintf("invalid rates entry %d", i)).
				WithDetail("index", i)
		}
		records = append(records, rec)
	}
	return records, nil
}

func decodeEntry(entry map[string]any) (models.RateRecord, error) {
	var rec models.RateRecord

	for _, key := range []string{fieldCode, fieldName, fieldScale, fieldRate, fieldDate} {
		if _, ok := entry[key]; !ok {
			return rec, fmt.Errorf("missing field %s", key)
		}
	}

	code, ok := entry[fieldCode].(string)
	if !ok {
		return rec, fmt.Errorf("field %s: expected string, got %T", fieldCode, entry[fieldCode])
	}
	name, ok := entry[fieldName].(string)
	if !ok {
		return rec, fmt.Errorf("field %s: expected string, got %T", fieldName, entry[fieldName])
	}

	scaleNum, ok := entry[fieldScale].(json.Number)
	if !ok {
		return rec, fmt.Errorf("field %s: expected number, got %T", fieldScale, entry[fieldScale])
	}
	scale, err := strconv.Atoi(scaleNum.String())
	if err != nil {
		return rec, fmt.Errorf("field %s: %q is not an integer", fieldScale, scaleNum.String())
	}
	if scale < 0 {
		return rec, fmt.Errorf("field %s: negative scale %d", fieldScale, scale)
	}

	var rate *float64
	switch v := entry[fieldRate].(type) {
	case nil:
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return rec, fmt.Errorf("field %s: %w", fieldRate, err)
		}
		rate = &f
	default:
		return rec, fmt.Errorf("field %s: expected number or null, got %T", fieldRate, v)
	}

	rawDate, ok := entry[fieldDate].(string)
	if !ok {
		return rec, fmt.Errorf("field %s: expected string, got %T", fieldDate, entry[fieldDate])
	}
	date, err := time.Parse(DateLayout, rawDate)
	if err != nil {
		return rec, fmt.Errorf("field %s: %w", fieldDate, err)
	}

	return models.RateRecord{
		Code:  code,
		Name:  name,
		Scale: scale,
		Rate:  rate,
		Date:  date,
	}, nil
}
