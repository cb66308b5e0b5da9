package transform

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ratepipe/ratepipe/pkg/errors"
	"github.com/ratepipe/ratepipe/pkg/models"
)

// NumericStats summarizes one numeric column.
type NumericStats struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// Profile describes a superstore dataset before it is loaded.
type Profile struct {
	Rows            int                     `json:"rows"`
	Columns         int                     `json:"columns"`
	MissingValues   int                     `json:"missing_values"`
	FirstOrderDate  time.Time               `json:"first_order_date"`
	LastOrderDate   time.Time               `json:"last_order_date"`
	Numeric         map[string]NumericStats `json:"numeric"`
	UniqueOrders    int                     `json:"unique_orders"`
	UniqueCustomers int                     `json:"unique_customers"`
	UniqueProducts  int                     `json:"unique_products"`
}

// SuperstoreProfiler validates and profiles orders, passing them on
// unchanged. The most recent profile is available from Profile.
type SuperstoreProfiler struct {
	logger *zap.Logger

	mu      sync.Mutex
	profile *Profile
}

// NewSuperstoreProfiler creates a profiler. A nil logger is replaced by a no-op one.
func NewSuperstoreProfiler(logger *zap.Logger) *SuperstoreProfiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SuperstoreProfiler{logger: logger.With(zap.String("component", "superstore_profiler"))}
}

// Transform implements core.Transformer.
func (p *SuperstoreProfiler) Transform(_ context.Context, orders []models.SuperstoreOrder) ([]models.SuperstoreOrder, error) {
	if len(orders) == 0 {
		return nil, errors.New(errors.ErrorTypeValidation, "no superstore rows to load")
	}

	profile := ProfileOrders(orders)

	p.mu.Lock()
	p.profile = &profile
	p.mu.Unlock()

	if profile.MissingValues > 0 {
		p.logger.Warn("missing values detected", zap.Int("missing_values", profile.MissingValues))
	}

	fields := []zap.Field{
		zap.Int("rows", profile.Rows),
		zap.Int("columns", profile.Columns),
		zap.Time("first_order_date", profile.FirstOrderDate),
		zap.Time("last_order_date", profile.LastOrderDate),
		zap.Int("unique_orders", profile.UniqueOrders),
		zap.Int("unique_customers", profile.UniqueCustomers),
		zap.Int("unique_products", profile.UniqueProducts),
	}
	for _, name := range []string{"Sales", "Quantity", "Discount", "Profit"} {
		s := profile.Numeric[name]
		fields = append(fields, zap.Dict(name,
			zap.Float64("min", s.Min),
			zap.Float64("max", s.Max),
			zap.Float64("mean", s.Mean)))
	}
	p.logger.Info("dataset profiled", fields...)

	return orders, nil
}

// Profile returns the profile computed by the last Transform call, or nil.
func (p *SuperstoreProfiler) Profile() *Profile {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.profile
}

// ProfileOrders computes a Profile over orders.
func ProfileOrders(orders []models.SuperstoreOrder) Profile {
	profile := Profile{
		Rows:    len(orders),
		Columns: len(models.SuperstoreColumns),
		Numeric: make(map[string]NumericStats, 4),
	}

	orderIDs := make(map[string]struct{})
	customers := make(map[string]struct{})
	products := make(map[string]struct{})
	columns := map[string][]float64{
		"Sales":    make([]float64, 0, len(orders)),
		"Quantity": make([]float64, 0, len(orders)),
		"Discount": make([]float64, 0, len(orders)),
		"Profit":   make([]float64, 0, len(orders)),
	}

	for i, o := range orders {
		if i == 0 || o.OrderDate.Before(profile.FirstOrderDate) {
			profile.FirstOrderDate = o.OrderDate
		}
		if i == 0 || o.OrderDate.After(profile.LastOrderDate) {
			profile.LastOrderDate = o.OrderDate
		}

		for _, v := range []string{
			o.OrderID, o.ShipMode, o.CustomerID, o.CustomerName, o.Segment, o.Country, o.City,
			o.State, o.PostalCode, o.Region, o.ProductID, o.Category, o.SubCategory, o.ProductName,
		} {
			if v == "" {
				profile.MissingValues++
			}
		}

		orderIDs[o.OrderID] = struct{}{}
		customers[o.CustomerID] = struct{}{}
		products[o.ProductID] = struct{}{}

		columns["Sales"] = append(columns["Sales"], o.Sales)
		columns["Quantity"] = append(columns["Quantity"], float64(o.Quantity))
		columns["Discount"] = append(columns["Discount"], o.Discount)
		columns["Profit"] = append(columns["Profit"], o.Profit)
	}

	for name, values := range columns {
		profile.Numeric[name] = numericStats(values)
	}
	profile.UniqueOrders = len(orderIDs)
	profile.UniqueCustomers = len(customers)
	profile.UniqueProducts = len(products)
	return profile
}

func numericStats(values []float64) NumericStats {
	if len(values) == 0 {
		return NumericStats{}
	}
	s := NumericStats{Min: values[0], Max: values[0]}
	sum := 0.0
	for _, v := range values {
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
		sum += v
	}
	s.Mean = sum / float64(len(values))
	return s
}
