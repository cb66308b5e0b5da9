package models

import "time"

// SuperstoreOrder is one line of the Sample Superstore dataset.
type SuperstoreOrder struct {
	RowID        int
	OrderID      string
	OrderDate    time.Time
	ShipDate     time.Time
	ShipMode     string
	CustomerID   string
	CustomerName string
	Segment      string
	Country      string
	City         string
	State        string
	PostalCode   string
	Region       string
	ProductID    string
	Category     string
	SubCategory  string
	ProductName  string
	Sales        float64
	Quantity     int
	Discount     float64
	Profit       float64
}

// SuperstoreColumns lists the dataset headers in file and table order.
var SuperstoreColumns = []string{
	"Row ID", "Order ID", "Order Date", "Ship Date", "Ship Mode",
	"Customer ID", "Customer Name", "Segment", "Country", "City",
	"State", "Postal Code", "Region", "Product ID", "Category",
	"Sub-Category", "Product Name", "Sales", "Quantity", "Discount", "Profit",
}

// Values returns the order as a row matching SuperstoreColumns.
func (o SuperstoreOrder) Values() []any {
	return []any{
		o.RowID, o.OrderID, o.OrderDate, o.ShipDate, o.ShipMode,
		o.CustomerID, o.CustomerName, o.Segment, o.Country, o.City,
		o.State, o.PostalCode, o.Region, o.ProductID, o.Category,
		o.SubCategory, o.ProductName, o.Sales, o.Quantity, o.Discount, o.Profit,
	}
}
