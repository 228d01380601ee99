// Package inventory holds the product catalog behind the report pages and
// record exports.
package inventory

// Product is one stock keeping unit.
type Product struct {
	SKU           string  `csv:"sku" json:"sku" validate:"required,max=50"`
	Name          string  `csv:"name" json:"name" validate:"required,max=200"`
	Category      string  `csv:"category" json:"category" validate:"required"`
	Supplier      string  `csv:"supplier,omitempty" json:"supplier,omitempty"`
	PurchasePrice float64 `csv:"purchase_price" json:"purchase_price" validate:"gte=0"`
	SellingPrice  float64 `csv:"selling_price" json:"selling_price" validate:"gte=0"`
	StockQuantity int     `csv:"stock_quantity" json:"stock_quantity" validate:"gte=0"`
	MinimumStock  int     `csv:"minimum_stock" json:"minimum_stock" validate:"gte=0"`
}

// IsLowStock reports whether stock is at or below the minimum.
func (p Product) IsLowStock() bool {
	return p.StockQuantity <= p.MinimumStock
}

// RestockQuantity is how many units bring stock back up to the minimum.
func (p Product) RestockQuantity() int {
	return RestockQuantity(p.StockQuantity, p.MinimumStock)
}

// StockValue is stock on hand at purchase price.
func (p Product) StockValue() float64 {
	return p.PurchasePrice * float64(p.StockQuantity)
}

// RestockQuantity returns max(0, minimum-current).
func RestockQuantity(current, minimum int) int {
	if current >= minimum {
		return 0
	}
	return minimum - current
}
