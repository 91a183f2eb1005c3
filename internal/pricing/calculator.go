// Package pricing derives order totals from cart lines, current prices and a discount.
package pricing

import (
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

// TaxPercent is the flat tax applied to every order. Tax is rounded down to a whole unit.
const TaxPercent = 2

// MaxAmount bounds the pre-tax amount of one order
const MaxAmount int64 = 100_000_000_000_000_000

// Line is a priced order line
type Line struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	Total     int64  `json:"total"`
}

// Breakdown is the full amount computation for an order
type Breakdown struct {
	Lines      []Line          `json:"lines"`
	Amount     int64           `json:"amount"`
	Tax        int64           `json:"tax"`
	Subtotal   int64           `json:"subtotal"`
	Discount   decimal.Decimal `json:"discount_amount"`
	Final      decimal.Decimal `json:"final_amount"`
	Unresolved []string        `json:"unresolved,omitempty"`
}

// Tax returns floor(amount * TaxPercent / 100) without forming amount * TaxPercent
func Tax(amount int64) int64 {
	if amount <= 0 {
		return 0
	}
	return amount/100*TaxPercent + amount%100*TaxPercent/100
}

// Final returns max(0, subtotal - discount)
func Final(subtotal int64, discount decimal.Decimal) decimal.Decimal {
	final := decimal.NewFromInt(subtotal).Sub(discount)
	if final.IsNegative() {
		return decimal.Zero
	}
	return final
}

// Calculate prices items against prices and applies discount. Items whose product is
// missing from prices contribute nothing and are listed in Unresolved. An amount
// above MaxAmount fails with domain.ErrAmountTooLarge.
func Calculate(items []domain.OrderItem, prices domain.PriceIndex, discount decimal.Decimal) (Breakdown, error) {
	b := Breakdown{Lines: make([]Line, 0, len(items))}

	for _, it := range items {
		if it.Quantity <= 0 {
			continue
		}
		price, ok := prices[it.ProductID]
		if !ok {
			b.Unresolved = append(b.Unresolved, it.ProductID)
			continue
		}
		if price < 0 {
			return Breakdown{}, domain.ErrInvalidPrice
		}
		if price > MaxAmount/int64(it.Quantity) {
			return Breakdown{}, domain.ErrAmountTooLarge
		}
		line := Line{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: price,
			Total:     price * int64(it.Quantity),
		}
		if line.Total > MaxAmount-b.Amount {
			return Breakdown{}, domain.ErrAmountTooLarge
		}
		b.Lines = append(b.Lines, line)
		b.Amount += line.Total
	}

	if discount.IsNegative() {
		discount = decimal.Zero
	}

	b.Tax = Tax(b.Amount)
	b.Subtotal = b.Amount + b.Tax
	b.Discount = discount
	b.Final = Final(b.Subtotal, discount)
	return b, nil
}
