package order

import "github.com/shopspring/decimal"

// Tax rate applied to every line subtotal.
var taxRate = decimal.New(12, -2) // 0.12

// Price computes the subtotal and tax for quantity units at unitPrice.
// Tax is 12% of the subtotal, rounded half-up to two decimal places.
// Pure; the caller rejects quantity <= 0 before invoking.
func Price(quantity int, unitPrice decimal.Decimal) (subtotal, tax decimal.Decimal) {
	subtotal = unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	tax = subtotal.Mul(taxRate).Round(2)
	return subtotal, tax
}
