package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	models "github.com/phillip/event-ledger-go/models"
)

const moneyPlaces = 2

var hundred = decimal.NewFromInt(100)

// Totals holds every monetary field of an invoice derived from its items.
type Totals struct {
	Items          []models.LineItem `json:"items"`
	Subtotal       decimal.Decimal   `json:"subtotal"`
	DiscountAmount decimal.Decimal   `json:"discount_amount"`
	TaxableAmount  decimal.Decimal   `json:"taxable_amount"`
	TaxAmount      decimal.Decimal   `json:"tax_amount"`
	Total          decimal.Decimal   `json:"total"`
}

// CalculateTotals is the only place invoice money fields are computed. Item
// amounts are recomputed from quantity and unit price; whatever amount the
// caller supplied is discarded.
func CalculateTotals(items []models.LineItem, taxRate, discount decimal.Decimal, discountType models.DiscountType) (Totals, error) {
	if len(items) == 0 {
		return Totals{}, NewValidationError("items", "invoice must have at least one line item")
	}
	if taxRate.IsNegative() || taxRate.GreaterThan(hundred) {
		return Totals{}, NewValidationError("tax_rate", "must be between 0 and 100")
	}
	if discount.IsNegative() {
		return Totals{}, NewValidationError("discount", "cannot be negative")
	}

	out := Totals{Items: make([]models.LineItem, len(items))}
	subtotal := decimal.Zero
	for i, item := range items {
		if !item.Quantity.IsPositive() {
			return Totals{}, NewValidationError(fmt.Sprintf("items[%d].quantity", i), "must be greater than 0")
		}
		if item.UnitPrice.IsNegative() {
			return Totals{}, NewValidationError(fmt.Sprintf("items[%d].unit_price", i), "cannot be negative")
		}
		amount := item.Quantity.Mul(item.UnitPrice).Round(moneyPlaces)
		out.Items[i] = models.LineItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      amount,
		}
		subtotal = subtotal.Add(amount)
	}

	var discountAmount decimal.Decimal
	switch discountType {
	case models.DiscountPercentage:
		discountAmount = subtotal.Mul(discount).Div(hundred).Round(moneyPlaces)
		if discountAmount.GreaterThan(subtotal) {
			discountAmount = subtotal
		}
	case models.DiscountFixed, "":
		if discount.GreaterThan(subtotal) {
			return Totals{}, NewValidationError("discount", fmt.Sprintf("fixed discount %s exceeds subtotal %s",
				discount.StringFixed(2), subtotal.StringFixed(2)))
		}
		discountAmount = discount.Round(moneyPlaces)
	default:
		return Totals{}, NewValidationError("discount_type", fmt.Sprintf("unknown discount type %q", discountType))
	}

	taxable := subtotal.Sub(discountAmount)
	if taxable.IsNegative() {
		return Totals{}, NewValidationError("discount", "taxable amount cannot be negative")
	}
	tax := taxable.Mul(taxRate).Div(hundred).Round(moneyPlaces)

	out.Subtotal = subtotal
	out.DiscountAmount = discountAmount
	out.TaxableAmount = taxable
	out.TaxAmount = tax
	out.Total = taxable.Add(tax)
	return out, nil
}

// applyTotals copies calculator output onto the invoice and refreshes the balance.
func applyTotals(inv *models.Invoice, t Totals) {
	inv.Items = t.Items
	inv.Subtotal = t.Subtotal
	inv.DiscountAmount = t.DiscountAmount
	inv.TaxableAmount = t.TaxableAmount
	inv.TaxAmount = t.TaxAmount
	inv.Total = t.Total
	inv.BalanceAmount = t.Total.Sub(inv.PaidAmount)
}
