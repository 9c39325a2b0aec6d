package ledger

import (
	"testing"

	"github.com/shopspring/decimal"

	models "github.com/phillip/event-ledger-go/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleItems() []models.LineItem {
	return []models.LineItem{
		{Description: "Decor", Quantity: dec("2"), UnitPrice: dec("500")},
		{Description: "Catering", Quantity: dec("1"), UnitPrice: dec("1000")},
	}
}

func TestCalculateTotals(t *testing.T) {
	tests := []struct {
		name         string
		taxRate      string
		discount     string
		discountType models.DiscountType
		subtotal     string
		discountAmt  string
		taxable      string
		tax          string
		total        string
	}{
		{"no discount", "18", "0", models.DiscountFixed, "2000", "0", "2000", "360", "2360"},
		{"percentage discount", "18", "10", models.DiscountPercentage, "2000", "200", "1800", "324", "2124"},
		{"fixed discount", "18", "500", models.DiscountFixed, "2000", "500", "1500", "270", "1770"},
		{"empty discount type is fixed", "0", "250", "", "2000", "250", "1750", "0", "1750"},
		{"percentage over 100 clamps to subtotal", "18", "150", models.DiscountPercentage, "2000", "2000", "0", "0", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateTotals(sampleItems(), dec(tt.taxRate), dec(tt.discount), tt.discountType)
			if err != nil {
				t.Fatalf("CalculateTotals: %v", err)
			}
			check := func(field string, got decimal.Decimal, want string) {
				if !got.Equal(dec(want)) {
					t.Errorf("%s = %s, want %s", field, got, want)
				}
			}
			check("subtotal", got.Subtotal, tt.subtotal)
			check("discount", got.DiscountAmount, tt.discountAmt)
			check("taxable", got.TaxableAmount, tt.taxable)
			check("tax", got.TaxAmount, tt.tax)
			check("total", got.Total, tt.total)
		})
	}
}

func TestCalculateTotalsRecomputesItemAmounts(t *testing.T) {
	items := []models.LineItem{
		{Description: "Lights", Quantity: dec("3"), UnitPrice: dec("33.335"), Amount: dec("1")},
	}
	got, err := CalculateTotals(items, decimal.Zero, decimal.Zero, models.DiscountFixed)
	if err != nil {
		t.Fatalf("CalculateTotals: %v", err)
	}
	if !got.Items[0].Amount.Equal(dec("100.01")) {
		t.Errorf("item amount = %s, want 100.01", got.Items[0].Amount)
	}
	if !items[0].Amount.Equal(dec("1")) {
		t.Errorf("input item was modified")
	}
}

func TestCalculateTotalsRoundsTax(t *testing.T) {
	items := []models.LineItem{{Description: "Stage", Quantity: dec("1"), UnitPrice: dec("99.99")}}
	got, err := CalculateTotals(items, dec("18"), decimal.Zero, models.DiscountFixed)
	if err != nil {
		t.Fatalf("CalculateTotals: %v", err)
	}
	// 99.99 * 0.18 = 17.9982
	if !got.TaxAmount.Equal(dec("18.00")) || !got.Total.Equal(dec("117.99")) {
		t.Errorf("tax = %s total = %s, want 18.00 and 117.99", got.TaxAmount, got.Total)
	}
}

func TestCalculateTotalsRejectsBadInput(t *testing.T) {
	tests := []struct {
		name         string
		items        []models.LineItem
		taxRate      string
		discount     string
		discountType models.DiscountType
		field        string
	}{
		{"no items", nil, "0", "0", models.DiscountFixed, "items"},
		{"negative tax", sampleItems(), "-1", "0", models.DiscountFixed, "tax_rate"},
		{"tax over 100", sampleItems(), "101", "0", models.DiscountFixed, "tax_rate"},
		{"negative discount", sampleItems(), "0", "-5", models.DiscountFixed, "discount"},
		{"fixed discount over subtotal", sampleItems(), "0", "2000.01", models.DiscountFixed, "discount"},
		{"unknown discount type", sampleItems(), "0", "1", "bogus", "discount_type"},
		{"zero quantity", []models.LineItem{{Quantity: dec("0"), UnitPrice: dec("10")}}, "0", "0", "", "items[0].quantity"},
		{"negative price", []models.LineItem{{Quantity: dec("1"), UnitPrice: dec("-10")}}, "0", "0", "", "items[0].unit_price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CalculateTotals(tt.items, dec(tt.taxRate), dec(tt.discount), tt.discountType)
			ve, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("field = %q, want %q", ve.Field, tt.field)
			}
		})
	}
}
