package utils

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/phillip/event-ledger-go/models"
)

func TestGenerateETag(t *testing.T) {
	id := primitive.NewObjectID()
	at := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	a := GenerateETag(id, at, "pending")
	if a != GenerateETag(id, at, "pending") {
		t.Error("etag is not stable")
	}
	if a == GenerateETag(id, at, "overdue") {
		t.Error("etag ignores derived status")
	}
	if a == GenerateETag(id, at.Add(time.Second), "pending") {
		t.Error("etag ignores updated_at")
	}
	if !strings.HasPrefix(a, `W/"`) {
		t.Errorf("etag %s is not weak", a)
	}
}

func TestSanitizeText(t *testing.T) {
	tests := map[string]string{
		"  plain  ":                        "plain",
		"<script>alert(1)</script>Advance": "Advance",
		"<b>Tom & Jerry</b> catering":      "Tom & Jerry catering",
		`<a href="http://x">link</a> text`: "link text",
	}
	for in, want := range tests {
		if got := SanitizeText(in); got != want {
			t.Errorf("SanitizeText(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitizeTextEncodedMarkup(t *testing.T) {
	for _, in := range []string{
		"&lt;script&gt;alert(1)&lt;/script&gt;",
		"&lt;img src=x onerror=alert(1)&gt;",
		"&amp;lt;b&amp;gt;bold&amp;lt;/b&amp;gt;",
		"&amp;amp;lt;i&amp;amp;gt;deep",
	} {
		got := SanitizeText(in)
		if strings.ContainsAny(got, "<>") {
			t.Errorf("SanitizeText(%q) = %q, markup survived", in, got)
		}
	}

	if got := SanitizeText("a &lt; b &amp; c"); got != "a < b & c" {
		t.Errorf("plain entities = %q", got)
	}
}

func TestParseDate(t *testing.T) {
	for _, in := range []string{"2025-03-10", "2025-03-10T09:30:00Z", "2025-03-10 09:30"} {
		got, err := ParseDate(in)
		if err != nil {
			t.Errorf("ParseDate(%q): %v", in, err)
			continue
		}
		if got.Year() != 2025 || got.Month() != time.March || got.Day() != 10 {
			t.Errorf("ParseDate(%q) = %v", in, got)
		}
	}
	if _, err := ParseDate("10/03/2025"); err == nil {
		t.Error("expected error for unsupported layout")
	}

	if got, err := ParseOptionalDate(nil); got != nil || err != nil {
		t.Errorf("nil input = %v, %v", got, err)
	}
	empty := ""
	if got, err := ParseOptionalDate(&empty); got != nil || err != nil {
		t.Errorf("empty input = %v, %v", got, err)
	}
}

func TestRenderInvoicePDF(t *testing.T) {
	due := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	inv := &models.Invoice{
		InvoiceNumber: "INV-2025-0001",
		Currency:      "INR",
		Items: []models.LineItem{
			{Description: "Décor", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(500), Amount: decimal.NewFromInt(1000)},
		},
		TaxRate:       decimal.NewFromInt(18),
		Subtotal:      decimal.NewFromInt(1000),
		TaxAmount:     decimal.NewFromInt(180),
		Total:         decimal.NewFromInt(1180),
		BalanceAmount: decimal.NewFromInt(1180),
		Status:        models.InvoiceSent,
		IssueDate:     time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		DueDate:       &due,
		Notes:         "Thank you",
	}

	doc, err := RenderInvoicePDF(inv, InvoiceParty{Name: "Asha Sharma", Email: "asha@example.com"})
	if err != nil {
		t.Fatalf("RenderInvoicePDF: %v", err)
	}
	if !bytes.HasPrefix(doc, []byte("%PDF-")) {
		t.Errorf("output does not look like a PDF")
	}
}
