package store

import (
	"testing"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

type moneyDoc struct {
	Amount decimal.Decimal `bson:"amount"`
}

func TestDecimalStoredAsDecimal128(t *testing.T) {
	reg := NewRegistry()
	in := moneyDoc{Amount: decimal.RequireFromString("2360.45")}

	data, err := bson.MarshalWithRegistry(reg, in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if typ := bson.Raw(data).Lookup("amount").Type; typ != bsontype.Decimal128 {
		t.Fatalf("amount stored as %v, want decimal128", typ)
	}

	var out moneyDoc
	if err := bson.UnmarshalWithRegistry(reg, data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !out.Amount.Equal(in.Amount) {
		t.Errorf("amount = %s, want %s", out.Amount, in.Amount)
	}
}

func TestDecimalDecodesLegacyNumbers(t *testing.T) {
	reg := NewRegistry()
	tests := []struct {
		name  string
		value interface{}
		want  string
	}{
		{"double", 12.5, "12.5"},
		{"int32", int32(7), "7"},
		{"int64", int64(9000000000), "9000000000"},
		{"string", "99.99", "99.99"},
		{"null", nil, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := bson.Marshal(bson.M{"amount": tt.value})
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var out moneyDoc
			if err := bson.UnmarshalWithRegistry(reg, data, &out); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if !out.Amount.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("amount = %s, want %s", out.Amount, tt.want)
			}
		})
	}
}
