package calc

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"investpulse/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func target(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(dec(s))
}

func TestTotalCost(t *testing.T) {
	tests := []struct {
		name       string
		quantity   int64
		price      string
		commission string
		want       string
	}{
		{"whole numbers", 10, "165.0", "5.0", "1655"},
		{"no commission", 3, "0.1", "0", "0.3"},
		{"fractional commission", 7, "0.1", "0.2", "0.9"},
		{"large quantity", 1000000, "123.4567", "9.99", "123456709.99"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TotalCost(tt.quantity, dec(tt.price), dec(tt.commission))
			assert.Truef(t, got.Equal(dec(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestClassifyTrigger(t *testing.T) {
	tests := []struct {
		name    string
		target  decimal.NullDecimal
		current string
		want    models.TriggerState
	}{
		{"no target", decimal.NullDecimal{}, "170", models.TriggerNone},
		{"price below target", target("175"), "170", models.TriggerActivated},
		{"price equals target", target("170.00"), "170", models.TriggerActivated},
		{"price above target", target("150"), "170", models.TriggerPending},
		{"one cent above", target("169.99"), "170", models.TriggerPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyTrigger(tt.target, dec(tt.current)))
		})
	}
}
