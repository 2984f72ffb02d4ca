// Package calc holds the pure cost and trigger computations. Inputs are
// assumed valid; the ledger checks them before calling in.
package calc

import (
	"github.com/shopspring/decimal"

	"investpulse/internal/models"
)

// TotalCost returns quantity * pricePerShare + commission.
func TotalCost(quantity int64, pricePerShare, commission decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(quantity).Mul(pricePerShare).Add(commission)
}

// ClassifyTrigger reports whether a buy trigger at target has fired for the
// given current price. A price equal to the target counts as activated.
func ClassifyTrigger(target decimal.NullDecimal, currentPrice decimal.Decimal) models.TriggerState {
	if !target.Valid {
		return models.TriggerNone
	}
	if currentPrice.LessThanOrEqual(target.Decimal) {
		return models.TriggerActivated
	}
	return models.TriggerPending
}
