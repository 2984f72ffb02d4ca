package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Security struct {
	ID           int64           `json:"id"`
	Ticker       string          `json:"ticker"`
	Name         string          `json:"name"`
	CurrentPrice decimal.Decimal `json:"currentPrice"`
}

// OperationDraft is a purchase operation as submitted by a client, before the
// ledger assigns it an id.
type OperationDraft struct {
	SecurityID            int64               `json:"securityId"`
	Quantity              int64               `json:"quantity"`
	PurchasePricePerShare decimal.Decimal     `json:"purchasePricePerShare"`
	Commission            decimal.Decimal     `json:"commission"`
	TargetBuyPrice        decimal.NullDecimal `json:"targetBuyPrice"`
}

type InvestmentOperation struct {
	ID                    int64               `json:"id"`
	SecurityID            int64               `json:"securityId"`
	Quantity              int64               `json:"quantity"`
	PurchasePricePerShare decimal.Decimal     `json:"purchasePricePerShare"`
	Commission            decimal.Decimal     `json:"commission"`
	TargetBuyPrice        decimal.NullDecimal `json:"targetBuyPrice"`
	CreatedAt             time.Time           `json:"createdAt"`
}

func (d OperationDraft) WithID(id int64, createdAt time.Time) InvestmentOperation {
	return InvestmentOperation{
		ID:                    id,
		SecurityID:            d.SecurityID,
		Quantity:              d.Quantity,
		PurchasePricePerShare: d.PurchasePricePerShare,
		Commission:            d.Commission,
		TargetBuyPrice:        d.TargetBuyPrice,
		CreatedAt:             createdAt,
	}
}

func (o InvestmentOperation) HasTrigger() bool {
	return o.TargetBuyPrice.Valid
}

type TriggerState string

const (
	TriggerNone      TriggerState = "none"
	TriggerActivated TriggerState = "activated"
	TriggerPending   TriggerState = "pending"
)

// EnrichedOperation is the read model joining an operation with its security.
// SecurityTicker and SecurityName are nil when the security is missing.
type EnrichedOperation struct {
	ID                    int64               `json:"id"`
	SecurityID            int64               `json:"securityId"`
	SecurityTicker        *string             `json:"securityTicker"`
	SecurityName          *string             `json:"securityName"`
	Quantity              int64               `json:"quantity"`
	PurchasePricePerShare decimal.Decimal     `json:"purchasePricePerShare"`
	Commission            decimal.Decimal     `json:"commission"`
	TotalCost             decimal.Decimal     `json:"totalCost"`
	TargetBuyPrice        decimal.NullDecimal `json:"targetBuyPrice"`
	HasTrigger            bool                `json:"hasTrigger"`
}

type TriggerAlert struct {
	OperationID    int64           `json:"operationId"`
	SecurityTicker string          `json:"securityTicker"`
	SecurityName   string          `json:"securityName"`
	CurrentPrice   decimal.Decimal `json:"currentPrice"`
	TargetPrice    decimal.Decimal `json:"targetPrice"`
	Message        string          `json:"message"`
}

type Calculation struct {
	TotalCost      decimal.Decimal `json:"totalCost"`
	HasTrigger     bool            `json:"hasTrigger"`
	TriggerMessage string          `json:"triggerMessage"`
}

type AddResult struct {
	Operation        InvestmentOperation `json:"operation"`
	Message          string              `json:"message"`
	TriggerActivated bool                `json:"triggerActivated"`
}

type PriceUpdate struct {
	SecurityID int64           `json:"securityId"`
	Ticker     string          `json:"ticker"`
	OldPrice   decimal.Decimal `json:"oldPrice"`
	NewPrice   decimal.Decimal `json:"newPrice"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}
