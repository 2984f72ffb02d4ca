// Package ledger records purchase operations. It validates drafts against the
// security catalog, assigns ids from a monotonic counter and reports the
// trigger state of each new operation.
package ledger

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"investpulse/internal/calc"
	"investpulse/internal/models"
)

type SecurityFinder interface {
	Find(id int64) (models.Security, bool)
}

type Store interface {
	ListOperations(ctx context.Context) ([]models.InvestmentOperation, error)
	InsertOperation(ctx context.Context, op models.InvestmentOperation) error
}

type Ledger struct {
	securities SecurityFinder
	store      Store
	now        func() time.Time

	mu     sync.RWMutex
	lastID int64
	ops    []models.InvestmentOperation
}

// Load builds a ledger over the operations already held by st. The id
// counter resumes after the highest stored id.
func Load(ctx context.Context, securities SecurityFinder, st Store) (*Ledger, error) {
	ops, err := st.ListOperations(ctx)
	if err != nil {
		return nil, fmt.Errorf("load operations: %w", err)
	}

	l := &Ledger{
		securities: securities,
		store:      st,
		now:        func() time.Time { return time.Now().UTC() },
		ops:        ops,
	}
	for _, op := range ops {
		if op.ID > l.lastID {
			l.lastID = op.ID
		}
	}
	return l, nil
}

// Validate checks a draft and returns the security it references.
func (l *Ledger) Validate(d models.OperationDraft) (models.Security, error) {
	if d.Quantity <= 0 {
		return models.Security{}, &ValidationError{
			Field: "quantity", Reason: ReasonInvalidQuantity,
			Value: strconv.FormatInt(d.Quantity, 10), Err: ErrInvalidQuantity,
		}
	}
	if !d.PurchasePricePerShare.IsPositive() {
		return models.Security{}, &ValidationError{
			Field: "purchasePricePerShare", Reason: ReasonInvalidPrice,
			Value: d.PurchasePricePerShare.String(), Err: ErrInvalidPrice,
		}
	}
	if d.Commission.IsNegative() {
		return models.Security{}, &ValidationError{
			Field: "commission", Reason: ReasonInvalidCommission,
			Value: d.Commission.String(), Err: ErrInvalidCommission,
		}
	}
	if d.TargetBuyPrice.Valid && !d.TargetBuyPrice.Decimal.IsPositive() {
		return models.Security{}, &ValidationError{
			Field: "targetBuyPrice", Reason: ReasonInvalidTarget,
			Value: d.TargetBuyPrice.Decimal.String(), Err: ErrInvalidTarget,
		}
	}
	sec, ok := l.securities.Find(d.SecurityID)
	if !ok {
		return models.Security{}, &ValidationError{
			Field: "securityId", Reason: ReasonSecurityNotFound,
			Value: strconv.FormatInt(d.SecurityID, 10), Err: ErrSecurityNotFound,
		}
	}
	return sec, nil
}

// Calculate validates a draft and prices it without recording anything.
func (l *Ledger) Calculate(d models.OperationDraft) (models.Calculation, error) {
	if _, err := l.Validate(d); err != nil {
		return models.Calculation{}, err
	}
	out := models.Calculation{
		TotalCost:      calc.TotalCost(d.Quantity, d.PurchasePricePerShare, d.Commission),
		HasTrigger:     d.TargetBuyPrice.Valid,
		TriggerMessage: "No trigger set",
	}
	if d.TargetBuyPrice.Valid {
		out.TriggerMessage = fmt.Sprintf("Trigger set at price: $%s", d.TargetBuyPrice.Decimal)
	}
	return out, nil
}

// Add records a draft. Either the operation is stored under a fresh id or
// nothing changes.
func (l *Ledger) Add(ctx context.Context, d models.OperationDraft) (models.AddResult, error) {
	if _, err := l.Validate(d); err != nil {
		return models.AddResult{}, err
	}

	l.mu.Lock()
	op := d.WithID(l.lastID+1, l.now())
	if err := l.store.InsertOperation(ctx, op); err != nil {
		l.mu.Unlock()
		return models.AddResult{}, fmt.Errorf("record operation: %w", err)
	}
	l.lastID = op.ID
	l.ops = append(l.ops, op)
	l.mu.Unlock()

	result := models.AddResult{
		Operation: op,
		Message:   "Operation added successfully!",
	}

	// The security was present at validation; read it again for the price
	// at the moment of insertion.
	if sec, ok := l.securities.Find(op.SecurityID); ok &&
		calc.ClassifyTrigger(op.TargetBuyPrice, sec.CurrentPrice) == models.TriggerActivated {
		result.TriggerActivated = true
		result.Message += fmt.Sprintf(" WARNING: trigger fired immediately. Current price (%s) is at or below target (%s).",
			sec.CurrentPrice, op.TargetBuyPrice.Decimal)
	}

	log.WithFields(log.Fields{
		"operation_id":      op.ID,
		"security_id":       op.SecurityID,
		"quantity":          op.Quantity,
		"trigger_activated": result.TriggerActivated,
	}).Info("operation recorded")

	return result, nil
}

// List returns the recorded operations in insertion order.
func (l *Ledger) List() []models.InvestmentOperation {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.InvestmentOperation, len(l.ops))
	copy(out, l.ops)
	return out
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.ops)
}

// ListWithDetails joins every operation with its security.
func (l *Ledger) ListWithDetails() []models.EnrichedOperation {
	ops := l.List()
	out := make([]models.EnrichedOperation, 0, len(ops))
	for _, op := range ops {
		sec, ok := l.securities.Find(op.SecurityID)
		out = append(out, Enrich(op, sec, ok))
	}
	return out
}

// Enrich builds the read model for op. When found is false the security
// fields stay nil.
func Enrich(op models.InvestmentOperation, sec models.Security, found bool) models.EnrichedOperation {
	e := models.EnrichedOperation{
		ID:                    op.ID,
		SecurityID:            op.SecurityID,
		Quantity:              op.Quantity,
		PurchasePricePerShare: op.PurchasePricePerShare,
		Commission:            op.Commission,
		TotalCost:             calc.TotalCost(op.Quantity, op.PurchasePricePerShare, op.Commission),
		TargetBuyPrice:        op.TargetBuyPrice,
		HasTrigger:            op.HasTrigger(),
	}
	if found {
		ticker, name := sec.Ticker, sec.Name
		e.SecurityTicker = &ticker
		e.SecurityName = &name
	}
	return e
}
