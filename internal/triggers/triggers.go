// Package triggers evaluates the buy triggers of recorded operations against
// current catalog prices.
//
// Activated lists triggers whose target has been reached. Pending lists those
// still waiting for the price to fall. The HTTP surface calls pending
// triggers "active"; that name is kept there for compatibility only.
package triggers

import (
	"fmt"

	"investpulse/internal/calc"
	"investpulse/internal/models"
)

type OperationLister interface {
	List() []models.InvestmentOperation
}

type SecurityFinder interface {
	Find(id int64) (models.Security, bool)
}

type Service struct {
	operations OperationLister
	securities SecurityFinder
}

func NewService(operations OperationLister, securities SecurityFinder) *Service {
	return &Service{operations: operations, securities: securities}
}

// Activated returns, in ledger order, every trigger whose security currently
// trades at or below the target.
func (s *Service) Activated() []models.TriggerAlert {
	return s.collect(models.TriggerActivated)
}

// Pending returns, in ledger order, every trigger still above its target.
func (s *Service) Pending() []models.TriggerAlert {
	return s.collect(models.TriggerPending)
}

// Operations whose security is gone are skipped.
func (s *Service) collect(want models.TriggerState) []models.TriggerAlert {
	out := make([]models.TriggerAlert, 0)
	for _, op := range s.operations.List() {
		if !op.HasTrigger() {
			continue
		}
		sec, ok := s.securities.Find(op.SecurityID)
		if !ok {
			continue
		}
		if calc.ClassifyTrigger(op.TargetBuyPrice, sec.CurrentPrice) != want {
			continue
		}
		out = append(out, alert(op, sec, want))
	}
	return out
}

func alert(op models.InvestmentOperation, sec models.Security, state models.TriggerState) models.TriggerAlert {
	target := op.TargetBuyPrice.Decimal
	a := models.TriggerAlert{
		OperationID:    op.ID,
		SecurityTicker: sec.Ticker,
		SecurityName:   sec.Name,
		CurrentPrice:   sec.CurrentPrice,
		TargetPrice:    target,
	}
	switch state {
	case models.TriggerActivated:
		a.Message = fmt.Sprintf("TRIGGER FIRED! Time to buy more %s. Current price (%s) is at or below target (%s).",
			sec.Ticker, sec.CurrentPrice, target)
	case models.TriggerPending:
		a.Message = fmt.Sprintf("Waiting for %s to fall to $%s", sec.Ticker, target)
	}
	return a
}
