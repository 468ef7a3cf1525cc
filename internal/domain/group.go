package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Group represents one savings circle. SeedCapital is a fixed one-time
// injection at formation and never changes afterwards. MaintenanceFund is a
// running balance debited by maintenance-expense transactions; its initial
// value is kept immutably so the current value can always be re-derived from
// the transaction log.
type Group struct {
	ID                     uuid.UUID
	Name                   string
	SeedCapital            decimal.Decimal
	InitialMaintenanceFund decimal.Decimal
	MaintenanceFund        decimal.Decimal
	CreatedAt              time.Time
}

// Validate ensures the group adheres to domain rules.
func (g *Group) Validate() error {
	if g.Name == "" {
		return &ValidationError{Field: "name", Reason: "cannot be empty"}
	}
	if g.SeedCapital.IsNegative() {
		return &ValidationError{Field: "seed_capital", Reason: "cannot be negative"}
	}
	if g.InitialMaintenanceFund.IsNegative() {
		return &ValidationError{Field: "maintenance_fund", Reason: "cannot be negative"}
	}
	return nil
}
