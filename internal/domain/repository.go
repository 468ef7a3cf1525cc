package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerSnapshot holds the group-wide figures the metrics aggregator needs,
// read from a single consistent snapshot of the log. ActiveBorrowers counts
// distinct members with at least one loan disbursement, regardless of whether
// the loan has since been fully repaid (documented approximation).
type LedgerSnapshot struct {
	SeedCapital     decimal.Decimal
	MaintenanceFund decimal.Decimal
	SavingsTotal    decimal.Decimal
	DisbursedTotal  decimal.Decimal
	RepaidTotal     decimal.Decimal
	ActiveBorrowers int
}

// LoanTotals holds a single member's lifetime disbursed and repaid amounts.
type LoanTotals struct {
	Disbursed decimal.Decimal
	Repaid    decimal.Decimal
}

// GroupRepository defines the interface for group persistence operations.
type GroupRepository interface {
	// Create creates a new group.
	Create(ctx context.Context, group *Group) error

	// GetByID retrieves a group by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*Group, error)

	// List retrieves all groups.
	List(ctx context.Context) ([]*Group, error)
}

// MemberRepository defines the interface for member persistence operations.
type MemberRepository interface {
	// Create enrolls a new member into a group.
	Create(ctx context.Context, member *Member) error

	// GetByID retrieves a member by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*Member, error)

	// ListByGroup retrieves all members of a group.
	ListByGroup(ctx context.Context, groupID uuid.UUID) ([]*Member, error)

	// AssignRole sets the member's role. For officer roles the previous
	// holder within the same group is demoted to an ordinary member in the
	// same atomic unit, keeping at most one active holder per role.
	AssignRole(ctx context.Context, memberID uuid.UUID, role Role) (*Member, error)

	// SetCurrentBalance overwrites the cached balance. Reserved for drift
	// recovery after reconciliation; ordinary writes go through
	// TransactionRepository.CreateWithEffects.
	SetCurrentBalance(ctx context.Context, memberID uuid.UUID, balance decimal.Decimal) error
}

// TransactionRepository defines the interface for transaction persistence.
type TransactionRepository interface {
	// CreateWithEffects inserts the record and applies its aggregate side
	// effects (member balance increment or group maintenance-fund decrement)
	// as one atomic unit. A failure at any step leaves no partial state.
	CreateWithEffects(ctx context.Context, rec *TransactionRecord) error

	// ListByGroup retrieves the group's records, most recent first.
	ListByGroup(ctx context.Context, groupID uuid.UUID, limit, offset int) ([]*TransactionRecord, error)

	// ListByMember retrieves the member's records in creation order, ties
	// broken by insertion sequence. Used by the balance projector.
	ListByMember(ctx context.Context, memberID uuid.UUID) ([]*TransactionRecord, error)

	// ListByGroupAndType retrieves the group's records of one type in
	// creation order.
	ListByGroupAndType(ctx context.Context, groupID uuid.UUID, t TransactionType) ([]*TransactionRecord, error)

	// Snapshot reads all metrics inputs for a group from one consistent
	// snapshot of the log.
	Snapshot(ctx context.Context, groupID uuid.UUID) (*LedgerSnapshot, error)

	// LoanTotalsByMember returns per-member lifetime disbursed/repaid sums
	// for a group.
	LoanTotalsByMember(ctx context.Context, groupID uuid.UUID) (map[uuid.UUID]LoanTotals, error)
}
