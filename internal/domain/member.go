package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Role represents a member's function within their group.
type Role string

const (
	RoleMember      Role = "member"
	RoleChair       Role = "chair"
	RoleTreasurer   Role = "treasurer"
	RoleSecretary   Role = "secretary"
	RoleLoanOfficer Role = "loan_officer"
)

// Valid reports whether r is one of the recognized roles.
func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleChair, RoleTreasurer, RoleSecretary, RoleLoanOfficer:
		return true
	}
	return false
}

// Officer reports whether r is an officer role, of which each group has at
// most one active holder.
func (r Role) Officer() bool {
	return r.Valid() && r != RoleMember
}

// Member is a person's association with exactly one group for its VSLA
// lifetime. CurrentBalance is a cached projection of the member's transaction
// history: it must always equal OpeningBalance plus the sum of
// balance-affecting transactions, and is re-derivable from the log.
type Member struct {
	ID             uuid.UUID
	GroupID        uuid.UUID
	Name           string
	Role           Role
	OpeningBalance decimal.Decimal
	CurrentBalance decimal.Decimal
	CreatedAt      time.Time
}

// Validate ensures the member adheres to domain rules.
func (m *Member) Validate() error {
	if m.Name == "" {
		return &ValidationError{Field: "name", Reason: "cannot be empty"}
	}
	if m.GroupID == uuid.Nil {
		return &ValidationError{Field: "group_id", Reason: "is required"}
	}
	if !m.Role.Valid() {
		return &ValidationError{Field: "role", Reason: "must be one of member, chair, treasurer, secretary, loan_officer"}
	}
	if m.OpeningBalance.IsNegative() {
		return &ValidationError{Field: "opening_balance", Reason: "cannot be negative"}
	}
	return nil
}
