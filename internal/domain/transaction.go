package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is the closed set of financial events the ledger records.
type TransactionType string

const (
	TypeSavings            TransactionType = "savings"
	TypeLoanDisbursement   TransactionType = "loan_disbursement"
	TypeLoanRepayment      TransactionType = "loan_repayment"
	TypeStipend            TransactionType = "stipend"
	TypeMaintenanceExpense TransactionType = "maintenance_expense"
	TypeInputRepayment     TransactionType = "input_repayment"
)

// Valid reports whether t is one of the recognized transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeSavings, TypeLoanDisbursement, TypeLoanRepayment,
		TypeStipend, TypeMaintenanceExpense, TypeInputRepayment:
		return true
	}
	return false
}

// MemberLevel reports whether t must reference a member of the group.
// maintenance_expense is the only group-level type.
func (t TransactionType) MemberLevel() bool {
	return t.Valid() && t != TypeMaintenanceExpense
}

// TransactionRecord is the immutable, append-only fact describing one
// financial event. Corrections are made by issuing offsetting records,
// never by editing history. InsertSeq is assigned by the store and breaks
// creation-timestamp ties when replaying the log.
type TransactionRecord struct {
	ID          uuid.UUID
	GroupID     uuid.UUID
	MemberID    *uuid.UUID // nil for group-level types
	Type        TransactionType
	Amount      decimal.Decimal
	Description string
	CreatedAt   time.Time
	InsertSeq   int64

	// Type-specific fields.
	RepaymentDueDate *time.Time       // loan_disbursement
	InterestRate     *decimal.Decimal // loan_disbursement, display/scheduling only
	WorkCategory     string           // stipend
	DaysWorked       *int             // stipend
	VendorName       string           // maintenance_expense
	SaleReference    string           // input_repayment
}

// Validate ensures the record adheres to the type-specific field rules.
// It assumes Type has already been checked with Valid().
func (r *TransactionRecord) Validate() error {
	if !r.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Reason: "must be a positive amount"}
	}
	if r.GroupID == uuid.Nil {
		return &ValidationError{Field: "group_id", Reason: "is required"}
	}
	if r.Type.MemberLevel() {
		if r.MemberID == nil || *r.MemberID == uuid.Nil {
			return &ValidationError{Field: "member_id", Reason: "is required for " + string(r.Type)}
		}
	} else if r.MemberID != nil {
		return &ValidationError{Field: "member_id", Reason: "must be empty for " + string(r.Type)}
	}

	switch r.Type {
	case TypeLoanDisbursement:
		if r.RepaymentDueDate == nil {
			return &ValidationError{Field: "repayment_due_date", Reason: "is required for loan_disbursement"}
		}
		if r.InterestRate == nil {
			return &ValidationError{Field: "interest_rate", Reason: "is required for loan_disbursement"}
		}
		if r.InterestRate.IsNegative() {
			return &ValidationError{Field: "interest_rate", Reason: "must not be negative"}
		}
	case TypeStipend:
		if r.WorkCategory == "" {
			return &ValidationError{Field: "work_category", Reason: "is required for stipend"}
		}
		if r.DaysWorked == nil || *r.DaysWorked <= 0 {
			return &ValidationError{Field: "days_worked", Reason: "must be a positive day count"}
		}
	case TypeMaintenanceExpense:
		if r.VendorName == "" {
			return &ValidationError{Field: "vendor_name", Reason: "is required for maintenance_expense"}
		}
	case TypeInputRepayment:
		if r.SaleReference == "" {
			return &ValidationError{Field: "sale_reference", Reason: "is required for input_repayment"}
		}
	}

	return nil
}

// BalanceDelta returns the signed change this record applies to the member's
// current balance. Only savings credit the member: loan money moves between
// the borrower and the shared pool in both directions, so neither a
// disbursement nor a repayment touches the savings balance, and
// stipend/input_repayment are recorded for history only.
func (r *TransactionRecord) BalanceDelta() decimal.Decimal {
	if r.Type == TypeSavings {
		return r.Amount
	}
	return decimal.Zero
}

// MaintenanceDelta returns the signed change this record applies to the
// group's maintenance fund.
func (r *TransactionRecord) MaintenanceDelta() decimal.Decimal {
	if r.Type == TypeMaintenanceExpense {
		return r.Amount.Neg()
	}
	return decimal.Zero
}
