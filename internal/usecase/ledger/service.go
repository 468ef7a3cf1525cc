package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/chamahub/vsla-backend/internal/domain"
)

// RecordInput represents the input for recording a ledger transaction
type RecordInput struct {
	GroupID     uuid.UUID
	MemberID    *uuid.UUID
	Type        string
	Amount      decimal.Decimal
	Description string

	RepaymentDueDate *time.Time
	InterestRate     *decimal.Decimal
	WorkCategory     string
	DaysWorked       *int
	VendorName       string
	SaleReference    string
}

// Service is the ledger writer: it validates a transaction request and
// persists the record together with its aggregate side effects as one atomic
// unit.
type Service struct {
	GroupRepo       domain.GroupRepository
	MemberRepo      domain.MemberRepository
	TransactionRepo domain.TransactionRepository

	// StipendDailyRate is the authoritative per-day rate for stipend
	// transactions. The client-supplied amount is a display hint only and
	// must equal days_worked × rate.
	StipendDailyRate decimal.Decimal

	log *logrus.Logger
}

// NewService creates a new ledger writer instance
func NewService(
	groupRepo domain.GroupRepository,
	memberRepo domain.MemberRepository,
	transactionRepo domain.TransactionRepository,
	stipendDailyRate decimal.Decimal,
	log *logrus.Logger,
) *Service {
	return &Service{
		GroupRepo:        groupRepo,
		MemberRepo:       memberRepo,
		TransactionRepo:  transactionRepo,
		StipendDailyRate: stipendDailyRate,
		log:              log,
	}
}

// Record validates the request and writes the transaction record plus its
// balance effect in one all-or-nothing unit. On any failure nothing is
// committed, so the caller may safely retry the whole request.
func (s *Service) Record(ctx context.Context, input RecordInput) (*domain.TransactionRecord, error) {
	typ := domain.TransactionType(input.Type)
	if !typ.Valid() {
		return nil, &domain.InvalidTypeError{Type: input.Type}
	}

	if _, err := s.GroupRepo.GetByID(ctx, input.GroupID); err != nil {
		return nil, err
	}

	if typ.MemberLevel() {
		if input.MemberID == nil || *input.MemberID == uuid.Nil {
			return nil, &domain.ValidationError{Field: "member_id", Reason: "is required for " + input.Type}
		}
		member, err := s.MemberRepo.GetByID(ctx, *input.MemberID)
		if err != nil {
			return nil, err
		}
		if member.GroupID != input.GroupID {
			return nil, &domain.ValidationError{Field: "member_id", Reason: "does not belong to the stated group"}
		}
	}

	rec := &domain.TransactionRecord{
		ID:               uuid.New(),
		GroupID:          input.GroupID,
		MemberID:         input.MemberID,
		Type:             typ,
		Amount:           input.Amount,
		Description:      input.Description,
		RepaymentDueDate: input.RepaymentDueDate,
		InterestRate:     input.InterestRate,
		WorkCategory:     input.WorkCategory,
		DaysWorked:       input.DaysWorked,
		VendorName:       input.VendorName,
		SaleReference:    input.SaleReference,
	}

	if err := rec.Validate(); err != nil {
		return nil, err
	}

	// Stipend amounts are recomputed server-side from the authoritative
	// daily rate; the client value is never trusted.
	if typ == domain.TypeStipend {
		expected := s.StipendDailyRate.Mul(decimal.NewFromInt(int64(*rec.DaysWorked)))
		if !rec.Amount.Equal(expected) {
			return nil, &domain.ValidationError{
				Field:  "amount",
				Reason: "must equal days_worked × daily rate (" + expected.String() + ")",
			}
		}
	}

	if err := s.TransactionRepo.CreateWithEffects(ctx, rec); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"transaction_id": rec.ID,
		"group_id":       rec.GroupID,
		"type":           rec.Type,
		"amount":         rec.Amount.String(),
	}).Info("Transaction recorded")

	return rec, nil
}

// ListGroupTransactions returns the group's records, most recent first.
func (s *Service) ListGroupTransactions(ctx context.Context, groupID uuid.UUID, limit, offset int) ([]*domain.TransactionRecord, error) {
	if limit <= 0 {
		return nil, &domain.ValidationError{Field: "limit", Reason: "must be positive"}
	}
	if offset < 0 {
		return nil, &domain.ValidationError{Field: "offset", Reason: "must be non-negative"}
	}

	if _, err := s.GroupRepo.GetByID(ctx, groupID); err != nil {
		return nil, err
	}

	return s.TransactionRepo.ListByGroup(ctx, groupID, limit, offset)
}
