package projector

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/chamahub/vsla-backend/internal/domain"
)

// Service recomputes running totals by replaying the transaction log. Cached
// aggregates are a materialized view of that log; the projector is the
// authority used to verify them and to rebuild them after suspected
// corruption (e.g. a bulk import).
type Service struct {
	GroupRepo       domain.GroupRepository
	MemberRepo      domain.MemberRepository
	TransactionRepo domain.TransactionRepository

	log *logrus.Logger
}

// NewService creates a new projector instance
func NewService(
	groupRepo domain.GroupRepository,
	memberRepo domain.MemberRepository,
	transactionRepo domain.TransactionRepository,
	log *logrus.Logger,
) *Service {
	return &Service{
		GroupRepo:       groupRepo,
		MemberRepo:      memberRepo,
		TransactionRepo: transactionRepo,
		log:             log,
	}
}

// MemberBalance folds the member's balance-affecting records, in creation
// order, over the immutable opening balance. Pure function of the log:
// invoking it any number of times with no intervening writes yields the same
// result.
func (s *Service) MemberBalance(ctx context.Context, memberID uuid.UUID) (decimal.Decimal, error) {
	member, err := s.MemberRepo.GetByID(ctx, memberID)
	if err != nil {
		return decimal.Zero, err
	}
	return s.projectMember(ctx, member)
}

func (s *Service) projectMember(ctx context.Context, member *domain.Member) (decimal.Decimal, error) {
	records, err := s.TransactionRepo.ListByMember(ctx, member.ID)
	if err != nil {
		return decimal.Zero, err
	}

	balance := member.OpeningBalance
	for _, rec := range records {
		balance = balance.Add(rec.BalanceDelta())
	}
	return balance, nil
}

// GroupMaintenanceFund recomputes the group's maintenance fund from its
// immutable initial value minus all recorded maintenance expenses.
func (s *Service) GroupMaintenanceFund(ctx context.Context, groupID uuid.UUID) (decimal.Decimal, error) {
	group, err := s.GroupRepo.GetByID(ctx, groupID)
	if err != nil {
		return decimal.Zero, err
	}
	return s.projectGroupFund(ctx, group)
}

func (s *Service) projectGroupFund(ctx context.Context, group *domain.Group) (decimal.Decimal, error) {
	expenses, err := s.TransactionRepo.ListByGroupAndType(ctx, group.ID, domain.TypeMaintenanceExpense)
	if err != nil {
		return decimal.Zero, err
	}

	fund := group.InitialMaintenanceFund
	for _, rec := range expenses {
		fund = fund.Add(rec.MaintenanceDelta())
	}
	return fund, nil
}

// ReconcileMember compares the member's cached balance against the projected
// one and returns an InvariantViolation on drift. It never corrects the
// cached value; RebuildMemberBalance is the explicit, audited recovery path.
func (s *Service) ReconcileMember(ctx context.Context, memberID uuid.UUID) error {
	member, err := s.MemberRepo.GetByID(ctx, memberID)
	if err != nil {
		return err
	}

	projected, err := s.projectMember(ctx, member)
	if err != nil {
		return err
	}

	if !member.CurrentBalance.Equal(projected) {
		return &domain.InvariantViolation{
			Entity:    "member",
			Ref:       member.ID.String(),
			Cached:    member.CurrentBalance,
			Projected: projected,
		}
	}
	return nil
}

// ReconcileGroupFund compares the group's cached maintenance fund against the
// projected one.
func (s *Service) ReconcileGroupFund(ctx context.Context, groupID uuid.UUID) error {
	group, err := s.GroupRepo.GetByID(ctx, groupID)
	if err != nil {
		return err
	}

	projected, err := s.projectGroupFund(ctx, group)
	if err != nil {
		return err
	}

	if !group.MaintenanceFund.Equal(projected) {
		return &domain.InvariantViolation{
			Entity:    "group",
			Ref:       group.ID.String(),
			Cached:    group.MaintenanceFund,
			Projected: projected,
		}
	}
	return nil
}

// RebuildMemberBalance overwrites the cached balance with the projection.
// The correction is logged so drift recovery always leaves an audit trail.
func (s *Service) RebuildMemberBalance(ctx context.Context, memberID uuid.UUID) (decimal.Decimal, error) {
	member, err := s.MemberRepo.GetByID(ctx, memberID)
	if err != nil {
		return decimal.Zero, err
	}

	projected, err := s.projectMember(ctx, member)
	if err != nil {
		return decimal.Zero, err
	}

	if err := s.MemberRepo.SetCurrentBalance(ctx, memberID, projected); err != nil {
		return decimal.Zero, err
	}

	s.log.WithFields(logrus.Fields{
		"member_id": memberID,
		"cached":    member.CurrentBalance.String(),
		"projected": projected.String(),
	}).Warn("Cached member balance rebuilt from transaction log")

	return projected, nil
}
