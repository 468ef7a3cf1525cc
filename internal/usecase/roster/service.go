package roster

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/chamahub/vsla-backend/internal/domain"
)

// Service covers the thin roster surface the ledger consumes: group
// formation, member enrollment and officer role assignment. Everything else
// about membership lives in external systems.
type Service struct {
	GroupRepo  domain.GroupRepository
	MemberRepo domain.MemberRepository

	log *logrus.Logger
}

// NewService creates a new roster service instance
func NewService(groupRepo domain.GroupRepository, memberRepo domain.MemberRepository, log *logrus.Logger) *Service {
	return &Service{
		GroupRepo:  groupRepo,
		MemberRepo: memberRepo,
		log:        log,
	}
}

// CreateGroup forms a new savings circle. Seed capital and the initial
// maintenance fund are fixed at formation.
func (s *Service) CreateGroup(ctx context.Context, name string, seedCapital, maintenanceFund decimal.Decimal) (*domain.Group, error) {
	group := &domain.Group{
		ID:                     uuid.New(),
		Name:                   name,
		SeedCapital:            seedCapital,
		InitialMaintenanceFund: maintenanceFund,
		MaintenanceFund:        maintenanceFund,
	}

	if err := group.Validate(); err != nil {
		return nil, err
	}

	if err := s.GroupRepo.Create(ctx, group); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"group_id": group.ID,
		"name":     group.Name,
	}).Info("Group created")

	return group, nil
}

// EnrollMember adds a person to a group as an ordinary member. The opening
// balance is immutable after enrollment; the cached current balance starts
// equal to it.
func (s *Service) EnrollMember(ctx context.Context, groupID uuid.UUID, name string, openingBalance decimal.Decimal) (*domain.Member, error) {
	if _, err := s.GroupRepo.GetByID(ctx, groupID); err != nil {
		return nil, err
	}

	member := &domain.Member{
		ID:             uuid.New(),
		GroupID:        groupID,
		Name:           name,
		Role:           domain.RoleMember,
		OpeningBalance: openingBalance,
		CurrentBalance: openingBalance,
	}

	if err := member.Validate(); err != nil {
		return nil, err
	}

	if err := s.MemberRepo.Create(ctx, member); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"member_id": member.ID,
		"group_id":  groupID,
	}).Info("Member enrolled")

	return member, nil
}

// AssignRole gives the member a role. Officer roles have a single active
// holder per group: the previous holder is demoted in the same atomic unit
// that promotes the new one.
func (s *Service) AssignRole(ctx context.Context, memberID uuid.UUID, role string) (*domain.Member, error) {
	r := domain.Role(role)
	if !r.Valid() {
		return nil, &domain.ValidationError{Field: "role", Reason: "must be one of member, chair, treasurer, secretary, loan_officer"}
	}

	member, err := s.MemberRepo.AssignRole(ctx, memberID, r)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"member_id": member.ID,
		"group_id":  member.GroupID,
		"role":      member.Role,
	}).Info("Role assigned")

	return member, nil
}

// ListMembers returns the group's roster.
func (s *Service) ListMembers(ctx context.Context, groupID uuid.UUID) ([]*domain.Member, error) {
	if _, err := s.GroupRepo.GetByID(ctx, groupID); err != nil {
		return nil, err
	}
	return s.MemberRepo.ListByGroup(ctx, groupID)
}
