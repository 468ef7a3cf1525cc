package reconciler

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/chamahub/vsla-backend/internal/domain"
	"github.com/chamahub/vsla-backend/internal/usecase/projector"
)

// Service sweeps cached aggregates against the transaction log and surfaces
// drift. It only ever reports: correcting a drifted balance is an explicit,
// audited operator action via the projector's rebuild.
type Service struct {
	GroupRepo  domain.GroupRepository
	MemberRepo domain.MemberRepository
	Projector  *projector.Service

	log *logrus.Logger
}

// NewService creates a new reconciler instance
func NewService(
	groupRepo domain.GroupRepository,
	memberRepo domain.MemberRepository,
	proj *projector.Service,
	log *logrus.Logger,
) *Service {
	return &Service{
		GroupRepo:  groupRepo,
		MemberRepo: memberRepo,
		Projector:  proj,
		log:        log,
	}
}

// ReconcileGroup checks the maintenance fund and every member balance of one
// group, returning all detected violations.
func (s *Service) ReconcileGroup(ctx context.Context, groupID uuid.UUID) ([]*domain.InvariantViolation, error) {
	violations := make([]*domain.InvariantViolation, 0)

	if err := s.Projector.ReconcileGroupFund(ctx, groupID); err != nil {
		var violation *domain.InvariantViolation
		if !errors.As(err, &violation) {
			return nil, err
		}
		violations = append(violations, violation)
	}

	members, err := s.MemberRepo.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	for _, member := range members {
		if err := s.Projector.ReconcileMember(ctx, member.ID); err != nil {
			var violation *domain.InvariantViolation
			if !errors.As(err, &violation) {
				return nil, err
			}
			violations = append(violations, violation)
		}
	}

	for _, v := range violations {
		s.log.WithFields(logrus.Fields{
			"entity":    v.Entity,
			"ref":       v.Ref,
			"cached":    v.Cached.String(),
			"projected": v.Projected.String(),
		}).Error("Invariant violation detected")
	}

	return violations, nil
}

// Sweep reconciles every group.
func (s *Service) Sweep(ctx context.Context) ([]*domain.InvariantViolation, error) {
	groups, err := s.GroupRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	all := make([]*domain.InvariantViolation, 0)
	for _, group := range groups {
		violations, err := s.ReconcileGroup(ctx, group.ID)
		if err != nil {
			return nil, err
		}
		all = append(all, violations...)
	}

	s.log.WithFields(logrus.Fields{
		"groups":     len(groups),
		"violations": len(all),
	}).Info("Reconciliation sweep finished")

	return all, nil
}

// Schedule runs Sweep on the given cron spec (e.g. "@every 1h") and returns
// the started scheduler so the caller can stop it on shutdown.
func (s *Service) Schedule(spec string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if _, err := s.Sweep(context.Background()); err != nil {
			s.log.Errorf("Reconciliation sweep failed: %v", err)
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
