package metrics

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chamahub/vsla-backend/internal/domain"
	"github.com/chamahub/vsla-backend/internal/usecase/trust"
)

// GroupMetrics represents a group's financial health figures. TotalSavings
// deliberately includes the group's seed capital: the figure presents the
// visible pool, not just accumulated member contributions. ActiveBorrowers
// counts members with any historical disbursement, an approximation that does
// not subtract fully repaid loans.
type GroupMetrics struct {
	TotalSavings        decimal.Decimal
	ActiveLoanPortfolio decimal.Decimal
	MaintenanceFund     decimal.Decimal
	SeedCapital         decimal.Decimal
	ActiveBorrowers     int
}

// MemberSummary is one row of the per-member financial summary.
type MemberSummary struct {
	Member         *domain.Member
	CurrentBalance decimal.Decimal
	RepaymentRate  float64
	AttendanceRate float64
	TrustScore     int
}

// AttendanceSource supplies meeting-attendance rates. Attendance tracking
// lives outside the ledger core; this is the seam it is consumed through.
type AttendanceSource interface {
	// AttendanceRate returns the member's attendance as a percentage in [0, 100].
	AttendanceRate(ctx context.Context, memberID uuid.UUID) (float64, error)
}

// FullAttendance reports full attendance for every member. Used when no
// attendance feed is wired so trust scores degrade gracefully.
type FullAttendance struct{}

func (FullAttendance) AttendanceRate(ctx context.Context, memberID uuid.UUID) (float64, error) {
	return 100, nil
}

// Service computes group-wide financial health figures and per-member
// summaries on demand. Pull-based and read-only: it never mutates state.
type Service struct {
	GroupRepo       domain.GroupRepository
	MemberRepo      domain.MemberRepository
	TransactionRepo domain.TransactionRepository
	Attendance      AttendanceSource
	SavingsCeiling  decimal.Decimal
}

// NewService creates a new metrics aggregator instance
func NewService(
	groupRepo domain.GroupRepository,
	memberRepo domain.MemberRepository,
	transactionRepo domain.TransactionRepository,
	attendance AttendanceSource,
	savingsCeiling decimal.Decimal,
) *Service {
	return &Service{
		GroupRepo:       groupRepo,
		MemberRepo:      memberRepo,
		TransactionRepo: transactionRepo,
		Attendance:      attendance,
		SavingsCeiling:  savingsCeiling,
	}
}

// GroupMetrics computes the group's figures from one consistent snapshot of
// the log: a concurrent write is observed either fully or not at all.
func (s *Service) GroupMetrics(ctx context.Context, groupID uuid.UUID) (*GroupMetrics, error) {
	snap, err := s.TransactionRepo.Snapshot(ctx, groupID)
	if err != nil {
		return nil, err
	}

	portfolio := snap.DisbursedTotal.Sub(snap.RepaidTotal)
	if portfolio.IsNegative() {
		// A group cannot show negative outstanding debt.
		portfolio = decimal.Zero
	}

	return &GroupMetrics{
		TotalSavings:        snap.SavingsTotal.Add(snap.SeedCapital),
		ActiveLoanPortfolio: portfolio,
		MaintenanceFund:     snap.MaintenanceFund,
		SeedCapital:         snap.SeedCapital,
		ActiveBorrowers:     snap.ActiveBorrowers,
	}, nil
}

// MemberFinancialSummaries returns, for every member of the group, the cached
// balance plus the derived repayment rate and trust score. Members with no
// disbursement have nothing to default on and score a full repayment rate.
func (s *Service) MemberFinancialSummaries(ctx context.Context, groupID uuid.UUID) ([]*MemberSummary, error) {
	if _, err := s.GroupRepo.GetByID(ctx, groupID); err != nil {
		return nil, err
	}

	members, err := s.MemberRepo.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	loanTotals, err := s.TransactionRepo.LoanTotalsByMember(ctx, groupID)
	if err != nil {
		return nil, err
	}

	summaries := make([]*MemberSummary, 0, len(members))
	for _, member := range members {
		repaymentRate := 100.0
		if lt, ok := loanTotals[member.ID]; ok && lt.Disbursed.IsPositive() {
			repaymentRate = lt.Repaid.
				Div(lt.Disbursed).
				Mul(decimal.NewFromInt(100)).
				InexactFloat64()
			if repaymentRate > 100 {
				repaymentRate = 100
			}
			if repaymentRate < 0 {
				repaymentRate = 0
			}
		}

		attendanceRate, err := s.Attendance.AttendanceRate(ctx, member.ID)
		if err != nil {
			return nil, err
		}

		summaries = append(summaries, &MemberSummary{
			Member:         member,
			CurrentBalance: member.CurrentBalance,
			RepaymentRate:  repaymentRate,
			AttendanceRate: attendanceRate,
			TrustScore:     trust.ScoreWithCeiling(member.CurrentBalance, repaymentRate, attendanceRate, s.SavingsCeiling),
		})
	}

	return summaries, nil
}
