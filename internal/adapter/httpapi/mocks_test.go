package httpapi

import (
	"context"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"github.com/chamahub/vsla-backend/internal/domain"
	"github.com/chamahub/vsla-backend/internal/usecase/ledger"
	"github.com/chamahub/vsla-backend/internal/usecase/metrics"
	"github.com/chamahub/vsla-backend/internal/usecase/projector"
	"github.com/chamahub/vsla-backend/internal/usecase/reconciler"
	"github.com/chamahub/vsla-backend/internal/usecase/roster"
)

const testSecret = "test-secret"

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testToken() string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "field-officer",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, _ := token.SignedString([]byte(testSecret))
	return signed
}

// testEnv wires the real services onto mocked repositories behind the router.
type testEnv struct {
	GroupRepo  *MockGroupRepository
	MemberRepo *MockMemberRepository
	TxRepo     *MockTransactionRepository
	Handler    *Handler
}

func newTestEnv() *testEnv {
	groupRepo := new(MockGroupRepository)
	memberRepo := new(MockMemberRepository)
	txRepo := new(MockTransactionRepository)
	log := testLogger()

	ledgerSvc := ledger.NewService(groupRepo, memberRepo, txRepo, decimal.NewFromInt(500), log)
	projectorSvc := projector.NewService(groupRepo, memberRepo, txRepo, log)
	metricsSvc := metrics.NewService(groupRepo, memberRepo, txRepo, metrics.FullAttendance{}, decimal.NewFromInt(50000))
	rosterSvc := roster.NewService(groupRepo, memberRepo, log)
	reconcilerSvc := reconciler.NewService(groupRepo, memberRepo, projectorSvc, log)

	return &testEnv{
		GroupRepo:  groupRepo,
		MemberRepo: memberRepo,
		TxRepo:     txRepo,
		Handler:    NewHandler(ledgerSvc, metricsSvc, rosterSvc, projectorSvc, reconcilerSvc, log),
	}
}

// MockGroupRepository is a mock implementation of GroupRepository for testing
type MockGroupRepository struct {
	mock.Mock
}

func (m *MockGroupRepository) Create(ctx context.Context, group *domain.Group) error {
	args := m.Called(ctx, group)
	return args.Error(0)
}

func (m *MockGroupRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Group, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Group), args.Error(1)
}

func (m *MockGroupRepository) List(ctx context.Context) ([]*domain.Group, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Group), args.Error(1)
}

// MockMemberRepository is a mock implementation of MemberRepository for testing
type MockMemberRepository struct {
	mock.Mock
}

func (m *MockMemberRepository) Create(ctx context.Context, member *domain.Member) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockMemberRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Member, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Member), args.Error(1)
}

func (m *MockMemberRepository) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]*domain.Member, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Member), args.Error(1)
}

func (m *MockMemberRepository) AssignRole(ctx context.Context, memberID uuid.UUID, role domain.Role) (*domain.Member, error) {
	args := m.Called(ctx, memberID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Member), args.Error(1)
}

func (m *MockMemberRepository) SetCurrentBalance(ctx context.Context, memberID uuid.UUID, balance decimal.Decimal) error {
	args := m.Called(ctx, memberID, balance)
	return args.Error(0)
}

// MockTransactionRepository is a mock implementation of TransactionRepository for testing
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) CreateWithEffects(ctx context.Context, rec *domain.TransactionRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockTransactionRepository) ListByGroup(ctx context.Context, groupID uuid.UUID, limit, offset int) ([]*domain.TransactionRecord, error) {
	args := m.Called(ctx, groupID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TransactionRecord), args.Error(1)
}

func (m *MockTransactionRepository) ListByMember(ctx context.Context, memberID uuid.UUID) ([]*domain.TransactionRecord, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TransactionRecord), args.Error(1)
}

func (m *MockTransactionRepository) ListByGroupAndType(ctx context.Context, groupID uuid.UUID, t domain.TransactionType) ([]*domain.TransactionRecord, error) {
	args := m.Called(ctx, groupID, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TransactionRecord), args.Error(1)
}

func (m *MockTransactionRepository) Snapshot(ctx context.Context, groupID uuid.UUID) (*domain.LedgerSnapshot, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerSnapshot), args.Error(1)
}

func (m *MockTransactionRepository) LoanTotalsByMember(ctx context.Context, groupID uuid.UUID) (map[uuid.UUID]domain.LoanTotals, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]domain.LoanTotals), args.Error(1)
}
