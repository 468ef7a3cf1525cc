package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/chamahub/vsla-backend/internal/domain"
	"github.com/chamahub/vsla-backend/internal/usecase/ledger"
	"github.com/chamahub/vsla-backend/internal/usecase/metrics"
	"github.com/chamahub/vsla-backend/internal/usecase/projector"
	"github.com/chamahub/vsla-backend/internal/usecase/reconciler"
	"github.com/chamahub/vsla-backend/internal/usecase/roster"
)

// Handler exposes the ledger use cases over HTTP.
type Handler struct {
	Ledger     *ledger.Service
	Metrics    *metrics.Service
	Roster     *roster.Service
	Projector  *projector.Service
	Reconciler *reconciler.Service

	log *logrus.Logger
}

// NewHandler creates a new HTTP handler instance
func NewHandler(
	ledgerSvc *ledger.Service,
	metricsSvc *metrics.Service,
	rosterSvc *roster.Service,
	projectorSvc *projector.Service,
	reconcilerSvc *reconciler.Service,
	log *logrus.Logger,
) *Handler {
	return &Handler{
		Ledger:     ledgerSvc,
		Metrics:    metricsSvc,
		Roster:     rosterSvc,
		Projector:  projectorSvc,
		Reconciler: reconcilerSvc,
		log:        log,
	}
}

type recordTransactionRequest struct {
	GroupID     string `json:"group_id"`
	MemberID    string `json:"member_id,omitempty"`
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`

	RepaymentDueDate *time.Time `json:"repayment_due_date,omitempty"`
	InterestRate     string     `json:"interest_rate,omitempty"`
	WorkCategory     string     `json:"work_category,omitempty"`
	DaysWorked       *int       `json:"days_worked,omitempty"`
	VendorName       string     `json:"vendor_name,omitempty"`
	SaleReference    string     `json:"sale_reference,omitempty"`
}

type transactionResponse struct {
	ID          string    `json:"id"`
	GroupID     string    `json:"group_id"`
	MemberID    *string   `json:"member_id,omitempty"`
	Type        string    `json:"type"`
	Amount      string    `json:"amount"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`

	RepaymentDueDate *time.Time `json:"repayment_due_date,omitempty"`
	InterestRate     *string    `json:"interest_rate,omitempty"`
	WorkCategory     string     `json:"work_category,omitempty"`
	DaysWorked       *int       `json:"days_worked,omitempty"`
	VendorName       string     `json:"vendor_name,omitempty"`
	SaleReference    string     `json:"sale_reference,omitempty"`
}

func toTransactionResponse(rec *domain.TransactionRecord) transactionResponse {
	resp := transactionResponse{
		ID:               rec.ID.String(),
		GroupID:          rec.GroupID.String(),
		Type:             string(rec.Type),
		Amount:           rec.Amount.String(),
		Description:      rec.Description,
		CreatedAt:        rec.CreatedAt,
		RepaymentDueDate: rec.RepaymentDueDate,
		WorkCategory:     rec.WorkCategory,
		DaysWorked:       rec.DaysWorked,
		VendorName:       rec.VendorName,
		SaleReference:    rec.SaleReference,
	}
	if rec.MemberID != nil {
		id := rec.MemberID.String()
		resp.MemberID = &id
	}
	if rec.InterestRate != nil {
		rate := rec.InterestRate.String()
		resp.InterestRate = &rate
	}
	return resp
}

// RecordTransaction handles POST /api/transactions
func (h *Handler) RecordTransaction(w http.ResponseWriter, r *http.Request) {
	var req recordTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &domain.ValidationError{Field: "body", Reason: "is not valid JSON"})
		return
	}

	groupID, err := uuid.Parse(req.GroupID)
	if err != nil {
		writeError(w, &domain.ValidationError{Field: "group_id", Reason: "is not a valid UUID"})
		return
	}

	input := ledger.RecordInput{
		GroupID:          groupID,
		Type:             req.Type,
		Description:      req.Description,
		RepaymentDueDate: req.RepaymentDueDate,
		WorkCategory:     req.WorkCategory,
		DaysWorked:       req.DaysWorked,
		VendorName:       req.VendorName,
		SaleReference:    req.SaleReference,
	}

	if req.MemberID != "" {
		memberID, err := uuid.Parse(req.MemberID)
		if err != nil {
			writeError(w, &domain.ValidationError{Field: "member_id", Reason: "is not a valid UUID"})
			return
		}
		input.MemberID = &memberID
	}

	if input.Amount, err = decimal.NewFromString(req.Amount); err != nil {
		writeError(w, &domain.ValidationError{Field: "amount", Reason: "is not a valid number"})
		return
	}

	if req.InterestRate != "" {
		rate, err := decimal.NewFromString(req.InterestRate)
		if err != nil {
			writeError(w, &domain.ValidationError{Field: "interest_rate", Reason: "is not a valid number"})
			return
		}
		input.InterestRate = &rate
	}

	rec, err := h.Ledger.Record(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTransactionResponse(rec))
}

// ListTransactions handles GET /api/groups/{id}/transactions
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	records, err := h.Ledger.ListGroupTransactions(r.Context(), groupID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]transactionResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, toTransactionResponse(rec))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"transactions": resp})
}

// GroupMetrics handles GET /api/groups/{id}/metrics
func (h *Handler) GroupMetrics(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	m, err := h.Metrics.GroupMetrics(r.Context(), groupID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total_savings":         m.TotalSavings.String(),
		"active_loan_portfolio": m.ActiveLoanPortfolio.String(),
		"maintenance_fund":      m.MaintenanceFund.String(),
		"seed_capital":          m.SeedCapital.String(),
		"active_borrowers":      m.ActiveBorrowers,
	})
}

// MemberSummaries handles GET /api/groups/{id}/members/summary
func (h *Handler) MemberSummaries(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	summaries, err := h.Metrics.MemberFinancialSummaries(r.Context(), groupID)
	if err != nil {
		writeError(w, err)
		return
	}

	type summaryJSON struct {
		MemberID       string  `json:"member_id"`
		Name           string  `json:"name"`
		Role           string  `json:"role"`
		CurrentBalance string  `json:"current_balance"`
		RepaymentRate  float64 `json:"repayment_rate"`
		AttendanceRate float64 `json:"attendance_rate"`
		TrustScore     int     `json:"trust_score"`
	}

	resp := make([]summaryJSON, 0, len(summaries))
	for _, s := range summaries {
		resp = append(resp, summaryJSON{
			MemberID:       s.Member.ID.String(),
			Name:           s.Member.Name,
			Role:           string(s.Member.Role),
			CurrentBalance: s.CurrentBalance.String(),
			RepaymentRate:  s.RepaymentRate,
			AttendanceRate: s.AttendanceRate,
			TrustScore:     s.TrustScore,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"members": resp})
}

type createGroupRequest struct {
	Name            string `json:"name"`
	SeedCapital     string `json:"seed_capital"`
	MaintenanceFund string `json:"maintenance_fund"`
}

// CreateGroup handles POST /api/groups
func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &domain.ValidationError{Field: "body", Reason: "is not valid JSON"})
		return
	}

	seed, err := decimal.NewFromString(req.SeedCapital)
	if err != nil {
		writeError(w, &domain.ValidationError{Field: "seed_capital", Reason: "is not a valid number"})
		return
	}
	fund, err := decimal.NewFromString(req.MaintenanceFund)
	if err != nil {
		writeError(w, &domain.ValidationError{Field: "maintenance_fund", Reason: "is not a valid number"})
		return
	}

	group, err := h.Roster.CreateGroup(r.Context(), req.Name, seed, fund)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":               group.ID.String(),
		"name":             group.Name,
		"seed_capital":     group.SeedCapital.String(),
		"maintenance_fund": group.MaintenanceFund.String(),
		"created_at":       group.CreatedAt,
	})
}

type enrollMemberRequest struct {
	Name           string `json:"name"`
	OpeningBalance string `json:"opening_balance"`
}

// EnrollMember handles POST /api/groups/{id}/members
func (h *Handler) EnrollMember(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req enrollMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &domain.ValidationError{Field: "body", Reason: "is not valid JSON"})
		return
	}

	opening := decimal.Zero
	if req.OpeningBalance != "" {
		if opening, err = decimal.NewFromString(req.OpeningBalance); err != nil {
			writeError(w, &domain.ValidationError{Field: "opening_balance", Reason: "is not a valid number"})
			return
		}
	}

	member, err := h.Roster.EnrollMember(r.Context(), groupID, req.Name, opening)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, memberJSON(member))
}

type assignRoleRequest struct {
	Role string `json:"role"`
}

// AssignRole handles POST /api/members/{id}/role
func (h *Handler) AssignRole(w http.ResponseWriter, r *http.Request) {
	memberID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req assignRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &domain.ValidationError{Field: "body", Reason: "is not valid JSON"})
		return
	}

	member, err := h.Roster.AssignRole(r.Context(), memberID, req.Role)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, memberJSON(member))
}

// ReconcileGroup handles POST /api/groups/{id}/reconcile
func (h *Handler) ReconcileGroup(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	violations, err := h.Reconciler.ReconcileGroup(r.Context(), groupID)
	if err != nil {
		writeError(w, err)
		return
	}

	type violationJSON struct {
		Entity    string `json:"entity"`
		Ref       string `json:"ref"`
		Cached    string `json:"cached"`
		Projected string `json:"projected"`
	}

	resp := make([]violationJSON, 0, len(violations))
	for _, v := range violations {
		resp = append(resp, violationJSON{
			Entity:    v.Entity,
			Ref:       v.Ref,
			Cached:    v.Cached.String(),
			Projected: v.Projected.String(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"violations": resp})
}

// RebuildMemberBalance handles POST /api/members/{id}/balance/rebuild
func (h *Handler) RebuildMemberBalance(w http.ResponseWriter, r *http.Request) {
	memberID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	balance, err := h.Projector.RebuildMemberBalance(r.Context(), memberID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"member_id":       memberID.String(),
		"current_balance": balance.String(),
	})
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func memberJSON(member *domain.Member) map[string]interface{} {
	return map[string]interface{}{
		"id":              member.ID.String(),
		"group_id":        member.GroupID.String(),
		"name":            member.Name,
		"role":            string(member.Role),
		"opening_balance": member.OpeningBalance.String(),
		"current_balance": member.CurrentBalance.String(),
		"created_at":      member.CreatedAt,
	}
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		return uuid.Nil, &domain.ValidationError{Field: name, Reason: "is not a valid UUID"}
	}
	return id, nil
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
