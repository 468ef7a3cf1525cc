package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chamahub/vsla-backend/internal/domain"
)

// transactionRepository implements domain.TransactionRepository
type transactionRepository struct {
	db *DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *DB) domain.TransactionRepository {
	return &transactionRepository{db: db}
}

const transactionColumns = `
	id, insert_seq, group_id, member_id, type, amount, description,
	repayment_due_date, interest_rate, work_category, days_worked,
	vendor_name, sale_reference, created_at`

// CreateWithEffects inserts the record and applies its aggregate side effects
// in one database transaction. The balance change is a single
// `current_balance = current_balance + delta` statement, so the row-level
// lock serializes concurrent writers for the same member and no update can
// be lost. A failure at any step rolls back the whole unit: neither the
// record nor the balance change survives.
func (r *transactionRepository) CreateWithEffects(ctx context.Context, rec *domain.TransactionRecord) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.PersistenceError{Op: "begin ledger write", Err: err}
	}
	defer dbTx.Rollback()

	insertQuery := `
		INSERT INTO transactions (
			id, group_id, member_id, type, amount, description,
			repayment_due_date, interest_rate, work_category, days_worked,
			vendor_name, sale_reference
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING insert_seq, created_at
	`

	var memberID interface{}
	if rec.MemberID != nil {
		memberID = *rec.MemberID
	}
	var interestRate interface{}
	if rec.InterestRate != nil {
		interestRate = rec.InterestRate.String()
	}

	err = dbTx.QueryRowContext(ctx, insertQuery,
		rec.ID,
		rec.GroupID,
		memberID,
		string(rec.Type),
		rec.Amount.String(),
		rec.Description,
		rec.RepaymentDueDate,
		interestRate,
		rec.WorkCategory,
		rec.DaysWorked,
		rec.VendorName,
		rec.SaleReference,
	).Scan(&rec.InsertSeq, &rec.CreatedAt)
	if err != nil {
		return &domain.PersistenceError{Op: "insert transaction record", Err: err}
	}

	if delta := rec.BalanceDelta(); !delta.IsZero() {
		res, err := dbTx.ExecContext(ctx,
			`UPDATE members SET current_balance = current_balance + $1 WHERE id = $2`,
			delta.String(), *rec.MemberID,
		)
		if err != nil {
			return &domain.PersistenceError{Op: "apply member balance delta", Err: err}
		}
		if err := requireOneRow(res); err != nil {
			return &domain.NotFoundError{Entity: "member", Ref: rec.MemberID.String()}
		}
	}

	if delta := rec.MaintenanceDelta(); !delta.IsZero() {
		res, err := dbTx.ExecContext(ctx,
			`UPDATE vsla_groups SET maintenance_fund = maintenance_fund + $1 WHERE id = $2`,
			delta.String(), rec.GroupID,
		)
		if err != nil {
			return &domain.PersistenceError{Op: "apply maintenance fund delta", Err: err}
		}
		if err := requireOneRow(res); err != nil {
			return &domain.NotFoundError{Entity: "group", Ref: rec.GroupID.String()}
		}
	}

	if err := dbTx.Commit(); err != nil {
		return &domain.PersistenceError{Op: "commit ledger write", Err: err}
	}

	return nil
}

// ListByGroup retrieves the group's records, most recent first
func (r *transactionRepository) ListByGroup(ctx context.Context, groupID uuid.UUID, limit, offset int) ([]*domain.TransactionRecord, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE group_id = $1
		ORDER BY created_at DESC, insert_seq DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, groupID, limit, offset)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "list group transactions", Err: err}
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// ListByMember retrieves the member's records in creation order, ties broken
// by insertion sequence
func (r *transactionRepository) ListByMember(ctx context.Context, memberID uuid.UUID) ([]*domain.TransactionRecord, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE member_id = $1
		ORDER BY created_at, insert_seq
	`

	rows, err := r.db.QueryContext(ctx, query, memberID)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "list member transactions", Err: err}
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// ListByGroupAndType retrieves the group's records of one type in creation order
func (r *transactionRepository) ListByGroupAndType(ctx context.Context, groupID uuid.UUID, t domain.TransactionType) ([]*domain.TransactionRecord, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE group_id = $1 AND type = $2
		ORDER BY created_at, insert_seq
	`

	rows, err := r.db.QueryContext(ctx, query, groupID, string(t))
	if err != nil {
		return nil, &domain.PersistenceError{Op: "list transactions by type", Err: err}
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// Snapshot reads all metrics inputs from one repeatable-read, read-only
// database transaction: a concurrent ledger write is observed either fully or
// not at all, never half-way.
func (r *transactionRepository) Snapshot(ctx context.Context, groupID uuid.UUID) (*domain.LedgerSnapshot, error) {
	dbTx, err := r.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelRepeatableRead,
		ReadOnly:  true,
	})
	if err != nil {
		return nil, &domain.PersistenceError{Op: "begin metrics snapshot", Err: err}
	}
	defer dbTx.Rollback()

	var snap domain.LedgerSnapshot
	var seedStr, fundStr string

	err = dbTx.QueryRowContext(ctx,
		`SELECT seed_capital, maintenance_fund FROM vsla_groups WHERE id = $1`,
		groupID,
	).Scan(&seedStr, &fundStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "group", Ref: groupID.String()}
	}
	if err != nil {
		return nil, &domain.PersistenceError{Op: "read group aggregates", Err: err}
	}

	var savingsStr, disbursedStr, repaidStr string
	err = dbTx.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE type = 'savings'), 0),
			COALESCE(SUM(amount) FILTER (WHERE type = 'loan_disbursement'), 0),
			COALESCE(SUM(amount) FILTER (WHERE type = 'loan_repayment'), 0),
			COUNT(DISTINCT member_id) FILTER (WHERE type = 'loan_disbursement')
		FROM transactions
		WHERE group_id = $1
	`, groupID).Scan(&savingsStr, &disbursedStr, &repaidStr, &snap.ActiveBorrowers)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "aggregate transaction log", Err: err}
	}

	if err := dbTx.Commit(); err != nil {
		return nil, &domain.PersistenceError{Op: "commit metrics snapshot", Err: err}
	}

	if snap.SeedCapital, err = decimal.NewFromString(seedStr); err != nil {
		return nil, fmt.Errorf("failed to parse seed_capital: %w", err)
	}
	if snap.MaintenanceFund, err = decimal.NewFromString(fundStr); err != nil {
		return nil, fmt.Errorf("failed to parse maintenance_fund: %w", err)
	}
	if snap.SavingsTotal, err = decimal.NewFromString(savingsStr); err != nil {
		return nil, fmt.Errorf("failed to parse savings total: %w", err)
	}
	if snap.DisbursedTotal, err = decimal.NewFromString(disbursedStr); err != nil {
		return nil, fmt.Errorf("failed to parse disbursed total: %w", err)
	}
	if snap.RepaidTotal, err = decimal.NewFromString(repaidStr); err != nil {
		return nil, fmt.Errorf("failed to parse repaid total: %w", err)
	}

	return &snap, nil
}

// LoanTotalsByMember returns per-member lifetime disbursed/repaid sums
func (r *transactionRepository) LoanTotalsByMember(ctx context.Context, groupID uuid.UUID) (map[uuid.UUID]domain.LoanTotals, error) {
	query := `
		SELECT member_id,
			COALESCE(SUM(amount) FILTER (WHERE type = 'loan_disbursement'), 0),
			COALESCE(SUM(amount) FILTER (WHERE type = 'loan_repayment'), 0)
		FROM transactions
		WHERE group_id = $1
		  AND member_id IS NOT NULL
		  AND type IN ('loan_disbursement', 'loan_repayment')
		GROUP BY member_id
	`

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "aggregate loan totals", Err: err}
	}
	defer rows.Close()

	totals := make(map[uuid.UUID]domain.LoanTotals)
	for rows.Next() {
		var memberID uuid.UUID
		var disbursedStr, repaidStr string
		if err := rows.Scan(&memberID, &disbursedStr, &repaidStr); err != nil {
			return nil, &domain.PersistenceError{Op: "scan loan totals", Err: err}
		}

		var lt domain.LoanTotals
		if lt.Disbursed, err = decimal.NewFromString(disbursedStr); err != nil {
			return nil, fmt.Errorf("failed to parse disbursed sum: %w", err)
		}
		if lt.Repaid, err = decimal.NewFromString(repaidStr); err != nil {
			return nil, fmt.Errorf("failed to parse repaid sum: %w", err)
		}
		totals[memberID] = lt
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: "iterate loan totals", Err: err}
	}

	return totals, nil
}

func requireOneRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected != 1 {
		return sql.ErrNoRows
	}
	return nil
}

func collectTransactions(rows *sql.Rows) ([]*domain.TransactionRecord, error) {
	records := make([]*domain.TransactionRecord, 0)
	for rows.Next() {
		rec, err := scanTransaction(rows)
		if err != nil {
			return nil, &domain.PersistenceError{Op: "scan transaction record", Err: err}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: "iterate transaction records", Err: err}
	}
	return records, nil
}

func scanTransaction(row rowScanner) (*domain.TransactionRecord, error) {
	var rec domain.TransactionRecord
	var memberID sql.NullString
	var typ string
	var amountStr string
	var dueDate sql.NullTime
	var interestStr sql.NullString
	var daysWorked sql.NullInt64

	if err := row.Scan(
		&rec.ID,
		&rec.InsertSeq,
		&rec.GroupID,
		&memberID,
		&typ,
		&amountStr,
		&rec.Description,
		&dueDate,
		&interestStr,
		&rec.WorkCategory,
		&daysWorked,
		&rec.VendorName,
		&rec.SaleReference,
		&rec.CreatedAt,
	); err != nil {
		return nil, err
	}

	rec.Type = domain.TransactionType(typ)

	var err error
	if rec.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return nil, fmt.Errorf("failed to parse amount: %w", err)
	}

	if memberID.Valid {
		id, err := uuid.Parse(memberID.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse member_id: %w", err)
		}
		rec.MemberID = &id
	}
	if dueDate.Valid {
		rec.RepaymentDueDate = &dueDate.Time
	}
	if interestStr.Valid {
		rate, err := decimal.NewFromString(interestStr.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse interest_rate: %w", err)
		}
		rec.InterestRate = &rate
	}
	if daysWorked.Valid {
		days := int(daysWorked.Int64)
		rec.DaysWorked = &days
	}

	return &rec, nil
}
