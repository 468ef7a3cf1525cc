package postgres

import "database/sql"

// migrations contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// IMPORTANT: vsla_groups must be created BEFORE members and transactions due
// to foreign key constraints. insert_seq breaks creation-timestamp ties when
// replaying the log.
const schema = `
CREATE TABLE IF NOT EXISTS vsla_groups (
    id UUID PRIMARY KEY,
    name TEXT NOT NULL,
    seed_capital NUMERIC(14,2) NOT NULL,
    initial_maintenance_fund NUMERIC(14,2) NOT NULL,
    maintenance_fund NUMERIC(14,2) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS members (
    id UUID PRIMARY KEY,
    group_id UUID NOT NULL REFERENCES vsla_groups(id),
    name TEXT NOT NULL,
    role TEXT NOT NULL,
    opening_balance NUMERIC(14,2) NOT NULL,
    current_balance NUMERIC(14,2) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS transactions (
    id UUID PRIMARY KEY,
    insert_seq BIGSERIAL,
    group_id UUID NOT NULL REFERENCES vsla_groups(id),
    member_id UUID REFERENCES members(id),
    type TEXT NOT NULL,
    amount NUMERIC(14,2) NOT NULL CHECK (amount > 0),
    description TEXT NOT NULL DEFAULT '',
    repayment_due_date TIMESTAMPTZ,
    interest_rate NUMERIC(6,3),
    work_category TEXT NOT NULL DEFAULT '',
    days_worked INTEGER,
    vendor_name TEXT NOT NULL DEFAULT '',
    sale_reference TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_members_group_id ON members(group_id);
CREATE INDEX IF NOT EXISTS idx_transactions_group_id ON transactions(group_id);
CREATE INDEX IF NOT EXISTS idx_transactions_member_id ON transactions(member_id);
CREATE INDEX IF NOT EXISTS idx_transactions_group_type ON transactions(group_id, type);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
