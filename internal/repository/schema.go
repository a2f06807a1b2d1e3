package repository

import (
	"context"
	"fmt"
	"strings"
)

const schema = `
CREATE TABLE IF NOT EXISTS sucursales (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	full_name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	phone TEXT,
	role TEXT NOT NULL,
	sucursal_id TEXT REFERENCES sucursales(id),
	active BOOLEAN NOT NULL DEFAULT TRUE,
	supervisor_id TEXT,
	must_change_password BOOLEAN NOT NULL DEFAULT FALSE,
	created_at {{ts}} NOT NULL
);
CREATE TABLE IF NOT EXISTS clients (
	id TEXT PRIMARY KEY,
	client_number TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	cedula TEXT NOT NULL UNIQUE,
	phone TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL DEFAULT '',
	sex TEXT NOT NULL DEFAULT '',
	sucursal_id TEXT,
	created_at {{ts}} NOT NULL
);
CREATE TABLE IF NOT EXISTS credits (
	id TEXT PRIMARY KEY,
	credit_number TEXT NOT NULL UNIQUE,
	client_id TEXT NOT NULL REFERENCES clients(id),
	client_name TEXT NOT NULL,
	status TEXT NOT NULL,
	application_date {{ts}} NOT NULL,
	approval_date {{ts}},
	approved_by TEXT,
	rejection_reason TEXT,
	rejected_by TEXT,
	amount {{money}} NOT NULL,
	principal_amount {{money}} NOT NULL,
	interest_rate {{money}} NOT NULL,
	term_months INTEGER NOT NULL,
	payment_frequency TEXT NOT NULL,
	currency_type TEXT NOT NULL,
	total_amount {{money}} NOT NULL,
	total_interest {{money}} NOT NULL,
	total_installment_amount {{money}} NOT NULL,
	first_payment_date DATE NOT NULL,
	delivery_date {{ts}},
	due_date DATE NOT NULL,
	disbursed_amount {{money}},
	disbursed_by TEXT,
	collections_manager TEXT NOT NULL,
	supervisor TEXT,
	created_by TEXT NOT NULL,
	last_modified_by TEXT,
	sucursal_id TEXT,
	sucursal_name TEXT,
	product_type TEXT NOT NULL DEFAULT '',
	sub_product TEXT NOT NULL DEFAULT '',
	product_destination TEXT NOT NULL DEFAULT '',
	created_at {{ts}} NOT NULL,
	updated_at {{ts}} NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_credits_client ON credits(client_id);
CREATE INDEX IF NOT EXISTS idx_credits_status ON credits(status);
CREATE TABLE IF NOT EXISTS payment_plan (
	credit_id TEXT NOT NULL REFERENCES credits(id),
	payment_number INTEGER NOT NULL,
	payment_date DATE NOT NULL,
	amount {{money}} NOT NULL,
	principal {{money}} NOT NULL,
	interest {{money}} NOT NULL,
	balance {{money}} NOT NULL,
	PRIMARY KEY (credit_id, payment_number)
);
CREATE TABLE IF NOT EXISTS payments_registered (
	id TEXT PRIMARY KEY,
	credit_id TEXT NOT NULL REFERENCES credits(id),
	payment_date {{ts}} NOT NULL,
	amount {{money}} NOT NULL,
	managed_by TEXT NOT NULL,
	transaction_number TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	void_reason TEXT,
	void_requested_by TEXT
);
CREATE INDEX IF NOT EXISTS idx_payments_credit ON payments_registered(credit_id);
CREATE TABLE IF NOT EXISTS guarantees (
	id TEXT PRIMARY KEY,
	credit_id TEXT NOT NULL REFERENCES credits(id),
	article TEXT NOT NULL,
	brand TEXT NOT NULL DEFAULT '',
	color TEXT NOT NULL DEFAULT '',
	model TEXT NOT NULL DEFAULT '',
	series TEXT NOT NULL DEFAULT '',
	estimated_value {{money}} NOT NULL
);
CREATE TABLE IF NOT EXISTS guarantors (
	id TEXT PRIMARY KEY,
	credit_id TEXT NOT NULL REFERENCES credits(id),
	name TEXT NOT NULL,
	cedula TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL DEFAULT '',
	relationship TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS counters (
	name TEXT PRIMARY KEY,
	value BIGINT NOT NULL
);
CREATE TABLE IF NOT EXISTS audit_logs (
	id TEXT PRIMARY KEY,
	ts {{ts}} NOT NULL,
	user_id TEXT NOT NULL,
	user_name TEXT NOT NULL,
	action TEXT NOT NULL,
	details TEXT NOT NULL,
	target_id TEXT,
	changes {{json}}
);
CREATE INDEX IF NOT EXISTS idx_audit_logs_ts ON audit_logs(ts);
CREATE TABLE IF NOT EXISTS holidays (
	id TEXT PRIMARY KEY,
	date DATE NOT NULL UNIQUE,
	description TEXT NOT NULL
);
`

// Sequence counters seeded by Migrate.
const (
	CounterClientNumber = "clientNumber"
	CounterCreditNumber = "creditNumber"
)

// Migrate creates the tables that do not exist yet and seeds the sequence counters.
// Money is NUMERIC on PostgreSQL and TEXT on SQLite so no precision is lost.
func (r *Repository) Migrate(ctx context.Context) error {
	types := map[string]string{
		"{{money}}": "TEXT",
		"{{ts}}":    "TIMESTAMP",
		"{{json}}":  "TEXT",
	}
	if r.isPostgres() {
		types = map[string]string{
			"{{money}}": "NUMERIC(14,2)",
			"{{ts}}":    "TIMESTAMPTZ",
			"{{json}}":  "JSONB",
		}
	}
	ddl := schema
	for placeholder, typ := range types {
		ddl = strings.ReplaceAll(ddl, placeholder, typ)
	}

	for _, stmt := range strings.Split(ddl, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := r.q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	for _, name := range []string{CounterClientNumber, CounterCreditNumber} {
		if err := r.ensureCounter(ctx, name); err != nil {
			return err
		}
	}
	return nil
}
