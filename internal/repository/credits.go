package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/credinica/loan-service/internal/models"
	"github.com/google/uuid"
)

const creditColumns = `id, credit_number, client_id, client_name, status, application_date,
	approval_date, approved_by, rejection_reason, rejected_by, amount, principal_amount,
	interest_rate, term_months, payment_frequency, currency_type, total_amount, total_interest,
	total_installment_amount, first_payment_date, delivery_date, due_date, disbursed_amount,
	disbursed_by, collections_manager, supervisor, created_by, last_modified_by, sucursal_id,
	sucursal_name, product_type, sub_product, product_destination, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCredit(row rowScanner) (*models.Credit, error) {
	c := &models.Credit{}
	err := row.Scan(
		&c.ID, &c.CreditNumber, &c.ClientID, &c.ClientName, &c.Status, &c.ApplicationDate,
		&c.ApprovalDate, &c.ApprovedBy, &c.RejectionReason, &c.RejectedBy, &c.Amount, &c.PrincipalAmount,
		&c.InterestRate, &c.TermMonths, &c.PaymentFrequency, &c.CurrencyType, &c.TotalAmount, &c.TotalInterest,
		&c.TotalInstallmentAmount, &c.FirstPaymentDate, &c.DeliveryDate, &c.DueDate, &c.DisbursedAmount,
		&c.DisbursedBy, &c.CollectionsManager, &c.Supervisor, &c.CreatedBy, &c.LastModifiedBy, &c.Branch,
		&c.BranchName, &c.ProductType, &c.SubProduct, &c.ProductDestination, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func creditArgs(c *models.Credit) []any {
	return []any{
		c.ID, c.CreditNumber, c.ClientID, c.ClientName, c.Status, c.ApplicationDate.UTC(),
		utcPtr(c.ApprovalDate), c.ApprovedBy, c.RejectionReason, c.RejectedBy, c.Amount, c.PrincipalAmount,
		c.InterestRate, c.TermMonths, c.PaymentFrequency, c.CurrencyType, c.TotalAmount, c.TotalInterest,
		c.TotalInstallmentAmount, c.FirstPaymentDate, utcPtr(c.DeliveryDate), c.DueDate, c.DisbursedAmount,
		c.DisbursedBy, c.CollectionsManager, c.Supervisor, c.CreatedBy, c.LastModifiedBy, c.Branch,
		c.BranchName, c.ProductType, c.SubProduct, c.ProductDestination, c.CreatedAt.UTC(), c.UpdatedAt.UTC(),
	}
}

func utcPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// CreateCredit inserts a credit header together with its plan, guarantees and
// guarantors. Missing ids are generated. Call it inside InTx to make the
// writes atomic.
func (r *Repository) CreateCredit(ctx context.Context, c *models.Credit, plan []models.PaymentPlanEntry, guarantees []models.Guarantee, guarantors []models.Guarantor) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now

	query := `INSERT INTO credits (` + creditColumns + `) VALUES ` + placeholders(1, 35)
	if _, err := r.exec(ctx, query, creditArgs(c)...); err != nil {
		return wrap(err, "create credit")
	}
	if err := r.InsertPaymentPlan(ctx, c.ID, plan); err != nil {
		return err
	}
	if err := r.InsertGuarantees(ctx, c.ID, guarantees); err != nil {
		return err
	}
	return r.InsertGuarantors(ctx, c.ID, guarantors)
}

// UpdateCredit writes every mutable column of c.
func (r *Repository) UpdateCredit(ctx context.Context, c *models.Credit) error {
	c.UpdatedAt = time.Now().UTC()
	query := `UPDATE credits SET client_name = ?, status = ?, approval_date = ?, approved_by = ?,
		rejection_reason = ?, rejected_by = ?, amount = ?, principal_amount = ?, interest_rate = ?,
		term_months = ?, payment_frequency = ?, currency_type = ?, total_amount = ?, total_interest = ?,
		total_installment_amount = ?, first_payment_date = ?, delivery_date = ?, due_date = ?,
		disbursed_amount = ?, disbursed_by = ?, collections_manager = ?, supervisor = ?,
		last_modified_by = ?, sucursal_id = ?, sucursal_name = ?, product_type = ?, sub_product = ?,
		product_destination = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.exec(ctx, query,
		c.ClientName, c.Status, utcPtr(c.ApprovalDate), c.ApprovedBy,
		c.RejectionReason, c.RejectedBy, c.Amount, c.PrincipalAmount, c.InterestRate,
		c.TermMonths, c.PaymentFrequency, c.CurrencyType, c.TotalAmount, c.TotalInterest,
		c.TotalInstallmentAmount, c.FirstPaymentDate, utcPtr(c.DeliveryDate), c.DueDate,
		c.DisbursedAmount, c.DisbursedBy, c.CollectionsManager, c.Supervisor,
		c.LastModifiedBy, c.Branch, c.BranchName, c.ProductType, c.SubProduct,
		c.ProductDestination, c.UpdatedAt,
		c.ID,
	)
	if err != nil {
		return wrap(err, "update credit")
	}
	return affectedOne(res, "update credit")
}

// UpdateCreditStatus changes only the status of a credit.
func (r *Repository) UpdateCreditStatus(ctx context.Context, id string, status models.CreditStatus) error {
	res, err := r.exec(ctx, `UPDATE credits SET status = ?, updated_at = ? WHERE id = ?`, status, time.Now().UTC(), id)
	if err != nil {
		return wrap(err, "update credit status")
	}
	return affectedOne(res, "update credit status")
}

// GetCredit retrieves a credit header by id.
func (r *Repository) GetCredit(ctx context.Context, id string) (*models.Credit, error) {
	c, err := scanCredit(r.queryRow(ctx, `SELECT `+creditColumns+` FROM credits WHERE id = ?`, id))
	if err != nil {
		return nil, wrap(err, "get credit")
	}
	return c, nil
}

// GetCreditForUpdate retrieves a credit and, on PostgreSQL, locks its row until
// the surrounding transaction ends.
func (r *Repository) GetCreditForUpdate(ctx context.Context, id string) (*models.Credit, error) {
	query := `SELECT ` + creditColumns + ` FROM credits WHERE id = ?`
	if r.isPostgres() && r.inTx {
		query += ` FOR UPDATE`
	}
	c, err := scanCredit(r.queryRow(ctx, query, id))
	if err != nil {
		return nil, wrap(err, "get credit")
	}
	return c, nil
}

// DeleteCredit removes a credit and every row it owns.
func (r *Repository) DeleteCredit(ctx context.Context, id string) error {
	return r.InTx(ctx, func(tx *Repository) error {
		for _, table := range []string{"payment_plan", "payments_registered", "guarantees", "guarantors"} {
			if _, err := tx.exec(ctx, `DELETE FROM `+table+` WHERE credit_id = ?`, id); err != nil {
				return wrap(err, "delete "+table)
			}
		}
		res, err := tx.exec(ctx, `DELETE FROM credits WHERE id = ?`, id)
		if err != nil {
			return wrap(err, "delete credit")
		}
		return affectedOne(res, "delete credit")
	})
}

// ListCredits returns credits matching filter, newest application first.
func (r *Repository) ListCredits(ctx context.Context, filter models.CreditFilter) ([]models.Credit, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.GestorName != "" {
		where = append(where, "collections_manager = ?")
		args = append(args, filter.GestorName)
	}
	if filter.ClientID != "" {
		where = append(where, "client_id = ?")
		args = append(args, filter.ClientID)
	}
	if len(filter.Branches) > 0 {
		where = append(where, "sucursal_id IN "+placeholders(1, len(filter.Branches)))
		for _, b := range filter.Branches {
			args = append(args, b)
		}
	}
	if filter.DateFrom != nil {
		where = append(where, "(delivery_date >= ? OR approval_date >= ?)")
		args = append(args, filter.DateFrom.UTC(), filter.DateFrom.UTC())
	}
	if filter.DateTo != nil {
		where = append(where, "(delivery_date <= ? OR approval_date <= ?)")
		args = append(args, filter.DateTo.UTC(), filter.DateTo.UTC())
	}
	if filter.SearchTerm != "" {
		term := "%" + strings.ToLower(filter.SearchTerm) + "%"
		where = append(where, "(LOWER(client_name) LIKE ? OR LOWER(credit_number) LIKE ?)")
		args = append(args, term, term)
	}

	query := `SELECT ` + creditColumns + ` FROM credits`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY application_date DESC`
	return r.listCredits(ctx, query, args...)
}

// SearchActiveCredits finds Active credits by client name, cedula or credit number.
func (r *Repository) SearchActiveCredits(ctx context.Context, term string) ([]models.Credit, error) {
	like := "%" + strings.ToLower(term) + "%"
	query := `SELECT ` + prefixed("c.", creditColumns) + ` FROM credits c
		JOIN clients cl ON c.client_id = cl.id
		WHERE c.status = ? AND (LOWER(c.client_name) LIKE ? OR cl.cedula LIKE ? OR LOWER(c.credit_number) LIKE ?)
		ORDER BY c.application_date DESC`
	return r.listCredits(ctx, query, models.CreditActive, like, like, like)
}

// FindOtherActiveCredit returns an Active credit of clientID other than excludeID.
func (r *Repository) FindOtherActiveCredit(ctx context.Context, clientID, excludeID string) (*models.Credit, error) {
	query := `SELECT ` + creditColumns + ` FROM credits
		WHERE client_id = ? AND status = ? AND id <> ?
		ORDER BY application_date LIMIT 1`
	c, err := scanCredit(r.queryRow(ctx, query, clientID, models.CreditActive, excludeID))
	if err != nil {
		return nil, wrap(err, "find active credit")
	}
	return c, nil
}

// CountCreditsByClient returns how many credits a client owns.
func (r *Repository) CountCreditsByClient(ctx context.Context, clientID string) (int, error) {
	var n int
	if err := r.queryRow(ctx, `SELECT COUNT(*) FROM credits WHERE client_id = ?`, clientID).Scan(&n); err != nil {
		return 0, wrap(err, "count credits")
	}
	return n, nil
}

// ListDisbursedBy returns credits disbursed by user between from and to.
func (r *Repository) ListDisbursedBy(ctx context.Context, userName string, from, to time.Time) ([]models.Credit, error) {
	query := `SELECT ` + creditColumns + ` FROM credits
		WHERE disbursed_by = ? AND delivery_date >= ? AND delivery_date <= ? AND status <> ?
		ORDER BY delivery_date`
	return r.listCredits(ctx, query, userName, from.UTC(), to.UTC(), models.CreditApproved)
}

// ListRejected returns rejected credits whose application falls between from and to.
func (r *Repository) ListRejected(ctx context.Context, from, to time.Time) ([]models.Credit, error) {
	query := `SELECT ` + creditColumns + ` FROM credits
		WHERE status = ? AND application_date >= ? AND application_date <= ?
		ORDER BY application_date DESC`
	return r.listCredits(ctx, query, models.CreditRejected, from.UTC(), to.UTC())
}

func (r *Repository) listCredits(ctx context.Context, query string, args ...any) ([]models.Credit, error) {
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, wrap(err, "list credits")
	}
	defer rows.Close()

	credits := []models.Credit{}
	for rows.Next() {
		c, err := scanCredit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan credit: %w", err)
		}
		credits = append(credits, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list credits: %w", err)
	}
	return credits, nil
}

func prefixed(prefix, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = prefix + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

// InsertPaymentPlan writes plan rows for a credit with a single statement.
func (r *Repository) InsertPaymentPlan(ctx context.Context, creditID string, plan []models.PaymentPlanEntry) error {
	if len(plan) == 0 {
		return nil
	}
	args := make([]any, 0, len(plan)*7)
	for i := range plan {
		plan[i].CreditID = creditID
		p := plan[i]
		args = append(args, creditID, p.PaymentNumber, p.PaymentDate, p.Amount, p.Principal, p.Interest, p.Balance)
	}
	query := `INSERT INTO payment_plan (credit_id, payment_number, payment_date, amount, principal, interest, balance) VALUES ` + placeholders(len(plan), 7)
	if _, err := r.exec(ctx, query, args...); err != nil {
		return wrap(err, "insert payment plan")
	}
	return nil
}

// ReplacePaymentPlan swaps the whole plan of a credit.
func (r *Repository) ReplacePaymentPlan(ctx context.Context, creditID string, plan []models.PaymentPlanEntry) error {
	return r.InTx(ctx, func(tx *Repository) error {
		if _, err := tx.exec(ctx, `DELETE FROM payment_plan WHERE credit_id = ?`, creditID); err != nil {
			return wrap(err, "delete payment plan")
		}
		return tx.InsertPaymentPlan(ctx, creditID, plan)
	})
}

// GetPaymentPlan returns the plan of a credit ordered by installment number.
func (r *Repository) GetPaymentPlan(ctx context.Context, creditID string) ([]models.PaymentPlanEntry, error) {
	rows, err := r.query(ctx, `SELECT credit_id, payment_number, payment_date, amount, principal, interest, balance
		FROM payment_plan WHERE credit_id = ? ORDER BY payment_number`, creditID)
	if err != nil {
		return nil, wrap(err, "get payment plan")
	}
	defer rows.Close()

	plan := []models.PaymentPlanEntry{}
	for rows.Next() {
		var p models.PaymentPlanEntry
		if err := rows.Scan(&p.CreditID, &p.PaymentNumber, &p.PaymentDate, &p.Amount, &p.Principal, &p.Interest, &p.Balance); err != nil {
			return nil, fmt.Errorf("failed to scan plan entry: %w", err)
		}
		p.PaymentDate = p.PaymentDate.UTC()
		plan = append(plan, p)
	}
	return plan, rows.Err()
}

// InsertGuarantees writes the guarantees of a credit with a single statement.
func (r *Repository) InsertGuarantees(ctx context.Context, creditID string, guarantees []models.Guarantee) error {
	if len(guarantees) == 0 {
		return nil
	}
	args := make([]any, 0, len(guarantees)*8)
	for i := range guarantees {
		g := &guarantees[i]
		if g.ID == "" {
			g.ID = uuid.NewString()
		}
		g.CreditID = creditID
		args = append(args, g.ID, creditID, g.Article, g.Brand, g.Color, g.Model, g.Series, g.EstimatedValue)
	}
	query := `INSERT INTO guarantees (id, credit_id, article, brand, color, model, series, estimated_value) VALUES ` + placeholders(len(guarantees), 8)
	if _, err := r.exec(ctx, query, args...); err != nil {
		return wrap(err, "insert guarantees")
	}
	return nil
}

// ReplaceGuarantees deletes the guarantees of a credit and inserts the given ones.
func (r *Repository) ReplaceGuarantees(ctx context.Context, creditID string, guarantees []models.Guarantee) error {
	if _, err := r.exec(ctx, `DELETE FROM guarantees WHERE credit_id = ?`, creditID); err != nil {
		return wrap(err, "delete guarantees")
	}
	return r.InsertGuarantees(ctx, creditID, guarantees)
}

// GetGuarantees returns the guarantees of a credit.
func (r *Repository) GetGuarantees(ctx context.Context, creditID string) ([]models.Guarantee, error) {
	rows, err := r.query(ctx, `SELECT id, credit_id, article, brand, color, model, series, estimated_value
		FROM guarantees WHERE credit_id = ? ORDER BY article`, creditID)
	if err != nil {
		return nil, wrap(err, "get guarantees")
	}
	defer rows.Close()

	out := []models.Guarantee{}
	for rows.Next() {
		var g models.Guarantee
		if err := rows.Scan(&g.ID, &g.CreditID, &g.Article, &g.Brand, &g.Color, &g.Model, &g.Series, &g.EstimatedValue); err != nil {
			return nil, fmt.Errorf("failed to scan guarantee: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// InsertGuarantors writes the guarantors of a credit with a single statement.
func (r *Repository) InsertGuarantors(ctx context.Context, creditID string, guarantors []models.Guarantor) error {
	if len(guarantors) == 0 {
		return nil
	}
	args := make([]any, 0, len(guarantors)*7)
	for i := range guarantors {
		g := &guarantors[i]
		if g.ID == "" {
			g.ID = uuid.NewString()
		}
		g.CreditID = creditID
		args = append(args, g.ID, creditID, g.Name, g.Cedula, g.Phone, g.Address, g.Relationship)
	}
	query := `INSERT INTO guarantors (id, credit_id, name, cedula, phone, address, relationship) VALUES ` + placeholders(len(guarantors), 7)
	if _, err := r.exec(ctx, query, args...); err != nil {
		return wrap(err, "insert guarantors")
	}
	return nil
}

// ReplaceGuarantors deletes the guarantors of a credit and inserts the given ones.
func (r *Repository) ReplaceGuarantors(ctx context.Context, creditID string, guarantors []models.Guarantor) error {
	if _, err := r.exec(ctx, `DELETE FROM guarantors WHERE credit_id = ?`, creditID); err != nil {
		return wrap(err, "delete guarantors")
	}
	return r.InsertGuarantors(ctx, creditID, guarantors)
}

// GetGuarantors returns the guarantors of a credit.
func (r *Repository) GetGuarantors(ctx context.Context, creditID string) ([]models.Guarantor, error) {
	rows, err := r.query(ctx, `SELECT id, credit_id, name, cedula, phone, address, relationship
		FROM guarantors WHERE credit_id = ? ORDER BY name`, creditID)
	if err != nil {
		return nil, wrap(err, "get guarantors")
	}
	defer rows.Close()

	out := []models.Guarantor{}
	for rows.Next() {
		var g models.Guarantor
		if err := rows.Scan(&g.ID, &g.CreditID, &g.Name, &g.Cedula, &g.Phone, &g.Address, &g.Relationship); err != nil {
			return nil, fmt.Errorf("failed to scan guarantor: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
