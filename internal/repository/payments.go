package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/credinica/loan-service/internal/models"
	"github.com/google/uuid"
)

const paymentColumns = `id, credit_id, payment_date, amount, managed_by, transaction_number, status, void_reason, void_requested_by`

func scanPayment(row rowScanner) (*models.RegisteredPayment, error) {
	p := &models.RegisteredPayment{}
	if err := row.Scan(&p.ID, &p.CreditID, &p.PaymentDate, &p.Amount, &p.ManagedBy, &p.TransactionNumber, &p.Status, &p.VoidReason, &p.VoidRequestedBy); err != nil {
		return nil, err
	}
	return p, nil
}

// CreatePayment inserts a registered payment.
func (r *Repository) CreatePayment(ctx context.Context, p *models.RegisteredPayment) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	query := `INSERT INTO payments_registered (` + paymentColumns + `) VALUES ` + placeholders(1, 9)
	_, err := r.exec(ctx, query, p.ID, p.CreditID, p.PaymentDate.UTC(), p.Amount, p.ManagedBy, p.TransactionNumber, p.Status, p.VoidReason, p.VoidRequestedBy)
	if err != nil {
		return wrap(err, "create payment")
	}
	return nil
}

// GetPayment retrieves a registered payment by id.
func (r *Repository) GetPayment(ctx context.Context, id string) (*models.RegisteredPayment, error) {
	p, err := scanPayment(r.queryRow(ctx, `SELECT `+paymentColumns+` FROM payments_registered WHERE id = ?`, id))
	if err != nil {
		return nil, wrap(err, "get payment")
	}
	return p, nil
}

// UpdatePaymentStatus sets the status of a payment and, when given, the void request data.
func (r *Repository) UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus, reason, requestedBy *string) error {
	res, err := r.exec(ctx, `UPDATE payments_registered
		SET status = ?, void_reason = COALESCE(?, void_reason), void_requested_by = COALESCE(?, void_requested_by)
		WHERE id = ?`, status, reason, requestedBy, id)
	if err != nil {
		return wrap(err, "update payment")
	}
	return affectedOne(res, "update payment")
}

// ListPayments returns the payments of a credit, most recent first.
func (r *Repository) ListPayments(ctx context.Context, creditID string) ([]models.RegisteredPayment, error) {
	return r.listPayments(ctx, `SELECT `+paymentColumns+` FROM payments_registered
		WHERE credit_id = ? ORDER BY payment_date DESC`, creditID)
}

// ListPaymentsManagedBy returns the non-voided payments collected by a user
// between from and to.
func (r *Repository) ListPaymentsManagedBy(ctx context.Context, userName string, from, to time.Time) ([]models.RegisteredPayment, error) {
	return r.listPayments(ctx, `SELECT `+paymentColumns+` FROM payments_registered
		WHERE managed_by = ? AND payment_date >= ? AND payment_date <= ? AND status <> ?
		ORDER BY payment_date`, userName, from.UTC(), to.UTC(), models.PaymentAnulado)
}

// ListPendingVoids returns payments waiting for void approval.
func (r *Repository) ListPendingVoids(ctx context.Context) ([]models.RegisteredPayment, error) {
	return r.listPayments(ctx, `SELECT `+paymentColumns+` FROM payments_registered
		WHERE status = ? ORDER BY payment_date`, models.PaymentAnulacionPendiente)
}

func (r *Repository) listPayments(ctx context.Context, query string, args ...any) ([]models.RegisteredPayment, error) {
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, wrap(err, "list payments")
	}
	defer rows.Close()

	payments := []models.RegisteredPayment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}
