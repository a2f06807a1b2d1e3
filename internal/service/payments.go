package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/credinica/loan-service/internal/amortization"
	"github.com/credinica/loan-service/internal/models"
	"github.com/credinica/loan-service/internal/repository"
	"github.com/credinica/loan-service/internal/utils"
	"github.com/shopspring/decimal"
)

const msgPaymentGone = "Pago no encontrado."

// PaymentInput is a collection to register against a credit
type PaymentInput struct {
	Amount            decimal.Decimal `json:"amount"`
	PaymentDate       string          `json:"paymentDate"`
	TransactionNumber string          `json:"transactionNumber"`
}

// paymentTime resolves the moment of a payment: now when empty, the instant of
// an RFC 3339 timestamp, or the start of a YYYY-MM-DD day in the business zone.
func (s *Service) paymentTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return s.now(), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	d, err := utils.ParseDate(raw)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, s.loc), nil
}

// AddPayment registers a valid payment on an active credit and marks the credit
// Paid when the remaining balance is within tolerance.
func (s *Service) AddPayment(ctx context.Context, actor *models.Session, creditID string, in PaymentInput) (*models.RegisteredPayment, error) {
	if err := s.authorize(actor, models.ActionAddPayment); err != nil {
		return nil, err
	}
	if !in.Amount.IsPositive() {
		return nil, invalid("El monto del abono debe ser mayor que cero.")
	}
	paidAt, err := s.paymentTime(in.PaymentDate)
	if err != nil {
		return nil, invalid("Fecha de pago inválida.")
	}

	payment := &models.RegisteredPayment{
		CreditID:          creditID,
		PaymentDate:       paidAt,
		Amount:            in.Amount,
		ManagedBy:         actor.FullName,
		TransactionNumber: in.TransactionNumber,
		Status:            models.PaymentValido,
	}
	err = s.repo.InTx(ctx, func(tx *repository.Repository) error {
		credit, err := tx.GetCreditForUpdate(ctx, creditID)
		if err != nil {
			return err
		}
		if credit.Status != models.CreditActive {
			return conflict("Solo se pueden registrar abonos a créditos activos.")
		}
		if err := tx.CreatePayment(ctx, payment); err != nil {
			return err
		}
		details := fmt.Sprintf("Registró un abono de C$%s para el crédito %s.", in.Amount.StringFixed(2), credit.CreditNumber)
		if err := s.audit(ctx, tx, actor, models.ActionAddPayment, details, credit.ID, nil); err != nil {
			return err
		}
		return s.syncStatus(ctx, tx, actor, credit)
	})
	if err != nil {
		return nil, s.fail(err, "add payment", msgCreditGone)
	}

	s.log.Infof("Payment %s of %s registered on credit %s by %s", payment.ID, in.Amount, creditID, actor.FullName)
	return payment, nil
}

// RequestVoid flags a valid payment for voiding. The payment stops counting
// toward the balance only once the void is approved.
func (s *Service) RequestVoid(ctx context.Context, actor *models.Session, creditID, paymentID, reason string) error {
	if err := s.authorize(actor, models.ActionRequestVoid); err != nil {
		return err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return invalid("Debe indicar el motivo de la anulación.")
	}

	err := s.repo.InTx(ctx, func(tx *repository.Repository) error {
		payment, err := s.creditPayment(ctx, tx, creditID, paymentID)
		if err != nil {
			return err
		}
		switch payment.Status {
		case models.PaymentValido:
		case models.PaymentAnulacionPendiente:
			return conflict("El pago ya tiene una solicitud de anulación pendiente.")
		case models.PaymentAnulado:
			return conflict("El pago ya fue anulado.")
		}
		if err := tx.UpdatePaymentStatus(ctx, paymentID, models.PaymentAnulacionPendiente, &reason, &actor.FullName); err != nil {
			return err
		}
		details := fmt.Sprintf("Solicitó anular el pago %s por: %s.", paymentID, reason)
		return s.audit(ctx, tx, actor, models.ActionRequestVoid, details, creditID, nil)
	})
	if err != nil {
		return s.fail(err, "request payment void", msgPaymentGone)
	}
	s.log.Infof("Void requested for payment %s by %s", paymentID, actor.FullName)
	return nil
}

// PendingVoids lists the payments waiting for void approval.
func (s *Service) PendingVoids(ctx context.Context, actor *models.Session) ([]models.RegisteredPayment, error) {
	if err := s.authorize(actor, models.ActionApproveVoid); err != nil {
		return nil, err
	}
	payments, err := s.repo.ListPendingVoids(ctx)
	if err != nil {
		return nil, s.fail(err, "list pending voids", "")
	}
	return payments, nil
}

// ApproveVoid voids a payment with a pending void request and recomputes the credit status, so a Paid
// credit whose balance reopens goes back to Active. Approving a payment that
// is already void changes nothing.
func (s *Service) ApproveVoid(ctx context.Context, actor *models.Session, creditID, paymentID string) error {
	if err := s.authorize(actor, models.ActionApproveVoid); err != nil {
		return err
	}

	err := s.repo.InTx(ctx, func(tx *repository.Repository) error {
		credit, err := tx.GetCreditForUpdate(ctx, creditID)
		if err != nil {
			return err
		}
		payment, err := s.creditPayment(ctx, tx, creditID, paymentID)
		if err != nil {
			return err
		}
		switch payment.Status {
		case models.PaymentAnulacionPendiente:
		case models.PaymentAnulado:
			return s.syncStatus(ctx, tx, actor, credit)
		case models.PaymentValido:
			return conflict("El pago no tiene una solicitud de anulación pendiente.")
		}
		if err := tx.UpdatePaymentStatus(ctx, paymentID, models.PaymentAnulado, nil, nil); err != nil {
			return err
		}
		details := fmt.Sprintf("Anuló el pago %s del crédito %s.", paymentID, credit.CreditNumber)
		if err := s.audit(ctx, tx, actor, models.ActionApproveVoid, details, creditID, nil); err != nil {
			return err
		}
		return s.syncStatus(ctx, tx, actor, credit)
	})
	if err != nil {
		return s.fail(err, "approve payment void", msgPaymentGone)
	}
	s.log.Infof("Payment %s voided by %s", paymentID, actor.FullName)
	return nil
}

func (s *Service) creditPayment(ctx context.Context, repo *repository.Repository, creditID, paymentID string) (*models.RegisteredPayment, error) {
	payment, err := repo.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.CreditID != creditID {
		return nil, notFound(msgPaymentGone)
	}
	return payment, nil
}

// syncStatus moves a credit between Active and Paid according to its balance.
func (s *Service) syncStatus(ctx context.Context, tx *repository.Repository, actor *models.Session, credit *models.Credit) error {
	state, err := s.statusOf(ctx, tx, credit.ID)
	if err != nil {
		return err
	}

	next := credit.Status
	switch credit.Status {
	case models.CreditActive:
		if state.IsPaidOff {
			next = models.CreditPaid
		}
	case models.CreditPaid:
		if !amortization.IsPaidOff(state.RemainingBalance) {
			next = models.CreditActive
		}
	case models.CreditPending, models.CreditApproved, models.CreditRejected, models.CreditFallecido:
	}
	if next == credit.Status {
		return nil
	}

	if err := tx.UpdateCreditStatus(ctx, credit.ID, next); err != nil {
		return err
	}
	credit.Status = next
	details := fmt.Sprintf("El crédito %s se actualizó a status '%s' (saldo C$%s).", credit.CreditNumber, next, state.RemainingBalance.StringFixed(2))
	return s.audit(ctx, tx, actor, models.ActionUpdateCredit, details, credit.ID, map[string]any{"status": next})
}
