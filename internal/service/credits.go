package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/credinica/loan-service/internal/amortization"
	"github.com/credinica/loan-service/internal/models"
	"github.com/credinica/loan-service/internal/repository"
	"github.com/credinica/loan-service/internal/utils"
	"github.com/shopspring/decimal"
)

const (
	creditPrefix    = "CRE"
	defaultCurrency = "CÓRDOBAS"
	msgCreditGone   = "Crédito no encontrado."
)

// CreditInput is a new credit application. CollectionsManager and Supervisor
// are user ids.
type CreditInput struct {
	ClientID           string                  `json:"clientId"`
	Amount             decimal.Decimal         `json:"amount"`
	InterestRate       decimal.Decimal         `json:"interestRate"`
	TermMonths         int                     `json:"termMonths"`
	PaymentFrequency   models.PaymentFrequency `json:"paymentFrequency"`
	FirstPaymentDate   string                  `json:"firstPaymentDate"`
	CollectionsManager string                  `json:"collectionsManager"`
	Supervisor         string                  `json:"supervisor"`
	CurrencyType       string                  `json:"currencyType"`
	ProductType        string                  `json:"productType"`
	SubProduct         string                  `json:"subProduct"`
	ProductDestination string                  `json:"productDestination"`
	Guarantees         []models.Guarantee      `json:"guarantees"`
	Guarantors         []models.Guarantor      `json:"guarantors"`
}

// CreditPatch is a partial credit update; nil fields are left untouched.
type CreditPatch struct {
	Status             *models.CreditStatus     `json:"status"`
	Amount             *decimal.Decimal         `json:"amount"`
	InterestRate       *decimal.Decimal         `json:"interestRate"`
	TermMonths         *int                     `json:"termMonths"`
	PaymentFrequency   *models.PaymentFrequency `json:"paymentFrequency"`
	FirstPaymentDate   *string                  `json:"firstPaymentDate"`
	CollectionsManager *string                  `json:"collectionsManager"`
	Supervisor         *string                  `json:"supervisor"`
	CurrencyType       *string                  `json:"currencyType"`
	ProductType        *string                  `json:"productType"`
	SubProduct         *string                  `json:"subProduct"`
	ProductDestination *string                  `json:"productDestination"`
	RejectionReason    *string                  `json:"rejectionReason"`
	Guarantees         *[]models.Guarantee      `json:"guarantees"`
	Guarantors         *[]models.Guarantor      `json:"guarantors"`
}

func (p CreditPatch) changesTerms() bool {
	return p.Amount != nil || p.InterestRate != nil || p.TermMonths != nil || p.PaymentFrequency != nil || p.FirstPaymentDate != nil
}

// DisbursementInput carries the optional overrides of a disbursement.
type DisbursementInput struct {
	Amount       *decimal.Decimal `json:"disbursedAmount"`
	DeliveryDate *time.Time       `json:"deliveryDate"`
}

func (in CreditInput) validate() error {
	if in.ClientID == "" || in.Amount.IsZero() || in.InterestRate.IsZero() || in.TermMonths == 0 ||
		in.PaymentFrequency == "" || in.FirstPaymentDate == "" || in.CollectionsManager == "" {
		return invalid("Faltan datos obligatorios para crear el crédito.")
	}
	if in.Amount.IsNegative() || in.InterestRate.IsNegative() || in.TermMonths < 0 {
		return invalid("El monto, la tasa y el plazo deben ser positivos.")
	}
	if !in.PaymentFrequency.IsValid() {
		return invalid("Frecuencia de pago inválida.")
	}
	return nil
}

// lookupStaff resolves a user id given as gestor or supervisor.
func (s *Service) lookupStaff(ctx context.Context, repo *repository.Repository, id, msg string) (*models.User, error) {
	u, err := repo.FindUserByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, invalid(msg)
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) generateSchedule(ctx context.Context, repo *repository.Repository, c *models.Credit) (*amortization.Schedule, error) {
	holidays, err := repo.HolidayDates(ctx)
	if err != nil {
		return nil, err
	}
	schedule := amortization.Generate(amortization.Input{
		Principal:   c.PrincipalAmount,
		MonthlyRate: c.InterestRate,
		TermMonths:  c.TermMonths,
		Frequency:   c.PaymentFrequency,
		StartDate:   c.FirstPaymentDate,
		Holidays:    holidays,
	})
	if schedule == nil {
		return nil, invalid("No se pudo generar el plan de pagos.")
	}
	c.TotalAmount = schedule.TotalPayment
	c.TotalInterest = schedule.TotalInterest
	c.TotalInstallmentAmount = schedule.PeriodicPayment
	c.DueDate = schedule.DueDate()
	return schedule, nil
}

// CreateCredit registers a credit application with its payment plan. Credits
// created by roles that auto-approve start out Approved.
func (s *Service) CreateCredit(ctx context.Context, actor *models.Session, in CreditInput) (*models.Credit, error) {
	if err := s.authorize(actor, models.ActionCreateCredit); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	firstPayment, err := utils.ParseDate(in.FirstPaymentDate)
	if err != nil {
		return nil, invalid("Fecha de primer pago inválida.")
	}

	currency := in.CurrencyType
	if currency == "" {
		currency = defaultCurrency
	}
	credit := &models.Credit{
		ClientID:           in.ClientID,
		Status:             models.CreditPending,
		ApplicationDate:    s.now(),
		Amount:             in.Amount,
		PrincipalAmount:    in.Amount,
		InterestRate:       in.InterestRate,
		TermMonths:         in.TermMonths,
		PaymentFrequency:   in.PaymentFrequency,
		CurrencyType:       currency,
		FirstPaymentDate:   firstPayment,
		CreatedBy:          actor.FullName,
		ProductType:        in.ProductType,
		SubProduct:         in.SubProduct,
		ProductDestination: in.ProductDestination,
	}
	if actor.Role.AutoApproves() {
		approvedAt := credit.ApplicationDate
		approvedBy := actor.FullName
		credit.Status = models.CreditApproved
		credit.ApprovalDate = &approvedAt
		credit.ApprovedBy = &approvedBy
	}

	err = s.repo.InTx(ctx, func(tx *repository.Repository) error {
		client, err := tx.GetClient(ctx, in.ClientID)
		if errors.Is(err, repository.ErrNotFound) {
			return invalid("El cliente seleccionado no existe.")
		}
		if err != nil {
			return err
		}
		credit.ClientName = client.Name

		gestor, err := s.lookupStaff(ctx, tx, in.CollectionsManager, "El gestor de cobro seleccionado no es válido.")
		if err != nil {
			return err
		}
		credit.CollectionsManager = gestor.FullName
		credit.Branch, credit.BranchName = gestor.BranchID, gestor.BranchName
		if in.Supervisor != "" {
			supervisor, err := s.lookupStaff(ctx, tx, in.Supervisor, "El supervisor seleccionado no es válido.")
			if err != nil {
				return err
			}
			credit.Supervisor = &supervisor.FullName
		}

		schedule, err := s.generateSchedule(ctx, tx, credit)
		if err != nil {
			return err
		}
		seq, err := tx.NextSequenceValue(ctx, repository.CounterCreditNumber)
		if err != nil {
			return err
		}
		credit.CreditNumber = utils.FormatSequence(creditPrefix, seq)

		if err := tx.CreateCredit(ctx, credit, schedule.Entries, in.Guarantees, in.Guarantors); err != nil {
			return err
		}
		details := fmt.Sprintf("Creó la solicitud de crédito %s para %s.", credit.CreditNumber, credit.ClientName)
		if err := s.audit(ctx, tx, actor, models.ActionCreateCredit, details, credit.ID, nil); err != nil {
			return err
		}
		if credit.Status == models.CreditApproved {
			details := fmt.Sprintf("Aprobó automáticamente el crédito %s durante la creación.", credit.CreditNumber)
			return s.audit(ctx, tx, actor, models.ActionApproveCredit, details, credit.ID, nil)
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(err, "create credit", "")
	}

	s.log.Infof("Credit %s created by %s with status %s", credit.CreditNumber, actor.FullName, credit.Status)
	return credit, nil
}

// UpdateCredit applies a partial update. A status outside Active, Rejected,
// Fallecido and Approved sends the credit back to Pending and clears its
// approval. Changing the financial terms regenerates the plan, which is only
// allowed before disbursement.
func (s *Service) UpdateCredit(ctx context.Context, actor *models.Session, id string, patch CreditPatch) (*models.Credit, error) {
	if err := s.authorize(actor, models.ActionUpdateCredit); err != nil {
		return nil, err
	}

	var credit *models.Credit
	err := s.repo.InTx(ctx, func(tx *repository.Repository) error {
		var err error
		credit, err = tx.GetCreditForUpdate(ctx, id)
		if err != nil {
			return err
		}
		changes := map[string]any{}

		if patch.changesTerms() {
			if credit.Status != models.CreditPending && credit.Status != models.CreditApproved && credit.Status != models.CreditRejected {
				return conflict("No se pueden modificar las condiciones de un crédito desembolsado.")
			}
			if err := applyTerms(credit, patch, changes); err != nil {
				return err
			}
		}
		if patch.CollectionsManager != nil {
			gestor, err := s.lookupStaff(ctx, tx, *patch.CollectionsManager, "El gestor de cobro seleccionado no es válido.")
			if err != nil {
				return err
			}
			credit.CollectionsManager = gestor.FullName
			changes["collectionsManager"] = gestor.FullName
		}
		if patch.Supervisor != nil {
			supervisor, err := s.lookupStaff(ctx, tx, *patch.Supervisor, "El supervisor seleccionado no es válido.")
			if err != nil {
				return err
			}
			credit.Supervisor = &supervisor.FullName
			changes["supervisor"] = supervisor.FullName
		}
		setText(&credit.CurrencyType, patch.CurrencyType, "currencyType", changes)
		setText(&credit.ProductType, patch.ProductType, "productType", changes)
		setText(&credit.SubProduct, patch.SubProduct, "subProduct", changes)
		setText(&credit.ProductDestination, patch.ProductDestination, "productDestination", changes)
		if patch.Status != nil {
			if err := s.applyStatus(credit, actor, *patch.Status, patch.RejectionReason); err != nil {
				return err
			}
			changes["status"] = credit.Status
		}
		credit.LastModifiedBy = &actor.FullName

		if patch.changesTerms() {
			schedule, err := s.generateSchedule(ctx, tx, credit)
			if err != nil {
				return err
			}
			if err := tx.ReplacePaymentPlan(ctx, credit.ID, schedule.Entries); err != nil {
				return err
			}
		}
		if err := tx.UpdateCredit(ctx, credit); err != nil {
			return err
		}
		if patch.Guarantees != nil {
			if err := tx.ReplaceGuarantees(ctx, credit.ID, *patch.Guarantees); err != nil {
				return err
			}
			changes["guarantees"] = len(*patch.Guarantees)
		}
		if patch.Guarantors != nil {
			if err := tx.ReplaceGuarantors(ctx, credit.ID, *patch.Guarantors); err != nil {
				return err
			}
			changes["guarantors"] = len(*patch.Guarantors)
		}
		return s.audit(ctx, tx, actor, models.ActionUpdateCredit, fmt.Sprintf("Actualizó el crédito %s.", credit.CreditNumber), credit.ID, changes)
	})
	if err != nil {
		return nil, s.fail(err, "update credit", msgCreditGone)
	}

	s.log.Infof("Credit %s updated by %s", credit.CreditNumber, actor.FullName)
	return credit, nil
}

func setText(target, value *string, field string, changes map[string]any) {
	if value == nil {
		return
	}
	*target = *value
	changes[field] = *value
}

func applyTerms(c *models.Credit, p CreditPatch, changes map[string]any) error {
	if p.Amount != nil {
		if !p.Amount.IsPositive() {
			return invalid("El monto debe ser mayor que cero.")
		}
		c.Amount, c.PrincipalAmount = *p.Amount, *p.Amount
		changes["amount"] = *p.Amount
	}
	if p.InterestRate != nil {
		if !p.InterestRate.IsPositive() {
			return invalid("La tasa de interés debe ser mayor que cero.")
		}
		c.InterestRate = *p.InterestRate
		changes["interestRate"] = *p.InterestRate
	}
	if p.TermMonths != nil {
		if *p.TermMonths <= 0 {
			return invalid("El plazo debe ser mayor que cero.")
		}
		c.TermMonths = *p.TermMonths
		changes["termMonths"] = *p.TermMonths
	}
	if p.PaymentFrequency != nil {
		if !p.PaymentFrequency.IsValid() {
			return invalid("Frecuencia de pago inválida.")
		}
		c.PaymentFrequency = *p.PaymentFrequency
		changes["paymentFrequency"] = *p.PaymentFrequency
	}
	if p.FirstPaymentDate != nil {
		d, err := utils.ParseDate(*p.FirstPaymentDate)
		if err != nil {
			return invalid("Fecha de primer pago inválida.")
		}
		c.FirstPaymentDate = d
		changes["firstPaymentDate"] = d.Format("2006-01-02")
	}
	return nil
}

// applyStatus moves c to next following the generic update rules.
func (s *Service) applyStatus(c *models.Credit, actor *models.Session, next models.CreditStatus, reason *string) error {
	if !next.IsValid() {
		return invalid("Estado de crédito inválido.")
	}
	if !next.KeepsApproval() {
		next = models.CreditPending
	}
	if next == c.Status {
		return nil
	}
	if !c.Status.CanTransition(next) {
		return conflict(fmt.Sprintf("No se puede cambiar el estado del crédito de %s a %s.", c.Status, next))
	}
	// Activation and its reversal only happen through DisburseCredit and
	// RevertDisbursement, which record the disbursement data.
	if next == models.CreditActive || c.Status == models.CreditActive && next == models.CreditApproved {
		return conflict("El desembolso y su reversión deben realizarse con sus operaciones propias.")
	}
	if err := s.authorize(actor, statusAction(next)); err != nil {
		return err
	}

	switch next {
	case models.CreditPending:
		c.ApprovalDate, c.ApprovedBy = nil, nil
	case models.CreditApproved:
		if c.ApprovalDate == nil {
			now := s.now()
			c.ApprovalDate, c.ApprovedBy = &now, &actor.FullName
		}
	case models.CreditRejected:
		if c.Status != models.CreditRejected {
			c.RejectedBy = &actor.FullName
			c.RejectionReason = reason
		}
	case models.CreditActive, models.CreditFallecido, models.CreditPaid:
	}
	c.Status = next
	return nil
}

// statusAction is the permission needed to move a credit to next with a
// generic update.
func statusAction(next models.CreditStatus) models.Action {
	switch next {
	case models.CreditApproved:
		return models.ActionApproveCredit
	case models.CreditRejected:
		return models.ActionRejectCredit
	case models.CreditFallecido:
		return models.ActionCloseCredit
	case models.CreditPending, models.CreditActive, models.CreditPaid:
	}
	return models.ActionUpdateCredit
}

// transition loads a credit, checks that it is in one of from, lets mutate
// change it and persists it with an audit entry, all in one transaction.
func (s *Service) transition(ctx context.Context, actor *models.Session, id string, action models.Action, from []models.CreditStatus, mutate func(tx *repository.Repository, c *models.Credit) (string, error)) (*models.Credit, error) {
	if err := s.authorize(actor, action); err != nil {
		return nil, err
	}
	var credit *models.Credit
	err := s.repo.InTx(ctx, func(tx *repository.Repository) error {
		var err error
		credit, err = tx.GetCreditForUpdate(ctx, id)
		if err != nil {
			return err
		}
		allowed := false
		for _, st := range from {
			allowed = allowed || credit.Status == st
		}
		if !allowed {
			return conflict(fmt.Sprintf("La operación no es válida para un crédito en estado %s.", credit.Status))
		}

		details, err := mutate(tx, credit)
		if err != nil {
			return err
		}
		credit.LastModifiedBy = &actor.FullName
		if err := tx.UpdateCredit(ctx, credit); err != nil {
			return err
		}
		return s.audit(ctx, tx, actor, action, details, credit.ID, map[string]any{"status": credit.Status})
	})
	if err != nil {
		return nil, s.fail(err, string(action), msgCreditGone)
	}
	s.log.Infof("Credit %s: %s by %s, now %s", credit.CreditNumber, action, actor.FullName, credit.Status)
	return credit, nil
}

// ApproveCredit moves a pending application to Approved.
func (s *Service) ApproveCredit(ctx context.Context, actor *models.Session, id string) (*models.Credit, error) {
	return s.transition(ctx, actor, id, models.ActionApproveCredit, []models.CreditStatus{models.CreditPending},
		func(_ *repository.Repository, c *models.Credit) (string, error) {
			now := s.now()
			c.Status = models.CreditApproved
			c.ApprovalDate, c.ApprovedBy = &now, &actor.FullName
			return fmt.Sprintf("Aprobó el crédito %s.", c.CreditNumber), nil
		})
}

// RejectCredit rejects a pending or approved credit.
func (s *Service) RejectCredit(ctx context.Context, actor *models.Session, id, reason string) (*models.Credit, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, invalid("Debe indicar el motivo del rechazo.")
	}
	return s.transition(ctx, actor, id, models.ActionRejectCredit, []models.CreditStatus{models.CreditPending, models.CreditApproved},
		func(_ *repository.Repository, c *models.Credit) (string, error) {
			c.Status = models.CreditRejected
			c.RejectionReason, c.RejectedBy = &reason, &actor.FullName
			return fmt.Sprintf("Rechazó el crédito %s por: %s.", c.CreditNumber, reason), nil
		})
}

// DisburseCredit delivers an approved credit. The disbursed amount defaults to
// the net amount after settling the client's other active credit.
func (s *Service) DisburseCredit(ctx context.Context, actor *models.Session, id string, in DisbursementInput) (*models.Credit, error) {
	return s.transition(ctx, actor, id, models.ActionDisburseCredit, []models.CreditStatus{models.CreditApproved},
		func(tx *repository.Repository, c *models.Credit) (string, error) {
			_, net, err := s.refinanceFigures(ctx, tx, c)
			if err != nil {
				return "", err
			}
			amount := net
			if in.Amount != nil {
				amount = *in.Amount
			}
			if amount.IsNegative() || amount.GreaterThan(c.Amount) {
				return "", invalid("El monto desembolsado no es válido.")
			}
			delivered := s.now()
			if in.DeliveryDate != nil {
				delivered = *in.DeliveryDate
			}
			c.Status = models.CreditActive
			c.DisbursedAmount = &amount
			c.DeliveryDate = &delivered
			c.DisbursedBy = &actor.FullName
			return fmt.Sprintf("Desembolsó C$%s del crédito %s.", amount.StringFixed(2), c.CreditNumber), nil
		})
}

// RevertDisbursement sends an active credit back to Approved and clears its
// disbursement data.
func (s *Service) RevertDisbursement(ctx context.Context, actor *models.Session, id string) (*models.Credit, error) {
	return s.transition(ctx, actor, id, models.ActionRevertCredit, []models.CreditStatus{models.CreditActive},
		func(_ *repository.Repository, c *models.Credit) (string, error) {
			c.Status = models.CreditApproved
			c.DisbursedAmount, c.DeliveryDate, c.DisbursedBy = nil, nil, nil
			return fmt.Sprintf("Revirtió el desembolso del crédito %s.", c.CreditNumber), nil
		})
}

// DeleteCredit removes a credit and everything it owns.
func (s *Service) DeleteCredit(ctx context.Context, actor *models.Session, id string) error {
	if err := s.authorize(actor, models.ActionDeleteCredit); err != nil {
		return err
	}
	err := s.repo.InTx(ctx, func(tx *repository.Repository) error {
		credit, err := tx.GetCreditForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteCredit(ctx, id); err != nil {
			return err
		}
		return s.audit(ctx, tx, actor, models.ActionDeleteCredit, fmt.Sprintf("Eliminó el crédito %s.", credit.CreditNumber), id, nil)
	})
	if err != nil {
		return s.fail(err, "delete credit", msgCreditGone)
	}
	s.log.Infof("Credit %s deleted by %s", id, actor.FullName)
	return nil
}

// refinanceFigures returns the balance of the client's other active credit and
// the net amount left to deliver for an Approved credit.
func (s *Service) refinanceFigures(ctx context.Context, repo *repository.Repository, c *models.Credit) (decimal.Decimal, decimal.Decimal, error) {
	if c.Status != models.CreditApproved {
		return decimal.Zero, c.Amount, nil
	}
	previous, err := repo.FindOtherActiveCredit(ctx, c.ClientID, c.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return decimal.Zero, c.Amount, nil
	}
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	details, err := s.statusOf(ctx, repo, previous.ID)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	net := c.Amount.Sub(details.RemainingBalance)
	if net.IsNegative() {
		net = decimal.Zero
	}
	return details.RemainingBalance, net, nil
}

// statusOf computes the current status details of a credit.
func (s *Service) statusOf(ctx context.Context, repo *repository.Repository, creditID string) (models.StatusDetails, error) {
	plan, err := repo.GetPaymentPlan(ctx, creditID)
	if err != nil {
		return models.StatusDetails{}, err
	}
	payments, err := repo.ListPayments(ctx, creditID)
	if err != nil {
		return models.StatusDetails{}, err
	}
	return amortization.CalculateStatus(plan, payments, s.today()), nil
}

// GetCredit returns a credit with everything it owns and its derived figures.
func (s *Service) GetCredit(ctx context.Context, actor *models.Session, id string) (*models.CreditDetail, error) {
	if actor == nil {
		return nil, errUnauthenticated
	}
	detail, err := s.creditDetail(ctx, id)
	if err != nil {
		return nil, s.fail(err, "get credit", msgCreditGone)
	}
	return detail, nil
}

func (s *Service) creditDetail(ctx context.Context, id string) (*models.CreditDetail, error) {
	credit, err := s.repo.GetCredit(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &models.CreditDetail{Credit: *credit}

	client, err := s.repo.GetClient(ctx, credit.ClientID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	detail.Client = client
	if detail.PaymentPlan, err = s.repo.GetPaymentPlan(ctx, id); err != nil {
		return nil, err
	}
	if detail.RegisteredPayments, err = s.repo.ListPayments(ctx, id); err != nil {
		return nil, err
	}
	if detail.Guarantees, err = s.repo.GetGuarantees(ctx, id); err != nil {
		return nil, err
	}
	if detail.Guarantors, err = s.repo.GetGuarantors(ctx, id); err != nil {
		return nil, err
	}
	status := amortization.CalculateStatus(detail.PaymentPlan, detail.RegisteredPayments, s.today())
	detail.StatusDetails = &status
	if detail.OutstandingBalance, detail.NetDisbursementAmount, err = s.refinanceFigures(ctx, s.repo, credit); err != nil {
		return nil, err
	}
	return detail, nil
}

// ListCredits returns credits matching filter. Gestores only see the credits
// they collect.
func (s *Service) ListCredits(ctx context.Context, actor *models.Session, filter models.CreditFilter) ([]models.Credit, error) {
	if actor == nil {
		return nil, errUnauthenticated
	}
	if actor.Role == models.RoleGestor {
		filter.GestorName = actor.FullName
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, invalid("Estado de crédito inválido.")
	}
	credits, err := s.repo.ListCredits(ctx, filter)
	if err != nil {
		return nil, s.fail(err, "list credits", "")
	}
	return credits, nil
}

// SearchActiveCredits looks up active credits by client name, cedula or credit number.
func (s *Service) SearchActiveCredits(ctx context.Context, actor *models.Session, term string) ([]models.Credit, error) {
	if actor == nil {
		return nil, errUnauthenticated
	}
	term = strings.TrimSpace(term)
	if len(term) < 2 {
		return []models.Credit{}, nil
	}
	credits, err := s.repo.SearchActiveCredits(ctx, term)
	if err != nil {
		return nil, s.fail(err, "search credits", "")
	}
	return credits, nil
}
