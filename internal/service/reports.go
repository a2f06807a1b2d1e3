package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/credinica/loan-service/internal/models"
	"github.com/credinica/loan-service/internal/repository"
	"github.com/credinica/loan-service/internal/utils"
	"github.com/shopspring/decimal"
)

const defaultReportDays = 30

// DailyActivity is the end-of-day closure of a user: the payments they
// collected and the credits they disbursed today, business time. An empty
// userID means the caller.
func (s *Service) DailyActivity(ctx context.Context, actor *models.Session, userID string) (*models.DailyActivityReport, error) {
	if actor == nil {
		return nil, errUnauthenticated
	}
	name := actor.FullName
	if userID != "" && userID != actor.UserID {
		if err := s.authorize(actor, models.ActionViewReports); err != nil {
			return nil, err
		}
		user, err := s.repo.FindUserByID(ctx, userID)
		if err != nil {
			return nil, s.fail(err, "find user for closure", msgUserGone)
		}
		name = user.FullName
	}

	from, to := utils.DayBounds(s.now(), s.loc)
	report := &models.DailyActivityReport{
		Collections:   models.DailyActivitySummary{TotalActivityAmount: decimal.Zero, Transactions: []models.DailyTransaction{}},
		Disbursements: models.DailyActivitySummary{TotalActivityAmount: decimal.Zero, Transactions: []models.DailyTransaction{}},
	}

	payments, err := s.repo.ListPaymentsManagedBy(ctx, name, from, to)
	if err != nil {
		return nil, s.fail(err, "list collected payments", "")
	}
	credits := map[string]*models.Credit{}
	for _, p := range payments {
		credit, ok := credits[p.CreditID]
		if !ok {
			credit, err = s.repo.GetCredit(ctx, p.CreditID)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return nil, s.fail(err, "get credit for closure", "")
			}
			credits[p.CreditID] = credit
		}
		description := "Abono a crédito"
		if credit != nil {
			description = fmt.Sprintf("Abono de %s (%s)", credit.ClientName, credit.CreditNumber)
		}
		report.Collections.Transactions = append(report.Collections.Transactions, models.DailyTransaction{
			ID:          p.ID,
			Type:        models.TransactionPayment,
			Amount:      p.Amount,
			Description: description,
			Timestamp:   p.PaymentDate,
		})
		report.Collections.TotalActivityAmount = report.Collections.TotalActivityAmount.Add(p.Amount)
	}

	disbursed, err := s.repo.ListDisbursedBy(ctx, name, from, to)
	if err != nil {
		return nil, s.fail(err, "list disbursed credits", "")
	}
	for _, c := range disbursed {
		amount := c.Amount
		if c.DisbursedAmount != nil {
			amount = *c.DisbursedAmount
		}
		tx := models.DailyTransaction{
			ID:          c.ID,
			Type:        models.TransactionDisbursement,
			Amount:      amount,
			Description: fmt.Sprintf("Desembolso a %s (%s)", c.ClientName, c.CreditNumber),
		}
		if c.DeliveryDate != nil {
			tx.Timestamp = *c.DeliveryDate
		}
		report.Disbursements.Transactions = append(report.Disbursements.Transactions, tx)
		report.Disbursements.TotalActivityAmount = report.Disbursements.TotalActivityAmount.Add(amount)
	}
	return report, nil
}

// reportRange turns optional YYYY-MM-DD bounds into UTC instants covering
// whole business days. It defaults to the last 30 days.
func (s *Service) reportRange(fromRaw, toRaw string) (time.Time, time.Time, error) {
	today := s.today()
	fromDay, toDay := today.AddDate(0, 0, -defaultReportDays), today
	var err error
	if fromRaw != "" {
		if fromDay, err = utils.ParseDate(fromRaw); err != nil {
			return time.Time{}, time.Time{}, invalid("Fecha inicial inválida.")
		}
	}
	if toRaw != "" {
		if toDay, err = utils.ParseDate(toRaw); err != nil {
			return time.Time{}, time.Time{}, invalid("Fecha final inválida.")
		}
	}
	if toDay.Before(fromDay) {
		return time.Time{}, time.Time{}, invalid("La fecha final no puede ser anterior a la inicial.")
	}
	from := time.Date(fromDay.Year(), fromDay.Month(), fromDay.Day(), 0, 0, 0, 0, s.loc)
	to := time.Date(toDay.Year(), toDay.Month(), toDay.Day(), 0, 0, 0, 0, s.loc).AddDate(0, 0, 1).Add(-time.Nanosecond)
	return from.UTC(), to.UTC(), nil
}

// RejectionAnalysis lists the credits rejected among applications filed in the range.
func (s *Service) RejectionAnalysis(ctx context.Context, actor *models.Session, fromRaw, toRaw string) ([]models.RejectionAnalysisItem, error) {
	if err := s.authorize(actor, models.ActionViewReports); err != nil {
		return nil, err
	}
	from, to, err := s.reportRange(fromRaw, toRaw)
	if err != nil {
		return nil, err
	}
	credits, err := s.repo.ListRejected(ctx, from, to)
	if err != nil {
		return nil, s.fail(err, "list rejected credits", "")
	}

	items := make([]models.RejectionAnalysisItem, 0, len(credits))
	for _, c := range credits {
		rejectedAt := c.UpdatedAt
		items = append(items, models.RejectionAnalysisItem{
			CreditID:        c.ID,
			CreditNumber:    c.CreditNumber,
			ClientName:      c.ClientName,
			Amount:          c.Amount,
			RejectionReason: deref(c.RejectionReason),
			RejectedBy:      deref(c.RejectedBy),
			RejectionDate:   &rejectedAt,
			Branch:          deref(c.BranchName),
		})
	}
	return items, nil
}

// ExportRejectionAnalysis renders the rejection report as a SpreadsheetML workbook.
func (s *Service) ExportRejectionAnalysis(ctx context.Context, actor *models.Session, fromRaw, toRaw string) ([]byte, error) {
	items, err := s.RejectionAnalysis(ctx, actor, fromRaw, toRaw)
	if err != nil {
		return nil, err
	}
	sheet := newWorkbook("Rechazos")
	sheet.header("Crédito", "Cliente", "Monto", "Motivo", "Rechazado por", "Fecha", "Sucursal")
	for _, it := range items {
		date := ""
		if it.RejectionDate != nil {
			date = it.RejectionDate.In(s.loc).Format("2006-01-02")
		}
		sheet.row(it.CreditNumber, it.ClientName, it.Amount, it.RejectionReason, it.RejectedBy, date, it.Branch)
	}
	out, err := sheet.bytes()
	if err != nil {
		return nil, s.fail(err, "render rejection workbook", "")
	}
	return out, nil
}

// PortfolioSummary totals the outstanding and overdue balances of all active
// credits. With an exchange-rate provider the outstanding total is also given in USD.
func (s *Service) PortfolioSummary(ctx context.Context, actor *models.Session) (*models.PortfolioSummary, error) {
	if err := s.authorize(actor, models.ActionViewReports); err != nil {
		return nil, err
	}
	credits, err := s.repo.ListCredits(ctx, models.CreditFilter{Status: models.CreditActive})
	if err != nil {
		return nil, s.fail(err, "list active credits", "")
	}

	summary := &models.PortfolioSummary{
		ActiveCredits:    len(credits),
		TotalOutstanding: decimal.Zero,
		TotalOverdue:     decimal.Zero,
		DelinquencyRatio: decimal.Zero,
		GeneratedAt:      s.now(),
	}
	for _, c := range credits {
		status, err := s.statusOf(ctx, s.repo, c.ID)
		if err != nil {
			return nil, s.fail(err, "compute credit status", "")
		}
		summary.TotalOutstanding = summary.TotalOutstanding.Add(status.RemainingBalance)
		if status.IsOverdue {
			summary.OverdueCredits++
			summary.TotalOverdue = summary.TotalOverdue.Add(status.OverdueAmount)
		}
	}
	if summary.TotalOutstanding.IsPositive() {
		summary.DelinquencyRatio = summary.TotalOverdue.DivRound(summary.TotalOutstanding, 4)
	}

	if s.rates != nil {
		rate, err := s.rates.ExchangeRate(ctx, s.today())
		switch {
		case err != nil:
			s.log.WithError(err).Warn("Exchange rate unavailable, portfolio summary without USD figures")
		case rate.IsPositive():
			usd := summary.TotalOutstanding.DivRound(rate, 2)
			summary.ExchangeRate = &rate
			summary.TotalOutstandingUS = &usd
		}
	}
	return summary, nil
}

// DisbursementQueue lists Approved credits with the balance of any credit they
// refinance and the net amount to deliver.
func (s *Service) DisbursementQueue(ctx context.Context, actor *models.Session) ([]models.DisbursementQueueItem, error) {
	if err := s.authorize(actor, models.ActionDisburseCredit); err != nil {
		return nil, err
	}
	credits, err := s.repo.ListCredits(ctx, models.CreditFilter{Status: models.CreditApproved})
	if err != nil {
		return nil, s.fail(err, "list approved credits", "")
	}
	queue := make([]models.DisbursementQueueItem, 0, len(credits))
	for i := range credits {
		outstanding, net, err := s.refinanceFigures(ctx, s.repo, &credits[i])
		if err != nil {
			return nil, s.fail(err, "compute refinance figures", "")
		}
		queue = append(queue, models.DisbursementQueueItem{
			Credit:                credits[i],
			OutstandingBalance:    outstanding,
			NetDisbursementAmount: net,
		})
	}
	return queue, nil
}

// PromissoryNote gathers what the promissory-note document needs.
func (s *Service) PromissoryNote(ctx context.Context, actor *models.Session, creditID string) (*models.PromissoryNote, error) {
	if actor == nil {
		return nil, errUnauthenticated
	}
	credit, err := s.repo.GetCredit(ctx, creditID)
	if err != nil {
		return nil, s.fail(err, "get credit", msgCreditGone)
	}
	if credit.Status == models.CreditRejected {
		return nil, conflict("No se puede generar el pagaré de un crédito rechazado.")
	}
	client, err := s.repo.GetClient(ctx, credit.ClientID)
	if err != nil {
		return nil, s.fail(err, "get client", msgClientGone)
	}
	guarantors, err := s.repo.GetGuarantors(ctx, creditID)
	if err != nil {
		return nil, s.fail(err, "get guarantors", "")
	}
	plan, err := s.repo.GetPaymentPlan(ctx, creditID)
	if err != nil {
		return nil, s.fail(err, "get payment plan", "")
	}
	return &models.PromissoryNote{
		Credit:       *credit,
		Client:       *client,
		Guarantors:   guarantors,
		Installments: len(plan),
		Installment:  credit.TotalInstallmentAmount,
	}, nil
}

// OverdueDigests groups overdue active credits by collections manager, with
// the manager's email when a user of that name exists.
func (s *Service) OverdueDigests(ctx context.Context) ([]models.OverdueDigest, error) {
	credits, err := s.repo.ListCredits(ctx, models.CreditFilter{Status: models.CreditActive})
	if err != nil {
		return nil, s.fail(err, "list active credits", "")
	}
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, s.fail(err, "list users", "")
	}
	emails := make(map[string]string, len(users))
	for _, u := range users {
		if u.Active {
			emails[u.FullName] = u.Email
		}
	}

	byManager := map[string]*models.OverdueDigest{}
	for _, c := range credits {
		status, err := s.statusOf(ctx, s.repo, c.ID)
		if err != nil {
			return nil, s.fail(err, "compute credit status", "")
		}
		if !status.IsOverdue {
			continue
		}
		digest, ok := byManager[c.CollectionsManager]
		if !ok {
			digest = &models.OverdueDigest{ManagerName: c.CollectionsManager, ManagerEmail: emails[c.CollectionsManager]}
			byManager[c.CollectionsManager] = digest
		}
		digest.Credits = append(digest.Credits, models.OverdueCredit{
			CreditID:         c.ID,
			CreditNumber:     c.CreditNumber,
			ClientName:       c.ClientName,
			DaysOverdue:      status.DaysOverdue,
			OverdueAmount:    status.OverdueAmount,
			RemainingBalance: status.RemainingBalance,
		})
	}

	digests := make([]models.OverdueDigest, 0, len(byManager))
	for _, d := range byManager {
		sort.Slice(d.Credits, func(i, j int) bool { return d.Credits[i].DaysOverdue > d.Credits[j].DaysOverdue })
		digests = append(digests, *d)
	}
	sort.Slice(digests, func(i, j int) bool { return digests[i].ManagerName < digests[j].ManagerName })
	return digests, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
