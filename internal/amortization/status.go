package amortization

import (
	"time"

	"github.com/credinica/loan-service/internal/models"
	"github.com/credinica/loan-service/internal/utils"
	"github.com/shopspring/decimal"
)

// PaidTolerance is the balance at or below which a credit counts as paid off.
var PaidTolerance = decimal.NewFromFloat(0.01)

// IsPaidOff reports whether a remaining balance is within PaidTolerance.
func IsPaidOff(remaining decimal.Decimal) bool {
	return remaining.LessThanOrEqual(PaidTolerance)
}

// CalculateStatus derives the repayment state of a credit on the calendar day today.
// Only payments whose status counts toward the balance are considered; they are
// applied to plan entries in order.
func CalculateStatus(plan []models.PaymentPlanEntry, payments []models.RegisteredPayment, today time.Time) models.StatusDetails {
	today = utils.DateOnly(today)
	var details models.StatusDetails

	for _, p := range payments {
		if !p.Status.CountsTowardBalance() {
			continue
		}
		details.TotalPaid = details.TotalPaid.Add(p.Amount)
		if details.LastPaymentDate == nil || p.PaymentDate.After(*details.LastPaymentDate) {
			d := p.PaymentDate
			details.LastPaymentDate = &d
		}
	}

	var dueThroughToday decimal.Decimal
	covered := decimal.Zero
	for i := range plan {
		entry := plan[i]
		details.TotalPlanned = details.TotalPlanned.Add(entry.Amount)
		if utils.DateOnly(entry.PaymentDate).Before(today) {
			dueThroughToday = dueThroughToday.Add(entry.Amount)
		}
		if details.NextDueEntry != nil {
			continue
		}
		covered = covered.Add(entry.Amount)
		if covered.LessThanOrEqual(details.TotalPaid.Add(PaidTolerance)) {
			details.InstallmentsPaid++
			continue
		}
		details.NextDueEntry = &entry
	}

	details.RemainingBalance = details.TotalPlanned.Sub(details.TotalPaid)
	if details.RemainingBalance.IsNegative() {
		details.RemainingBalance = decimal.Zero
	}
	details.IsPaidOff = IsPaidOff(details.RemainingBalance)

	if !details.IsPaidOff && details.NextDueEntry != nil {
		dueDate := utils.DateOnly(details.NextDueEntry.PaymentDate)
		if dueDate.Before(today) {
			details.IsOverdue = true
			details.DaysOverdue = utils.DaysBetween(dueDate, today)
			overdue := dueThroughToday.Sub(details.TotalPaid)
			if overdue.IsPositive() {
				details.OverdueAmount = overdue
			}
		}
	}
	return details
}
