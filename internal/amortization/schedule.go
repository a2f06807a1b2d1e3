// Package amortization generates credit payment plans and derives the
// repayment status of a credit from its plan and registered payments.
package amortization

import (
	"math"
	"time"

	"github.com/credinica/loan-service/internal/models"
	"github.com/credinica/loan-service/internal/utils"
	"github.com/shopspring/decimal"
)

var (
	hundred      = decimal.NewFromInt(100)
	daysPerMonth = decimal.NewFromInt(30)
)

// Input holds the parameters of a payment plan.
type Input struct {
	Principal   decimal.Decimal
	MonthlyRate decimal.Decimal // percent per month, e.g. 2 for 2%
	TermMonths  int
	Frequency   models.PaymentFrequency
	StartDate   time.Time // date of the first installment
	Holidays    []time.Time
}

// Schedule is a generated payment plan with its totals.
type Schedule struct {
	Entries         []models.PaymentPlanEntry
	TotalPayment    decimal.Decimal
	TotalInterest   decimal.Decimal
	PeriodicPayment decimal.Decimal
}

// DueDate returns the date of the last installment.
func (s *Schedule) DueDate() time.Time {
	return s.Entries[len(s.Entries)-1].PaymentDate
}

// InstallmentCount returns how many installments a term produces, 0 when the
// frequency is unknown or the term is not positive.
func InstallmentCount(termMonths int, frequency models.PaymentFrequency) int {
	if termMonths <= 0 {
		return 0
	}
	return termMonths * frequency.InstallmentsPerMonth()
}

// Generate builds the amortization table for in. It returns nil when the
// parameters cannot produce a plan.
//
// Installments are a fixed annuity payment on the per-period rate; the last one
// absorbs rounding so the balance ends at exactly zero. An installment that falls
// on a holiday moves to the next collection day and carries interest for the
// extra days at the daily rate (monthly rate / 30). Daily plans simply skip
// weekends and holidays.
func Generate(in Input) *Schedule {
	n := InstallmentCount(in.TermMonths, in.Frequency)
	if n == 0 || in.StartDate.IsZero() || !in.Principal.IsPositive() || in.MonthlyRate.IsNegative() {
		return nil
	}

	perMonth := decimal.NewFromInt(int64(in.Frequency.InstallmentsPerMonth()))
	rate := in.MonthlyRate.Div(hundred).Div(perMonth)
	dailyRate := in.MonthlyRate.Div(hundred).Div(daysPerMonth)
	payment := periodicPayment(in.Principal, rate, n)
	cal := newCalendar(in.Holidays)
	dates := cal.installmentDates(utils.DateOnly(in.StartDate), in.Frequency, n)

	schedule := &Schedule{
		Entries:         make([]models.PaymentPlanEntry, 0, n),
		PeriodicPayment: payment,
	}
	balance := in.Principal
	for i := 0; i < n; i++ {
		interest := balance.Mul(rate)
		if extra := dates[i].shiftedDays; extra > 0 {
			interest = interest.Add(balance.Mul(dailyRate).Mul(decimal.NewFromInt(int64(extra))))
		}
		interest = interest.Round(2)

		var principal decimal.Decimal
		if i == n-1 {
			principal = balance
		} else {
			principal = payment.Sub(interest)
			if principal.IsNegative() {
				principal = decimal.Zero
			}
			if principal.GreaterThan(balance) {
				principal = balance
			}
		}
		amount := principal.Add(interest)
		balance = balance.Sub(principal)

		schedule.Entries = append(schedule.Entries, models.PaymentPlanEntry{
			PaymentNumber: i + 1,
			PaymentDate:   dates[i].date,
			Amount:        amount,
			Principal:     principal,
			Interest:      interest,
			Balance:       balance,
		})
		schedule.TotalPayment = schedule.TotalPayment.Add(amount)
		schedule.TotalInterest = schedule.TotalInterest.Add(interest)
	}
	return schedule
}

// periodicPayment is the annuity payment P*r / (1 - (1+r)^-n), or P/n without interest.
func periodicPayment(principal, rate decimal.Decimal, n int) decimal.Decimal {
	if rate.IsZero() {
		return principal.Div(decimal.NewFromInt(int64(n))).Round(2)
	}
	r := rate.InexactFloat64()
	factor := r / (1 - math.Pow(1+r, -float64(n)))
	return principal.Mul(decimal.NewFromFloat(factor)).Round(2)
}
