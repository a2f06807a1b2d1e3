package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentPlanEntry is one installment of a credit's amortization schedule
type PaymentPlanEntry struct {
	CreditID      string          `json:"creditId"`
	PaymentNumber int             `json:"paymentNumber"`
	PaymentDate   time.Time       `json:"paymentDate"`
	Amount        decimal.Decimal `json:"amount"`
	Principal     decimal.Decimal `json:"principal"`
	Interest      decimal.Decimal `json:"interest"`
	Balance       decimal.Decimal `json:"balance"`
}

// StatusDetails is the derived repayment state of a credit
type StatusDetails struct {
	TotalPlanned     decimal.Decimal   `json:"totalPlanned"`
	TotalPaid        decimal.Decimal   `json:"totalPaid"`
	RemainingBalance decimal.Decimal   `json:"remainingBalance"`
	IsPaidOff        bool              `json:"isPaidOff"`
	IsOverdue        bool              `json:"isOverdue"`
	DaysOverdue      int               `json:"daysOverdue"`
	OverdueAmount    decimal.Decimal   `json:"overdueAmount"`
	InstallmentsPaid int               `json:"installmentsPaid"`
	NextDueEntry     *PaymentPlanEntry `json:"nextDueEntry,omitempty"`
	LastPaymentDate  *time.Time        `json:"lastPaymentDate,omitempty"`
}
