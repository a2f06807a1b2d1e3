package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType distinguishes the movements of the daily closure
type TransactionType string

const (
	TransactionPayment      TransactionType = "Payment"
	TransactionDisbursement TransactionType = "Disbursement"
)

// DailyTransaction represents a collection or disbursement handled by a user today
type DailyTransaction struct {
	ID          string          `json:"id"`
	Type        TransactionType `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Timestamp   time.Time       `json:"timestamp"`
}

// DailyActivitySummary totals one kind of movement
type DailyActivitySummary struct {
	TotalActivityAmount decimal.Decimal    `json:"totalActivityAmount"`
	Transactions        []DailyTransaction `json:"transactions"`
}

// DailyActivityReport is the end-of-day closure for a user
type DailyActivityReport struct {
	Collections   DailyActivitySummary `json:"collections"`
	Disbursements DailyActivitySummary `json:"disbursements"`
}
