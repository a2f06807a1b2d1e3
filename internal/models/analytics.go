package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PortfolioSummary represents the state of the active loan portfolio
type PortfolioSummary struct {
	ActiveCredits      int              `json:"activeCredits"`
	OverdueCredits     int              `json:"overdueCredits"`
	TotalOutstanding   decimal.Decimal  `json:"totalOutstanding"`
	TotalOverdue       decimal.Decimal  `json:"totalOverdue"`
	DelinquencyRatio   decimal.Decimal  `json:"delinquencyRatio"` // TotalOverdue / TotalOutstanding
	ExchangeRate       *decimal.Decimal `json:"exchangeRate,omitempty"`
	TotalOutstandingUS *decimal.Decimal `json:"totalOutstandingUsd,omitempty"`
	GeneratedAt        time.Time        `json:"generatedAt"`
}

// RejectionAnalysisItem is one rejected credit in the rejection report
type RejectionAnalysisItem struct {
	CreditID        string          `json:"creditId"`
	CreditNumber    string          `json:"creditNumber"`
	ClientName      string          `json:"clientName"`
	Amount          decimal.Decimal `json:"amount"`
	RejectionReason string          `json:"reason"`
	RejectedBy      string          `json:"rejectedBy"`
	RejectionDate   *time.Time      `json:"rejectionDate"`
	Branch          string          `json:"branch"`
}

// DisbursementQueueItem is an approved credit waiting for disbursement
type DisbursementQueueItem struct {
	Credit
	OutstandingBalance    decimal.Decimal `json:"outstandingBalance"`
	NetDisbursementAmount decimal.Decimal `json:"netDisbursementAmount"`
}

// PromissoryNote is the input of the promissory-note document generator
type PromissoryNote struct {
	Credit       Credit          `json:"credit"`
	Client       Client          `json:"client"`
	Guarantors   []Guarantor     `json:"guarantors"`
	Installments int             `json:"installments"`
	Installment  decimal.Decimal `json:"installmentAmount"`
}

// OverdueCredit is one late credit in a collections manager's digest
type OverdueCredit struct {
	CreditID         string          `json:"creditId"`
	CreditNumber     string          `json:"creditNumber"`
	ClientName       string          `json:"clientName"`
	DaysOverdue      int             `json:"daysOverdue"`
	OverdueAmount    decimal.Decimal `json:"overdueAmount"`
	RemainingBalance decimal.Decimal `json:"remainingBalance"`
}

// OverdueDigest groups the overdue credits a collections manager is responsible for
type OverdueDigest struct {
	ManagerName  string          `json:"managerName"`
	ManagerEmail string          `json:"managerEmail"`
	Credits      []OverdueCredit `json:"credits"`
}
