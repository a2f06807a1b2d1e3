package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisteredPayment is a collection recorded against a credit
type RegisteredPayment struct {
	ID                string          `json:"id"`
	CreditID          string          `json:"creditId"`
	PaymentDate       time.Time       `json:"paymentDate"`
	Amount            decimal.Decimal `json:"amount"`
	ManagedBy         string          `json:"managedBy"`
	TransactionNumber string          `json:"transactionNumber"`
	Status            PaymentStatus   `json:"status"`
	VoidReason        *string         `json:"voidReason,omitempty"`
	VoidRequestedBy   *string         `json:"voidRequestedBy,omitempty"`
}
