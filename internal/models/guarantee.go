package models

import "github.com/shopspring/decimal"

// Guarantee is a pledged article backing a credit
type Guarantee struct {
	ID             string          `json:"id"`
	CreditID       string          `json:"creditId"`
	Article        string          `json:"article"`
	Brand          string          `json:"brand"`
	Color          string          `json:"color"`
	Model          string          `json:"model"`
	Series         string          `json:"series"`
	EstimatedValue decimal.Decimal `json:"estimatedValue"`
}

// Guarantor is a co-signer (fiador) of a credit
type Guarantor struct {
	ID           string `json:"id"`
	CreditID     string `json:"creditId"`
	Name         string `json:"name"`
	Cedula       string `json:"cedula"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	Relationship string `json:"relationship"`
}
