package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Credit represents a credit application and, once disbursed, the loan account
type Credit struct {
	ID                     string           `json:"id"`
	CreditNumber           string           `json:"creditNumber"`
	ClientID               string           `json:"clientId"`
	ClientName             string           `json:"clientName"`
	Status                 CreditStatus     `json:"status"`
	ApplicationDate        time.Time        `json:"applicationDate"`
	ApprovalDate           *time.Time       `json:"approvalDate"`
	ApprovedBy             *string          `json:"approvedBy"`
	RejectionReason        *string          `json:"rejectionReason,omitempty"`
	RejectedBy             *string          `json:"rejectedBy,omitempty"`
	Amount                 decimal.Decimal  `json:"amount"`
	PrincipalAmount        decimal.Decimal  `json:"principalAmount"`
	InterestRate           decimal.Decimal  `json:"interestRate"` // monthly percent
	TermMonths             int              `json:"termMonths"`
	PaymentFrequency       PaymentFrequency `json:"paymentFrequency"`
	CurrencyType           string           `json:"currencyType"`
	TotalAmount            decimal.Decimal  `json:"totalAmount"`
	TotalInterest          decimal.Decimal  `json:"totalInterest"`
	TotalInstallmentAmount decimal.Decimal  `json:"totalInstallmentAmount"`
	FirstPaymentDate       time.Time        `json:"firstPaymentDate"`
	DeliveryDate           *time.Time       `json:"deliveryDate"`
	DueDate                time.Time        `json:"dueDate"`
	DisbursedAmount        *decimal.Decimal `json:"disbursedAmount"`
	DisbursedBy            *string          `json:"disbursedBy"`
	CollectionsManager     string           `json:"collectionsManager"`
	Supervisor             *string          `json:"supervisor"`
	CreatedBy              string           `json:"createdBy"`
	LastModifiedBy         *string          `json:"lastModifiedBy,omitempty"`
	Branch                 *string          `json:"branch"`
	BranchName             *string          `json:"branchName"`
	ProductType            string           `json:"productType"`
	SubProduct             string           `json:"subProduct"`
	ProductDestination     string           `json:"productDestination"`
	CreatedAt              time.Time        `json:"createdAt"`
	UpdatedAt              time.Time        `json:"updatedAt"`
}

// CreditDetail is a credit with everything it owns plus derived figures
type CreditDetail struct {
	Credit
	Client                *Client             `json:"clientDetails,omitempty"`
	PaymentPlan           []PaymentPlanEntry  `json:"paymentPlan"`
	RegisteredPayments    []RegisteredPayment `json:"registeredPayments"`
	Guarantees            []Guarantee         `json:"guarantees"`
	Guarantors            []Guarantor         `json:"guarantors"`
	StatusDetails         *StatusDetails      `json:"statusDetails,omitempty"`
	OutstandingBalance    decimal.Decimal     `json:"outstandingBalance"`
	NetDisbursementAmount decimal.Decimal     `json:"netDisbursementAmount"`
}

// CreditFilter narrows credit listings. Zero values are ignored.
type CreditFilter struct {
	Status     CreditStatus
	GestorName string
	ClientID   string
	Branches   []string
	SearchTerm string
	DateFrom   *time.Time
	DateTo     *time.Time
}
