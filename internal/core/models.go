package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Classification string

const (
	ClassificationIndividual Classification = "individual"
	ClassificationCompany    Classification = "company"
)

type Customer struct {
	ID             string
	FirstName      string
	Surname        string
	CompanyName    string
	Classification Classification
	Email          string
	Phone          string
	CreatedAt      time.Time
}

// DisplayName renders a person as "First Surname" and a company by its
// registered name.
func (c Customer) DisplayName() string {
	if c.Classification == ClassificationCompany {
		return c.CompanyName
	}
	return strings.TrimSpace(c.FirstName + " " + c.Surname)
}

type Category string

const (
	CategorySavings    Category = "savings"
	CategoryInvestment Category = "investment"
	CategoryCheque     Category = "cheque"
)

type Status string

const (
	StatusActive Status = "active"
	StatusFrozen Status = "frozen"
	StatusClosed Status = "closed"
)

type Account struct {
	Number          string
	CustomerID      string
	Category        Category
	Balance         decimal.Decimal
	Branch          string
	Status          Status
	OpenedAt        time.Time
	Employer        string
	EmployerAddress string
}

type TransactionKind string

const (
	KindDeposit     TransactionKind = "deposit"
	KindWithdrawal  TransactionKind = "withdrawal"
	KindTransferOut TransactionKind = "transfer_out"
	KindTransferIn  TransactionKind = "transfer_in"
	KindInterest    TransactionKind = "interest"
	KindFee         TransactionKind = "fee"
)

// Transaction is one immutable entry of the audit trail. Amount is always
// positive; Kind carries the direction. BalanceAfter snapshots the owning
// account's balance after the entry was applied. ReferenceAccount is set on
// transfer legs only and names the counterparty.
type Transaction struct {
	ID               string
	AccountNumber    string
	Kind             TransactionKind
	Amount           decimal.Decimal
	BalanceAfter     decimal.Decimal
	Timestamp        time.Time
	Description      string
	ReferenceAccount string
}

// TimeRange bounds a history query. Zero fields are unbounded.
type TimeRange struct {
	From time.Time
	To   time.Time
}

func (r TimeRange) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

// TransferResult carries both legs of a completed transfer.
type TransferResult struct {
	Out Transaction
	In  Transaction
}

// InterestRunSummary reports the outcome of a batch interest run.
type InterestRunSummary struct {
	AccountsCredited int
	AccountsSkipped  int
	TotalInterest    decimal.Decimal
}
