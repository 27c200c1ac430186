package http

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bank/internal/core"
)

type RegisterCustomerRequest struct {
	FirstName      string `json:"first_name"`
	Surname        string `json:"surname"`
	CompanyName    string `json:"company_name"`
	Classification string `json:"classification" validate:"required,oneof=individual company"`
	Email          string `json:"email" validate:"omitempty,email"`
	Phone          string `json:"phone"`
}

func (req RegisterCustomerRequest) ToDomain() core.RegisterCustomerInput {
	return core.RegisterCustomerInput{
		FirstName:      req.FirstName,
		Surname:        req.Surname,
		CompanyName:    req.CompanyName,
		Classification: core.Classification(req.Classification),
		Email:          req.Email,
		Phone:          req.Phone,
	}
}

type UpdateContactRequest struct {
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone"`
}

type OpenAccountRequest struct {
	CustomerID      string `json:"customer_id" validate:"required"`
	Category        string `json:"category" validate:"required,oneof=savings investment cheque"`
	InitialDeposit  string `json:"initial_deposit"`
	Branch          string `json:"branch" validate:"required"`
	Employer        string `json:"employer"`
	EmployerAddress string `json:"employer_address"`
}

func (req OpenAccountRequest) ToDomain() (core.OpenAccountInput, error) {
	deposit := decimal.Zero
	if strings.TrimSpace(req.InitialDeposit) != "" {
		var err error
		deposit, err = ParseAmount(req.InitialDeposit)
		if err != nil {
			return core.OpenAccountInput{}, fmt.Errorf("invalid initial deposit: %w", err)
		}
	}

	return core.OpenAccountInput{
		CustomerID:      req.CustomerID,
		Category:        core.Category(req.Category),
		InitialDeposit:  deposit,
		Branch:          req.Branch,
		Employer:        req.Employer,
		EmployerAddress: req.EmployerAddress,
	}, nil
}

type MovementRequest struct {
	Amount      string `json:"amount" validate:"required"`
	Description string `json:"description"`
}

type TransferRequest struct {
	FromAccount string `json:"from_account" validate:"required"`
	ToAccount   string `json:"to_account" validate:"required"`
	Amount      string `json:"amount" validate:"required"`
	Description string `json:"description"`
}

// ParseAmount parses a decimal currency string. Amounts are exact fixed-point
// values; more than two decimal places is rejected rather than rounded.
func ParseAmount(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Decimal{}, fmt.Errorf("amount cannot be empty")
	}

	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount format: %w", err)
	}

	if amount.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("amount cannot be negative")
	}

	if amount.Exponent() < -2 {
		return decimal.Decimal{}, fmt.Errorf("amount cannot have more than two decimal places")
	}

	return amount, nil
}

type CustomerResponse struct {
	ID             string `json:"id"`
	DisplayName    string `json:"display_name"`
	Classification string `json:"classification"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	CreatedAt      string `json:"created_at"`
}

func NewCustomerResponse(customer core.Customer) CustomerResponse {
	return CustomerResponse{
		ID:             customer.ID,
		DisplayName:    customer.DisplayName(),
		Classification: string(customer.Classification),
		Email:          customer.Email,
		Phone:          customer.Phone,
		CreatedAt:      customer.CreatedAt.Format(time.RFC3339),
	}
}

type AccountResponse struct {
	Number     string `json:"number"`
	CustomerID string `json:"customer_id"`
	Category   string `json:"category"`
	Balance    string `json:"balance"`
	Branch     string `json:"branch"`
	Status     string `json:"status"`
	OpenedAt   string `json:"opened_at"`
}

func NewAccountResponse(account core.Account) AccountResponse {
	return AccountResponse{
		Number:     account.Number,
		CustomerID: account.CustomerID,
		Category:   string(account.Category),
		Balance:    account.Balance.StringFixed(2),
		Branch:     account.Branch,
		Status:     string(account.Status),
		OpenedAt:   account.OpenedAt.Format(time.RFC3339),
	}
}

type TransactionResponse struct {
	ID               string `json:"id"`
	AccountNumber    string `json:"account_number"`
	Kind             string `json:"kind"`
	Amount           string `json:"amount"`
	BalanceAfter     string `json:"balance_after"`
	Timestamp        string `json:"timestamp"`
	Description      string `json:"description,omitempty"`
	ReferenceAccount string `json:"reference_account,omitempty"`
}

func NewTransactionResponse(txn core.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:               txn.ID,
		AccountNumber:    txn.AccountNumber,
		Kind:             string(txn.Kind),
		Amount:           txn.Amount.StringFixed(2),
		BalanceAfter:     txn.BalanceAfter.StringFixed(2),
		Timestamp:        txn.Timestamp.Format(time.RFC3339Nano),
		Description:      txn.Description,
		ReferenceAccount: txn.ReferenceAccount,
	}
}

func NewTransactionListResponse(txns []core.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txns))
	for _, txn := range txns {
		out = append(out, NewTransactionResponse(txn))
	}
	return out
}

type TransferResponse struct {
	Out TransactionResponse `json:"out"`
	In  TransactionResponse `json:"in"`
}

type BalanceResponse struct {
	AccountNumber string `json:"account_number"`
	Balance       string `json:"balance"`
}

type InterestRunResponse struct {
	AccountsCredited int    `json:"accounts_credited"`
	AccountsSkipped  int    `json:"accounts_skipped"`
	TotalInterest    string `json:"total_interest"`
}

func NewInterestRunResponse(summary core.InterestRunSummary) InterestRunResponse {
	return InterestRunResponse{
		AccountsCredited: summary.AccountsCredited,
		AccountsSkipped:  summary.AccountsSkipped,
		TotalInterest:    summary.TotalInterest.StringFixed(2),
	}
}
