package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"bank/internal/core"
)

// LedgerService is the slice of the ledger core the HTTP boundary calls into.
type LedgerService interface {
	RegisterCustomer(ctx context.Context, input core.RegisterCustomerInput) (core.Customer, error)
	UpdateCustomerContact(ctx context.Context, customerID, email, phone string) error
	OpenAccount(ctx context.Context, input core.OpenAccountInput) (core.Account, error)
	Deposit(ctx context.Context, number string, amount decimal.Decimal, description string) (core.Transaction, error)
	Withdraw(ctx context.Context, number string, amount decimal.Decimal, description string) (core.Transaction, error)
	Transfer(ctx context.Context, fromNumber, toNumber string, amount decimal.Decimal, description string) (core.TransferResult, error)
	ChargeFee(ctx context.Context, number string, amount decimal.Decimal, description string) (core.Transaction, error)
	CloseAccount(ctx context.Context, number string) error
	FreezeAccount(ctx context.Context, number string) error
	UnfreezeAccount(ctx context.Context, number string) error
	GetAccount(ctx context.Context, number string) (core.Account, error)
	Balance(ctx context.Context, number string) (decimal.Decimal, error)
	AccountHistory(ctx context.Context, number string, within core.TimeRange) ([]core.Transaction, error)
	CustomerHistory(ctx context.Context, customerID string, within core.TimeRange) ([]core.Transaction, error)
}

// InterestRunner triggers periodic interest. The schedule itself lives with
// the caller, not the core.
type InterestRunner interface {
	ApplyInterestToAll(ctx context.Context) (core.InterestRunSummary, error)
}

type Handler struct {
	ledger   LedgerService
	interest InterestRunner
	validate *validator.Validate
	logger   core.Logger
}

func NewHandler(ledger LedgerService, interest InterestRunner, logger core.Logger) Handler {
	return Handler{
		ledger:   ledger,
		interest: interest,
		validate: validator.New(),
		logger:   logger,
	}
}

func (h Handler) PostCustomers(w http.ResponseWriter, r *http.Request) {
	var req RegisterCustomerRequest
	if !h.decode(w, r, &req) {
		return
	}

	customer, err := h.ledger.RegisterCustomer(r.Context(), req.ToDomain())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.respond(w, r, http.StatusCreated, NewCustomerResponse(customer))
}

func (h Handler) PatchCustomerContact(w http.ResponseWriter, r *http.Request) {
	var req UpdateContactRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.ledger.UpdateCustomerContact(r.Context(), r.PathValue("id"), req.Email, req.Phone); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h Handler) PostAccounts(w http.ResponseWriter, r *http.Request) {
	var req OpenAccountRequest
	if !h.decode(w, r, &req) {
		return
	}

	input, err := req.ToDomain()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	account, err := h.ledger.OpenAccount(r.Context(), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.respond(w, r, http.StatusCreated, NewAccountResponse(account))
}

func (h Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.ledger.GetAccount(r.Context(), r.PathValue("number"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.respond(w, r, http.StatusOK, NewAccountResponse(account))
}

func (h Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	number := r.PathValue("number")

	balance, err := h.ledger.Balance(r.Context(), number)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.respond(w, r, http.StatusOK, BalanceResponse{
		AccountNumber: number,
		Balance:       balance.StringFixed(2),
	})
}

func (h Handler) PostDeposit(w http.ResponseWriter, r *http.Request) {
	h.movement(w, r, h.ledger.Deposit)
}

func (h Handler) PostWithdrawal(w http.ResponseWriter, r *http.Request) {
	h.movement(w, r, h.ledger.Withdraw)
}

func (h Handler) PostFee(w http.ResponseWriter, r *http.Request) {
	h.movement(w, r, h.ledger.ChargeFee)
}

func (h Handler) movement(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, number string, amount decimal.Decimal, description string) (core.Transaction, error),
) {
	var req MovementRequest
	if !h.decode(w, r, &req) {
		return
	}

	amount, err := ParseAmount(req.Amount)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	txn, err := op(r.Context(), r.PathValue("number"), amount, req.Description)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.respond(w, r, http.StatusCreated, NewTransactionResponse(txn))
}

func (h Handler) PostTransfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if !h.decode(w, r, &req) {
		return
	}

	amount, err := ParseAmount(req.Amount)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.ledger.Transfer(r.Context(), req.FromAccount, req.ToAccount, amount, req.Description)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.respond(w, r, http.StatusCreated, TransferResponse{
		Out: NewTransactionResponse(result.Out),
		In:  NewTransactionResponse(result.In),
	})
}

func (h Handler) PostClose(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.CloseAccount(r.Context(), r.PathValue("number")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h Handler) PostFreeze(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.FreezeAccount(r.Context(), r.PathValue("number")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h Handler) PostUnfreeze(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.UnfreezeAccount(r.Context(), r.PathValue("number")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h Handler) GetAccountTransactions(w http.ResponseWriter, r *http.Request) {
	within, err := parseTimeRange(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	txns, err := h.ledger.AccountHistory(r.Context(), r.PathValue("number"), within)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.respond(w, r, http.StatusOK, NewTransactionListResponse(txns))
}

func (h Handler) GetCustomerTransactions(w http.ResponseWriter, r *http.Request) {
	within, err := parseTimeRange(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	txns, err := h.ledger.CustomerHistory(r.Context(), r.PathValue("id"), within)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.respond(w, r, http.StatusOK, NewTransactionListResponse(txns))
}

func (h Handler) PostInterestRun(w http.ResponseWriter, r *http.Request) {
	summary, err := h.interest.ApplyInterestToAll(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.respond(w, r, http.StatusOK, NewInterestRunResponse(summary))
}

func parseTimeRange(r *http.Request) (core.TimeRange, error) {
	var within core.TimeRange

	if from := r.URL.Query().Get("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return core.TimeRange{}, errors.New("invalid 'from' timestamp, expected RFC3339")
		}
		within.From = t
	}
	if to := r.URL.Query().Get("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return core.TimeRange{}, errors.New("invalid 'to' timestamp, expected RFC3339")
		}
		within.To = t
	}

	return within, nil
}

func (h Handler) decode(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}

	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}

	return true
}

func (h Handler) respond(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}

// writeError maps the core error taxonomy onto HTTP status codes. Busy gets
// 503 so callers know the request is safe to retry; everything else is
// terminal for the request.
func (h Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrValidation),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrSameAccount):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, core.ErrNotFound),
		errors.Is(err, core.ErrCustomerNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, core.ErrAccountNotActive),
		errors.Is(err, core.ErrOperationNotPermitted),
		errors.Is(err, core.ErrDuplicateKey):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, core.ErrInsufficientFunds):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, core.ErrBusy):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		h.logger.ErrorContext(r.Context(), "request failed", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
