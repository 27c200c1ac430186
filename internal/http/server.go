package http

import (
	"context"
	"errors"
	"net/http"

	"bank/internal/core"
)

func loggingMiddleware(logger core.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.InfoContext(
			r.Context(),
			"request",
			"method", r.Method,
			"path", r.URL.Path,
		)

		next.ServeHTTP(w, r)
	})
}

type Server struct {
	httpServer *http.Server
	handler    Handler
	logger     core.Logger
}

func NewServer(
	ledger LedgerService,
	interest InterestRunner,
	logger core.Logger,
	config Config,
) *Server {
	handler := NewHandler(ledger, interest, logger)

	mux := http.NewServeMux()

	mux.HandleFunc("POST /customers", handler.PostCustomers)
	mux.HandleFunc("PATCH /customers/{id}/contact", handler.PatchCustomerContact)
	mux.HandleFunc("GET /customers/{id}/transactions", handler.GetCustomerTransactions)

	mux.HandleFunc("POST /accounts", handler.PostAccounts)
	mux.HandleFunc("GET /accounts/{number}", handler.GetAccount)
	mux.HandleFunc("GET /accounts/{number}/balance", handler.GetBalance)
	mux.HandleFunc("GET /accounts/{number}/transactions", handler.GetAccountTransactions)
	mux.HandleFunc("POST /accounts/{number}/deposits", handler.PostDeposit)
	mux.HandleFunc("POST /accounts/{number}/withdrawals", handler.PostWithdrawal)
	mux.HandleFunc("POST /accounts/{number}/fees", handler.PostFee)
	mux.HandleFunc("POST /accounts/{number}/close", handler.PostClose)
	mux.HandleFunc("POST /accounts/{number}/freeze", handler.PostFreeze)
	mux.HandleFunc("POST /accounts/{number}/unfreeze", handler.PostUnfreeze)

	mux.HandleFunc("POST /transfers", handler.PostTransfer)
	mux.HandleFunc("POST /interest/runs", handler.PostInterestRun)

	httpServer := &http.Server{
		Addr:         config.Address,
		Handler:      loggingMiddleware(logger, mux),
		ReadTimeout:  config.Timeout,
		WriteTimeout: config.Timeout,
	}

	return &Server{
		httpServer: httpServer,
		handler:    handler,
		logger:     logger,
	}
}

func (s *Server) Start(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Starting HTTP server", "address", s.httpServer.Addr)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.ErrorContext(ctx, "HTTP server error", "error", err)
		}
	}()

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Stopping HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the routed handler for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
