// Package http exposes the JSON API: expense and category CRUD, receipt
// browsing and editing, the currency preference, and the receipt scan
// endpoint that feeds the ingestion pipeline.
package http

import (
	"net/http"
	"time"

	applog "expenseit/internal/log"

	"expenseit/internal/amqp"
	"expenseit/internal/ingest"
	"expenseit/internal/storage"
)

type Server struct {
	http.Server

	repo         *storage.Repository
	orchestrator *ingest.Orchestrator
	events       *amqp.Client // optional, nil disables eventing
}

func NewServer(addr string, repo *storage.Repository, orchestrator *ingest.Orchestrator, events *amqp.Client) *Server {
	s := &Server{
		repo:         repo,
		orchestrator: orchestrator,
		events:       events,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/expenses", s.handleListExpenses)
	mux.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	mux.HandleFunc("GET /api/expenses/{id}", s.handleGetExpense)
	mux.HandleFunc("PUT /api/expenses/{id}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)
	mux.HandleFunc("GET /api/summary/monthly", s.handleMonthlySummary)
	mux.HandleFunc("GET /api/summary/categories", s.handleCategoryTotals)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("PUT /api/categories/order", s.handleReorderCategories)
	mux.HandleFunc("PUT /api/categories/{id}", s.handleUpdateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("GET /api/receipts", s.handleListReceipts)
	mux.HandleFunc("GET /api/receipts/{id}", s.handleGetReceipt)
	mux.HandleFunc("PUT /api/receipts/{id}", s.handleUpdateReceipt)
	mux.HandleFunc("DELETE /api/receipts/{id}", s.handleDeleteReceipt)
	mux.HandleFunc("PUT /api/receipts/{id}/items/{itemID}", s.handleUpdateReceiptItem)
	mux.HandleFunc("POST /api/receipts/{id}/expense", s.handleExpenseFromReceipt)
	mux.HandleFunc("POST /api/receipts/scan", s.handleScan)

	mux.HandleFunc("GET /api/settings/currency", s.handleGetCurrency)
	mux.HandleFunc("PUT /api/settings/currency", s.handleSetCurrency)

	s.Addr = addr
	s.Handler = applog.RequestLogger(mux)
	s.ReadTimeout = 30 * time.Second
	s.WriteTimeout = 120 * time.Second // scans poll the analysis service inline
	s.IdleTimeout = 60 * time.Second
	s.MaxHeaderBytes = 1 << 16

	return s
}
