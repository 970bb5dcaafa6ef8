package http

import (
	"net/http"
	"time"

	"expenseit/internal/core"
)

type expenseRequest struct {
	Title       string `json:"title"`
	Amount      string `json:"amount"` // decimal string, e.g. "12.34"
	CategoryID  int64  `json:"category_id"`
	Description string `json:"description"`
	Date        int64  `json:"date,omitempty"` // epoch millis, defaults to now
	ReceiptID   int64  `json:"receipt_id,omitempty"`
}

type expenseResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Amount      string `json:"amount"`
	CategoryID  int64  `json:"category_id"`
	Description string `json:"description"`
	Date        int64  `json:"date"`
	ReceiptID   int64  `json:"receipt_id,omitempty"`
}

func toExpenseResponse(e core.Expense) expenseResponse {
	return expenseResponse{
		ID:          e.ID,
		Title:       e.Title,
		Amount:      e.Amount.String(),
		CategoryID:  e.CategoryID,
		Description: e.Description,
		Date:        e.Date,
		ReceiptID:   e.ReceiptID,
	}
}

func (s *Server) expenseFromRequest(w http.ResponseWriter, req expenseRequest) (core.Expense, bool) {
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount")
		return core.Expense{}, false
	}
	date := req.Date
	if date == 0 {
		date = core.NowMillis(time.Now())
	}
	return core.Expense{
		Title:       req.Title,
		Amount:      core.Money{Cents: cents},
		CategoryID:  req.CategoryID,
		Description: req.Description,
		Date:        date,
		ReceiptID:   req.ReceiptID,
	}, true
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	expense, ok := s.expenseFromRequest(w, req)
	if !ok {
		return
	}

	id, err := s.repo.CreateExpense(r.Context(), expense)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	expense.ID = id
	writeJSON(w, http.StatusCreated, toExpenseResponse(expense))
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.repo.ListExpenses(r.Context())
	if err != nil {
		writeStorageError(w, err)
		return
	}
	out := make([]expenseResponse, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, toExpenseResponse(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid expense id")
		return
	}
	expense, err := s.repo.GetExpense(r.Context(), id)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseResponse(*expense))
}

// handleUpdateExpense replaces the full record.
func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid expense id")
		return
	}
	var req expenseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	expense, ok := s.expenseFromRequest(w, req)
	if !ok {
		return
	}
	expense.ID = id

	if err := s.repo.UpdateExpense(r.Context(), expense); err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseResponse(expense))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid expense id")
		return
	}
	if err := s.repo.DeleteExpense(r.Context(), id); err != nil {
		writeStorageError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.repo.MonthlySummaries(r.Context())
	if err != nil {
		writeStorageError(w, err)
		return
	}
	type monthTotal struct {
		Month string `json:"month"`
		Total string `json:"total"`
	}
	out := make([]monthTotal, 0, len(summaries))
	for _, sum := range summaries {
		out = append(out, monthTotal{Month: sum.Month, Total: sum.Total.String()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCategoryTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := s.repo.CategoryTotals(r.Context())
	if err != nil {
		writeStorageError(w, err)
		return
	}
	type categoryTotal struct {
		CategoryID int64  `json:"category_id"`
		Name       string `json:"name"`
		Total      string `json:"total"`
	}
	out := make([]categoryTotal, 0, len(totals))
	for _, t := range totals {
		out = append(out, categoryTotal{CategoryID: t.CategoryID, Name: t.Name, Total: t.Total.String()})
	}
	writeJSON(w, http.StatusOK, out)
}
