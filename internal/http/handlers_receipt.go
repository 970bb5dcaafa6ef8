package http

import (
	"log/slog"
	"net/http"

	"expenseit/internal/core"
)

type receiptResponse struct {
	ID           int64  `json:"id"`
	MerchantName string `json:"merchant_name"`
	Date         int64  `json:"date"`
	TotalPrice   string `json:"total_price"`
	ImageURL     string `json:"image_url"`
}

type receiptItemResponse struct {
	ID        int64  `json:"id"`
	ReceiptID int64  `json:"receipt_id"`
	ItemName  string `json:"item_name"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

type receiptWithItemsResponse struct {
	receiptResponse
	Items []receiptItemResponse `json:"items"`
}

func toReceiptResponse(rec core.Receipt) receiptResponse {
	return receiptResponse{
		ID:           rec.ID,
		MerchantName: rec.MerchantName,
		Date:         rec.Date,
		TotalPrice:   rec.TotalPrice.String(),
		ImageURL:     rec.ImageURL,
	}
}

func toReceiptItemResponse(it core.ReceiptItem) receiptItemResponse {
	return receiptItemResponse{
		ID:        it.ID,
		ReceiptID: it.ReceiptID,
		ItemName:  it.ItemName,
		Quantity:  it.Quantity,
		Price:     it.Price.String(),
	}
}

func (s *Server) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	receipts, err := s.repo.ListReceipts(r.Context())
	if err != nil {
		writeStorageError(w, err)
		return
	}
	out := make([]receiptResponse, 0, len(receipts))
	for _, rec := range receipts {
		out = append(out, toReceiptResponse(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid receipt id")
		return
	}
	rec, err := s.repo.GetReceiptWithItems(r.Context(), id)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	out := receiptWithItemsResponse{
		receiptResponse: toReceiptResponse(rec.Receipt),
		Items:           make([]receiptItemResponse, 0, len(rec.Items)),
	}
	for _, it := range rec.Items {
		out.Items = append(out.Items, toReceiptItemResponse(it))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid receipt id")
		return
	}
	var req struct {
		MerchantName string `json:"merchant_name"`
		Date         int64  `json:"date"`
		TotalPrice   string `json:"total_price"`
		ImageURL     string `json:"image_url"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	cents, err := core.ParseDecimalToCents(req.TotalPrice)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid total price")
		return
	}
	rec := core.Receipt{
		ID:           id,
		MerchantName: req.MerchantName,
		Date:         req.Date,
		TotalPrice:   core.Money{Cents: cents},
		ImageURL:     req.ImageURL,
	}
	if err := s.repo.UpdateReceipt(r.Context(), rec); err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReceiptResponse(rec))
}

func (s *Server) handleUpdateReceiptItem(w http.ResponseWriter, r *http.Request) {
	receiptID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid receipt id")
		return
	}
	itemID, ok := pathID(r, "itemID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}
	var req struct {
		ItemName string `json:"item_name"`
		Quantity int    `json:"quantity"`
		Price    string `json:"price"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	cents, err := core.ParseDecimalToCents(req.Price)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid price")
		return
	}
	item := core.ReceiptItem{
		ID:        itemID,
		ReceiptID: receiptID,
		ItemName:  req.ItemName,
		Quantity:  req.Quantity,
		Price:     core.Money{Cents: cents},
	}
	if err := s.repo.UpdateReceiptItem(r.Context(), item); err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReceiptItemResponse(item))
}

func (s *Server) handleDeleteReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid receipt id")
		return
	}
	if err := s.repo.DeleteReceipt(r.Context(), id); err != nil {
		writeStorageError(w, err)
		return
	}
	if s.events != nil {
		// Eventing is best effort; the delete itself succeeded.
		if err := s.events.PublishReceiptEvent(r.Context(), id, "deleted"); err != nil {
			slog.ErrorContext(r.Context(), "Failed to publish receipt deleted event",
				"receipt_id", id, "error", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleExpenseFromReceipt creates an expense derived from a stored receipt:
// merchant as title, receipt total as amount, receipt date as date.
func (s *Server) handleExpenseFromReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid receipt id")
		return
	}
	var req struct {
		CategoryID  int64  `json:"category_id"`
		Description string `json:"description"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	rec, err := s.repo.GetReceipt(r.Context(), id)
	if err != nil {
		writeStorageError(w, err)
		return
	}

	categoryID := req.CategoryID
	if categoryID == 0 {
		sentinel, err := s.repo.GetCategoryByName(r.Context(), core.UncategorizedName)
		if err != nil {
			writeStorageError(w, err)
			return
		}
		categoryID = sentinel.ID
	}

	expense := core.Expense{
		Title:       rec.MerchantName,
		Amount:      rec.TotalPrice,
		CategoryID:  categoryID,
		Description: req.Description,
		Date:        rec.Date,
		ReceiptID:   rec.ID,
	}
	expenseID, err := s.repo.CreateExpense(r.Context(), expense)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	expense.ID = expenseID
	writeJSON(w, http.StatusCreated, toExpenseResponse(expense))
}
