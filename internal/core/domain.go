package core

import (
	"errors"
	"strings"
	"time"
)

// UncategorizedName is the reserved sentinel category created at display
// order 0. Expenses whose category is deleted are reassigned to it, and it
// cannot itself be deleted.
const UncategorizedName = "Uncategorized"

type (
	// Category groups expenses. DisplayOrder is a dense zero-based rank:
	// reordering always rewrites the full 0..n-1 sequence.
	Category struct {
		ID           int64
		Name         string
		Color        string
		DisplayOrder int
	}

	// Expense is a single spend record. Date is epoch millis. ReceiptID is
	// zero when the expense was entered manually rather than derived from a
	// scanned receipt.
	Expense struct {
		ID          int64
		Title       string
		Amount      Money
		CategoryID  int64
		Description string
		Date        int64
		ReceiptID   int64
	}

	// Receipt is the header of a scanned receipt. Date is epoch millis.
	Receipt struct {
		ID           int64
		MerchantName string
		Date         int64
		TotalPrice   Money
		ImageURL     string
	}

	// ReceiptItem is one line of a receipt. ReceiptID is rewritten by the
	// persistence layer when the parent receipt gets its id assigned.
	ReceiptItem struct {
		ID        int64
		ReceiptID int64
		ItemName  string
		Quantity  int
		Price     Money
	}

	// ReceiptWithItems pairs a receipt with its ordered line items.
	ReceiptWithItems struct {
		Receipt Receipt
		Items   []ReceiptItem
	}

	// MonthlySummary is the per-month expense total, month as "2006-01".
	MonthlySummary struct {
		Month string
		Total Money
	}

	// CategoryTotal is the per-category expense total.
	CategoryTotal struct {
		CategoryID int64
		Name       string
		Total      Money
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyTitle      = errors.New("empty title")
	ErrEmptyName       = errors.New("empty name")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrInvalidOrder    = errors.New("invalid category order")
	ErrNotFound        = errors.New("not found")
	ErrProtected       = errors.New("protected")
)

// NowMillis returns t as epoch milliseconds, the persisted date format.
func NowMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if c.DisplayOrder < 0 {
		return errors.New("negative display order")
	}
	return nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return ErrEmptyTitle
	}
	if len(e.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if e.CategoryID <= 0 {
		return errors.New("missing category")
	}
	if e.Date <= 0 {
		return errors.New("missing date")
	}
	return nil
}

func (r Receipt) Validate() error {
	if strings.TrimSpace(r.MerchantName) == "" {
		return ErrEmptyName
	}
	if err := r.TotalPrice.Validate(); err != nil {
		return err
	}
	if r.Date <= 0 {
		return errors.New("missing date")
	}
	return nil
}

func (i ReceiptItem) Validate() error {
	if strings.TrimSpace(i.ItemName) == "" {
		return ErrEmptyName
	}
	if i.Quantity < 0 {
		return ErrInvalidQuantity
	}
	return i.Price.Validate()
}
