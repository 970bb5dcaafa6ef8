package core

import (
	"errors"
	"testing"
	"time"
)

func TestExpenseValidate(t *testing.T) {
	valid := Expense{
		Title:      "Groceries",
		Amount:     Money{Cents: 1250},
		CategoryID: 3,
		Date:       NowMillis(time.Now()),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid expense rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Expense)
		want   error
	}{
		{"empty title", func(e *Expense) { e.Title = "  " }, ErrEmptyTitle},
		{"negative amount", func(e *Expense) { e.Amount.Cents = -1 }, ErrInvalidAmount},
		{"missing category", func(e *Expense) { e.CategoryID = 0 }, nil},
		{"missing date", func(e *Expense) { e.Date = 0 }, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := valid
			tc.mutate(&e)
			err := e.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestReceiptItemValidate(t *testing.T) {
	item := ReceiptItem{ItemName: "Coffee", Quantity: 2, Price: Money{Cents: 350}}
	if err := item.Validate(); err != nil {
		t.Fatalf("valid item rejected: %v", err)
	}

	item.Quantity = -1
	if err := item.Validate(); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}

	// Zero quantity is allowed, the analysis service reports it for weighted goods.
	item.Quantity = 0
	if err := item.Validate(); err != nil {
		t.Fatalf("zero quantity rejected: %v", err)
	}
}

func TestCategoryValidate(t *testing.T) {
	if err := (Category{Name: "Food", DisplayOrder: 1}).Validate(); err != nil {
		t.Fatalf("valid category rejected: %v", err)
	}
	if err := (Category{Name: ""}).Validate(); !errors.Is(err, ErrEmptyName) {
		t.Fatal("expected ErrEmptyName")
	}
	if err := (Category{Name: "X", DisplayOrder: -2}).Validate(); err == nil {
		t.Fatal("expected error for negative display order")
	}
}
