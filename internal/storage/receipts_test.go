package storage

import (
	"context"
	"errors"
	"testing"

	"expenseit/internal/core"
)

func sampleReceipt(t *testing.T) (core.Receipt, []core.ReceiptItem) {
	t.Helper()
	receipt := core.Receipt{
		MerchantName: "Corner Cafe",
		Date:         testDate(t, "2024-06-10"),
		TotalPrice:   core.Money{Cents: 1600},
		ImageURL:     "https://example.com/receipts/abc",
	}
	items := []core.ReceiptItem{
		{ItemName: "Coffee", Quantity: 2, Price: core.Money{Cents: 350}},
		{ItemName: "Croissant", Quantity: 1, Price: core.Money{Cents: 900}},
	}
	return receipt, items
}

func TestCreateReceiptWithItems(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	receipt, items := sampleReceipt(t)
	id, err := repo.CreateReceiptWithItems(ctx, receipt, items)
	if err != nil {
		t.Fatalf("CreateReceiptWithItems: %v", err)
	}

	got, err := repo.GetReceiptWithItems(ctx, id)
	if err != nil {
		t.Fatalf("GetReceiptWithItems: %v", err)
	}
	if got.Receipt.MerchantName != receipt.MerchantName {
		t.Errorf("merchant = %q, want %q", got.Receipt.MerchantName, receipt.MerchantName)
	}
	if got.Receipt.TotalPrice.Cents != 1600 {
		t.Errorf("total = %d cents, want 1600", got.Receipt.TotalPrice.Cents)
	}
	if len(got.Items) != len(items) {
		t.Fatalf("got %d items, want %d", len(got.Items), len(items))
	}
	for i, it := range got.Items {
		if it.ReceiptID != id {
			t.Errorf("item %d: receipt id %d, want %d", i, it.ReceiptID, id)
		}
		if it.ItemName != items[i].ItemName {
			t.Errorf("item %d: name %q, want %q", i, it.ItemName, items[i].ItemName)
		}
	}
}

func TestCreateReceiptRejectsInvalidItemWholesale(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	receipt, items := sampleReceipt(t)
	items = append(items, core.ReceiptItem{ItemName: "", Quantity: 1, Price: core.Money{Cents: 100}})

	if _, err := repo.CreateReceiptWithItems(ctx, receipt, items); !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("error = %v, want ErrEmptyName", err)
	}

	// The whole write is rejected; no header row without its items.
	n, err := repo.CountReceipts(ctx)
	if err != nil {
		t.Fatalf("CountReceipts: %v", err)
	}
	if n != 0 {
		t.Errorf("got %d receipts after rejected write, want 0", n)
	}
}

func TestDeleteReceiptCascadesOnlyItsItems(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	r1, items1 := sampleReceipt(t)
	id1, err := repo.CreateReceiptWithItems(ctx, r1, items1)
	if err != nil {
		t.Fatalf("create first receipt: %v", err)
	}
	r2, items2 := sampleReceipt(t)
	r2.MerchantName = "Other Shop"
	id2, err := repo.CreateReceiptWithItems(ctx, r2, items2)
	if err != nil {
		t.Fatalf("create second receipt: %v", err)
	}

	if err := repo.DeleteReceipt(ctx, id1); err != nil {
		t.Fatalf("DeleteReceipt: %v", err)
	}

	if _, err := repo.GetReceipt(ctx, id1); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("deleted receipt lookup = %v, want ErrNotFound", err)
	}

	var orphans int
	if err := repo.db.QueryRow(
		"SELECT COUNT(*) FROM receipt_items WHERE receipt_id = ?", id1).Scan(&orphans); err != nil {
		t.Fatalf("count orphans: %v", err)
	}
	if orphans != 0 {
		t.Errorf("cascade left %d orphan items", orphans)
	}

	survivor, err := repo.GetReceiptWithItems(ctx, id2)
	if err != nil {
		t.Fatalf("GetReceiptWithItems: %v", err)
	}
	if len(survivor.Items) != len(items2) {
		t.Errorf("cascade reached the wrong receipt: %d items left, want %d", len(survivor.Items), len(items2))
	}
}

func TestUpdateReceiptItemScopedToReceipt(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	receipt, items := sampleReceipt(t)
	id, err := repo.CreateReceiptWithItems(ctx, receipt, items)
	if err != nil {
		t.Fatalf("CreateReceiptWithItems: %v", err)
	}
	got, err := repo.GetReceiptWithItems(ctx, id)
	if err != nil {
		t.Fatalf("GetReceiptWithItems: %v", err)
	}
	item := got.Items[0]

	item.ItemName = "Espresso"
	item.Price = core.Money{Cents: 400}
	if err := repo.UpdateReceiptItem(ctx, item); err != nil {
		t.Fatalf("UpdateReceiptItem: %v", err)
	}

	// The same item id under a different receipt must not match.
	item.ReceiptID = id + 1
	if err := repo.UpdateReceiptItem(ctx, item); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("cross-receipt update error = %v, want ErrNotFound", err)
	}
}

func TestUpdateReceipt(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	receipt, items := sampleReceipt(t)
	id, err := repo.CreateReceiptWithItems(ctx, receipt, items)
	if err != nil {
		t.Fatalf("CreateReceiptWithItems: %v", err)
	}

	receipt.ID = id
	receipt.MerchantName = "Corrected Cafe"
	receipt.TotalPrice = core.Money{Cents: 1700}
	if err := repo.UpdateReceipt(ctx, receipt); err != nil {
		t.Fatalf("UpdateReceipt: %v", err)
	}

	got, err := repo.GetReceipt(ctx, id)
	if err != nil {
		t.Fatalf("GetReceipt: %v", err)
	}
	if got.MerchantName != "Corrected Cafe" || got.TotalPrice.Cents != 1700 {
		t.Errorf("updated receipt = %+v", got)
	}
}
