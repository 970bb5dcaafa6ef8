package storage

import (
	"context"
	"testing"
)

func TestCurrencyDefaultsWhenUnset(t *testing.T) {
	repo := newTestRepo(t)

	currency, err := repo.Currency(context.Background())
	if err != nil {
		t.Fatalf("Currency: %v", err)
	}
	if currency != DefaultCurrency {
		t.Errorf("currency = %q, want default %q", currency, DefaultCurrency)
	}
}

func TestSetCurrencyUpserts(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.SetCurrency(ctx, "€"); err != nil {
		t.Fatalf("SetCurrency: %v", err)
	}
	if err := repo.SetCurrency(ctx, "£"); err != nil {
		t.Fatalf("second SetCurrency: %v", err)
	}

	currency, err := repo.Currency(ctx)
	if err != nil {
		t.Fatalf("Currency: %v", err)
	}
	if currency != "£" {
		t.Errorf("currency = %q, want £", currency)
	}

	if err := repo.SetCurrency(ctx, ""); err == nil {
		t.Error("SetCurrency accepted an empty currency")
	}
}
