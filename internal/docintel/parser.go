package docintel

import (
	"fmt"
	"time"

	"expenseit/internal/core"
)

// Defaults substituted for absent payload fields.
const (
	UnknownMerchant = "Unknown Merchant"
	UnknownItem     = "Unknown Item"

	transactionDateLayout = "2006-01-02"
)

// ParseReceipt maps an analysis result onto a receipt and its line items.
// Every field of the payload may be missing; absent values get documented
// defaults rather than failing the parse. Only a result with no document at
// all is unusable. The returned receipt has an empty ImageURL and the items
// carry ReceiptID 0; the orchestrator and the persistence layer fill both in.
func ParseReceipt(result *AnalyzeResult, now time.Time) (*core.Receipt, []core.ReceiptItem, error) {
	if result == nil || len(result.Documents) == 0 {
		return nil, nil, fmt.Errorf("%w: no documents in result", ErrParse)
	}
	fields := result.Documents[0].Fields
	if fields == nil {
		fields = &Fields{}
	}

	merchant := stringOr(fields.MerchantName, UnknownMerchant)
	date := dateOr(fields.TransactionDate, now)
	total := currencyOr(fields.Total)

	var items []core.ReceiptItem
	if fields.Items != nil {
		for _, entry := range fields.Items.ValueArray {
			// A malformed line item is skipped, never fatal for the
			// whole receipt.
			if entry.ValueObject == nil {
				continue
			}
			items = append(items, parseItem(entry.ValueObject))
		}
	}

	receipt := &core.Receipt{
		MerchantName: merchant,
		Date:         core.NowMillis(date),
		TotalPrice:   total,
	}
	return receipt, items, nil
}

func parseItem(obj map[string]FieldValue) core.ReceiptItem {
	item := core.ReceiptItem{
		ItemName: UnknownItem,
		Quantity: 1,
	}
	if desc, ok := obj["Description"]; ok && desc.ValueString != nil {
		item.ItemName = *desc.ValueString
	}
	if qty, ok := obj["Quantity"]; ok && qty.ValueNumber != nil && *qty.ValueNumber >= 0 {
		item.Quantity = int(*qty.ValueNumber)
	}
	if price, ok := obj["TotalPrice"]; ok && price.ValueCurrency != nil {
		item.Price = core.MoneyFromFloat(price.ValueCurrency.Amount)
	}
	return item
}

func stringOr(f *FieldValue, fallback string) string {
	if f == nil || f.ValueString == nil || *f.ValueString == "" {
		return fallback
	}
	return *f.ValueString
}

// dateOr parses the service's yyyy-MM-dd date; any parse failure falls back
// to the ingestion time instead of propagating.
func dateOr(f *FieldValue, fallback time.Time) time.Time {
	if f == nil || f.ValueDate == nil {
		return fallback
	}
	t, err := time.Parse(transactionDateLayout, *f.ValueDate)
	if err != nil {
		return fallback
	}
	return t
}

func currencyOr(f *FieldValue) core.Money {
	if f == nil || f.ValueCurrency == nil {
		return core.Money{}
	}
	return core.MoneyFromFloat(f.ValueCurrency.Amount)
}
