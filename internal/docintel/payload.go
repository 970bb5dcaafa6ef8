package docintel

// The analysis service returns a deeply nested, optional-heavy payload. Every
// field that may be absent is a pointer; access goes through the parser's
// default substitution, never through direct dereference.

// AnalyzeStatus values reported by the service.
const (
	StatusRunning    = "running"
	StatusNotStarted = "notStarted"
	StatusSucceeded  = "succeeded"
	StatusFailed     = "failed"
)

// ScanResult is the body of a poll response.
type ScanResult struct {
	Status              string         `json:"status"`
	CreatedDateTime     string         `json:"createdDateTime"`
	LastUpdatedDateTime string         `json:"lastUpdatedDateTime"`
	AnalyzeResult       *AnalyzeResult `json:"analyzeResult,omitempty"`
}

type AnalyzeResult struct {
	APIVersion string     `json:"apiVersion"`
	ModelID    string     `json:"modelId"`
	Content    string     `json:"content"`
	Documents  []Document `json:"documents"`
}

type Document struct {
	DocType    string  `json:"docType"`
	Fields     *Fields `json:"fields,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Fields carries the prebuilt-receipt model's named fields. All optional.
type Fields struct {
	MerchantName    *FieldValue `json:"MerchantName,omitempty"`
	TransactionDate *FieldValue `json:"TransactionDate,omitempty"`
	TransactionTime *FieldValue `json:"TransactionTime,omitempty"`
	Subtotal        *FieldValue `json:"Subtotal,omitempty"`
	Total           *FieldValue `json:"Total,omitempty"`
	Items           *FieldValue `json:"Items,omitempty"`
	CountryRegion   *FieldValue `json:"CountryRegion,omitempty"`
	ReceiptType     *FieldValue `json:"ReceiptType,omitempty"`
}

// FieldValue is the service's polymorphic value container: exactly one of the
// value* members is populated depending on Type.
type FieldValue struct {
	Type          string                `json:"type"`
	ValueString   *string               `json:"valueString,omitempty"`
	ValueDate     *string               `json:"valueDate,omitempty"`
	ValueTime     *string               `json:"valueTime,omitempty"`
	ValueNumber   *float64              `json:"valueNumber,omitempty"`
	ValueCurrency *CurrencyValue        `json:"valueCurrency,omitempty"`
	ValueArray    []FieldValue          `json:"valueArray,omitempty"`
	ValueObject   map[string]FieldValue `json:"valueObject,omitempty"`
	Content       string                `json:"content,omitempty"`
	Confidence    float64               `json:"confidence,omitempty"`
}

type CurrencyValue struct {
	CurrencySymbol string  `json:"currencySymbol"`
	CurrencyCode   string  `json:"currencyCode"`
	Amount         float64 `json:"amount"`
}
