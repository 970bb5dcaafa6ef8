package amqp

import (
	"encoding/json"
	"time"
)

// ReceiptEventMessage tells consumers the receipt collection changed.
// It carries only the id; consumers fetch the full record from the database.
type ReceiptEventMessage struct {
	ID        int64     `json:"id"`
	Event     string    `json:"event"` // "created" or "deleted"
	Timestamp time.Time `json:"timestamp"`
}

func NewReceiptEventMessage(id int64, event string) *ReceiptEventMessage {
	return &ReceiptEventMessage{
		ID:        id,
		Event:     event,
		Timestamp: time.Now(),
	}
}

func (m *ReceiptEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ReceiptEventMessageFromJSON(data []byte) (*ReceiptEventMessage, error) {
	var msg ReceiptEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ScanJobMessage queues one receipt image for ingestion. The image has
// already been uploaded; DocumentURL must be reachable by the analysis
// service.
type ScanJobMessage struct {
	DocumentURL string    `json:"document_url"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewScanJobMessage(documentURL string) *ScanJobMessage {
	return &ScanJobMessage{
		DocumentURL: documentURL,
		Timestamp:   time.Now(),
	}
}

func (m *ScanJobMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ScanJobMessageFromJSON(data []byte) (*ScanJobMessage, error) {
	var msg ScanJobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
