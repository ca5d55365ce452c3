package models

import "time"

// Event types pushed on the live stream.
const (
	EventRequestCreated = "request.created"
	EventRequestDecided = "request.decided"
	EventStockChanged   = "stock.changed"
)

// Event is a best-effort notification about a ledger change.
type Event struct {
	Type       string        `json:"type"`
	Kind       RequestKind   `json:"kind,omitempty"`
	RequestID  string        `json:"requestId,omitempty"`
	Status     RequestStatus `json:"status,omitempty"`
	PartyID    string        `json:"partyId,omitempty"`
	MedicineID string        `json:"medicineId,omitempty"`
	Quantity   int64         `json:"quantity,omitempty"`
	At         time.Time     `json:"at"`
}
