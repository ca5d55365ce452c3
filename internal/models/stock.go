package models

import "time"

// StockKey identifies one ledger entry. There is at most one entry per key.
type StockKey struct {
	PartyID    string
	MedicineID string
}

// ID is the document id of the entry, derived from the key so that upserts
// on it are naturally unique.
func (k StockKey) ID() string {
	return k.PartyID + ":" + k.MedicineID
}

// StockEntry is the quantity a party holds of one medicine.
type StockEntry struct {
	ID         string    `bson:"_id" json:"id"`
	PartyID    string    `bson:"partyId" json:"partyId"`
	PartyRole  Role      `bson:"partyRole" json:"partyRole"`
	MedicineID string    `bson:"medicineId" json:"medicineId"`
	Quantity   int64     `bson:"quantity" json:"quantity"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (e StockEntry) Key() StockKey {
	return StockKey{PartyID: e.PartyID, MedicineID: e.MedicineID}
}

// StockStatus classifies a quantity against a reorder threshold.
type StockStatus string

const (
	StockInStock    StockStatus = "in_stock"
	StockLow        StockStatus = "low_stock"
	StockOutOfStock StockStatus = "out_of_stock"
)

func ClassifyStock(quantity, threshold int64) StockStatus {
	switch {
	case quantity <= 0:
		return StockOutOfStock
	case quantity <= threshold:
		return StockLow
	default:
		return StockInStock
	}
}
