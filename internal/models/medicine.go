package models

import "time"

// Medicine is a catalogue record. It is never mutated after creation.
type Medicine struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	NameKey   string    `bson:"nameKey" json:"-"`
	Brand     string    `bson:"brand" json:"brand"`
	Image     string    `bson:"image,omitempty" json:"image,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// MedicineSummary is the embedded form used in request listings.
type MedicineSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Manufacturer string `json:"manufacturer"`
}

func (m Medicine) Summary() MedicineSummary {
	return MedicineSummary{ID: m.ID, Name: m.Name, Manufacturer: m.Brand}
}
