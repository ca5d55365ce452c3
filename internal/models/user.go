package models

import "time"

// User is a login identity. Partner users own exactly one Party.
type User struct {
	ID           string    `bson:"_id" json:"id"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"passwordHash" json:"-"`
	Role         Role      `bson:"role" json:"role"`
	PartyID      string    `bson:"partyId,omitempty" json:"partyId,omitempty"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}
