package models

import "time"

// Party is a store: a retailer pharmacy or a wholesaler warehouse.
// Seeded parties have no owner until someone claims them.
type Party struct {
	ID          string    `bson:"_id" json:"id"`
	Role        Role      `bson:"role" json:"role"`
	Name        string    `bson:"name" json:"name"`
	OwnerUserID string    `bson:"ownerUserId,omitempty" json:"ownerUserId,omitempty"`
	Location    *Address  `bson:"location,omitempty" json:"location,omitempty"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}
