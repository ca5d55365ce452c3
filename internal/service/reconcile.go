package service

import (
	"context"

	"medeasy-api-server/internal/apperr"
	"medeasy-api-server/internal/models"
	"medeasy-api-server/internal/store"
)

// Line is one quantity to credit for a medicine.
type Line struct {
	MedicineID string
	Quantity   int64
}

// Reconciler credits approved quantities to retailer stock.
type Reconciler struct {
	parties store.PartyStore
	stock   store.StockStore
	scope   ReconcileScope
}

// targets resolves which retailer stores an approval credits.
func (r *Reconciler) targets(ctx context.Context, retailerPartyID string) ([]string, error) {
	if r.scope == ScopeRole {
		parties, err := r.parties.ListByRole(ctx, models.RoleRetailer)
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(parties))
		for _, p := range parties {
			ids = append(ids, p.ID)
		}
		return ids, nil
	}
	if retailerPartyID == "" {
		return nil, apperr.Validation(apperr.CodeUnknownRetailer, "request has no retailer store")
	}
	return []string{retailerPartyID}, nil
}

// Credit is what one Apply call wrote.
type Credit struct {
	Entries []models.StockEntry
	Units   int64
}

// Apply adds every line to the (store, medicine) entries of its targets,
// creating entries that do not exist yet. It must run inside the same
// transaction as the status change that triggered it.
func (r *Reconciler) Apply(ctx context.Context, retailerPartyID string, lines []Line) (Credit, error) {
	for _, l := range lines {
		if l.Quantity <= 0 {
			return Credit{}, apperr.Validation(apperr.CodeInvalidQuantity, "quantity must be positive")
		}
		if l.MedicineID == "" {
			return Credit{}, apperr.Validation(apperr.CodeUnknownMedicine, "medicine is required")
		}
	}

	targets, err := r.targets(ctx, retailerPartyID)
	if err != nil {
		return Credit{}, err
	}

	var c Credit
	for _, partyID := range targets {
		for _, l := range lines {
			key := models.StockKey{PartyID: partyID, MedicineID: l.MedicineID}
			entry, err := r.stock.Increment(ctx, key, models.RoleRetailer, l.Quantity)
			if err != nil {
				return Credit{}, err
			}
			c.Entries = append(c.Entries, *entry)
			c.Units += l.Quantity
		}
	}
	return c, nil
}
