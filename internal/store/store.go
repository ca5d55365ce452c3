// Package store declares the persistence ports used by the services.
// mongostore is the production implementation, memstore backs tests and
// the in-memory driver.
package store

import (
	"context"
	"errors"
	"time"

	"medeasy-api-server/internal/models"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrDuplicate     = errors.New("store: duplicate")
	ErrStateConflict = errors.New("store: state conflict")
)

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type PartyStore interface {
	Create(ctx context.Context, p *models.Party) error
	GetByID(ctx context.Context, id string) (*models.Party, error)
	GetByOwner(ctx context.Context, userID string) (*models.Party, error)
	GetByName(ctx context.Context, role models.Role, name string) (*models.Party, error)
	// ListByRole returns parties in creation order.
	ListByRole(ctx context.Context, role models.Role) ([]models.Party, error)
}

type MedicineStore interface {
	// Create fails with ErrDuplicate when the normalized name is taken.
	Create(ctx context.Context, m *models.Medicine) error
	GetByID(ctx context.Context, id string) (*models.Medicine, error)
	GetByName(ctx context.Context, name string) (*models.Medicine, error)
	GetMany(ctx context.Context, ids []string) (map[string]models.Medicine, error)
	// List matches query against name or brand, case-insensitive. Empty query lists all.
	List(ctx context.Context, query string, limit int) ([]models.Medicine, error)
}

// StockStore is the keyed (party, medicine) -> quantity ledger.
type StockStore interface {
	// Increment adds delta (> 0) to the entry, creating it when missing.
	Increment(ctx context.Context, key models.StockKey, role models.Role, delta int64) (*models.StockEntry, error)
	// Set overwrites the entry with quantity, creating it when missing.
	// changed is false when the stored value already equalled quantity.
	Set(ctx context.Context, key models.StockKey, role models.Role, quantity int64) (changed bool, err error)
	// SetForRole overwrites every existing entry of medicineID held by parties
	// of role and returns how many entries actually changed.
	SetForRole(ctx context.Context, role models.Role, medicineID string, quantity int64) (int64, error)
	Get(ctx context.Context, key models.StockKey) (*models.StockEntry, error)
	// ListByParty and ListByRole return entries in creation order.
	ListByParty(ctx context.Context, partyID string) ([]models.StockEntry, error)
	ListByRole(ctx context.Context, role models.Role) ([]models.StockEntry, error)
}

// RequestFilter narrows ledger listings. Zero values are ignored.
type RequestFilter struct {
	Status            models.RequestStatus
	RetailerUserID    string
	RetailerPartyID   string
	WholesalerPartyID string
	CreatedFrom       time.Time
	Limit             int
}

// ReorderStore and OrderStore list newest first.
type ReorderStore interface {
	Create(ctx context.Context, r *models.ReorderRequest) error
	GetByID(ctx context.Context, id string) (*models.ReorderRequest, error)
	List(ctx context.Context, f RequestFilter) ([]models.ReorderRequest, error)
	// Transition moves the request from -> to only if it is still in from.
	// It returns ErrNotFound or ErrStateConflict otherwise.
	Transition(ctx context.Context, id string, from, to models.RequestStatus, at time.Time) (*models.ReorderRequest, error)
}

type OrderStore interface {
	Create(ctx context.Context, o *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context, f RequestFilter) ([]models.Order, error)
	Transition(ctx context.Context, id string, from, to models.RequestStatus, at time.Time) (*models.Order, error)
}

// SequenceStore hands out strictly increasing numbers per name.
type SequenceStore interface {
	Next(ctx context.Context, name string) (int64, error)
}

// TxManager runs fn so that its writes are applied all together or not at all.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Stores bundles every port so wiring stays in one place.
type Stores struct {
	Users     UserStore
	Parties   PartyStore
	Medicines MedicineStore
	Stock     StockStore
	Reorders  ReorderStore
	Orders    OrderStore
	Sequences SequenceStore
	Tx        TxManager
}
