// Package mongostore implements the store ports on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"medeasy-api-server/internal/store"
	"medeasy-api-server/internal/txn"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Collection names.
const (
	UsersCollection     = "users"
	PartiesCollection   = "parties"
	MedicinesCollection = "medicines"
	StockCollection     = "stock"
	ReordersCollection  = "reorder_requests"
	OrdersCollection    = "orders"
	CountersCollection  = "counters"
)

type Store struct {
	db *mongo.Database
	tx *TxManager
}

func New(db *mongo.Database) *Store {
	return &Store{db: db, tx: &TxManager{client: db.Client()}}
}

func (s *Store) Stores() store.Stores {
	return store.Stores{
		Users:     &userStore{c: s.db.Collection(UsersCollection)},
		Parties:   &partyStore{c: s.db.Collection(PartiesCollection)},
		Medicines: &medicineStore{c: s.db.Collection(MedicinesCollection)},
		Stock:     &stockStore{c: s.db.Collection(StockCollection)},
		Reorders:  &reorderStore{c: s.db.Collection(ReordersCollection)},
		Orders:    &orderStore{c: s.db.Collection(OrdersCollection)},
		Sequences: &sequenceStore{c: s.db.Collection(CountersCollection)},
		Tx:        s.tx,
	}
}

// TxManager runs units in a multi-document transaction. Deployments without
// transaction support (standalone mongod) fall back to txn.RunCompensated,
// where each store registers an undo step for its writes.
type TxManager struct {
	client      *mongo.Client
	compensated atomic.Bool
}

func (m *TxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if txn.InTx(ctx) {
		return fn(ctx)
	}
	if !m.compensated.Load() {
		err := m.runSession(ctx, fn)
		if err == nil || !txn.IsNotSupported(err) {
			return err
		}
		zap.L().Warn("mongo transactions not supported, switching to compensating writes", zap.Error(err))
		m.compensated.Store(true)
	}
	return txn.RunCompensated(ctx, fn)
}

func (m *TxManager) runSession(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := m.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(txn.WithinTx(sc))
	})
	return err
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// notFound maps the driver's empty result to the store sentinel.
func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return err
}
