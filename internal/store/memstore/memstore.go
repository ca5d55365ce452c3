// Package memstore is an in-memory implementation of the store ports.
// One mutex guards all collections; WithTransaction holds it for the whole
// unit and restores a snapshot when the unit fails.
package memstore

import (
	"context"
	"maps"
	"slices"
	"sync"

	"medeasy-api-server/internal/models"
	"medeasy-api-server/internal/store"
)

type state struct {
	users      map[string]models.User
	emails     map[string]string // email -> user id
	parties    map[string]models.Party
	partyOrder []string
	medicines  map[string]models.Medicine
	nameKeys   map[string]string // normalized name -> medicine id
	stock      map[string]models.StockEntry
	stockOrder []string
	reorders   map[string]models.ReorderRequest
	orders     map[string]models.Order
	seqs       map[string]int64
}

func newState() *state {
	return &state{
		users:     make(map[string]models.User),
		emails:    make(map[string]string),
		parties:   make(map[string]models.Party),
		medicines: make(map[string]models.Medicine),
		nameKeys:  make(map[string]string),
		stock:     make(map[string]models.StockEntry),
		reorders:  make(map[string]models.ReorderRequest),
		orders:    make(map[string]models.Order),
		seqs:      make(map[string]int64),
	}
}

// clone is shallow per record; records are replaced, never edited in place.
func (s *state) clone() *state {
	return &state{
		users:      maps.Clone(s.users),
		emails:     maps.Clone(s.emails),
		parties:    maps.Clone(s.parties),
		partyOrder: slices.Clone(s.partyOrder),
		medicines:  maps.Clone(s.medicines),
		nameKeys:   maps.Clone(s.nameKeys),
		stock:      maps.Clone(s.stock),
		stockOrder: slices.Clone(s.stockOrder),
		reorders:   maps.Clone(s.reorders),
		orders:     maps.Clone(s.orders),
		seqs:       maps.Clone(s.seqs),
	}
}

// Store is safe for concurrent use.
type Store struct {
	mu sync.RWMutex
	st *state
}

func New() *Store {
	return &Store{st: newState()}
}

// Stores exposes every port backed by this store.
func (s *Store) Stores() store.Stores {
	return store.Stores{
		Users:     &users{s},
		Parties:   &parties{s},
		Medicines: &medicines{s},
		Stock:     &stock{s},
		Reorders:  &reorders{s},
		Orders:    &orders{s},
		Sequences: &sequences{s},
		Tx:        s,
	}
}

// transaction-aware locking helpers
type txKey struct{}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

func (s *Store) rlock(ctx context.Context) {
	if !s.inTx(ctx) {
		s.mu.RLock()
	}
}

func (s *Store) runlock(ctx context.Context) {
	if !s.inTx(ctx) {
		s.mu.RUnlock()
	}
}

func (s *Store) wlock(ctx context.Context) {
	if !s.inTx(ctx) {
		s.mu.Lock()
	}
}

func (s *Store) wunlock(ctx context.Context) {
	if !s.inTx(ctx) {
		s.mu.Unlock()
	}
}

// WithTransaction serializes fn against every other access and rolls the
// whole store back if fn returns an error. Nested calls join the outer unit.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

var _ store.TxManager = (*Store)(nil)
