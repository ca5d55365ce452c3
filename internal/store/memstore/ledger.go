package memstore

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"medeasy-api-server/internal/models"
	"medeasy-api-server/internal/store"
)

type stock struct{ s *Store }

var _ store.StockStore = (*stock)(nil)

// put writes e, registering a new key in creation order.
func (r *stock) put(e models.StockEntry) {
	st := r.s.st
	if _, ok := st.stock[e.ID]; !ok {
		st.stockOrder = append(st.stockOrder, e.ID)
	}
	st.stock[e.ID] = e
}

func (r *stock) entry(key models.StockKey, role models.Role, now time.Time) models.StockEntry {
	if e, ok := r.s.st.stock[key.ID()]; ok {
		return e
	}
	return models.StockEntry{
		ID:         key.ID(),
		PartyID:    key.PartyID,
		PartyRole:  role,
		MedicineID: key.MedicineID,
		CreatedAt:  now,
	}
}

func (r *stock) Increment(ctx context.Context, key models.StockKey, role models.Role, delta int64) (*models.StockEntry, error) {
	if delta <= 0 {
		return nil, fmt.Errorf("memstore: increment by %d", delta)
	}
	r.s.wlock(ctx)
	defer r.s.wunlock(ctx)
	now := time.Now().UTC()
	e := r.entry(key, role, now)
	e.Quantity += delta
	e.UpdatedAt = now
	r.put(e)
	return &e, nil
}

func (r *stock) Set(ctx context.Context, key models.StockKey, role models.Role, quantity int64) (bool, error) {
	if quantity < 0 {
		return false, fmt.Errorf("memstore: negative quantity %d", quantity)
	}
	r.s.wlock(ctx)
	defer r.s.wunlock(ctx)
	now := time.Now().UTC()
	_, existed := r.s.st.stock[key.ID()]
	e := r.entry(key, role, now)
	if existed && e.Quantity == quantity {
		return false, nil
	}
	e.Quantity = quantity
	e.UpdatedAt = now
	r.put(e)
	return true, nil
}

func (r *stock) SetForRole(ctx context.Context, role models.Role, medicineID string, quantity int64) (int64, error) {
	if quantity < 0 {
		return 0, fmt.Errorf("memstore: negative quantity %d", quantity)
	}
	r.s.wlock(ctx)
	defer r.s.wunlock(ctx)
	now := time.Now().UTC()
	var modified int64
	for _, id := range r.s.st.stockOrder {
		e := r.s.st.stock[id]
		if e.PartyRole != role || e.MedicineID != medicineID || e.Quantity == quantity {
			continue
		}
		e.Quantity = quantity
		e.UpdatedAt = now
		r.s.st.stock[id] = e
		modified++
	}
	return modified, nil
}

func (r *stock) Get(ctx context.Context, key models.StockKey) (*models.StockEntry, error) {
	r.s.rlock(ctx)
	defer r.s.runlock(ctx)
	e, ok := r.s.st.stock[key.ID()]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &e, nil
}

func (r *stock) list(ctx context.Context, match func(models.StockEntry) bool) []models.StockEntry {
	r.s.rlock(ctx)
	defer r.s.runlock(ctx)
	out := make([]models.StockEntry, 0)
	for _, id := range r.s.st.stockOrder {
		if e := r.s.st.stock[id]; match(e) {
			out = append(out, e)
		}
	}
	return out
}

func (r *stock) ListByParty(ctx context.Context, partyID string) ([]models.StockEntry, error) {
	return r.list(ctx, func(e models.StockEntry) bool { return e.PartyID == partyID }), nil
}

func (r *stock) ListByRole(ctx context.Context, role models.Role) ([]models.StockEntry, error) {
	return r.list(ctx, func(e models.StockEntry) bool { return e.PartyRole == role }), nil
}

// matchFilter applies the shared filter fields to one ledger record.
func matchFilter(f store.RequestFilter, status models.RequestStatus, retailerUserID, retailerPartyID, wholesalerPartyID string, createdAt time.Time) bool {
	if f.Status != "" && f.Status != status {
		return false
	}
	if f.RetailerUserID != "" && f.RetailerUserID != retailerUserID {
		return false
	}
	if f.RetailerPartyID != "" && f.RetailerPartyID != retailerPartyID {
		return false
	}
	if f.WholesalerPartyID != "" && f.WholesalerPartyID != wholesalerPartyID {
		return false
	}
	if !f.CreatedFrom.IsZero() && createdAt.Before(f.CreatedFrom) {
		return false
	}
	return true
}

func newestFirst(aAt, bAt time.Time, aNum, bNum int64) bool {
	if !aAt.Equal(bAt) {
		return aAt.After(bAt)
	}
	return aNum > bNum
}

func decided(at time.Time) *time.Time {
	t := at
	return &t
}

type reorders struct{ s *Store }

var _ store.ReorderStore = (*reorders)(nil)

func (r *reorders) Create(ctx context.Context, req *models.ReorderRequest) error {
	r.s.wlock(ctx)
	defer r.s.wunlock(ctx)
	if _, ok := r.s.st.reorders[req.ID]; ok {
		return store.ErrDuplicate
	}
	r.s.st.reorders[req.ID] = *req
	return nil
}

func (r *reorders) GetByID(ctx context.Context, id string) (*models.ReorderRequest, error) {
	r.s.rlock(ctx)
	defer r.s.runlock(ctx)
	req, ok := r.s.st.reorders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &req, nil
}

func (r *reorders) List(ctx context.Context, f store.RequestFilter) ([]models.ReorderRequest, error) {
	r.s.rlock(ctx)
	defer r.s.runlock(ctx)
	// reorder requests are not addressed to a wholesaler
	f.WholesalerPartyID = ""
	out := make([]models.ReorderRequest, 0)
	for _, req := range r.s.st.reorders {
		if matchFilter(f, req.Status, req.RetailerUserID, req.RetailerPartyID, "", req.CreatedAt) {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].Number, out[j].Number)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *reorders) Transition(ctx context.Context, id string, from, to models.RequestStatus, at time.Time) (*models.ReorderRequest, error) {
	r.s.wlock(ctx)
	defer r.s.wunlock(ctx)
	req, ok := r.s.st.reorders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if req.Status != from {
		return nil, store.ErrStateConflict
	}
	req.Status = to
	req.UpdatedAt = at
	req.DecidedAt = decided(at)
	r.s.st.reorders[id] = req
	return &req, nil
}

type orders struct{ s *Store }

var _ store.OrderStore = (*orders)(nil)

func copyOrder(o models.Order) models.Order {
	o.Items = slices.Clone(o.Items)
	return o
}

func (r *orders) Create(ctx context.Context, o *models.Order) error {
	r.s.wlock(ctx)
	defer r.s.wunlock(ctx)
	if _, ok := r.s.st.orders[o.ID]; ok {
		return store.ErrDuplicate
	}
	r.s.st.orders[o.ID] = copyOrder(*o)
	return nil
}

func (r *orders) GetByID(ctx context.Context, id string) (*models.Order, error) {
	r.s.rlock(ctx)
	defer r.s.runlock(ctx)
	o, ok := r.s.st.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	o = copyOrder(o)
	return &o, nil
}

func (r *orders) List(ctx context.Context, f store.RequestFilter) ([]models.Order, error) {
	r.s.rlock(ctx)
	defer r.s.runlock(ctx)
	out := make([]models.Order, 0)
	for _, o := range r.s.st.orders {
		if matchFilter(f, o.Status, o.RetailerUserID, o.RetailerPartyID, o.WholesalerPartyID, o.CreatedAt) {
			out = append(out, copyOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].Number, out[j].Number)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *orders) Transition(ctx context.Context, id string, from, to models.RequestStatus, at time.Time) (*models.Order, error) {
	r.s.wlock(ctx)
	defer r.s.wunlock(ctx)
	o, ok := r.s.st.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if o.Status != from {
		return nil, store.ErrStateConflict
	}
	o.Status = to
	o.UpdatedAt = at
	if to == models.StatusCompleted {
		o.CompletedAt = decided(at)
	} else {
		o.DecidedAt = decided(at)
	}
	r.s.st.orders[id] = o
	o = copyOrder(o)
	return &o, nil
}

type sequences struct{ s *Store }

var _ store.SequenceStore = (*sequences)(nil)

func (r *sequences) Next(ctx context.Context, name string) (int64, error) {
	r.s.wlock(ctx)
	defer r.s.wunlock(ctx)
	r.s.st.seqs[name]++
	return r.s.st.seqs[name], nil
}
