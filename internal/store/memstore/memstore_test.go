package memstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"medeasy-api-server/internal/models"
	"medeasy-api-server/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStockIncrementCreatesThenAdds(t *testing.T) {
	ctx := context.Background()
	st := New().Stores()
	key := models.StockKey{PartyID: "p1", MedicineID: "m1"}

	e, err := st.Stock.Increment(ctx, key, models.RoleRetailer, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), e.Quantity)

	e, err = st.Stock.Increment(ctx, key, models.RoleRetailer, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(15), e.Quantity)

	_, err = st.Stock.Increment(ctx, key, models.RoleRetailer, 0)
	assert.Error(t, err)

	entries, err := st.Stock.ListByParty(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "one entry per (party, medicine)")
}

func TestStockIncrementConcurrent(t *testing.T) {
	ctx := context.Background()
	st := New().Stores()
	key := models.StockKey{PartyID: "p1", MedicineID: "m1"}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = st.Stock.Increment(ctx, key, models.RoleRetailer, 2)
		}()
	}
	wg.Wait()

	e, err := st.Stock.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(100), e.Quantity)
}

func TestStockSetIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := New().Stores()
	key := models.StockKey{PartyID: "p1", MedicineID: "m1"}

	changed, err := st.Stock.Set(ctx, key, models.RoleRetailer, 7)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = st.Stock.Set(ctx, key, models.RoleRetailer, 7)
	require.NoError(t, err)
	assert.False(t, changed)

	e, err := st.Stock.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(7), e.Quantity)
}

func TestStockSetForRoleOnlyTouchesExistingEntries(t *testing.T) {
	ctx := context.Background()
	st := New().Stores()
	_, _ = st.Stock.Increment(ctx, models.StockKey{PartyID: "r1", MedicineID: "m1"}, models.RoleRetailer, 3)
	_, _ = st.Stock.Increment(ctx, models.StockKey{PartyID: "r2", MedicineID: "m1"}, models.RoleRetailer, 9)
	_, _ = st.Stock.Increment(ctx, models.StockKey{PartyID: "w1", MedicineID: "m1"}, models.RoleWholesaler, 4)

	n, err := st.Stock.SetForRole(ctx, models.RoleRetailer, "m1", 9)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "r2 already held 9")

	n, err = st.Stock.SetForRole(ctx, models.RoleRetailer, "m1", 9)
	require.NoError(t, err)
	assert.Zero(t, n)

	w, err := st.Stock.Get(ctx, models.StockKey{PartyID: "w1", MedicineID: "m1"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), w.Quantity)

	_, err = st.Stock.Get(ctx, models.StockKey{PartyID: "r3", MedicineID: "m1"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestReorderTransition(t *testing.T) {
	ctx := context.Background()
	st := New().Stores()
	require.NoError(t, st.Reorders.Create(ctx, &models.ReorderRequest{ID: "r1", Status: models.StatusPending, Quantity: 1}))

	at := time.Now().UTC()
	got, err := st.Reorders.Transition(ctx, "r1", models.StatusPending, models.StatusApproved, at)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)
	require.NotNil(t, got.DecidedAt)

	_, err = st.Reorders.Transition(ctx, "r1", models.StatusPending, models.StatusRejected, at)
	assert.ErrorIs(t, err, store.ErrStateConflict)

	_, err = st.Reorders.Transition(ctx, "missing", models.StatusPending, models.StatusRejected, at)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListNewestFirstWithFilter(t *testing.T) {
	ctx := context.Background()
	st := New().Stores()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, user := range []string{"u1", "u2", "u1"} {
		require.NoError(t, st.Orders.Create(ctx, &models.Order{
			ID:             string(rune('a' + i)),
			Number:         int64(i + 1),
			RetailerUserID: user,
			Status:         models.StatusPending,
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}))
	}

	got, err := st.Orders.List(ctx, store.RequestFilter{RetailerUserID: "u1"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "a", got[1].ID)

	got, err = st.Orders.List(ctx, store.RequestFilter{CreatedFrom: base.Add(time.Minute), Limit: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].ID)
}

func TestWithTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	s := New()
	st := s.Stores()
	require.NoError(t, st.Reorders.Create(ctx, &models.ReorderRequest{ID: "r1", Status: models.StatusPending}))
	boom := errors.New("boom")

	err := st.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := st.Reorders.Transition(ctx, "r1", models.StatusPending, models.StatusApproved, time.Now()); err != nil {
			return err
		}
		if _, err := st.Stock.Increment(ctx, models.StockKey{PartyID: "p", MedicineID: "m"}, models.RoleRetailer, 3); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := st.Reorders.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)

	_, err = st.Stock.Get(ctx, models.StockKey{PartyID: "p", MedicineID: "m"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMedicineNameIsUnique(t *testing.T) {
	ctx := context.Background()
	st := New().Stores()
	require.NoError(t, st.Medicines.Create(ctx, &models.Medicine{ID: "m1", Name: "Paracetamol", Brand: "Acme"}))

	err := st.Medicines.Create(ctx, &models.Medicine{ID: "m2", Name: " paracetamol"})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	got, err := st.Medicines.GetByName(ctx, "PARACETAMOL")
	require.NoError(t, err)
	assert.Equal(t, "m1", got.ID)

	list, err := st.Medicines.List(ctx, "acm", 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSequencesIncrease(t *testing.T) {
	ctx := context.Background()
	st := New().Stores()
	a, _ := st.Sequences.Next(ctx, "orders")
	b, _ := st.Sequences.Next(ctx, "orders")
	c, _ := st.Sequences.Next(ctx, "reorder_requests")
	assert.Equal(t, int64(1), a)
	assert.Equal(t, int64(2), b)
	assert.Equal(t, int64(1), c)
}
