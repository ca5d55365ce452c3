package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"medeasy-api-server/internal/apperr"
	"medeasy-api-server/internal/metrics"
	"medeasy-api-server/internal/models"
	"medeasy-api-server/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sequence names for the stored request ordinals.
const (
	seqReorders = "reorder_requests"
	seqOrders   = "orders"
)

// Ledger owns reorder requests and orders and their lifecycle.
type Ledger struct {
	stores     store.Stores
	reconciler *Reconciler
	publisher  Publisher
	opts       Options
	clock      Clock
}

func newReference(prefix string) string {
	return prefix + "-" + strings.ToUpper(uuid.NewString()[:8])
}

// retailer resolves the user a request is created for.
func (l *Ledger) retailer(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, apperr.Validation(apperr.CodeUnknownRetailer, "retailerUserId is required")
	}
	u, err := l.stores.Users.GetByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Validation(apperr.CodeUnknownRetailer, "unknown retailer")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if u.Role != models.RoleRetailer || u.PartyID == "" {
		return nil, apperr.Validation(apperr.CodeUnknownRetailer, "user is not a retailer")
	}
	return u, nil
}

// wholesaler resolves a party id or a wholesaler user id. An empty id picks
// the first registered wholesaler store.
func (l *Ledger) wholesaler(ctx context.Context, id string) (*models.Party, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		parties, err := l.stores.Parties.ListByRole(ctx, models.RoleWholesaler)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if len(parties) == 0 {
			return nil, apperr.Validation(apperr.CodeUnknownWholesaler, "no wholesaler is registered")
		}
		return &parties[0], nil
	}

	p, err := l.stores.Parties.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		p, err = l.stores.Parties.GetByOwner(ctx, id)
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Validation(apperr.CodeUnknownWholesaler, "unknown wholesaler")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if p.Role != models.RoleWholesaler {
		return nil, apperr.Validation(apperr.CodeUnknownWholesaler, "store is not a wholesaler")
	}
	return p, nil
}

func (l *Ledger) requireMedicines(ctx context.Context, ids []string) (map[string]models.Medicine, error) {
	found, err := l.stores.Medicines.GetMany(ctx, ids)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return nil, apperr.Validation(apperr.CodeUnknownMedicine, "unknown medicine "+id)
		}
	}
	return found, nil
}

type CreateReorderInput struct {
	RetailerUserID string
	MedicineID     string
	Quantity       int64
}

func (l *Ledger) CreateReorder(ctx context.Context, in CreateReorderInput) (*models.ReorderRequest, error) {
	if in.Quantity <= 0 {
		return nil, apperr.Validation(apperr.CodeInvalidQuantity, "quantity must be positive")
	}
	if in.MedicineID == "" {
		return nil, apperr.Validation(apperr.CodeUnknownMedicine, "medicineId is required")
	}
	user, err := l.retailer(ctx, in.RetailerUserID)
	if err != nil {
		return nil, err
	}
	if _, err := l.requireMedicines(ctx, []string{in.MedicineID}); err != nil {
		return nil, err
	}

	n, err := l.stores.Sequences.Next(ctx, seqReorders)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	now := l.clock().UTC()
	r := &models.ReorderRequest{
		ID:              uuid.NewString(),
		Reference:       newReference("RREQ"),
		Number:          n,
		RetailerUserID:  user.ID,
		RetailerPartyID: user.PartyID,
		MedicineID:      in.MedicineID,
		Quantity:        in.Quantity,
		Status:          models.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := l.stores.Reorders.Create(ctx, r); err != nil {
		return nil, apperr.Internal(err)
	}

	metrics.RequestsCreated.WithLabelValues(string(models.KindReorder)).Inc()
	l.announce(models.Event{
		Type:       models.EventRequestCreated,
		Kind:       models.KindReorder,
		RequestID:  r.ID,
		Status:     r.Status,
		PartyID:    r.RetailerPartyID,
		MedicineID: r.MedicineID,
		Quantity:   r.Quantity,
		At:         now,
	}, r.RetailerUserID)
	return r, nil
}

type CreateOrderInput struct {
	RetailerUserID string
	WholesalerID   string
	Items          []models.OrderItem
}

func (l *Ledger) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	if len(in.Items) == 0 {
		return nil, apperr.Validation(apperr.CodeInvalidItems, "items must not be empty")
	}
	ids := make([]string, 0, len(in.Items))
	for _, it := range in.Items {
		if it.Quantity <= 0 {
			return nil, apperr.Validation(apperr.CodeInvalidQuantity, "quantity must be positive")
		}
		if it.MedicineID == "" {
			return nil, apperr.Validation(apperr.CodeInvalidItems, "every item needs a medicineId")
		}
		ids = append(ids, it.MedicineID)
	}

	user, err := l.retailer(ctx, in.RetailerUserID)
	if err != nil {
		return nil, err
	}
	supplier, err := l.wholesaler(ctx, in.WholesalerID)
	if err != nil {
		return nil, err
	}
	if _, err := l.requireMedicines(ctx, ids); err != nil {
		return nil, err
	}

	n, err := l.stores.Sequences.Next(ctx, seqOrders)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	now := l.clock().UTC()
	o := &models.Order{
		ID:                uuid.NewString(),
		Reference:         newReference("ORD"),
		Number:            n,
		RetailerUserID:    user.ID,
		RetailerPartyID:   user.PartyID,
		WholesalerPartyID: supplier.ID,
		Items:             append([]models.OrderItem(nil), in.Items...),
		Status:            models.StatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	o.TotalAmount = o.TotalQuantity() * l.opts.UnitPrice
	if err := l.stores.Orders.Create(ctx, o); err != nil {
		return nil, apperr.Internal(err)
	}

	metrics.RequestsCreated.WithLabelValues(string(models.KindOrder)).Inc()
	l.announce(models.Event{
		Type:      models.EventRequestCreated,
		Kind:      models.KindOrder,
		RequestID: o.ID,
		Status:    o.Status,
		PartyID:   o.RetailerPartyID,
		Quantity:  o.TotalQuantity(),
		At:        now,
	}, o.RetailerUserID)
	return o, nil
}

// ListFilter is the query side of the ledger listings.
type ListFilter struct {
	RetailerUserID string
	Status         string
	Limit          int
}

func (f ListFilter) toStore() (store.RequestFilter, error) {
	out := store.RequestFilter{RetailerUserID: strings.TrimSpace(f.RetailerUserID), Limit: f.Limit}
	if strings.TrimSpace(f.Status) != "" {
		st, err := models.ParseStatus(f.Status)
		if err != nil {
			return out, apperr.Validation(apperr.CodeInvalidStatus, "unknown status").Wrap(err)
		}
		out.Status = st
	}
	return out, nil
}

// ReorderView is a reorder request with its medicine summary.
type ReorderView struct {
	models.ReorderRequest
	Medicine *models.MedicineSummary `json:"medicine,omitempty"`
}

func (l *Ledger) ListReorders(ctx context.Context, f ListFilter) ([]ReorderView, error) {
	sf, err := f.toStore()
	if err != nil {
		return nil, err
	}
	list, err := l.stores.Reorders.List(ctx, sf)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	ids := make([]string, 0, len(list))
	for _, r := range list {
		ids = append(ids, r.MedicineID)
	}
	meds, err := l.stores.Medicines.GetMany(ctx, ids)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	out := make([]ReorderView, 0, len(list))
	for _, r := range list {
		v := ReorderView{ReorderRequest: r}
		if m, ok := meds[r.MedicineID]; ok {
			s := m.Summary()
			v.Medicine = &s
		}
		out = append(out, v)
	}
	return out, nil
}

func (l *Ledger) GetReorder(ctx context.Context, id string) (*models.ReorderRequest, error) {
	r, err := l.stores.Reorders.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound(apperr.CodeRequestNotFound, "reorder request not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return r, nil
}

func (l *Ledger) ListOrders(ctx context.Context, f ListFilter) ([]models.Order, error) {
	sf, err := f.toStore()
	if err != nil {
		return nil, err
	}
	list, err := l.stores.Orders.List(ctx, sf)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if list == nil {
		list = []models.Order{}
	}
	return list, nil
}

func (l *Ledger) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	o, err := l.stores.Orders.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound(apperr.CodeOrderNotFound, "order not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return o, nil
}

// parseTarget validates a requested decision status for kind.
func parseTarget(kind models.RequestKind, status string) (models.RequestStatus, error) {
	to, err := models.ParseStatus(status)
	if err != nil || !kind.IsTarget(to) {
		return "", apperr.Validation(apperr.CodeInvalidStatus, "status is not a valid decision")
	}
	return to, nil
}

func checkTransition(kind models.RequestKind, from, to models.RequestStatus) error {
	if kind.CanTransition(from, to) {
		return nil
	}
	if from != models.StatusPending {
		return apperr.StateConflict(apperr.CodeRequestNotPending, "request is already "+string(from))
	}
	return apperr.StateConflict(apperr.CodeInvalidTransition, "cannot move from "+string(from)+" to "+string(to))
}

func transitionErr(err error, notFound *apperr.Error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return notFound
	case errors.Is(err, store.ErrStateConflict):
		return apperr.StateConflict(apperr.CodeRequestNotPending, "request was decided concurrently")
	}
	return apperr.From(err)
}

// TransitionReorder applies a decision. Approval credits the retailer's
// stock in the same transaction as the status change.
func (l *Ledger) TransitionReorder(ctx context.Context, id, status string) (*models.ReorderRequest, error) {
	to, err := parseTarget(models.KindReorder, status)
	if err != nil {
		return nil, err
	}
	cur, err := l.GetReorder(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkTransition(models.KindReorder, cur.Status, to); err != nil {
		return nil, err
	}

	now := l.clock().UTC()
	var (
		updated  *models.ReorderRequest
		credited Credit
	)
	err = l.stores.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		updated, err = l.stores.Reorders.Transition(ctx, id, cur.Status, to, now)
		if err != nil {
			return err
		}
		if to == models.StatusApproved {
			credited, err = l.reconciler.Apply(ctx, updated.RetailerPartyID, []Line{{MedicineID: updated.MedicineID, Quantity: updated.Quantity}})
		}
		return err
	})
	if err != nil {
		return nil, transitionErr(err, apperr.NotFound(apperr.CodeRequestNotFound, "reorder request not found"))
	}

	l.decided(models.KindReorder, updated.ID, to, updated.RetailerUserID, updated.RetailerPartyID, credited, now)
	return updated, nil
}

// TransitionOrder applies a decision or marks an approved order completed.
// Completion has no stock effect.
func (l *Ledger) TransitionOrder(ctx context.Context, id, status string) (*models.Order, error) {
	to, err := parseTarget(models.KindOrder, status)
	if err != nil {
		return nil, err
	}
	cur, err := l.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkTransition(models.KindOrder, cur.Status, to); err != nil {
		return nil, err
	}

	now := l.clock().UTC()
	var (
		updated  *models.Order
		credited Credit
	)
	err = l.stores.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		updated, err = l.stores.Orders.Transition(ctx, id, cur.Status, to, now)
		if err != nil {
			return err
		}
		if to == models.StatusApproved {
			lines := make([]Line, 0, len(updated.Items))
			for _, it := range updated.Items {
				lines = append(lines, Line{MedicineID: it.MedicineID, Quantity: it.Quantity})
			}
			credited, err = l.reconciler.Apply(ctx, updated.RetailerPartyID, lines)
		}
		return err
	})
	if err != nil {
		return nil, transitionErr(err, apperr.NotFound(apperr.CodeOrderNotFound, "order not found"))
	}

	l.decided(models.KindOrder, updated.ID, to, updated.RetailerUserID, updated.RetailerPartyID, credited, now)
	return updated, nil
}

// decided records a committed transition and notifies listeners.
func (l *Ledger) decided(kind models.RequestKind, id string, to models.RequestStatus, retailerUserID, retailerPartyID string, credited Credit, at time.Time) {
	metrics.Transitions.WithLabelValues(string(kind), string(to)).Inc()
	metrics.UnitsReconciled.Add(float64(credited.Units))
	l.announce(models.Event{
		Type:      models.EventRequestDecided,
		Kind:      kind,
		RequestID: id,
		Status:    to,
		PartyID:   retailerPartyID,
		At:        at,
	}, retailerUserID)

	for _, e := range credited.Entries {
		if e.PartyID != retailerPartyID {
			continue
		}
		l.publisher.PublishToUser(retailerUserID, stockEvent(e.PartyID, e.MedicineID, e.Quantity, at))
	}
	if len(credited.Entries) > 0 {
		zap.L().Debug("stock reconciled",
			zap.String("kind", string(kind)),
			zap.String("requestId", id),
			zap.Int("entries", len(credited.Entries)),
			zap.Int64("units", credited.Units),
		)
	}
}

// announce sends ev to the retailer who owns the request and to every
// wholesaler.
func (l *Ledger) announce(ev models.Event, retailerUserID string) {
	l.publisher.PublishToUser(retailerUserID, ev)
	l.publisher.PublishToRole(models.RoleWholesaler, ev)
}
