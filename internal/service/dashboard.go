package service

import (
	"context"
	"errors"
	"slices"
	"time"

	"medeasy-api-server/internal/apperr"
	"medeasy-api-server/internal/models"
	"medeasy-api-server/internal/store"

	"golang.org/x/sync/errgroup"
)

// Dashboards builds the retailer and wholesaler overviews.
type Dashboards struct {
	stores store.Stores
	opts   Options
	clock  Clock
}

type InventoryRow struct {
	ID           string             `json:"id"`
	MedicineID   string             `json:"medicineId"`
	Name         string             `json:"name"`
	Brand        string             `json:"brand"`
	CurrentStock int64              `json:"currentStock"`
	ReorderLevel int64              `json:"reorderLevel"`
	Status       models.StockStatus `json:"status"`
}

// FeedItem is one reorder request or order in a merged activity feed.
type FeedItem struct {
	Type           models.RequestKind      `json:"type"`
	ID             string                  `json:"id"`
	RequestNumber  int64                   `json:"requestNumber"`
	Reference      string                  `json:"reference"`
	Status         models.RequestStatus    `json:"status"`
	RetailerUserID string                  `json:"retailerUserId"`
	Quantity       int64                   `json:"quantity"`
	TotalAmount    int64                   `json:"totalAmount,omitempty"`
	ItemCount      int                     `json:"itemCount,omitempty"`
	Medicine       *models.MedicineSummary `json:"medicine,omitempty"`
	CreatedAt      time.Time               `json:"createdAt"`
}

type RetailerDashboard struct {
	TotalItems      int            `json:"totalItems"`
	LowStock        int            `json:"lowStock"`
	TodaySales      int64          `json:"todaySales"`
	PendingReorders int            `json:"pendingReorders"`
	Inventory       []InventoryRow `json:"inventory"`
	LowStockItems   []InventoryRow `json:"lowStockItems"`
	ReorderRequests []FeedItem     `json:"reorderRequests"`
}

type WholesalerDashboard struct {
	ActiveRetailers int            `json:"activeRetailers"`
	PendingOrders   int            `json:"pendingOrders"`
	MonthlyRevenue  int64          `json:"monthlyRevenue"`
	Inventory       []InventoryRow `json:"inventory"`
	RecentRequests  []FeedItem     `json:"recentRequests"`
}

// snapshot is everything one dashboard reads, fetched concurrently.
type snapshot struct {
	stock     []models.StockEntry
	reorders  []models.ReorderRequest
	orders    []models.Order
	medicines map[string]models.Medicine
}

func (d *Dashboards) user(ctx context.Context, id string, role models.Role) (*models.User, error) {
	u, err := d.stores.Users.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound(apperr.CodeUserNotFound, "user not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if u.Role != role {
		return nil, apperr.Validation(apperr.CodeRoleMismatch, "user is not a "+string(role))
	}
	return u, nil
}

func (d *Dashboards) load(ctx context.Context, partyID string, rf, of store.RequestFilter) (*snapshot, error) {
	var s snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if partyID == "" {
			return nil
		}
		var err error
		s.stock, err = d.stores.Stock.ListByParty(gctx, partyID)
		return err
	})
	g.Go(func() error {
		var err error
		s.reorders, err = d.stores.Reorders.List(gctx, rf)
		return err
	})
	g.Go(func() error {
		var err error
		s.orders, err = d.stores.Orders.List(gctx, of)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperr.Internal(err)
	}

	ids := make([]string, 0, len(s.stock)+len(s.reorders))
	for _, e := range s.stock {
		ids = append(ids, e.MedicineID)
	}
	for _, r := range s.reorders {
		ids = append(ids, r.MedicineID)
	}
	meds, err := d.stores.Medicines.GetMany(ctx, ids)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	s.medicines = meds
	return &s, nil
}

func (d *Dashboards) inventory(s *snapshot) []InventoryRow {
	rows := make([]InventoryRow, 0, len(s.stock))
	for _, e := range s.stock {
		row := InventoryRow{
			ID:           e.ID,
			MedicineID:   e.MedicineID,
			CurrentStock: e.Quantity,
			ReorderLevel: d.opts.ReorderThreshold,
			Status:       models.ClassifyStock(e.Quantity, d.opts.ReorderThreshold),
		}
		if m, ok := s.medicines[e.MedicineID]; ok {
			row.Name = m.Name
			row.Brand = m.Brand
		}
		rows = append(rows, row)
	}
	return rows
}

// feed merges both ledgers, newest first. keep filters items.
func feed(s *snapshot, keep func(models.RequestStatus) bool) []FeedItem {
	items := make([]FeedItem, 0, len(s.reorders)+len(s.orders))
	for _, r := range s.reorders {
		if !keep(r.Status) {
			continue
		}
		it := FeedItem{
			Type:           models.KindReorder,
			ID:             r.ID,
			RequestNumber:  r.Number,
			Reference:      r.Reference,
			Status:         r.Status,
			RetailerUserID: r.RetailerUserID,
			Quantity:       r.Quantity,
			CreatedAt:      r.CreatedAt,
		}
		if m, ok := s.medicines[r.MedicineID]; ok {
			sum := m.Summary()
			it.Medicine = &sum
		}
		items = append(items, it)
	}
	for _, o := range s.orders {
		if !keep(o.Status) {
			continue
		}
		items = append(items, FeedItem{
			Type:           models.KindOrder,
			ID:             o.ID,
			RequestNumber:  o.Number,
			Reference:      o.Reference,
			Status:         o.Status,
			RetailerUserID: o.RetailerUserID,
			Quantity:       o.TotalQuantity(),
			TotalAmount:    o.TotalAmount,
			ItemCount:      len(o.Items),
			CreatedAt:      o.CreatedAt,
		})
	}
	slices.SortStableFunc(items, func(a, b FeedItem) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		switch {
		case a.RequestNumber > b.RequestNumber:
			return -1
		case a.RequestNumber < b.RequestNumber:
			return 1
		}
		return 0
	})
	return items
}

func anyStatus(models.RequestStatus) bool { return true }

func onlyPending(st models.RequestStatus) bool { return st == models.StatusPending }

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func startOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// Retailer builds the overview for a retailer user.
func (d *Dashboards) Retailer(ctx context.Context, userID string) (*RetailerDashboard, error) {
	u, err := d.user(ctx, userID, models.RoleRetailer)
	if err != nil {
		return nil, err
	}
	byUser := store.RequestFilter{RetailerUserID: u.ID}
	s, err := d.load(ctx, u.PartyID, byUser, byUser)
	if err != nil {
		return nil, err
	}

	today := startOfDay(d.clock())
	out := &RetailerDashboard{
		Inventory:       d.inventory(s),
		LowStockItems:   []InventoryRow{},
		ReorderRequests: feed(s, anyStatus),
	}
	out.TotalItems = len(out.Inventory)
	for _, row := range out.Inventory {
		if row.CurrentStock <= d.opts.ReorderThreshold {
			out.LowStockItems = append(out.LowStockItems, row)
		}
	}
	out.LowStock = len(out.LowStockItems)
	for _, r := range s.reorders {
		if !r.CreatedAt.Before(today) {
			out.TodaySales += r.Quantity
		}
		if r.Status == models.StatusPending {
			out.PendingReorders++
		}
	}
	for _, o := range s.orders {
		if o.Status == models.StatusPending {
			out.PendingReorders++
		}
	}
	return out, nil
}

// Wholesaler builds the overview for a wholesaler user. Reorder requests are
// not addressed to a wholesaler, so every wholesaler sees all of them.
func (d *Dashboards) Wholesaler(ctx context.Context, userID string) (*WholesalerDashboard, error) {
	u, err := d.user(ctx, userID, models.RoleWholesaler)
	if err != nil {
		return nil, err
	}
	of := store.RequestFilter{WholesalerPartyID: u.PartyID}
	s, err := d.load(ctx, u.PartyID, store.RequestFilter{}, of)
	if err != nil {
		return nil, err
	}

	month := startOfMonth(d.clock())
	active := make(map[string]struct{})
	out := &WholesalerDashboard{Inventory: d.inventory(s)}
	for _, r := range s.reorders {
		if r.Status == models.StatusPending {
			out.PendingOrders++
		}
		if r.CreatedAt.Before(month) {
			continue
		}
		active[r.RetailerUserID] = struct{}{}
		if r.Status == models.StatusApproved {
			out.MonthlyRevenue += r.Quantity * d.opts.UnitPrice
		}
	}
	for _, o := range s.orders {
		if o.Status == models.StatusPending {
			out.PendingOrders++
		}
		if o.CreatedAt.Before(month) {
			continue
		}
		active[o.RetailerUserID] = struct{}{}
		if o.Status == models.StatusApproved || o.Status == models.StatusCompleted {
			out.MonthlyRevenue += o.TotalAmount
		}
	}
	out.ActiveRetailers = len(active)

	recent := feed(s, onlyPending)
	if limit := d.opts.RecentRequestsLimit; limit > 0 && len(recent) > limit {
		recent = recent[:limit]
	}
	out.RecentRequests = recent
	return out, nil
}
