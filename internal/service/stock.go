package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"medeasy-api-server/internal/apperr"
	"medeasy-api-server/internal/models"
	"medeasy-api-server/internal/search"
	"medeasy-api-server/internal/store"
)

// Stock handles direct stock corrections, the partner rosters and the
// consumer proximity search.
type Stock struct {
	parties   store.PartyStore
	medicines store.MedicineStore
	stock     store.StockStore
	publisher Publisher
	opts      Options
	clock     Clock
}

// Caller is the signed-in partner asking for a stock write.
type Caller struct {
	UserID string
	Role   models.Role
}

// owns reports whether the caller may write to p. Seeded stores have no
// owner and are open to partners of the same role.
func (c *Caller) owns(p *models.Party) bool {
	if p.OwnerUserID != "" {
		return p.OwnerUserID == c.UserID
	}
	return p.Role == c.Role
}

// SetStockInput overwrites stock. With PartyID only that store is written,
// otherwise every existing entry for the medicine in Role pools. An empty or
// unknown Role means both partner roles.
//
// A non-nil Caller may only write stores it owns, and its role mode is
// limited to its own role. A nil Caller is an internal write such as seeding.
type SetStockInput struct {
	MedicineID string
	Quantity   *int64
	PartyID    string
	Role       string
	Caller     *Caller
}

type SetStockResult struct {
	Success  bool  `json:"success"`
	Quantity int64 `json:"quantity"`
	Modified int64 `json:"modified"`
}

func (s *Stock) Set(ctx context.Context, in SetStockInput) (*SetStockResult, error) {
	if in.Quantity == nil || *in.Quantity < 0 {
		return nil, apperr.Validation(apperr.CodeInvalidQuantity, "quantity must be zero or more")
	}
	qty := *in.Quantity

	if in.MedicineID == "" {
		return nil, apperr.Validation(apperr.CodeUnknownMedicine, "medicineId is required")
	}
	if _, err := s.medicines.GetByID(ctx, in.MedicineID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Validation(apperr.CodeUnknownMedicine, "unknown medicine")
		}
		return nil, apperr.Internal(err)
	}

	now := s.clock().UTC()
	res := &SetStockResult{Success: true, Quantity: qty}

	if partyID := strings.TrimSpace(in.PartyID); partyID != "" {
		party, err := s.parties.GetByID(ctx, partyID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Validation(apperr.CodeUnknownParty, "unknown store")
		}
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if in.Caller != nil && !in.Caller.owns(party) {
			return nil, apperr.Forbidden(apperr.CodeNotStoreOwner, "you can only update your own store")
		}
		key := models.StockKey{PartyID: party.ID, MedicineID: in.MedicineID}
		changed, err := s.stock.Set(ctx, key, party.Role, qty)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if changed {
			res.Modified = 1
			if party.OwnerUserID != "" {
				s.publisher.PublishToUser(party.OwnerUserID, stockEvent(party.ID, in.MedicineID, qty, now))
			}
		}
		return res, nil
	}

	roles := models.PartnerRoles
	if r, err := models.ParseRole(in.Role); err == nil && r.IsPartner() {
		roles = []models.Role{r}
	}
	if in.Caller != nil {
		if strings.TrimSpace(in.Role) != "" && (len(roles) != 1 || roles[0] != in.Caller.Role) {
			return nil, apperr.Forbidden(apperr.CodeNotStoreOwner, "you can only update stock of your own role")
		}
		roles = []models.Role{in.Caller.Role}
	}
	for _, role := range roles {
		n, err := s.stock.SetForRole(ctx, role, in.MedicineID, qty)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if n > 0 {
			s.publisher.PublishToRole(role, stockEvent("", in.MedicineID, qty, now))
		}
		res.Modified += n
	}
	return res, nil
}

func stockEvent(partyID, medicineID string, qty int64, at time.Time) models.Event {
	return models.Event{
		Type:       models.EventStockChanged,
		PartyID:    partyID,
		MedicineID: medicineID,
		Quantity:   qty,
		At:         at,
	}
}

// RosterLine is one medicine a store holds.
type RosterLine struct {
	MedicineID string `json:"medicineId"`
	Name       string `json:"name"`
	Brand      string `json:"brand"`
	Image      string `json:"image,omitempty"`
	Quantity   int64  `json:"quantity"`
}

// RosterEntry is a store with its stock, as listed to consumers and retailers.
type RosterEntry struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Location  *models.Address `json:"location,omitempty"`
	Medicines []RosterLine    `json:"medicines"`
}

type roster struct {
	parties   []models.Party
	entries   map[string][]models.StockEntry
	medicines map[string]models.Medicine
}

func (s *Stock) loadRoster(ctx context.Context, role models.Role) (*roster, error) {
	parties, err := s.parties.ListByRole(ctx, role)
	if err != nil {
		return nil, err
	}
	entries, err := s.stock.ListByRole(ctx, role)
	if err != nil {
		return nil, err
	}

	r := &roster{parties: parties, entries: make(map[string][]models.StockEntry)}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		r.entries[e.PartyID] = append(r.entries[e.PartyID], e)
		ids = append(ids, e.MedicineID)
	}
	if r.medicines, err = s.medicines.GetMany(ctx, ids); err != nil {
		return nil, err
	}
	return r, nil
}

// Roster lists every store of role with the medicines it holds. Entries
// whose medicine no longer resolves are left out.
func (s *Stock) Roster(ctx context.Context, role models.Role) ([]RosterEntry, error) {
	r, err := s.loadRoster(ctx, role)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	out := make([]RosterEntry, 0, len(r.parties))
	for _, p := range r.parties {
		item := RosterEntry{ID: p.ID, Name: p.Name, Location: p.Location, Medicines: []RosterLine{}}
		for _, e := range r.entries[p.ID] {
			m, ok := r.medicines[e.MedicineID]
			if !ok {
				continue
			}
			item.Medicines = append(item.Medicines, RosterLine{
				MedicineID: m.ID,
				Name:       m.Name,
				Brand:      m.Brand,
				Image:      m.Image,
				Quantity:   e.Quantity,
			})
		}
		out = append(out, item)
	}
	return out, nil
}

type SearchInput struct {
	Latitude  *float64
	Longitude *float64
	RadiusKm  float64
	Query     string
}

// Search groups retailer stock by medicine. With a position, stores outside
// the radius are left out. RadiusKm <= 0 falls back to the configured default.
func (s *Stock) Search(ctx context.Context, in SearchInput) ([]search.Result, error) {
	loc, err := parseLocation(in.Latitude, in.Longitude, "")
	if err != nil {
		return nil, err
	}
	q := search.Query{RadiusKm: in.RadiusKm, Text: in.Query}
	if q.RadiusKm <= 0 {
		q.RadiusKm = s.opts.SearchRadiusKm
	}
	if loc != nil {
		q.Origin = &search.Point{Lat: loc.Latitude, Lng: loc.Longitude}
	}

	r, err := s.loadRoster(ctx, models.RoleRetailer)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	listings := make([]search.Listing, 0, len(r.parties))
	for _, p := range r.parties {
		l := search.Listing{RetailerID: p.ID, RetailerName: p.Name}
		if p.Location != nil {
			l.Location = &search.Point{Lat: p.Location.Latitude, Lng: p.Location.Longitude}
		}
		for _, e := range r.entries[p.ID] {
			entry := search.Entry{Quantity: e.Quantity}
			if m, ok := r.medicines[e.MedicineID]; ok {
				entry.Medicine = &m
			}
			l.Entries = append(l.Entries, entry)
		}
		listings = append(listings, l)
	}
	return search.Aggregate(listings, q), nil
}
