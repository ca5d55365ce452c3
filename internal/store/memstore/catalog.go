package memstore

import (
	"context"
	"sort"
	"strings"
	"time"

	"medeasy-api-server/internal/models"
	"medeasy-api-server/internal/store"
)

type users struct{ s *Store }

var _ store.UserStore = (*users)(nil)

func (r *users) Create(ctx context.Context, u *models.User) error {
	r.s.wlock(ctx)
	defer r.s.wunlock(ctx)
	st := r.s.st
	if _, ok := st.users[u.ID]; ok {
		return store.ErrDuplicate
	}
	if _, ok := st.emails[u.Email]; ok {
		return store.ErrDuplicate
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	st.users[u.ID] = *u
	st.emails[u.Email] = u.ID
	return nil
}

func (r *users) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.s.rlock(ctx)
	defer r.s.runlock(ctx)
	u, ok := r.s.st.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (r *users) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.rlock(ctx)
	defer r.s.runlock(ctx)
	id, ok := r.s.st.emails[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	u := r.s.st.users[id]
	return &u, nil
}

type parties struct{ s *Store }

var _ store.PartyStore = (*parties)(nil)

func (r *parties) Create(ctx context.Context, p *models.Party) error {
	r.s.wlock(ctx)
	defer r.s.wunlock(ctx)
	st := r.s.st
	if _, ok := st.parties[p.ID]; ok {
		return store.ErrDuplicate
	}
	if p.OwnerUserID != "" {
		for _, other := range st.parties {
			if other.OwnerUserID == p.OwnerUserID {
				return store.ErrDuplicate
			}
		}
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	st.parties[p.ID] = *p
	st.partyOrder = append(st.partyOrder, p.ID)
	return nil
}

func (r *parties) GetByID(ctx context.Context, id string) (*models.Party, error) {
	r.s.rlock(ctx)
	defer r.s.runlock(ctx)
	p, ok := r.s.st.parties[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (r *parties) find(ctx context.Context, match func(models.Party) bool) (*models.Party, error) {
	r.s.rlock(ctx)
	defer r.s.runlock(ctx)
	for _, id := range r.s.st.partyOrder {
		if p := r.s.st.parties[id]; match(p) {
			return &p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *parties) GetByOwner(ctx context.Context, userID string) (*models.Party, error) {
	return r.find(ctx, func(p models.Party) bool { return p.OwnerUserID == userID })
}

func (r *parties) GetByName(ctx context.Context, role models.Role, name string) (*models.Party, error) {
	return r.find(ctx, func(p models.Party) bool { return p.Role == role && p.Name == name })
}

func (r *parties) ListByRole(ctx context.Context, role models.Role) ([]models.Party, error) {
	r.s.rlock(ctx)
	defer r.s.runlock(ctx)
	out := make([]models.Party, 0)
	for _, id := range r.s.st.partyOrder {
		if p := r.s.st.parties[id]; p.Role == role {
			out = append(out, p)
		}
	}
	return out, nil
}

type medicines struct{ s *Store }

var _ store.MedicineStore = (*medicines)(nil)

func (r *medicines) Create(ctx context.Context, m *models.Medicine) error {
	r.s.wlock(ctx)
	defer r.s.wunlock(ctx)
	st := r.s.st
	m.NameKey = models.NormalizeName(m.Name)
	if _, ok := st.medicines[m.ID]; ok {
		return store.ErrDuplicate
	}
	if _, ok := st.nameKeys[m.NameKey]; ok {
		return store.ErrDuplicate
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	st.medicines[m.ID] = *m
	st.nameKeys[m.NameKey] = m.ID
	return nil
}

func (r *medicines) GetByID(ctx context.Context, id string) (*models.Medicine, error) {
	r.s.rlock(ctx)
	defer r.s.runlock(ctx)
	m, ok := r.s.st.medicines[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &m, nil
}

func (r *medicines) GetByName(ctx context.Context, name string) (*models.Medicine, error) {
	r.s.rlock(ctx)
	defer r.s.runlock(ctx)
	id, ok := r.s.st.nameKeys[models.NormalizeName(name)]
	if !ok {
		return nil, store.ErrNotFound
	}
	m := r.s.st.medicines[id]
	return &m, nil
}

func (r *medicines) GetMany(ctx context.Context, ids []string) (map[string]models.Medicine, error) {
	r.s.rlock(ctx)
	defer r.s.runlock(ctx)
	out := make(map[string]models.Medicine, len(ids))
	for _, id := range ids {
		if m, ok := r.s.st.medicines[id]; ok {
			out[id] = m
		}
	}
	return out, nil
}

func (r *medicines) List(ctx context.Context, query string, limit int) ([]models.Medicine, error) {
	r.s.rlock(ctx)
	defer r.s.runlock(ctx)
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]models.Medicine, 0)
	for _, m := range r.s.st.medicines {
		if q != "" && !strings.Contains(strings.ToLower(m.Name), q) && !strings.Contains(strings.ToLower(m.Brand), q) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
