package mongostore

import (
	"context"
	"regexp"
	"strings"
	"time"

	"medeasy-api-server/internal/models"
	"medeasy-api-server/internal/store"
	"medeasy-api-server/internal/txn"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type userStore struct{ c *mongo.Collection }

func (s *userStore) Create(ctx context.Context, u *models.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if isDuplicateKeyErr(err) {
			return store.ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *userStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *userStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *userStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

type partyStore struct{ c *mongo.Collection }

func (s *partyStore) Create(ctx context.Context, p *models.Party) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if isDuplicateKeyErr(err) {
			return store.ErrDuplicate
		}
		return err
	}
	id := p.ID
	txn.OnRollback(ctx, func(ctx context.Context) error {
		_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
		return err
	})
	return nil
}

func (s *partyStore) findOne(ctx context.Context, filter bson.M) (*models.Party, error) {
	var p models.Party
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	if err := s.c.FindOne(ctx, filter, opts).Decode(&p); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *partyStore) GetByID(ctx context.Context, id string) (*models.Party, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *partyStore) GetByOwner(ctx context.Context, userID string) (*models.Party, error) {
	return s.findOne(ctx, bson.M{"ownerUserId": userID})
}

func (s *partyStore) GetByName(ctx context.Context, role models.Role, name string) (*models.Party, error) {
	return s.findOne(ctx, bson.M{"role": role, "name": name})
}

func (s *partyStore) ListByRole(ctx context.Context, role models.Role) ([]models.Party, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.c.Find(ctx, bson.M{"role": role}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []models.Party
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Party{}
	}
	return out, nil
}

type medicineStore struct{ c *mongo.Collection }

func (s *medicineStore) Create(ctx context.Context, m *models.Medicine) error {
	m.NameKey = models.NormalizeName(m.Name)
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if isDuplicateKeyErr(err) {
			return store.ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *medicineStore) findOne(ctx context.Context, filter bson.M) (*models.Medicine, error) {
	var m models.Medicine
	if err := s.c.FindOne(ctx, filter).Decode(&m); err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (s *medicineStore) GetByID(ctx context.Context, id string) (*models.Medicine, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *medicineStore) GetByName(ctx context.Context, name string) (*models.Medicine, error) {
	return s.findOne(ctx, bson.M{"nameKey": models.NormalizeName(name)})
}

func (s *medicineStore) GetMany(ctx context.Context, ids []string) (map[string]models.Medicine, error) {
	out := make(map[string]models.Medicine, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cursor, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var found []models.Medicine
	if err := cursor.All(ctx, &found); err != nil {
		return nil, err
	}
	for _, m := range found {
		out[m.ID] = m
	}
	return out, nil
}

func (s *medicineStore) List(ctx context.Context, query string, limit int) ([]models.Medicine, error) {
	filter := bson.M{}
	if q := strings.TrimSpace(query); q != "" {
		rx := bson.M{"$regex": regexp.QuoteMeta(q), "$options": "i"}
		filter["$or"] = bson.A{bson.M{"name": rx}, bson.M{"brand": rx}}
	}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []models.Medicine
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Medicine{}
	}
	return out, nil
}
