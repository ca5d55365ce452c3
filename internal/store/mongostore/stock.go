package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medeasy-api-server/internal/models"
	"medeasy-api-server/internal/txn"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// stockStore keeps one document per (party, medicine). The document id is
// derived from the key, so every write is a single-document upsert.
type stockStore struct{ c *mongo.Collection }

func onInsert(key models.StockKey, role models.Role, now time.Time) bson.M {
	return bson.M{
		"partyId":    key.PartyID,
		"medicineId": key.MedicineID,
		"partyRole":  role,
		"createdAt":  now,
	}
}

func (s *stockStore) Increment(ctx context.Context, key models.StockKey, role models.Role, delta int64) (*models.StockEntry, error) {
	if delta <= 0 {
		return nil, fmt.Errorf("mongostore: increment by %d", delta)
	}
	now := time.Now().UTC()
	filter := bson.M{"_id": key.ID()}
	update := bson.M{
		"$inc":         bson.M{"quantity": delta},
		"$set":         bson.M{"updatedAt": now},
		"$setOnInsert": onInsert(key, role, now),
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.Before)

	var out models.StockEntry
	err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&out)
	inserted := errors.Is(err, mongo.ErrNoDocuments)
	if err != nil && !inserted {
		return nil, err
	}
	if inserted {
		out = models.StockEntry{
			ID:         key.ID(),
			PartyID:    key.PartyID,
			PartyRole:  role,
			MedicineID: key.MedicineID,
			CreatedAt:  now,
		}
	}
	out.Quantity += delta
	out.UpdatedAt = now

	txn.OnRollback(ctx, func(ctx context.Context) error {
		if _, err := s.c.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"quantity": -delta}}); err != nil {
			return err
		}
		if !inserted {
			return nil
		}
		// Only drop the entry this call created if nothing else credited it since.
		_, err := s.c.DeleteOne(ctx, bson.M{"_id": key.ID(), "quantity": 0})
		return err
	})
	return &out, nil
}

func (s *stockStore) Set(ctx context.Context, key models.StockKey, role models.Role, quantity int64) (bool, error) {
	if quantity < 0 {
		return false, fmt.Errorf("mongostore: negative quantity %d", quantity)
	}
	now := time.Now().UTC()
	filter := bson.M{"_id": key.ID()}
	update := bson.M{
		"$set":         bson.M{"quantity": quantity, "updatedAt": now},
		"$setOnInsert": onInsert(key, role, now),
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.Before)

	var before models.StockEntry
	err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&before)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		// upserted
		return true, nil
	case err != nil:
		return false, err
	}
	return before.Quantity != quantity, nil
}

func (s *stockStore) SetForRole(ctx context.Context, role models.Role, medicineID string, quantity int64) (int64, error) {
	if quantity < 0 {
		return 0, fmt.Errorf("mongostore: negative quantity %d", quantity)
	}
	filter := bson.M{
		"partyRole":  role,
		"medicineId": medicineID,
		"quantity":   bson.M{"$ne": quantity},
	}
	update := bson.M{"$set": bson.M{"quantity": quantity, "updatedAt": time.Now().UTC()}}
	res, err := s.c.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (s *stockStore) Get(ctx context.Context, key models.StockKey) (*models.StockEntry, error) {
	var e models.StockEntry
	if err := s.c.FindOne(ctx, bson.M{"_id": key.ID()}).Decode(&e); err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

func (s *stockStore) list(ctx context.Context, filter bson.M) ([]models.StockEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []models.StockEntry
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.StockEntry{}
	}
	return out, nil
}

func (s *stockStore) ListByParty(ctx context.Context, partyID string) ([]models.StockEntry, error) {
	return s.list(ctx, bson.M{"partyId": partyID})
}

func (s *stockStore) ListByRole(ctx context.Context, role models.Role) ([]models.StockEntry, error) {
	return s.list(ctx, bson.M{"partyRole": role})
}
