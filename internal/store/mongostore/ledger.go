package mongostore

import (
	"context"
	"time"

	"medeasy-api-server/internal/models"
	"medeasy-api-server/internal/store"
	"medeasy-api-server/internal/txn"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func requestFilter(f store.RequestFilter, withWholesaler bool) bson.M {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.RetailerUserID != "" {
		filter["retailerUserId"] = f.RetailerUserID
	}
	if f.RetailerPartyID != "" {
		filter["retailerPartyId"] = f.RetailerPartyID
	}
	if withWholesaler && f.WholesalerPartyID != "" {
		filter["wholesalerPartyId"] = f.WholesalerPartyID
	}
	if !f.CreatedFrom.IsZero() {
		filter["createdAt"] = bson.M{"$gte": f.CreatedFrom}
	}
	return filter
}

func newestFirst(f store.RequestFilter) *options.FindOptions {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "number", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	return opts
}

// transition flips status with a compare-and-set on the current value and
// decodes the updated document into out.
func transition(ctx context.Context, c *mongo.Collection, id string, from, to models.RequestStatus, at time.Time, out interface{}) error {
	stampField := "decidedAt"
	if to == models.StatusCompleted {
		stampField = "completedAt"
	}

	filter := bson.M{"_id": id, "status": from}
	update := bson.M{"$set": bson.M{"status": to, "updatedAt": at, stampField: at}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	err := c.FindOneAndUpdate(ctx, filter, update, opts).Decode(out)
	if err == mongo.ErrNoDocuments {
		n, cerr := c.CountDocuments(ctx, bson.M{"_id": id})
		if cerr != nil {
			return cerr
		}
		if n == 0 {
			return store.ErrNotFound
		}
		return store.ErrStateConflict
	}
	if err != nil {
		return err
	}

	txn.OnRollback(ctx, func(ctx context.Context) error {
		_, err := c.UpdateOne(ctx,
			bson.M{"_id": id, "status": to},
			bson.M{"$set": bson.M{"status": from}, "$unset": bson.M{stampField: ""}},
		)
		return err
	})
	return nil
}

type reorderStore struct{ c *mongo.Collection }

func (s *reorderStore) Create(ctx context.Context, r *models.ReorderRequest) error {
	if _, err := s.c.InsertOne(ctx, r); err != nil {
		if isDuplicateKeyErr(err) {
			return store.ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *reorderStore) GetByID(ctx context.Context, id string) (*models.ReorderRequest, error) {
	var r models.ReorderRequest
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

func (s *reorderStore) List(ctx context.Context, f store.RequestFilter) ([]models.ReorderRequest, error) {
	cursor, err := s.c.Find(ctx, requestFilter(f, false), newestFirst(f))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []models.ReorderRequest
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.ReorderRequest{}
	}
	return out, nil
}

func (s *reorderStore) Transition(ctx context.Context, id string, from, to models.RequestStatus, at time.Time) (*models.ReorderRequest, error) {
	var r models.ReorderRequest
	if err := transition(ctx, s.c, id, from, to, at, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

type orderStore struct{ c *mongo.Collection }

func (s *orderStore) Create(ctx context.Context, o *models.Order) error {
	if _, err := s.c.InsertOne(ctx, o); err != nil {
		if isDuplicateKeyErr(err) {
			return store.ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *orderStore) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var o models.Order
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

func (s *orderStore) List(ctx context.Context, f store.RequestFilter) ([]models.Order, error) {
	cursor, err := s.c.Find(ctx, requestFilter(f, true), newestFirst(f))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []models.Order
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Order{}
	}
	return out, nil
}

func (s *orderStore) Transition(ctx context.Context, id string, from, to models.RequestStatus, at time.Time) (*models.Order, error) {
	var o models.Order
	if err := transition(ctx, s.c, id, from, to, at, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// sequenceStore keeps one counter document per name.
type sequenceStore struct{ c *mongo.Collection }

func (s *sequenceStore) Next(ctx context.Context, name string) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": name}, bson.M{"$inc": bson.M{"seq": int64(1)}}, opts).Decode(&doc)
	if err != nil {
		return 0, err
	}
	return doc.Seq, nil
}

var (
	_ store.UserStore     = (*userStore)(nil)
	_ store.PartyStore    = (*partyStore)(nil)
	_ store.MedicineStore = (*medicineStore)(nil)
	_ store.StockStore    = (*stockStore)(nil)
	_ store.ReorderStore  = (*reorderStore)(nil)
	_ store.OrderStore    = (*orderStore)(nil)
	_ store.SequenceStore = (*sequenceStore)(nil)
)
