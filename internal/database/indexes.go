// internal/database/indexes.go
package database

import (
	"context"
	"errors"
	"strings"

	"medeasy-api-server/internal/store/mongostore"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureIndexes is called at startup. Creating an index that already exists with
the same keys and options is a no-op in MongoDB, so every call is idempotent.
Problems are aggregated so that startup fails once with the full picture.
*/
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	sets := map[string][]mongo.IndexModel{
		mongostore.UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetName("uniq_email").SetUnique(true)},
		},
		mongostore.PartiesCollection: {
			{Keys: bson.D{{Key: "role", Value: 1}, {Key: "createdAt", Value: 1}}, Options: options.Index().SetName("role_created")},
			{Keys: bson.D{{Key: "role", Value: 1}, {Key: "name", Value: 1}}, Options: options.Index().SetName("role_name")},
			{
				Keys: bson.D{{Key: "ownerUserId", Value: 1}},
				Options: options.Index().SetName("uniq_owner").SetUnique(true).
					SetPartialFilterExpression(bson.M{"ownerUserId": bson.M{"$type": "string"}}),
			},
		},
		mongostore.MedicinesCollection: {
			{Keys: bson.D{{Key: "nameKey", Value: 1}}, Options: options.Index().SetName("uniq_name_key").SetUnique(true)},
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetName("name")},
		},
		mongostore.StockCollection: {
			{Keys: bson.D{{Key: "partyId", Value: 1}, {Key: "medicineId", Value: 1}}, Options: options.Index().SetName("uniq_party_medicine").SetUnique(true)},
			{Keys: bson.D{{Key: "partyRole", Value: 1}, {Key: "medicineId", Value: 1}}, Options: options.Index().SetName("role_medicine")},
		},
		mongostore.ReordersCollection: {
			{Keys: bson.D{{Key: "retailerUserId", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("retailer_created")},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("status_created")},
		},
		mongostore.OrdersCollection: {
			{Keys: bson.D{{Key: "retailerUserId", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("retailer_created")},
			{Keys: bson.D{{Key: "wholesalerPartyId", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("wholesaler_created")},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("status_created")},
		},
	}

	var problems []string
	for coll, models := range sets {
		names, err := db.Collection(coll).Indexes().CreateMany(ctx, models)
		if err != nil {
			zap.L().Warn("ensure indexes failed", zap.String("collection", coll), zap.Error(err))
			problems = append(problems, coll+": "+err.Error())
			continue
		}
		zap.L().Info("indexes ensured", zap.String("collection", coll), zap.Strings("names", names))
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
