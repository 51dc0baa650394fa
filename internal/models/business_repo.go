package models

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the 2dsphere and id indexes the service relies on.
func (mdb *MongodbRepo) EnsureIndexes(ctx context.Context) error {
	businesses, err := mdb.GetCollection(ctx, BusinessesColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}
	_, err = businesses.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "location", Value: "2dsphere"}},
			Options: options.Index().SetName("location_2dsphere"),
		},
		{
			Keys:    bson.D{{Key: "uuid", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uuid_unique"),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}},
			Options: options.Index().SetName("category_idx"),
		},
	})
	if err != nil {
		return fmt.Errorf("error creating business indexes: %v", err)
	}

	users, err := mdb.GetCollection(ctx, UsersColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}
	_, err = users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "uuid", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uuid_unique"),
	})
	if err != nil {
		return fmt.Errorf("error creating user indexes: %v", err)
	}

	sponsored, err := mdb.GetCollection(ctx, SponsoredColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}
	_, err = sponsored.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "location", Value: "2dsphere"}},
		Options: options.Index().SetName("location_2dsphere"),
	})
	if err != nil {
		return fmt.Errorf("error creating sponsored indexes: %v", err)
	}

	return nil
}

func (mdb *MongodbRepo) CreateBusiness(ctx context.Context, business *Business) error {
	col, err := mdb.GetCollection(ctx, BusinessesColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}
	if _, err := col.InsertOne(ctx, business); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("business %s already exists: %w", business.ID, ErrValidation)
		}
		return fmt.Errorf("error inserting business: %w", err)
	}
	return nil
}

func (mdb *MongodbRepo) GetBusiness(ctx context.Context, id string) (*Business, error) {
	col, err := mdb.GetCollection(ctx, BusinessesColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	var business Business
	err = col.FindOne(ctx, bson.M{"uuid": id}).Decode(&business)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("business %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error finding business: %w", err)
	}
	return &business, nil
}

// GetBusinesses returns the businesses in the order of ids, skipping ids that
// no longer resolve.
func (mdb *MongodbRepo) GetBusinesses(ctx context.Context, ids []string) ([]*Business, error) {
	if len(ids) == 0 {
		return []*Business{}, nil
	}
	col, err := mdb.GetCollection(ctx, BusinessesColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	opts := options.Find().SetProjection(bson.M{"comments": 0})
	cursor, err := col.Find(ctx, bson.M{"uuid": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding businesses: %w", err)
	}
	defer cursor.Close(ctx)

	byID := make(map[string]*Business, len(ids))
	for cursor.Next(ctx) {
		var b Business
		if err := cursor.Decode(&b); err != nil {
			return nil, fmt.Errorf("error decoding business: %w", err)
		}
		byID[b.ID] = &b
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	out := make([]*Business, 0, len(ids))
	for _, id := range ids {
		if b, ok := byID[id]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func (mdb *MongodbRepo) UpdateBusinessProfile(ctx context.Context, id string, update BusinessProfileUpdate) error {
	col, err := mdb.GetCollection(ctx, BusinessesColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}

	res, err := col.UpdateOne(ctx, bson.M{"uuid": id}, bson.M{"$set": update})
	if err != nil {
		return fmt.Errorf("error updating business: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("business %s: %w", id, ErrNotFound)
	}
	return nil
}

// FindNear runs $geoNear (distance ascending) with the category and text
// filters pushed into its query, then splits page and total with $facet.
func (mdb *MongodbRepo) FindNear(ctx context.Context, q NearQuery) ([]Business, int64, error) {
	col, err := mdb.GetCollection(ctx, BusinessesColName)
	if err != nil {
		return nil, 0, fmt.Errorf("error getting collection: %v", err)
	}

	geoNear := bson.D{
		{Key: "near", Value: bson.D{
			{Key: "type", Value: "Point"},
			{Key: "coordinates", Value: bson.A{q.Lng, q.Lat}},
		}},
		{Key: "distanceField", Value: "distance_m"},
		{Key: "maxDistance", Value: q.MaxDistanceMeters},
		{Key: "spherical", Value: true},
	}
	if filter := nearFilter(q); len(filter) > 0 {
		geoNear = append(geoNear, bson.E{Key: "query", Value: filter})
	}

	pipeline := mongo.Pipeline{
		{{Key: "$geoNear", Value: geoNear}},
		{{Key: "$project", Value: bson.M{"comments": 0}}},
		{{Key: "$facet", Value: bson.D{
			{Key: "items", Value: bson.A{
				bson.D{{Key: "$skip", Value: int64(q.Offset)}},
				bson.D{{Key: "$limit", Value: int64(q.Limit)}},
			}},
			{Key: "total", Value: bson.A{
				bson.D{{Key: "$count", Value: "n"}},
			}},
		}}},
	}

	cursor, err := col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, fmt.Errorf("error running geo query: %w", err)
	}
	defer cursor.Close(ctx)

	var facets []struct {
		Items []Business `bson:"items"`
		Total []struct {
			N int64 `bson:"n"`
		} `bson:"total"`
	}
	if err := cursor.All(ctx, &facets); err != nil {
		return nil, 0, fmt.Errorf("error decoding geo query: %w", err)
	}
	if len(facets) == 0 {
		return []Business{}, 0, nil
	}

	var total int64
	if len(facets[0].Total) > 0 {
		total = facets[0].Total[0].N
	}
	items := facets[0].Items
	if items == nil {
		items = []Business{}
	}
	return items, total, nil
}

func nearFilter(q NearQuery) bson.M {
	filter := bson.M{}
	if len(q.Categories) > 0 {
		filter["category"] = bson.M{"$in": q.Categories}
	}
	if q.Text != "" {
		pattern := regexp.QuoteMeta(q.Text)
		filter["$or"] = bson.A{
			bson.M{"name": bson.M{"$regex": pattern, "$options": "i"}},
			bson.M{"description": bson.M{"$regex": pattern, "$options": "i"}},
		}
	}
	return filter
}
