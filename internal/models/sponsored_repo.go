package models

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (mdb *MongodbRepo) CreateSponsored(ctx context.Context, sponsored *SponsoredBusiness) error {
	col, err := mdb.GetCollection(ctx, SponsoredColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}

	_, err = col.UpdateOne(ctx,
		bson.M{"uuid": sponsored.BusinessID},
		bson.M{"$set": bson.M{"location": sponsored.Location}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("error upserting sponsored business: %w", err)
	}
	return nil
}

// SampleSponsored draws a random sample of sponsored points inside the radius.
func (mdb *MongodbRepo) SampleSponsored(ctx context.Context, q SponsoredQuery) ([]SponsoredBusiness, error) {
	col, err := mdb.GetCollection(ctx, SponsoredColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$geoNear", Value: bson.D{
			{Key: "near", Value: bson.D{
				{Key: "type", Value: "Point"},
				{Key: "coordinates", Value: bson.A{q.Lng, q.Lat}},
			}},
			{Key: "distanceField", Value: "distance_m"},
			{Key: "maxDistance", Value: q.MaxDistanceMeters},
			{Key: "spherical", Value: true},
		}}},
		{{Key: "$sample", Value: bson.M{"size": q.Size}}},
	}

	cursor, err := col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("error sampling sponsored businesses: %w", err)
	}
	defer cursor.Close(ctx)

	var out []SponsoredBusiness
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("error decoding sponsored businesses: %w", err)
	}
	if out == nil {
		out = []SponsoredBusiness{}
	}
	return out, nil
}
