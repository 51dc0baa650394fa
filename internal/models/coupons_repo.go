package models

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

func (mdb *MongodbRepo) CreateCoupon(ctx context.Context, businessID string, coupon *Coupon) error {
	col, err := mdb.GetCollection(ctx, BusinessesColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}

	res, err := col.UpdateOne(ctx,
		bson.M{"uuid": businessID},
		bson.M{"$set": bson.M{"coupons." + coupon.ID: coupon}},
	)
	if err != nil {
		return fmt.Errorf("error creating coupon: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("business %s: %w", businessID, ErrNotFound)
	}
	return nil
}

// DeleteCoupon is the only way a coupon leaves storage; expiry merely hides it.
func (mdb *MongodbRepo) DeleteCoupon(ctx context.Context, businessID, couponID string) error {
	col, err := mdb.GetCollection(ctx, BusinessesColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}

	path := "coupons." + couponID
	res, err := col.UpdateOne(ctx,
		bson.M{"uuid": businessID, path: bson.M{"$exists": true}},
		bson.M{"$unset": bson.M{path: ""}},
	)
	if err != nil {
		return fmt.Errorf("error deleting coupon: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("coupon %s: %w", couponID, ErrNotFound)
	}
	return nil
}
