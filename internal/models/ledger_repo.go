package models

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ledgerMaxAttempts = 3

type businessCounters struct {
	BookmarkCount int64   `bson:"bookmarks"`
	RatingSum     float64 `bson:"combined_rating"`
	RatingCount   int64   `bson:"users_rated"`
}

var countersProjection = bson.M{"bookmarks": 1, "combined_rating": 1, "users_rated": 1}

// ToggleBookmark flips membership of businessID in the user's bookmark set and
// moves the business counter the same way. The set change is a conditional
// update ($ne guard for add, membership guard for remove) so two concurrent
// toggles never both succeed on the same transition.
func (mdb *MongodbRepo) ToggleBookmark(ctx context.Context, userID, businessID string) (*BookmarkResult, error) {
	users, err := mdb.GetCollection(ctx, UsersColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	var result *BookmarkResult
	err = mdb.withTransaction(ctx, func(ctx context.Context) error {
		for attempt := 0; attempt < ledgerMaxAttempts; attempt++ {
			added, err := users.UpdateOne(ctx,
				bson.M{"uuid": userID, "bookmarks": bson.M{"$ne": businessID}},
				bson.M{"$addToSet": bson.M{"bookmarks": businessID}},
			)
			if err != nil {
				return fmt.Errorf("error adding bookmark: %w", err)
			}
			if added.MatchedCount == 1 {
				count, err := mdb.incrementBookmarks(ctx, businessID)
				if err != nil {
					return err
				}
				result = &BookmarkResult{Bookmarked: true, BookmarkCount: count}
				return nil
			}

			removed, err := users.UpdateOne(ctx,
				bson.M{"uuid": userID, "bookmarks": businessID},
				bson.M{"$pull": bson.M{"bookmarks": businessID}},
			)
			if err != nil {
				return fmt.Errorf("error removing bookmark: %w", err)
			}
			if removed.MatchedCount == 1 {
				count, err := mdb.decrementBookmarks(ctx, businessID)
				if err != nil {
					return err
				}
				result = &BookmarkResult{Bookmarked: false, BookmarkCount: count}
				return nil
			}

			// Neither guard matched: the user is gone, or another toggle raced us.
			n, err := users.CountDocuments(ctx, bson.M{"uuid": userID})
			if err != nil {
				return fmt.Errorf("error counting users: %w", err)
			}
			if n == 0 {
				return fmt.Errorf("user %s: %w", userID, ErrNotFound)
			}
		}
		return fmt.Errorf("bookmark toggle for %s: %w", businessID, ErrConflict)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (mdb *MongodbRepo) incrementBookmarks(ctx context.Context, businessID string) (int64, error) {
	col, err := mdb.GetCollection(ctx, BusinessesColName)
	if err != nil {
		return 0, fmt.Errorf("error getting collection: %v", err)
	}

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(countersProjection)

	var counters businessCounters
	err = col.FindOneAndUpdate(ctx, bson.M{"uuid": businessID}, bson.M{"$inc": bson.M{"bookmarks": 1}}, opts).Decode(&counters)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, fmt.Errorf("business %s: %w", businessID, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("error incrementing bookmarks: %w", err)
	}
	return counters.BookmarkCount, nil
}

// decrementBookmarks only applies when the counter is positive; at zero it
// reads the current value instead.
func (mdb *MongodbRepo) decrementBookmarks(ctx context.Context, businessID string) (int64, error) {
	col, err := mdb.GetCollection(ctx, BusinessesColName)
	if err != nil {
		return 0, fmt.Errorf("error getting collection: %v", err)
	}

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(countersProjection)

	var counters businessCounters
	err = col.FindOneAndUpdate(ctx,
		bson.M{"uuid": businessID, "bookmarks": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"bookmarks": -1}},
		opts,
	).Decode(&counters)
	if err == nil {
		return counters.BookmarkCount, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return 0, fmt.Errorf("error decrementing bookmarks: %w", err)
	}

	err = col.FindOne(ctx, bson.M{"uuid": businessID}, options.FindOne().SetProjection(countersProjection)).Decode(&counters)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, fmt.Errorf("business %s: %w", businessID, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("error reading bookmarks: %w", err)
	}
	return counters.BookmarkCount, nil
}

// RateBusiness records rated.<business> on the user and returns the previous
// value in the same atomic step, then applies the matching $inc to the business.
func (mdb *MongodbRepo) RateBusiness(ctx context.Context, userID, businessID string, rating int) (*RatingResult, error) {
	users, err := mdb.GetCollection(ctx, UsersColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}
	businesses, err := mdb.GetCollection(ctx, BusinessesColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	field := "rated." + businessID

	var result *RatingResult
	err = mdb.withTransaction(ctx, func(ctx context.Context) error {
		var before struct {
			Rated map[string]int `bson:"rated"`
		}
		err := users.FindOneAndUpdate(ctx,
			bson.M{"uuid": userID},
			bson.M{"$set": bson.M{field: rating}},
			options.FindOneAndUpdate().
				SetReturnDocument(options.Before).
				SetProjection(bson.M{field: 1}),
		).Decode(&before)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("error recording rating: %w", err)
		}

		previous, hadPrevious := before.Rated[businessID]
		inc := bson.M{"combined_rating": rating, "users_rated": 1}
		if hadPrevious {
			inc = bson.M{"combined_rating": rating - previous}
		}

		var counters businessCounters
		err = businesses.FindOneAndUpdate(ctx,
			bson.M{"uuid": businessID},
			bson.M{"$inc": inc},
			options.FindOneAndUpdate().
				SetReturnDocument(options.After).
				SetProjection(countersProjection),
		).Decode(&counters)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("business %s: %w", businessID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("error updating rating counters: %w", err)
		}

		result = &RatingResult{
			Updated:        hadPrevious,
			PreviousRating: previous,
			RatingSum:      counters.RatingSum,
			RatingCount:    counters.RatingCount,
		}
		if counters.RatingCount > 0 {
			result.Average = counters.RatingSum / float64(counters.RatingCount)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
