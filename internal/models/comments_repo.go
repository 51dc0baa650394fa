package models

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (mdb *MongodbRepo) InsertComment(ctx context.Context, businessID string, expectedVersion int64, comment *Comment) (bool, error) {
	col, err := mdb.GetCollection(ctx, BusinessesColName)
	if err != nil {
		return false, fmt.Errorf("error getting collection: %v", err)
	}
	if comment.LikedBy == nil {
		comment.LikedBy = []string{}
	}

	filter := bson.M{"uuid": businessID, "comments_version": expectedVersion}
	if expectedVersion == 0 {
		// documents created before versioning have no field at all
		filter["comments_version"] = bson.M{"$in": bson.A{0, nil}}
	}
	update := bson.M{
		"$set": bson.M{"comments." + comment.ID: comment},
		"$inc": bson.M{"comments_version": 1},
	}

	res, err := col.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to insert comment into database: %w", err)
	}
	return res.MatchedCount == 1, nil
}

// ToggleCommentLike adds userID to liked_by (and increments likes) when absent,
// or removes it (and decrements) when present. Both counters move in the same
// single-document update so likes always equals len(liked_by).
func (mdb *MongodbRepo) ToggleCommentLike(ctx context.Context, businessID, commentID, userID string) (*LikeResult, error) {
	col, err := mdb.GetCollection(ctx, BusinessesColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	path := "comments." + commentID
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{path: 1})

	for attempt := 0; attempt < ledgerMaxAttempts; attempt++ {
		var doc struct {
			Comments map[string]Comment `bson:"comments"`
		}

		err := col.FindOneAndUpdate(ctx,
			bson.M{"uuid": businessID, path: bson.M{"$exists": true}, path + ".liked_by": bson.M{"$ne": userID}},
			bson.M{
				"$addToSet": bson.M{path + ".liked_by": userID},
				"$inc":      bson.M{path + ".likes": 1},
			},
			opts,
		).Decode(&doc)
		if err == nil {
			return &LikeResult{Liked: true, Likes: doc.Comments[commentID].Likes}, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("error liking comment: %w", err)
		}

		err = col.FindOneAndUpdate(ctx,
			bson.M{"uuid": businessID, path + ".liked_by": userID},
			bson.M{
				"$pull": bson.M{path + ".liked_by": userID},
				"$inc":  bson.M{path + ".likes": -1},
			},
			opts,
		).Decode(&doc)
		if err == nil {
			return &LikeResult{Liked: false, Likes: doc.Comments[commentID].Likes}, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("error unliking comment: %w", err)
		}

		n, err := col.CountDocuments(ctx, bson.M{"uuid": businessID, path: bson.M{"$exists": true}})
		if err != nil {
			return nil, fmt.Errorf("error counting comments: %w", err)
		}
		if n == 0 {
			return nil, fmt.Errorf("comment %s: %w", commentID, ErrNotFound)
		}
	}
	return nil, fmt.Errorf("like toggle for %s: %w", commentID, ErrConflict)
}
