package models

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/supabase-community/gotrue-go/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func (mdb *MongodbRepo) CreateUser(ctx context.Context, user *User) error {
	col, err := mdb.GetCollection(ctx, UsersColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}
	user.Normalize()
	if _, err := col.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("profile already exists: %w", ErrValidation)
		}
		return fmt.Errorf("error inserting user: %w", err)
	}
	return nil
}

func (mdb *MongodbRepo) GetUser(ctx context.Context, id string) (*User, error) {
	col, err := mdb.GetCollection(ctx, UsersColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	var user User
	err = col.FindOne(ctx, bson.M{"uuid": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error finding user: %w", err)
	}
	return &user, nil
}

// GetUsers resolves a set of user ids in one round trip. Missing ids are absent
// from the returned map.
func (mdb *MongodbRepo) GetUsers(ctx context.Context, ids []string) (map[string]*User, error) {
	out := make(map[string]*User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	col, err := mdb.GetCollection(ctx, UsersColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	cursor, err := col.Find(ctx, bson.M{"uuid": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("error finding users: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var u User
		if err := cursor.Decode(&u); err != nil {
			return nil, fmt.Errorf("error decoding user: %w", err)
		}
		out[u.ID] = &u
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return out, nil
}

func (mdb *MongodbRepo) UpdateStandardProfile(ctx context.Context, id, name string, categories []string) error {
	col, err := mdb.GetCollection(ctx, UsersColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}
	if categories == nil {
		categories = []string{}
	}

	set := bson.M{"categories": categories}
	if strings.TrimSpace(name) != "" {
		set["name"] = strings.TrimSpace(name)
	}
	res, err := col.UpdateOne(ctx, bson.M{"uuid": id, "type": AccountStandard}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("error updating user: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("standard user %s: %w", id, ErrNotFound)
	}
	return nil
}

// AddRecentBusiness moves businessID to the front of recently_viewed, capped
// at MaxRecentlyViewed, in a single pipeline update.
func (mdb *MongodbRepo) AddRecentBusiness(ctx context.Context, userID, businessID string) error {
	col, err := mdb.GetCollection(ctx, UsersColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"recently_viewed": bson.M{
				"$slice": bson.A{
					bson.M{"$concatArrays": bson.A{
						bson.A{businessID},
						bson.M{"$filter": bson.M{
							"input": bson.M{"$ifNull": bson.A{"$recently_viewed", bson.A{}}},
							"cond":  bson.M{"$ne": bson.A{"$$this", businessID}},
						}},
					}},
					MaxRecentlyViewed,
				},
			},
		}}},
	}

	res, err := col.UpdateOne(ctx, bson.M{"uuid": userID}, pipeline)
	if err != nil {
		return fmt.Errorf("error recording recent business: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	return nil
}

func (su *SupabaseRepo) SignUp(ctx context.Context, email, password string) (*types.SignupResponse, error) {
	res, err := su.supabaseClient.Auth.Signup(types.SignupRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		errMsg := strings.ToLower(err.Error())
		if strings.Contains(errMsg, "already registered") {
			return nil, fmt.Errorf("email already in use: %w", ErrValidation)
		}
		if strings.Contains(errMsg, "password") {
			return nil, fmt.Errorf("password rejected by identity provider: %w", ErrValidation)
		}
		return nil, fmt.Errorf("failed to create account: %w", ErrExternalService)
	}
	return res, nil
}

func (su *SupabaseRepo) SignIn(ctx context.Context, email, password string) (*types.TokenResponse, error) {
	resp, err := su.supabaseClient.Auth.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate user: %v: %w", err, ErrUnauthorized)
	}
	return resp, nil
}

func (su *SupabaseRepo) RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error) {
	resp, err := su.supabaseClient.Auth.RefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %v: %w", err, ErrUnauthorized)
	}
	return resp, nil
}
