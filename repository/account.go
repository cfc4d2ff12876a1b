package repository

import (
	"context"
	"fmt"
	"time"

	"PatientRegistry/config/db"
	"PatientRegistry/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// AccountRepository holds the credential and reset-token operations shared by
// the admin and staff collections.
type AccountRepository struct {
	coll *mongo.Collection
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	var acc models.Account
	if err := db.FindOne(ctx, r.coll, bson.M{"email": email}, &acc); err != nil {
		return nil, err
	}
	return &acc, nil
}

func (r *AccountRepository) SetResetToken(ctx context.Context, id primitive.ObjectID, tokenHash string, expires time.Time) error {
	_, err := db.UpdateOne(ctx, r.coll, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"resetPasswordToken":   tokenHash,
		"resetPasswordExpires": expires,
		"updatedAt":            time.Now(),
	}})
	return err
}

func (r *AccountRepository) ClearResetToken(ctx context.Context, id primitive.ObjectID) error {
	_, err := db.UpdateOne(ctx, r.coll, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"resetPasswordToken":   nil,
		"resetPasswordExpires": nil,
	}})
	return err
}

/*
* Match on the token hash and an unexpired expiry in the same filter
* Set the new hash and null both token fields in that one write
* Nothing matched means the token is unknown, expired or already used
 */
func (r *AccountRepository) ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time, passwordHash string) (bool, error) {
	filter := bson.M{
		"resetPasswordToken":   tokenHash,
		"resetPasswordExpires": bson.M{"$gt": now},
	}
	update := bson.M{"$set": bson.M{
		"password":             passwordHash,
		"resetPasswordToken":   nil,
		"resetPasswordExpires": nil,
		"updatedAt":            now,
	}}
	res, err := db.UpdateOne(ctx, r.coll, filter, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (r *AccountRepository) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"resetPasswordToken": bson.M{"$ne": nil}, "resetPasswordExpires": bson.M{"$lte": now}},
		bson.M{"$set": bson.M{"resetPasswordToken": nil, "resetPasswordExpires": nil}},
	)
	if err != nil {
		return 0, fmt.Errorf("sweep reset tokens in %s: %w", r.coll.Name(), err)
	}
	return res.ModifiedCount, nil
}
