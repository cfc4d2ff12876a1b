package migrations

import (
	"context"
	"fmt"

	"PatientRegistry/util"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// BackfillRegistrationDate gives records saved before the field existed their creation time.
func BackfillRegistrationDate(ctx context.Context, db *mongo.Database) error {
	result, err := db.Collection(util.PatientCollection).UpdateMany(
		ctx,
		bson.M{"registrationDate": bson.M{"$exists": false}},
		mongo.Pipeline{{{Key: "$set", Value: bson.M{"registrationDate": "$createdAt"}}}},
	)
	if err != nil {
		return fmt.Errorf("backfill registrationDate: %w", err)
	}
	zap.L().Info("migration applied", zap.String("migration", "backfill_registration_date"), zap.Int64("updated", result.ModifiedCount))
	return nil
}
