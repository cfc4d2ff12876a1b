package migrations

import (
	"context"
	"fmt"

	"PatientRegistry/models"
	"PatientRegistry/util"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func DefaultStaffStatus(ctx context.Context, db *mongo.Database) error {
	result, err := db.Collection(util.StaffCollection).UpdateMany(
		ctx,
		bson.M{"status": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"status": models.StatusPending}},
	)
	if err != nil {
		return fmt.Errorf("default staff status: %w", err)
	}
	zap.L().Info("migration applied", zap.String("migration", "default_staff_status"), zap.Int64("updated", result.ModifiedCount))
	return nil
}
