package repository

import (
	"context"
	"time"

	"PatientRegistry/config/db"
	"PatientRegistry/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type AdminRepository struct {
	AccountRepository
}

func NewAdminRepository(coll *mongo.Collection) *AdminRepository {
	return &AdminRepository{AccountRepository{coll: coll}}
}

func (r *AdminRepository) Create(ctx context.Context, a *models.Admin) error {
	now := time.Now()
	a.CreatedAt, a.UpdatedAt = now, now
	res, err := db.CreateOne(ctx, r.coll, a)
	if err != nil {
		return err
	}
	a.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *AdminRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Admin, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return db.FindAll[models.Admin](ctx, r.coll, bson.M{"_id": bson.M{"$in": ids}})
}
