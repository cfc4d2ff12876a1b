package repository

import (
	"context"
	"time"

	"PatientRegistry/config/db"
	"PatientRegistry/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type StaffRepository struct {
	AccountRepository
}

func NewStaffRepository(coll *mongo.Collection) *StaffRepository {
	return &StaffRepository{AccountRepository{coll: coll}}
}

func (r *StaffRepository) Create(ctx context.Context, s *models.Staff) error {
	now := time.Now()
	s.CreatedAt, s.UpdatedAt = now, now
	res, err := db.CreateOne(ctx, r.coll, s)
	if err != nil {
		return err
	}
	s.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *StaffRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Staff, error) {
	var s models.Staff
	if err := db.FindOne(ctx, r.coll, bson.M{"_id": id}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StaffRepository) FindAll(ctx context.Context) ([]models.Staff, error) {
	return db.FindAll[models.Staff](ctx, r.coll, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

func (r *StaffRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Staff, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return db.FindAll[models.Staff](ctx, r.coll, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *StaffRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.StaffStatus, approvedBy primitive.ObjectID) (*models.Staff, error) {
	var s models.Staff
	err := db.FindOneAndUpdate(ctx, r.coll, bson.M{"_id": id, "status": from}, bson.M{"$set": bson.M{
		"status":     to,
		"approvedBy": approvedBy,
		"updatedAt":  time.Now(),
	}}, &s)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StaffRepository) CountByStatus(ctx context.Context, status models.StaffStatus) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{"status": status})
}
