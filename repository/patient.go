package repository

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"PatientRegistry/config/db"
	"PatientRegistry/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SearchFields are the fields a free-text search matches against.
var SearchFields = []string{"name", "mobileNo", "alternativeNo", "address"}

type PatientRepository struct {
	coll *mongo.Collection
}

func NewPatientRepository(coll *mongo.Collection) *PatientRepository {
	return &PatientRepository{coll: coll}
}

func (r *PatientRepository) Create(ctx context.Context, p *models.Patient) error {
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	res, err := db.CreateOne(ctx, r.coll, p)
	if err != nil {
		return err
	}
	p.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *PatientRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Patient, error) {
	var p models.Patient
	if err := db.FindOne(ctx, r.coll, bson.M{"_id": id}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Update writes only the fields set in patch and returns the stored document.
func (r *PatientRepository) Update(ctx context.Context, id primitive.ObjectID, patch models.PatientPatch) (*models.Patient, error) {
	set := PatchToSet(patch)
	set["updatedAt"] = time.Now()

	var p models.Patient
	if err := db.FindOneAndUpdate(ctx, r.coll, bson.M{"_id": id}, bson.M{"$set": set}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PatientRepository) List(ctx context.Context, q models.PatientQuery) ([]models.Patient, int64, error) {
	filter := BuildPatientFilter(q)

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count patients: %w", err)
	}

	opts := options.Find().
		SetSort(PatientSort(q)).
		SetSkip(int64(q.Skip())).
		SetLimit(int64(q.Limit))
	patients, err := db.FindAll[models.Patient](ctx, r.coll, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return patients, total, nil
}

func PatchToSet(patch models.PatientPatch) bson.M {
	set := bson.M{}
	if v, ok := patch.Name.Get(); ok {
		set["name"] = v
	}
	if v, ok := patch.Age.Get(); ok {
		set["age"] = v
	}
	if v, ok := patch.Gender.Get(); ok {
		set["gender"] = v
	}
	if v, ok := patch.Address.Get(); ok {
		set["address"] = v
	}
	if v, ok := patch.MobileNo.Get(); ok {
		set["mobileNo"] = v
	}
	if v, ok := patch.AlternativeNo.Get(); ok {
		set["alternativeNo"] = v
	}
	if v, ok := patch.RegistrationDate.Get(); ok {
		set["registrationDate"] = v
	}
	if v, ok := patch.PrescriptionFrontURL.Get(); ok {
		set["prescriptionFrontUrl"] = v
	}
	if v, ok := patch.PrescriptionBackURL.Get(); ok {
		set["prescriptionBackUrl"] = v
	}
	return set
}

/*
* Search text goes into one $or across the search fields
* Without search each given field filter is an independent substring match
* Date bounds and the registering staff apply in both modes
 */
func BuildPatientFilter(q models.PatientQuery) bson.M {
	filter := bson.M{}

	if q.Search != "" {
		rx := contains(q.Search)
		or := make(bson.A, 0, len(SearchFields))
		for _, f := range SearchFields {
			or = append(or, bson.M{f: rx})
		}
		filter["$or"] = or
	} else {
		for field, value := range map[string]string{
			"name":          q.Name,
			"address":       q.Address,
			"mobileNo":      q.MobileNo,
			"alternativeNo": q.AlternativeNo,
		} {
			if value != "" {
				filter[field] = contains(value)
			}
		}
	}

	if q.From != nil || q.To != nil {
		rng := bson.M{}
		if q.From != nil {
			rng["$gte"] = *q.From
		}
		if q.To != nil {
			rng["$lte"] = *q.To
		}
		filter["registrationDate"] = rng
	}
	if q.RegisteredBy != nil {
		filter["registeredBy"] = *q.RegisteredBy
	}
	return filter
}

// PatientSort orders by the requested field with _id as a stable tiebreaker.
func PatientSort(q models.PatientQuery) bson.D {
	dir := -1
	if q.Ascending {
		dir = 1
	}
	return bson.D{{Key: q.SortBy, Value: dir}, {Key: "_id", Value: dir}}
}

func contains(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}
