package models

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

type Patient struct {
	ID                   primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name                 string             `json:"name" bson:"name"`
	Age                  int                `json:"age" bson:"age"`
	Gender               Gender             `json:"gender" bson:"gender"`
	Address              string             `json:"address" bson:"address"`
	MobileNo             string             `json:"mobileNo" bson:"mobileNo"`
	AlternativeNo        string             `json:"alternativeNo,omitempty" bson:"alternativeNo,omitempty"`
	RegistrationDate     time.Time          `json:"registrationDate" bson:"registrationDate"`
	PrescriptionFrontURL *string            `json:"prescriptionFrontUrl" bson:"prescriptionFrontUrl"`
	PrescriptionBackURL  *string            `json:"prescriptionBackUrl" bson:"prescriptionBackUrl"`
	RegisteredByID       primitive.ObjectID `json:"-" bson:"registeredBy"`
	RegisteredBy         *Reference         `json:"registeredBy" bson:"-"`
	CreatedAt            time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt            time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// PatientPatch lists the fields an update may touch. Unset fields are left as
// stored; a set URL field holding nil clears the stored URL.
type PatientPatch struct {
	Name                 Optional[string]
	Age                  Optional[int]
	Gender               Optional[Gender]
	Address              Optional[string]
	MobileNo             Optional[string]
	AlternativeNo        Optional[string]
	RegistrationDate     Optional[time.Time]
	PrescriptionFrontURL Optional[*string]
	PrescriptionBackURL  Optional[*string]
}

func (p PatientPatch) Empty() bool {
	return !p.Name.Set && !p.Age.Set && !p.Gender.Set && !p.Address.Set &&
		!p.MobileNo.Set && !p.AlternativeNo.Set && !p.RegistrationDate.Set &&
		!p.PrescriptionFrontURL.Set && !p.PrescriptionBackURL.Set
}

// Apply writes the set fields onto p.
func (p PatientPatch) Apply(patient *Patient) {
	if v, ok := p.Name.Get(); ok {
		patient.Name = v
	}
	if v, ok := p.Age.Get(); ok {
		patient.Age = v
	}
	if v, ok := p.Gender.Get(); ok {
		patient.Gender = v
	}
	if v, ok := p.Address.Get(); ok {
		patient.Address = v
	}
	if v, ok := p.MobileNo.Get(); ok {
		patient.MobileNo = v
	}
	if v, ok := p.AlternativeNo.Get(); ok {
		patient.AlternativeNo = v
	}
	if v, ok := p.RegistrationDate.Get(); ok {
		patient.RegistrationDate = v
	}
	if v, ok := p.PrescriptionFrontURL.Get(); ok {
		patient.PrescriptionFrontURL = v
	}
	if v, ok := p.PrescriptionBackURL.Get(); ok {
		patient.PrescriptionBackURL = v
	}
}

// PatientQuery is a validated list request. Search, when non-empty, replaces
// the per-field filters.
type PatientQuery struct {
	Search        string
	Name          string
	Address       string
	MobileNo      string
	AlternativeNo string
	From          *time.Time
	To            *time.Time
	RegisteredBy  *primitive.ObjectID
	SortBy        string
	Ascending     bool
	Page          int
	Limit         int
}

// Skip is the number of rows before the requested page. It never goes
// negative and saturates at math.MaxInt.
func (q PatientQuery) Skip() int {
	if q.Page < 1 || q.Limit < 1 {
		return 0
	}
	if q.Page-1 > math.MaxInt/q.Limit {
		return math.MaxInt
	}
	return (q.Page - 1) * q.Limit
}
