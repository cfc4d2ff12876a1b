package memstore

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"PatientRegistry/models"
	"PatientRegistry/util"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PatientStore struct {
	mu   sync.RWMutex
	rows map[primitive.ObjectID]*models.Patient
}

func NewPatientStore() *PatientStore {
	return &PatientStore{rows: make(map[primitive.ObjectID]*models.Patient)}
}

func (s *PatientStore) Create(_ context.Context, p *models.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	p.ID = primitive.NewObjectID()
	p.CreatedAt, p.UpdatedAt = now, now
	s.rows[p.ID] = clonePatient(p)
	return nil
}

func (s *PatientStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.rows[id]
	if !ok {
		return nil, util.ErrRecordNotFound
	}
	return clonePatient(p), nil
}

func (s *PatientStore) Update(_ context.Context, id primitive.ObjectID, patch models.PatientPatch) (*models.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.rows[id]
	if !ok {
		return nil, util.ErrRecordNotFound
	}
	patch.Apply(p)
	p.UpdatedAt = time.Now()
	return clonePatient(p), nil
}

func (s *PatientStore) List(_ context.Context, q models.PatientQuery) ([]models.Patient, int64, error) {
	s.mu.RLock()
	matched := make([]models.Patient, 0)
	for _, p := range s.rows {
		if matches(p, q) {
			matched = append(matched, *clonePatient(p))
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(matched, func(a, b models.Patient) int {
		c := comparePatients(&a, &b, q.SortBy)
		if c == 0 {
			c = strings.Compare(a.ID.Hex(), b.ID.Hex())
		}
		if !q.Ascending {
			c = -c
		}
		return c
	})

	total := int64(len(matched))
	start := max(0, min(q.Skip(), len(matched)))
	end := min(start+q.Limit, len(matched))
	return matched[start:end], total, nil
}

func (s *PatientStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

func matches(p *models.Patient, q models.PatientQuery) bool {
	if q.Search != "" {
		if !containsFold(p.Name, q.Search) && !containsFold(p.MobileNo, q.Search) &&
			!containsFold(p.AlternativeNo, q.Search) && !containsFold(p.Address, q.Search) {
			return false
		}
	} else {
		if q.Name != "" && !containsFold(p.Name, q.Name) {
			return false
		}
		if q.Address != "" && !containsFold(p.Address, q.Address) {
			return false
		}
		if q.MobileNo != "" && !containsFold(p.MobileNo, q.MobileNo) {
			return false
		}
		if q.AlternativeNo != "" && !containsFold(p.AlternativeNo, q.AlternativeNo) {
			return false
		}
	}
	if q.From != nil && p.RegistrationDate.Before(*q.From) {
		return false
	}
	if q.To != nil && p.RegistrationDate.After(*q.To) {
		return false
	}
	if q.RegisteredBy != nil && p.RegisteredByID != *q.RegisteredBy {
		return false
	}
	return true
}

func comparePatients(a, b *models.Patient, field string) int {
	switch field {
	case "name":
		return cmp.Compare(a.Name, b.Name)
	case "age":
		return cmp.Compare(a.Age, b.Age)
	case "gender":
		return cmp.Compare(a.Gender, b.Gender)
	case "address":
		return cmp.Compare(a.Address, b.Address)
	case "mobileNo":
		return cmp.Compare(a.MobileNo, b.MobileNo)
	case "alternativeNo":
		return cmp.Compare(a.AlternativeNo, b.AlternativeNo)
	case "createdAt":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "updatedAt":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		return a.RegistrationDate.Compare(b.RegistrationDate)
	}
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func clonePatient(p *models.Patient) *models.Patient {
	cp := *p
	if p.PrescriptionFrontURL != nil {
		u := *p.PrescriptionFrontURL
		cp.PrescriptionFrontURL = &u
	}
	if p.PrescriptionBackURL != nil {
		u := *p.PrescriptionBackURL
		cp.PrescriptionBackURL = &u
	}
	cp.RegisteredBy = nil
	return &cp
}
