package memstore

import (
	"context"
	"time"

	"PatientRegistry/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AdminStore struct {
	*accounts
	admins map[primitive.ObjectID]*models.Admin
}

func NewAdminStore() *AdminStore {
	return &AdminStore{accounts: newAccounts(), admins: make(map[primitive.ObjectID]*models.Admin)}
}

func (s *AdminStore) Create(_ context.Context, a *models.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	a.ID = primitive.NewObjectID()
	a.CreatedAt, a.UpdatedAt = now, now
	cp := *a
	s.admins[a.ID] = &cp
	s.rows[a.ID] = &models.Account{ID: a.ID, Name: a.Name, Email: a.Email, Password: a.Password}
	return nil
}

func (s *AdminStore) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Admin
	for _, id := range ids {
		if a, ok := s.admins[id]; ok {
			out = append(out, *a)
		}
	}
	return out, nil
}
