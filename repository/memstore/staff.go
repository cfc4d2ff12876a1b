package memstore

import (
	"context"
	"sort"
	"time"

	"PatientRegistry/models"
	"PatientRegistry/util"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StaffStore keeps the credential part in the shared account table and the
// status fields alongside it.
type StaffStore struct {
	*accounts
	staff map[primitive.ObjectID]*models.Staff
}

func NewStaffStore() *StaffStore {
	return &StaffStore{accounts: newAccounts(), staff: make(map[primitive.ObjectID]*models.Staff)}
}

func (s *StaffStore) Create(_ context.Context, st *models.Staff) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	st.ID = primitive.NewObjectID()
	st.CreatedAt, st.UpdatedAt = now, now
	cp := *st
	s.staff[st.ID] = &cp
	s.rows[st.ID] = &models.Account{ID: st.ID, Name: st.Name, Email: st.Email, Password: st.Password, Status: st.Status}
	return nil
}

func (s *StaffStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.staff[id]
	if !ok {
		return nil, util.ErrRecordNotFound
	}
	return s.snapshot(st), nil
}

func (s *StaffStore) FindAll(_ context.Context) ([]models.Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Staff, 0, len(s.staff))
	for _, st := range s.staff {
		out = append(out, *s.snapshot(st))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *StaffStore) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Staff
	for _, id := range ids {
		if st, ok := s.staff[id]; ok {
			out = append(out, *s.snapshot(st))
		}
	}
	return out, nil
}

func (s *StaffStore) UpdateStatus(_ context.Context, id primitive.ObjectID, from, to models.StaffStatus, approvedBy primitive.ObjectID) (*models.Staff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.staff[id]
	if !ok || st.Status != from {
		return nil, util.ErrRecordNotFound
	}
	st.Status = to
	st.ApprovedBy = &approvedBy
	st.UpdatedAt = time.Now()
	s.rows[id].Status = to
	return s.snapshot(st), nil
}

func (s *StaffStore) CountByStatus(_ context.Context, status models.StaffStatus) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, st := range s.staff {
		if st.Status == status {
			n++
		}
	}
	return n, nil
}

// snapshot merges the live credential fields into a copy. Callers hold mu.
func (s *StaffStore) snapshot(st *models.Staff) *models.Staff {
	cp := *st
	if acc, ok := s.rows[st.ID]; ok {
		cp.Password = acc.Password
		cp.ResetPasswordToken = acc.ResetPasswordToken
		cp.ResetPasswordExpires = acc.ResetPasswordExpires
	}
	return &cp
}
