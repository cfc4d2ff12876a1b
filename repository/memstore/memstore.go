// Package memstore holds in-memory versions of the Mongo repositories. They
// back STORE_DRIVER=memory and the service tests.
package memstore

import (
	"context"
	"sync"
	"time"

	"PatientRegistry/models"
	"PatientRegistry/util"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type accounts struct {
	mu   sync.RWMutex
	rows map[primitive.ObjectID]*models.Account
}

func newAccounts() *accounts {
	return &accounts{rows: make(map[primitive.ObjectID]*models.Account)}
}

func (a *accounts) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, acc := range a.rows {
		if acc.Email == email {
			cp := *acc
			return &cp, nil
		}
	}
	return nil, util.ErrRecordNotFound
}

func (a *accounts) SetResetToken(_ context.Context, id primitive.ObjectID, tokenHash string, expires time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	acc, ok := a.rows[id]
	if !ok {
		return util.ErrRecordNotFound
	}
	acc.ResetPasswordToken = &tokenHash
	acc.ResetPasswordExpires = &expires
	return nil
}

func (a *accounts) ClearResetToken(_ context.Context, id primitive.ObjectID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if acc, ok := a.rows[id]; ok {
		acc.ResetPasswordToken = nil
		acc.ResetPasswordExpires = nil
	}
	return nil
}

func (a *accounts) ConsumeResetToken(_ context.Context, tokenHash string, now time.Time, passwordHash string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, acc := range a.rows {
		if acc.ResetPasswordToken == nil || *acc.ResetPasswordToken != tokenHash {
			continue
		}
		if acc.ResetPasswordExpires == nil || !acc.ResetPasswordExpires.After(now) {
			return false, nil
		}
		acc.Password = passwordHash
		acc.ResetPasswordToken = nil
		acc.ResetPasswordExpires = nil
		return true, nil
	}
	return false, nil
}

func (a *accounts) ClearExpiredResetTokens(_ context.Context, now time.Time) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var n int64
	for _, acc := range a.rows {
		if acc.ResetPasswordToken != nil && acc.ResetPasswordExpires != nil && !acc.ResetPasswordExpires.After(now) {
			acc.ResetPasswordToken = nil
			acc.ResetPasswordExpires = nil
			n++
		}
	}
	return n, nil
}

// ResetToken exposes the stored token hash and expiry for assertions.
func (a *accounts) ResetToken(id primitive.ObjectID) (*string, *time.Time) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	acc, ok := a.rows[id]
	if !ok {
		return nil, nil
	}
	return acc.ResetPasswordToken, acc.ResetPasswordExpires
}
