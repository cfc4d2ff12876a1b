package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type StaffStatus string

const (
	StatusPending  StaffStatus = "pending"
	StatusApproved StaffStatus = "approved"
	StatusRejected StaffStatus = "rejected"
	StatusBlocked  StaffStatus = "blocked"
)

var staffTransitions = map[StaffStatus][]StaffStatus{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusBlocked},
	StatusBlocked:  {StatusApproved},
	StatusRejected: {StatusApproved},
}

func (s StaffStatus) Valid() bool {
	_, ok := staffTransitions[s]
	return ok
}

// CanTransitionTo reports whether an admin may move a staff account from s to next.
func (s StaffStatus) CanTransitionTo(next StaffStatus) bool {
	for _, allowed := range staffTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Staff struct {
	ID                   primitive.ObjectID  `json:"_id" bson:"_id,omitempty"`
	Name                 string              `json:"name" bson:"name"`
	Email                string              `json:"email" bson:"email"`
	Password             string              `json:"-" bson:"password"`
	Status               StaffStatus         `json:"status" bson:"status"`
	ApprovedBy           *primitive.ObjectID `json:"-" bson:"approvedBy"`
	ResetPasswordToken   *string             `json:"-" bson:"resetPasswordToken"`
	ResetPasswordExpires *time.Time          `json:"-" bson:"resetPasswordExpires"`
	CreatedAt            time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt            time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// Reference is the {_id, name, email} shape other documents expand to.
type Reference struct {
	ID    primitive.ObjectID `json:"_id" bson:"_id"`
	Name  string             `json:"name,omitempty" bson:"name"`
	Email string             `json:"email,omitempty" bson:"email"`
}

// StaffProfile is what admins see when listing or updating staff.
type StaffProfile struct {
	ID         primitive.ObjectID `json:"_id"`
	Name       string             `json:"name"`
	Email      string             `json:"email"`
	Status     StaffStatus        `json:"status"`
	ApprovedBy *Reference         `json:"approvedBy"`
	CreatedAt  time.Time          `json:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt"`
}

func (s *Staff) Profile(approver *Reference) StaffProfile {
	return StaffProfile{
		ID:         s.ID,
		Name:       s.Name,
		Email:      s.Email,
		Status:     s.Status,
		ApprovedBy: approver,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

func (s *Staff) Reference() *Reference {
	return &Reference{ID: s.ID, Name: s.Name, Email: s.Email}
}
