package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Admin struct {
	ID                   primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name                 string             `json:"name" bson:"name"`
	Email                string             `json:"email" bson:"email"`
	Password             string             `json:"-" bson:"password"`
	Role                 string             `json:"role" bson:"role"`
	ResetPasswordToken   *string            `json:"-" bson:"resetPasswordToken"`
	ResetPasswordExpires *time.Time         `json:"-" bson:"resetPasswordExpires"`
	CreatedAt            time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt            time.Time          `json:"updatedAt" bson:"updatedAt"`
}

func (a *Admin) Reference() *Reference {
	return &Reference{ID: a.ID, Name: a.Name, Email: a.Email}
}

// Account is the credential view shared by admins and staff. Both collections
// decode into it, Status is empty for admins.
type Account struct {
	ID                   primitive.ObjectID `bson:"_id"`
	Name                 string             `bson:"name"`
	Email                string             `bson:"email"`
	Password             string             `bson:"password"`
	Status               StaffStatus        `bson:"status,omitempty"`
	ResetPasswordToken   *string            `bson:"resetPasswordToken"`
	ResetPasswordExpires *time.Time         `bson:"resetPasswordExpires"`
}
