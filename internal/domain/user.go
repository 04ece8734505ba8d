package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const CollectionUsers = "users"

const (
	UserActive   = "ACTIVE"
	UserInactive = "INACTIVE"
)

type User struct {
	ID        primitive.ObjectID `bson:"_id" json:"_id"`
	Username  string             `bson:"username" json:"username" validate:"required,max=50"`
	Name      string             `bson:"name" json:"name" validate:"required,max=100"`
	Email     string             `bson:"email" json:"email" validate:"required,max=100,email"`
	Password  string             `bson:"password" json:"-" validate:"required,max=100"`
	Status    string             `bson:"status" json:"status" validate:"oneof=ACTIVE INACTIVE"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Normalize trims input and applies the stored casing rules.
func (u *User) Normalize() {
	u.Username = strings.TrimSpace(u.Username)
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Status = strings.ToUpper(strings.TrimSpace(u.Status))
	if u.Status == "" {
		u.Status = UserActive
	}
}
