package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MemberRole string

const (
	RoleParent MemberRole = "parent"
	RoleChild  MemberRole = "child"
)

// FamilyMember represents a member account within the family.
type FamilyMember struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name           string             `bson:"name" json:"name"`
	Role           MemberRole         `bson:"role" json:"role"`
	ColorHex       string             `bson:"color_hex" json:"color_hex"`
	HashedPassword string             `bson:"hashed_password" json:"-"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}

// PublicMember is the member shape exposed to other family members.
type PublicMember struct {
	ID       primitive.ObjectID `json:"id"`
	Name     string             `json:"name"`
	Role     MemberRole         `json:"role"`
	ColorHex string             `json:"color_hex"`
}

func (m *FamilyMember) Public() PublicMember {
	return PublicMember{
		ID:       m.ID,
		Name:     m.Name,
		Role:     m.Role,
		ColorHex: m.ColorHex,
	}
}

// Actor identifies who is performing a domain operation. Domain logic never
// reads ambient "current user" state; callers pass the actor explicitly.
type Actor struct {
	Name string
	Role MemberRole
}

func (a Actor) IsParent() bool {
	return a.Role == RoleParent
}
