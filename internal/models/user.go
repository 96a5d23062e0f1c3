package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleFarmer  Role = "farmer"
	RoleLaborer Role = "laborer"
)

// ParseRole normalises a stored or submitted role. Anything other than
// farmer or laborer (including the empty string) is rejected.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleFarmer, RoleLaborer:
		return r, nil
	default:
		return "", fmt.Errorf("invalid role %q", s)
	}
}

func (r Role) Valid() bool {
	return r == RoleFarmer || r == RoleLaborer
}

// internal/models/user.go
type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FullName string    `gorm:"type:varchar(120);not null" json:"full_name"`
	Email    string    `gorm:"uniqueIndex;not null" json:"email"`
	Phone    string    `gorm:"type:varchar(30)" json:"phone"`

	Password string `gorm:"not null" json:"-"`
	Role     Role   `gorm:"type:varchar(20);not null;index" json:"role"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// HAS ONE profile (profiles.user_id -> users.id)
	Profile *Profile `gorm:"foreignKey:UserID;references:ID" json:"profile,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return
}
