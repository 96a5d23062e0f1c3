// internal/models/profile.go
package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Profile struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`

	Location string `gorm:"type:varchar(120)" json:"location"`
	Bio      string `gorm:"type:text" json:"bio"`

	// Skills holds either FarmerSkills or LaborerSkills depending on the
	// owner's role. Go through DecodeSkills, never unmarshal it directly.
	Skills datatypes.JSON `json:"skills"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Profile) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

// Skills is the per-role skill set. The unexported method seals the set of
// variants to FarmerSkills and LaborerSkills.
type Skills interface {
	Role() Role
	validate() error
}

// FarmerSkills describes what a farmer is hiring for.
type FarmerSkills struct {
	Crops            []string `json:"crops"`
	FarmSizeHectares float64  `json:"farm_size_hectares"`
	Seasonal         bool     `json:"seasonal"`
}

func (FarmerSkills) Role() Role { return RoleFarmer }

func (s FarmerSkills) validate() error {
	if s.FarmSizeHectares < 0 {
		return errors.New("farm_size_hectares must not be negative")
	}
	return validateTags("crops", s.Crops)
}

// LaborerSkills describes what a laborer offers.
type LaborerSkills struct {
	Skills          []string `json:"skills"`
	ExperienceYears int      `json:"experience_years"`
	HasTransport    bool     `json:"has_transport"`
}

func (LaborerSkills) Role() Role { return RoleLaborer }

func (s LaborerSkills) validate() error {
	if s.ExperienceYears < 0 || s.ExperienceYears > 80 {
		return errors.New("experience_years out of range")
	}
	return validateTags("skills", s.Skills)
}

func validateTags(field string, tags []string) error {
	if len(tags) > 30 {
		return fmt.Errorf("%s: at most 30 entries", field)
	}
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || len(t) > 60 {
			return fmt.Errorf("%s: entries must be 1-60 characters", field)
		}
	}
	return nil
}

// DecodeSkills parses raw JSON into the variant that belongs to role and
// validates it. Unknown fields are rejected so a farmer blob can never be
// read back as laborer skills. Empty input yields the zero variant.
func DecodeSkills(role Role, raw []byte) (Skills, error) {
	var s Skills
	switch role {
	case RoleFarmer:
		var f FarmerSkills
		if err := strictUnmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("farmer skills: %w", err)
		}
		s = f
	case RoleLaborer:
		var l LaborerSkills
		if err := strictUnmarshal(raw, &l); err != nil {
			return nil, fmt.Errorf("laborer skills: %w", err)
		}
		s = l
	default:
		return nil, fmt.Errorf("invalid role %q", role)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// EncodeSkills validates s and returns the JSON stored in Profile.Skills.
func EncodeSkills(s Skills) (datatypes.JSON, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

func strictUnmarshal(raw []byte, v any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
