package models

import (
	"testing"
)

func TestDecodeSkillsPerRole(t *testing.T) {
	s, err := DecodeSkills(RoleFarmer, []byte(`{"crops":["rice","corn"],"farm_size_hectares":2.5}`))
	if err != nil {
		t.Fatalf("farmer decode: %v", err)
	}
	fs, ok := s.(FarmerSkills)
	if !ok || len(fs.Crops) != 2 || fs.FarmSizeHectares != 2.5 {
		t.Fatalf("unexpected farmer skills %#v", s)
	}

	s, err = DecodeSkills(RoleLaborer, []byte(`{"skills":["harvesting"],"experience_years":4,"has_transport":true}`))
	if err != nil {
		t.Fatalf("laborer decode: %v", err)
	}
	if ls, ok := s.(LaborerSkills); !ok || ls.ExperienceYears != 4 || !ls.HasTransport {
		t.Fatalf("unexpected laborer skills %#v", s)
	}
}

func TestDecodeSkillsRejectsOtherRolesShape(t *testing.T) {
	if _, err := DecodeSkills(RoleLaborer, []byte(`{"crops":["rice"]}`)); err == nil {
		t.Fatalf("farmer fields accepted for a laborer")
	}
	if _, err := DecodeSkills(RoleFarmer, []byte(`{"skills":["plowing"]}`)); err == nil {
		t.Fatalf("laborer fields accepted for a farmer")
	}
	if _, err := DecodeSkills("", []byte(`{}`)); err == nil {
		t.Fatalf("empty role accepted")
	}
}

func TestDecodeSkillsValidation(t *testing.T) {
	bad := map[Role]string{
		RoleFarmer:  `{"farm_size_hectares":-1}`,
		RoleLaborer: `{"skills":[" "]}`,
	}
	for role, raw := range bad {
		if _, err := DecodeSkills(role, []byte(raw)); err == nil {
			t.Fatalf("%s: invalid skills accepted: %s", role, raw)
		}
	}
}

func TestDecodeSkillsEmpty(t *testing.T) {
	s, err := DecodeSkills(RoleLaborer, nil)
	if err != nil {
		t.Fatalf("empty decode: %v", err)
	}
	if s.Role() != RoleLaborer {
		t.Fatalf("role = %s", s.Role())
	}
}

func TestEncodeSkillsRoundTrip(t *testing.T) {
	raw, err := EncodeSkills(LaborerSkills{Skills: []string{"pruning"}, ExperienceYears: 2})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	s, err := DecodeSkills(RoleLaborer, raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ls := s.(LaborerSkills); ls.Skills[0] != "pruning" {
		t.Fatalf("lost data: %#v", ls)
	}
}

func TestParseRole(t *testing.T) {
	if r, err := ParseRole(" Farmer "); err != nil || r != RoleFarmer {
		t.Fatalf("ParseRole farmer: %v %v", r, err)
	}
	for _, in := range []string{"", "admin", "client"} {
		if _, err := ParseRole(in); err == nil {
			t.Fatalf("ParseRole(%q) accepted", in)
		}
	}
}
