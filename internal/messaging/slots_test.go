package messaging

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/farmhand-id/platform_be/internal/models"
)

func TestResolveSlotsSymmetric(t *testing.T) {
	farmer, laborer := uuid.New(), uuid.New()

	fromFarmer, err := ResolveSlots(farmer, models.RoleFarmer, laborer)
	if err != nil {
		t.Fatalf("farmer side: %v", err)
	}
	fromLaborer, err := ResolveSlots(laborer, models.RoleLaborer, farmer)
	if err != nil {
		t.Fatalf("laborer side: %v", err)
	}
	if fromFarmer != fromLaborer {
		t.Fatalf("slots differ: %+v vs %+v", fromFarmer, fromLaborer)
	}
	if fromFarmer.FarmerID != farmer || fromFarmer.LaborerID != laborer {
		t.Fatalf("unexpected assignment %+v", fromFarmer)
	}
}

func TestResolveSlotsRejectsUnknownRole(t *testing.T) {
	for _, role := range []models.Role{"", "admin", "Farmer"} {
		if _, err := ResolveSlots(uuid.New(), role, uuid.New()); !errors.Is(err, ErrInvalidRole) {
			t.Fatalf("role %q: expected ErrInvalidRole, got %v", role, err)
		}
	}
}

func TestResolveSlotsRejectsSelf(t *testing.T) {
	id := uuid.New()
	if _, err := ResolveSlots(id, models.RoleFarmer, id); !errors.Is(err, ErrSelfConversation) {
		t.Fatalf("expected ErrSelfConversation, got %v", err)
	}
}

func TestSlotsHelpers(t *testing.T) {
	s := Slots{FarmerID: uuid.New(), LaborerID: uuid.New()}
	stranger := uuid.New()

	if !s.Has(s.FarmerID) || !s.Has(s.LaborerID) || s.Has(stranger) || s.Has(uuid.Nil) {
		t.Fatalf("Has gave wrong membership")
	}
	if s.Other(s.FarmerID) != s.LaborerID || s.Other(s.LaborerID) != s.FarmerID {
		t.Fatalf("Other returned wrong participant")
	}
	if s.SlotOf(s.FarmerID) != models.RoleFarmer || s.SlotOf(s.LaborerID) != models.RoleLaborer || s.SlotOf(stranger) != "" {
		t.Fatalf("SlotOf mismatch")
	}
}
