package messaging

import (
	"errors"

	"github.com/google/uuid"

	"github.com/farmhand-id/platform_be/internal/models"
)

var (
	ErrInvalidRole      = errors.New("messaging: role must be farmer or laborer")
	ErrSelfConversation = errors.New("messaging: cannot start a conversation with yourself")
)

// Slots is the fixed assignment of two users onto a conversation.
type Slots struct {
	FarmerID  uuid.UUID `json:"farmer_id"`
	LaborerID uuid.UUID `json:"laborer_id"`
}

// ResolveSlots maps the current user and the other party onto the farmer
// and laborer slots using only the current user's role. Both participants
// compute the same Slots for the same pair, whoever initiates.
func ResolveSlots(currentID uuid.UUID, role models.Role, otherID uuid.UUID) (Slots, error) {
	if currentID == otherID {
		return Slots{}, ErrSelfConversation
	}
	switch role {
	case models.RoleFarmer:
		return Slots{FarmerID: currentID, LaborerID: otherID}, nil
	case models.RoleLaborer:
		return Slots{FarmerID: otherID, LaborerID: currentID}, nil
	default:
		return Slots{}, ErrInvalidRole
	}
}

func (s Slots) Has(id uuid.UUID) bool {
	return id != uuid.Nil && (s.FarmerID == id || s.LaborerID == id)
}

// Other returns the participant that is not id.
func (s Slots) Other(id uuid.UUID) uuid.UUID {
	if s.FarmerID == id {
		return s.LaborerID
	}
	return s.FarmerID
}

// SlotOf returns the role whose slot id occupies, or "" when id is not a
// participant.
func (s Slots) SlotOf(id uuid.UUID) models.Role {
	switch id {
	case uuid.Nil:
		return ""
	case s.FarmerID:
		return models.RoleFarmer
	case s.LaborerID:
		return models.RoleLaborer
	}
	return ""
}
