package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmhand-id/platform_be/internal/messaging"
	"github.com/farmhand-id/platform_be/internal/models"
)

// ProfileHandler is the read side of the profile collaborator plus the
// skills update, which is where per-role skill shapes get validated.
type ProfileHandler struct {
	DB *gorm.DB
}

func NewProfileHandler(db *gorm.DB) *ProfileHandler {
	return &ProfileHandler{DB: db}
}

type ProfileOut struct {
	ID       uuid.UUID     `json:"id"`
	FullName string        `json:"full_name"`
	Role     models.Role   `json:"role"`
	Location string        `json:"location"`
	Bio      string        `json:"bio"`
	Skills   models.Skills `json:"skills"`
}

func (h *ProfileHandler) load(c *fiber.Ctx, id uuid.UUID) (*ProfileOut, error) {
	var u models.User
	err := h.DB.WithContext(c.UserContext()).Preload("Profile").First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, messaging.NotFound("profile not found")
	}
	if err != nil {
		return nil, messaging.Internal("load profile", err)
	}

	out := &ProfileOut{ID: u.ID, FullName: u.FullName, Role: u.Role}
	if u.Profile != nil {
		out.Location = u.Profile.Location
		out.Bio = u.Profile.Bio
		skills, err := models.DecodeSkills(u.Role, u.Profile.Skills)
		if err != nil {
			return nil, messaging.Internal("decode skills", err)
		}
		out.Skills = skills
	}
	return out, nil
}

// Me handles GET /me.
func (h *ProfileHandler) Me(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fail(c, messaging.ErrUnauthenticated)
	}
	p, err := h.load(c, uid)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"profile": p})
}

// Get handles GET /profiles/:id.
func (h *ProfileHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, messaging.BadRequest("invalid profile id"))
	}
	p, err := h.load(c, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"profile": p})
}

type updateProfileReq struct {
	Location *string        `json:"location"`
	Bio      *string        `json:"bio"`
	Skills   json.RawMessage `json:"skills"`
}

// Update handles PUT /profile. Skills must match the caller's stored role.
func (h *ProfileHandler) Update(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fail(c, messaging.ErrUnauthenticated)
	}

	var req updateProfileReq
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return fail(c, messaging.BadRequest("invalid body"))
	}

	db := h.DB.WithContext(c.UserContext())
	var u models.User
	if err := db.First(&u, "id = ?", uid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(c, messaging.NotFound("profile not found"))
		}
		return fail(c, messaging.Internal("load user", err))
	}

	updates := map[string]interface{}{}
	if req.Location != nil {
		updates["location"] = strings.TrimSpace(*req.Location)
	}
	if req.Bio != nil {
		updates["bio"] = strings.TrimSpace(*req.Bio)
	}
	if len(req.Skills) > 0 {
		skills, err := models.DecodeSkills(u.Role, req.Skills)
		if err != nil {
			return fail(c, messaging.BadRequest(err.Error()))
		}
		raw, err := models.EncodeSkills(skills)
		if err != nil {
			return fail(c, messaging.BadRequest(err.Error()))
		}
		updates["skills"] = raw
	}

	if len(updates) > 0 {
		res := db.Model(&models.Profile{}).Where("user_id = ?", uid).Updates(updates)
		if res.Error != nil {
			log.Println("update profile:", res.Error)
			return fail(c, messaging.Internal("update profile", res.Error))
		}
		if res.RowsAffected == 0 {
			p := models.Profile{UserID: uid}
			if err := db.Create(&p).Error; err != nil {
				return fail(c, messaging.Internal("create profile", err))
			}
			if err := db.Model(&p).Updates(updates).Error; err != nil {
				return fail(c, messaging.Internal("update profile", err))
			}
		}
	}

	p, err := h.load(c, uid)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"profile": p})
}
