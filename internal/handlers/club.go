package handlers

// club.go handles fan club signup, the public membership check and the admin approval
// routes. New members start as "pending"; an admin moves them to "approved" or
// "rejected" and can deactivate them. Only approved, active members can post reactions.

import (
	"errors"
	"net/mail"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nashfy/pitstop/internal/models"
)

var errDuplicateEmail = fiber.NewError(fiber.StatusBadRequest, "Email already registered")

// SignupNotifier is told about every new member after it has been committed.
type SignupNotifier interface {
	MemberSignedUp(m models.ClubMember)
}

// CreateClubMemberRequest is the body of POST /api/club-members.
type CreateClubMemberRequest struct {
	Name  string  `json:"name"`
	Email string  `json:"email"`
	City  *string `json:"city"`
}

// UpdateClubMemberRequest is the body of PATCH /api/admin/club-members/:id. Fields left
// out are not changed.
type UpdateClubMemberRequest struct {
	Status   *models.MemberStatus `json:"status"`
	IsActive *bool                `json:"is_active"`
}

// normalizeEmail trims and lower-cases an address and checks that it is a bare address
// (no display name).
func normalizeEmail(raw string) (string, bool) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", false
	}
	return email, true
}

// CreateClubMember handles POST /api/club-members.
func CreateClubMember(db *gorm.DB, notifier SignupNotifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req CreateClubMemberRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		name := strings.TrimSpace(req.Name)
		if name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name is required")
		}
		email, ok := normalizeEmail(req.Email)
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "invalid email")
		}
		if req.City != nil {
			city := strings.TrimSpace(*req.City)
			req.City = &city
			if city == "" {
				req.City = nil
			}
		}

		member := models.ClubMember{
			Name:     name,
			Email:    email,
			City:     req.City,
			Status:   models.MemberStatusPending,
			IsActive: true,
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			var existing int64
			if err := tx.Model(&models.ClubMember{}).Where("email = ?", email).Count(&existing).Error; err != nil {
				return err
			}
			if existing > 0 {
				return errDuplicateEmail
			}
			// A concurrent signup can still win the race; the unique index catches it.
			if err := tx.Create(&member).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return errDuplicateEmail
				}
				return err
			}
			return nil
		})
		if err != nil {
			if errors.Is(err, errDuplicateEmail) {
				return errDuplicateEmail
			}
			return failedTo("create club member", err)
		}

		if notifier != nil {
			notifier.MemberSignedUp(member)
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success": true,
			"member":  member,
			"message": "Thanks for signing up! An admin will review your membership.",
		})
	}
}

// CheckClubMember handles GET /api/club-members/check?email=.
func CheckClubMember(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		email, ok := normalizeEmail(c.Query("email"))
		if !ok {
			return invalid("email")
		}

		var member models.ClubMember
		err := db.Where("email = ?", email).First(&member).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(fiber.Map{
				"success":     true,
				"is_member":   false,
				"status":      nil,
				"is_approved": false,
				"member":      nil,
			})
		}
		if err != nil {
			return failedTo("check club member", err)
		}

		return c.JSON(fiber.Map{
			"success":     true,
			"is_member":   true,
			"status":      member.Status,
			"is_approved": member.CanReact(),
			"member":      member,
		})
	}
}

// ListClubMembers handles GET /api/admin/club-members?status=, newest signups first.
func ListClubMembers(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := db.Order("submitted_at DESC")
		if raw := c.Query("status"); raw != "" {
			status := models.MemberStatus(strings.ToLower(raw))
			if !status.Valid() {
				return invalid("status")
			}
			query = query.Where("status = ?", string(status))
		}

		var members []models.ClubMember
		if err := query.Find(&members).Error; err != nil {
			return failedTo("list club members", err)
		}
		return c.JSON(fiber.Map{
			"success": true,
			"members": members,
			"count":   len(members),
		})
	}
}

// UpdateClubMember handles PATCH /api/admin/club-members/:id.
func UpdateClubMember(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return invalid("member id")
		}

		var req UpdateClubMemberRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		updates := map[string]any{}
		if req.Status != nil {
			if !req.Status.Valid() {
				return invalid("status")
			}
			updates["status"] = string(*req.Status)
		}
		if req.IsActive != nil {
			updates["is_active"] = *req.IsActive
		}
		if len(updates) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "nothing to update")
		}

		var member models.ClubMember
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&member, "id = ?", id).Error; err != nil {
				return err
			}
			if err := tx.Model(&member).Updates(updates).Error; err != nil {
				return err
			}
			return tx.First(&member, "id = ?", id).Error
		})
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "member not found")
		}
		if err != nil {
			return failedTo("update club member", err)
		}

		return c.JSON(fiber.Map{
			"success": true,
			"member":  member,
		})
	}
}
