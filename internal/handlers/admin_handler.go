package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/stagegate/stagegate-backend/internal/autherrs"
	"github.com/stagegate/stagegate-backend/internal/dto"
	"github.com/stagegate/stagegate-backend/internal/identity"
	"github.com/stagegate/stagegate-backend/internal/middleware"
	"github.com/stagegate/stagegate-backend/internal/models"
)

// AdminHandler covers administrative user management. Role changes made here
// reach active sessions on their next refresh.
type AdminHandler struct {
	store identity.Store
}

func NewAdminHandler(store identity.Store) *AdminHandler {
	return &AdminHandler{store: store}
}

func (h *AdminHandler) UpdateUserRole(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid user id",
		})
	}

	var req dto.UpdateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	role := models.Role(req.Role)
	if !role.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Unknown role",
		})
	}

	if err := h.store.UpdateUserRole(c.UserContext(), userID, role); err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "User not found",
			})
		}
		actor, _ := middleware.RefreshedClaims(c)
		(&autherrs.Error{
			Kind:    autherrs.KindRoleAssignment,
			Message: "role update failed",
			Err:     err,
			UserID:  userID.String(),
			Route:   c.Path(),
			Email:   actor.Email,
		}).Log()
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: autherrs.UserMessage(autherrs.KindRoleAssignment),
		})
	}

	return c.JSON(fiber.Map{"user_id": userID, "role": role})
}
