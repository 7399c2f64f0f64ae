package handlers

import (
	"grana/internal/dto"
	"grana/internal/repository"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AdminHandler struct {
	configRepo *repository.ConfigRepository
	userRepo   *repository.UserRepository
	logger     *zap.Logger
}

func NewAdminHandler(configRepo *repository.ConfigRepository, userRepo *repository.UserRepository, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		configRepo: configRepo,
		userRepo:   userRepo,
		logger:     logger,
	}
}

func (h *AdminHandler) ListConfig(c *fiber.Ctx) error {
	configs, err := h.configRepo.List(c.Context())
	if err != nil {
		h.logger.Error("Failed to list system config", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list config",
		})
	}
	return c.JSON(fiber.Map{
		"config": configs,
	})
}

func (h *AdminHandler) SetConfig(c *fiber.Ctx) error {
	var req struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if err := c.BodyParser(&req); err != nil || req.Key == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "key and value are required",
		})
	}

	if err := h.configRepo.Set(c.Context(), req.Key, req.Value); err != nil {
		h.logger.Error("Failed to set system config", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to set config",
		})
	}
	return c.JSON(fiber.Map{
		"status": "ok",
	})
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.userRepo.List(c.Context())
	if err != nil {
		h.logger.Error("Failed to list users", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list users",
		})
	}

	out := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, dto.UserResponse{
			ID:       u.ID.String(),
			Username: u.Username,
			Email:    u.Email,
			IsAdmin:  u.IsAdmin,
		})
	}
	return c.JSON(fiber.Map{
		"users": out,
		"count": len(out),
	})
}
