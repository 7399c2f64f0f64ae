package handlers

import (
	"errors"
	"io"
	"strings"

	"grana/internal/models"
	"grana/internal/repository"
	"grana/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type StatementHandler struct {
	ingest     *service.IngestService
	configRepo *repository.ConfigRepository
	logger     *zap.Logger
}

func NewStatementHandler(ingest *service.IngestService, configRepo *repository.ConfigRepository, logger *zap.Logger) *StatementHandler {
	return &StatementHandler{
		ingest:     ingest,
		configRepo: configRepo,
		logger:     logger,
	}
}

// Upload ingests one or more statement files sent as multipart form data.
// Form fields: files (repeated), bank, strategy (optional).
func (h *StatementHandler) Upload(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	if !h.uploadsEnabled(c) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Uploads are currently disabled",
		})
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Multipart form expected",
		})
	}

	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "At least one file is required",
		})
	}

	bank := strings.TrimSpace(c.FormValue("bank"))
	if bank == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "bank is required",
		})
	}
	strategy := strings.TrimSpace(c.FormValue("strategy"))

	files := make([]service.UploadFile, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Failed to read uploaded file " + fh.Filename,
			})
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Failed to read uploaded file " + fh.Filename,
			})
		}
		files = append(files, service.UploadFile{Name: fh.Filename, Data: data})
	}

	resp, err := h.ingest.ProcessFiles(c.Context(), userID, bank, strategy, files)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(resp)
}

// Strategies lists the available classification strategies.
func (h *StatementHandler) Strategies(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"strategies": h.ingest.Strategies(),
	})
}

func (h *StatementHandler) uploadsEnabled(c *fiber.Ctx) bool {
	cfg, err := h.configRepo.Get(c.Context(), models.ConfigKeySystemActive)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			h.logger.Warn("Failed to read system config", zap.Error(err))
		}
		return true
	}
	return cfg.Value != "false"
}
