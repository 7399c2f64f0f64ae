package handlers

import (
	"io"

	"grana/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ExportHandler struct {
	exportService *service.ExportService
	logger        *zap.Logger
}

func NewExportHandler(exportService *service.ExportService, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{
		exportService: exportService,
		logger:        logger,
	}
}

func (h *ExportHandler) CSV(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	data, err := h.exportService.ExportCSV(c.Context(), userID)
	if err != nil {
		h.logger.Error("CSV export failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Export failed",
		})
	}

	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="transactions.csv"`)
	return c.Send(data)
}

func (h *ExportHandler) Excel(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	months := c.QueryInt("months", 12)
	data, err := h.exportService.ExportExcel(c.Context(), userID, months)
	if err != nil {
		h.logger.Error("Excel export failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Export failed",
		})
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="transactions.xlsx"`)
	return c.Send(data)
}

func (h *ExportHandler) Backup(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	data, err := h.exportService.ExportBackup(c.Context(), userID, currentUsername(c))
	if err != nil {
		h.logger.Error("Backup export failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Export failed",
		})
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="backup.json"`)
	return c.Send(data)
}

// Restore imports a backup document, either as a multipart "file" field
// or as the raw JSON request body.
func (h *ExportHandler) Restore(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	data := c.Body()
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Failed to read uploaded file",
			})
		}
		defer f.Close()
		if data, err = io.ReadAll(f); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Failed to read uploaded file",
			})
		}
	}
	if len(data) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Backup document required",
		})
	}

	result, err := h.exportService.RestoreBackup(c.Context(), userID, data)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(result)
}
