package handler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"examroom/internal/config"
	"examroom/internal/domain"
	"examroom/internal/util"

	"github.com/gofiber/fiber/v2"
)

const maxImageUploadBytes = 5 << 20

// UploadHandler stores question and passage images under the configured
// upload directory and hands back their public URL.
type UploadHandler struct {
	cfg config.UploadConfig
}

func NewUploadHandler(cfg config.UploadConfig) *UploadHandler {
	return &UploadHandler{cfg: cfg}
}

var allowedImageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// UploadImage accepts one image file and returns its public URL.
// @Summary Upload image (admin)
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image file"
// @Success 201 {object} map[string]string
// @Failure 400 {object} middleware.ErrorResponse
// @Security BearerAuth
// @Router /admin/uploads [post]
func (h *UploadHandler) UploadImage(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return domain.NewInvalidInputError("file is required")
	}
	if fileHeader.Size > maxImageUploadBytes {
		return domain.NewInvalidInputError("file exceeds the 5MB limit")
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedImageExtensions[ext] {
		return domain.NewInvalidInputError("unsupported image type")
	}

	if err := os.MkdirAll(h.cfg.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to prepare upload directory: %w", err)
	}

	name := util.NewULID() + ext
	if err := c.SaveFile(fileHeader, filepath.Join(h.cfg.Dir, name)); err != nil {
		return fmt.Errorf("failed to store upload: %w", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"url": strings.TrimRight(h.cfg.PublicURL, "/") + "/" + name,
	})
}
