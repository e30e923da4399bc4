// Package auth provides admin seed handlers for Fiber.
package auth

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/storefront/users-backend/model"
	"go.uber.org/zap"
)

// ============================================================================
// SEED HANDLERS
// ============================================================================

// SeedResponse reports the outcome of a seed apply
type SeedResponse struct {
	Message string      `json:"message"`
	Result  *SeedResult `json:"result"`
}

// ApplySeedFromBody applies a seed file sent as {"config": "<yaml>"}
func ApplySeedFromBody(svc *UserAccountService, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Config string `json:"config"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c)
		}

		return applySeed(c, svc, logger, []byte(req.Config), "Seed applied successfully")
	}
}

// ApplySeedFromUpload applies a seed file uploaded as the multipart field "file"
func ApplySeedFromUpload(svc *UserAccountService, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		file, err := c.FormFile("file")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(model.MessageResponse{Message: "No file uploaded"})
		}

		openedFile, err := file.Open()
		if err != nil {
			return respondError(c, logger, "Failed to open seed upload", err)
		}
		defer openedFile.Close()

		content, err := io.ReadAll(openedFile)
		if err != nil {
			return respondError(c, logger, "Failed to read seed upload", err)
		}

		return applySeed(c, svc, logger, content, "Seed applied successfully from upload")
	}
}

func applySeed(c *fiber.Ctx, svc *UserAccountService, logger *zap.Logger, content []byte, message string) error {
	config, err := ParseSeedConfig(content)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(model.MessageResponse{Message: err.Error()})
	}

	result, err := svc.SeedAccounts(c.UserContext(), config)
	if err != nil {
		return respondError(c, logger, "Failed to apply seed", err)
	}

	return c.JSON(SeedResponse{Message: message, Result: result})
}
