package controllers

import (
	"errors"

	"yuksekolah_go/database"
	"yuksekolah_go/middleware"
	"yuksekolah_go/models"
	"yuksekolah_go/services"

	"github.com/gofiber/fiber/v2"
)

type SettingsController struct{}

// GetSystemSettings returns the global platform settings (super admin).
func (sc *SettingsController) GetSystemSettings(c *fiber.Ctx) error {
	settings, err := services.NewSettingsService().GetSystemSettings()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load settings"})
	}
	return c.JSON(fiber.Map{"settings": settings})
}

// UpdateSystemSettings changes the global platform settings (super admin).
func (sc *SettingsController) UpdateSystemSettings(c *fiber.Ctx) error {
	var input services.UpdateSystemSettingsInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	settings, err := services.NewSettingsService().UpdateSystemSettings(input)
	if err != nil {
		if errors.Is(err, services.ErrSettingsValidation) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update settings"})
	}

	middleware.LogActivity(c, "UPDATE", "system_settings", 0, fiber.Map{
		"maintenance_mode":   settings.MaintenanceMode,
		"allow_registration": settings.AllowRegistration,
	})

	return c.JSON(fiber.Map{
		"message":  "Settings updated successfully",
		"settings": settings,
	})
}

// GetSchoolSettings returns the caller's school settings (school admin).
func (sc *SettingsController) GetSchoolSettings(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}
	if user.SchoolID == nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Insufficient permissions"})
	}

	var school models.School
	if err := database.DB.First(&school, *user.SchoolID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "School not found"})
	}

	return c.JSON(fiber.Map{
		"settings": fiber.Map{
			"is_maintenance": school.IsMaintenance,
			"status":         school.Status,
		},
	})
}

// ToggleSchoolMaintenance flips the caller's school maintenance flag. While
// on, public form submissions for the school are rejected.
func (sc *SettingsController) ToggleSchoolMaintenance(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}
	if user.SchoolID == nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Insufficient permissions"})
	}

	var school models.School
	if err := database.DB.First(&school, *user.SchoolID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "School not found"})
	}

	newState := !school.IsMaintenance
	if err := database.DB.Model(&school).Update("is_maintenance", newState).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update school"})
	}

	middleware.LogActivity(c, "UPDATE", "schools", school.ID, fiber.Map{
		"action":         "toggle_maintenance",
		"is_maintenance": newState,
	})

	return c.JSON(fiber.Map{
		"message": "Maintenance mode updated",
		"settings": fiber.Map{
			"is_maintenance": newState,
		},
	})
}
