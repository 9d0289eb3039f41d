package controllers

import (
	"time"

	"yuksekolah_go/database"
	"yuksekolah_go/middleware"
	"yuksekolah_go/models"
	"yuksekolah_go/utils"

	"github.com/gofiber/fiber/v2"
)

type PeriodController struct{}

// ownPeriod loads a period and checks it belongs to the caller's school.
// Errors are *fiber.Error values for the app error handler to render.
func ownPeriod(c *fiber.Ctx) (*models.RegistrationPeriod, *models.User, error) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return nil, nil, fiber.NewError(fiber.StatusUnauthorized, "User not found")
	}
	if user.SchoolID == nil {
		return nil, nil, fiber.NewError(fiber.StatusForbidden, "Insufficient permissions")
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return nil, nil, fiber.NewError(fiber.StatusBadRequest, "Invalid period ID")
	}

	var period models.RegistrationPeriod
	if err := database.DB.First(&period, id).Error; err != nil {
		return nil, nil, fiber.NewError(fiber.StatusNotFound, "Period not found")
	}
	if period.SchoolID != *user.SchoolID {
		return nil, nil, fiber.NewError(fiber.StatusForbidden, "Insufficient permissions")
	}
	return &period, user, nil
}

// Index lists the caller's registration periods, newest first.
func (pc *PeriodController) Index(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}
	if user.SchoolID == nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Insufficient permissions"})
	}

	var periods []models.RegistrationPeriod
	if err := database.DB.
		Where("school_id = ?", *user.SchoolID).
		Order("created_at DESC").
		Find(&periods).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch periods"})
	}

	return c.JSON(fiber.Map{"periods": periods})
}

// StorePeriodRequest creates a new registration period.
type StorePeriodRequest struct {
	Name         string   `json:"name" validate:"required,min=3,max=255"`
	AcademicYear string   `json:"academic_year" validate:"required,min=4,max=20"`
	Programs     []string `json:"programs" validate:"required,min=1,dive,required"`
	Quota        *int     `json:"quota" validate:"omitempty,min=1"`
}

// Store creates a period with its own public link.
func (pc *PeriodController) Store(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}
	if user.SchoolID == nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Insufficient permissions"})
	}

	var req StorePeriodRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if errs := utils.ValidateStruct(req); errs != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"errors": errs})
	}

	link, err := utils.RandomToken(registrationLinkLength)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate registration link"})
	}

	period := models.RegistrationPeriod{
		SchoolID:         *user.SchoolID,
		Name:             utils.SanitizeString(req.Name),
		AcademicYear:     req.AcademicYear,
		IsOpen:           false,
		Quota:            req.Quota,
		RegistrationLink: link,
		Programs:         models.StringList(req.Programs),
	}
	if err := database.DB.Create(&period).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create period"})
	}

	middleware.LogActivity(c, "CREATE", "registration_periods", period.ID, fiber.Map{"name": period.Name})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Period created successfully",
		"period":  period,
	})
}

// UpdatePeriodRequest edits an existing period.
type UpdatePeriodRequest struct {
	Name         string   `json:"name" validate:"omitempty,min=3,max=255"`
	AcademicYear string   `json:"academic_year" validate:"omitempty,min=4,max=20"`
	Programs     []string `json:"programs" validate:"omitempty,min=1,dive,required"`
	Quota        *int     `json:"quota" validate:"omitempty,min=1"`
}

// Update edits a period. Ended periods are immutable.
func (pc *PeriodController) Update(c *fiber.Ctx) error {
	period, _, err := ownPeriod(c)
	if err != nil {
		return err
	}
	if period.IsEnded() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Period has ended and cannot be modified"})
	}

	var req UpdatePeriodRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if errs := utils.ValidateStruct(req); errs != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"errors": errs})
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = utils.SanitizeString(req.Name)
	}
	if req.AcademicYear != "" {
		updates["academic_year"] = req.AcademicYear
	}
	if req.Programs != nil {
		updates["programs"] = models.StringList(req.Programs)
	}
	if req.Quota != nil {
		if *req.Quota < period.RegisteredCount {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Quota cannot be lower than the current registration count",
			})
		}
		updates["quota"] = req.Quota
	}

	if len(updates) > 0 {
		if err := database.DB.Model(period).Updates(updates).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update period"})
		}
		database.DB.First(period, period.ID)
	}

	middleware.LogActivity(c, "UPDATE", "registration_periods", period.ID, fiber.Map{"fields": len(updates)})

	return c.JSON(fiber.Map{
		"message": "Period updated successfully",
		"period":  period,
	})
}

// ToggleStatus flips is_open. Opening a period force-closes every other
// non-ended period of the school, so at most one is open at a time.
func (pc *PeriodController) ToggleStatus(c *fiber.Ctx) error {
	period, user, err := ownPeriod(c)
	if err != nil {
		return err
	}
	if period.IsEnded() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Period has ended and cannot be reopened"})
	}

	newState := !period.IsOpen
	if newState {
		if err := database.DB.Model(&models.RegistrationPeriod{}).
			Where("school_id = ? AND id != ? AND ended_at IS NULL", *user.SchoolID, period.ID).
			Update("is_open", false).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to close other periods"})
		}
	}

	if err := database.DB.Model(period).Update("is_open", newState).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update period"})
	}
	period.IsOpen = newState

	middleware.LogActivity(c, "UPDATE", "registration_periods", period.ID, fiber.Map{
		"action":  "toggle_status",
		"is_open": newState,
	})

	return c.JSON(fiber.Map{
		"message": "Period status updated",
		"period":  period,
	})
}

// End permanently closes a period. Terminal: it can never be reopened.
func (pc *PeriodController) End(c *fiber.Ctx) error {
	period, _, err := ownPeriod(c)
	if err != nil {
		return err
	}
	if period.IsEnded() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Period has already ended"})
	}

	now := time.Now()
	if err := database.DB.Model(period).Updates(map[string]interface{}{
		"ended_at": &now,
		"is_open":  false,
	}).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to end period"})
	}
	period.EndedAt = &now
	period.IsOpen = false

	middleware.LogActivity(c, "UPDATE", "registration_periods", period.ID, fiber.Map{"action": "end"})

	return c.JSON(fiber.Map{
		"message": "Period ended",
		"period":  period,
	})
}

// Destroy deletes a period that has no registrations.
func (pc *PeriodController) Destroy(c *fiber.Ctx) error {
	period, _, err := ownPeriod(c)
	if err != nil {
		return err
	}

	var count int64
	if err := database.DB.Model(&models.Registration{}).Where("period_id = ?", period.ID).Count(&count).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to check registrations"})
	}
	if count > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Period has registrations and cannot be deleted",
		})
	}

	if err := database.DB.Delete(period).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete period"})
	}

	middleware.LogActivity(c, "DELETE", "registration_periods", period.ID, fiber.Map{"name": period.Name})

	return c.JSON(fiber.Map{"message": "Period deleted successfully"})
}

// RegenerateLink replaces the period's public link.
func (pc *PeriodController) RegenerateLink(c *fiber.Ctx) error {
	period, _, err := ownPeriod(c)
	if err != nil {
		return err
	}
	if period.IsEnded() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Period has ended and cannot be modified"})
	}

	link, err := utils.RandomToken(registrationLinkLength)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate registration link"})
	}
	if err := database.DB.Model(period).Update("registration_link", link).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update registration link"})
	}

	middleware.LogActivity(c, "UPDATE", "registration_periods", period.ID, fiber.Map{"action": "regenerate_link"})

	return c.JSON(fiber.Map{
		"message":           "Registration link regenerated",
		"registration_link": link,
	})
}

// GetByLink resolves a public period link with quota availability and the
// school summary for the registration form.
func (pc *PeriodController) GetByLink(c *fiber.Ctx) error {
	token := c.Params("link")
	if token == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Period not found"})
	}

	var period models.RegistrationPeriod
	err := database.DB.
		Preload("School").
		Where("registration_link = ? OR registration_link LIKE ?", token, "%/"+token).
		First(&period).Error
	if err != nil || !utils.MatchesRegistrationLink(period.RegistrationLink, token) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Period not found"})
	}
	if !period.School.IsActive() {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Period not found"})
	}

	return c.JSON(fiber.Map{"period": utils.ToPeriodPublicDTO(period)})
}
