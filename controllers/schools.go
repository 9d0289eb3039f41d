package controllers

import (
	"time"

	"yuksekolah_go/database"
	"yuksekolah_go/middleware"
	"yuksekolah_go/models"
	"yuksekolah_go/services/mailer"
	"yuksekolah_go/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type SchoolController struct{}

type schoolListItem struct {
	utils.SchoolDTO
	Admin              *utils.UserShort `json:"admin,omitempty"`
	RegistrationCounts map[string]int64 `json:"registration_counts"`
	ProgramBreakdown   map[string]int64 `json:"program_breakdown"`
	ActivePeriod       *fiber.Map       `json:"active_period,omitempty"`
}

// Index lists all schools with per-school aggregates (super admin).
func (sc *SchoolController) Index(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	perPage := c.QueryInt("per_page", 20)
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	query := database.DB.Model(&models.School{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("name LIKE ? OR email LIKE ? OR npsn LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to count schools"})
	}

	var schools []models.School
	if err := query.Order("created_at DESC").Offset((page - 1) * perPage).Limit(perPage).Find(&schools).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch schools"})
	}

	items := make([]schoolListItem, 0, len(schools))
	for _, school := range schools {
		item := schoolListItem{
			SchoolDTO:          utils.ToSchoolDTO(school),
			RegistrationCounts: map[string]int64{},
			ProgramBreakdown:   map[string]int64{},
		}

		type statusCount struct {
			Status string
			Count  int64
		}
		var byStatus []statusCount
		database.DB.Model(&models.Registration{}).
			Select("status, COUNT(*) as count").
			Where("school_id = ?", school.ID).
			Group("status").
			Scan(&byStatus)
		for _, row := range byStatus {
			item.RegistrationCounts[row.Status] = row.Count
			item.RegistrationCounts["total"] += row.Count
		}

		type programCount struct {
			Program string
			Count   int64
		}
		var byProgram []programCount
		database.DB.Model(&models.Registration{}).
			Select("program, COUNT(*) as count").
			Where("school_id = ?", school.ID).
			Group("program").
			Scan(&byProgram)
		for _, row := range byProgram {
			item.ProgramBreakdown[row.Program] = row.Count
		}

		var period models.RegistrationPeriod
		if err := database.DB.
			Where("school_id = ? AND is_open = ? AND ended_at IS NULL", school.ID, true).
			Order("created_at DESC").
			First(&period).Error; err == nil {
			item.ActivePeriod = &fiber.Map{
				"id":               period.ID,
				"name":             period.Name,
				"academic_year":    period.AcademicYear,
				"quota":            period.Quota,
				"registered_count": period.RegisteredCount,
			}
		}

		if admin, err := firstSchoolAdmin(school.ID); err == nil && admin != nil {
			short := utils.ToUserShort(*admin)
			item.Admin = &short
		}

		items = append(items, item)
	}

	return c.JSON(fiber.Map{
		"schools": items,
		"pagination": fiber.Map{
			"page":     page,
			"per_page": perPage,
			"total":    total,
		},
	})
}

// Show returns one school. School admins can only see their own.
func (sc *SchoolController) Show(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid school ID"})
	}

	if !user.IsSuperAdmin() {
		if user.SchoolID == nil || *user.SchoolID != uint(id) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Insufficient permissions"})
		}
	}

	var school models.School
	if err := database.DB.First(&school, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "School not found"})
	}

	return c.JSON(fiber.Map{"school": utils.ToSchoolDTO(school)})
}

// Verify activates a pending school (super admin).
func (sc *SchoolController) Verify(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid school ID"})
	}

	var school models.School
	if err := database.DB.First(&school, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "School not found"})
	}

	if school.IsActive() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "School is already verified"})
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":      models.SchoolStatusActive,
		"verified_at": &now,
	}
	if school.RegistrationLink == "" {
		link, err := utils.RandomToken(registrationLinkLength)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate registration link"})
		}
		updates["registration_link"] = link
		school.RegistrationLink = link
	}

	if err := database.DB.Model(&school).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to verify school"})
	}
	school.Status = models.SchoolStatusActive
	school.VerifiedAt = &now

	if admin, aerr := firstSchoolAdmin(school.ID); aerr == nil && admin != nil {
		mailer.New().Send(mailer.SchoolVerified(&school, admin))
	} else if aerr != nil {
		logrus.WithError(aerr).Warn("Failed to resolve school admin for verification email")
	}

	middleware.LogActivity(c, "UPDATE", "schools", school.ID, fiber.Map{"action": "verify"})

	return c.JSON(fiber.Map{
		"message": "School verified successfully",
		"school":  utils.ToSchoolDTO(school),
	})
}

// RejectSchoolRequest carries the mandatory rejection reason.
type RejectSchoolRequest struct {
	Reason string `json:"reason" validate:"required,min=5,max=500"`
}

// Reject declines a school's verification (super admin).
func (sc *SchoolController) Reject(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid school ID"})
	}

	var req RejectSchoolRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if errs := utils.ValidateStruct(req); errs != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"errors": errs})
	}

	var school models.School
	if err := database.DB.First(&school, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "School not found"})
	}

	updates := map[string]interface{}{
		"status":      models.SchoolStatusInactive,
		"verified_at": nil,
	}
	if err := database.DB.Model(&school).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to reject school"})
	}
	school.Status = models.SchoolStatusInactive
	school.VerifiedAt = nil

	if admin, aerr := firstSchoolAdmin(school.ID); aerr == nil && admin != nil {
		mailer.New().Send(mailer.SchoolRejected(&school, admin, req.Reason))
	}

	middleware.LogActivity(c, "UPDATE", "schools", school.ID, fiber.Map{
		"action": "reject",
		"reason": req.Reason,
	})

	return c.JSON(fiber.Map{
		"message": "School rejected",
		"school":  utils.ToSchoolDTO(school),
	})
}

// UpdateSchoolRequest is the school-admin profile update body.
type UpdateSchoolRequest struct {
	Name    string `json:"name" validate:"omitempty,min=3,max=255"`
	Phone   string `json:"phone" validate:"omitempty,min=8,max=20"`
	Address string `json:"address" validate:"omitempty,min=10,max=500"`
	NPSN    string `json:"npsn" validate:"omitempty,max=20"`
}

// Update edits the school profile (school admin, own school only).
func (sc *SchoolController) Update(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid school ID"})
	}
	if user.SchoolID == nil || *user.SchoolID != uint(id) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Insufficient permissions"})
	}

	var req UpdateSchoolRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if errs := utils.ValidateStruct(req); errs != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"errors": errs})
	}

	var school models.School
	if err := database.DB.First(&school, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "School not found"})
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = utils.SanitizeString(req.Name)
	}
	if req.Phone != "" {
		updates["phone"] = req.Phone
	}
	if req.Address != "" {
		updates["address"] = utils.SanitizeString(req.Address)
	}
	if req.NPSN != "" {
		updates["npsn"] = req.NPSN
	}
	if len(updates) > 0 {
		if err := database.DB.Model(&school).Updates(updates).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update school"})
		}
		database.DB.First(&school, school.ID)
	}

	middleware.LogActivity(c, "UPDATE", "schools", school.ID, fiber.Map{"fields": len(updates)})

	return c.JSON(fiber.Map{
		"message": "School updated successfully",
		"school":  utils.ToSchoolDTO(school),
	})
}

// RegenerateLink replaces the school's public registration link, invalidating
// the old one (school admin, own school only).
func (sc *SchoolController) RegenerateLink(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid school ID"})
	}
	if user.SchoolID == nil || *user.SchoolID != uint(id) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Insufficient permissions"})
	}

	var school models.School
	if err := database.DB.First(&school, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "School not found"})
	}

	link, err := utils.RandomToken(registrationLinkLength)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate registration link"})
	}
	if err := database.DB.Model(&school).Update("registration_link", link).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update registration link"})
	}

	middleware.LogActivity(c, "UPDATE", "schools", school.ID, fiber.Map{"action": "regenerate_link"})

	return c.JSON(fiber.Map{
		"message":           "Registration link regenerated",
		"registration_link": link,
	})
}

// GetByLink resolves a public school registration link. Only active schools
// are visible; pending and inactive links look like they never existed.
func (sc *SchoolController) GetByLink(c *fiber.Ctx) error {
	token := c.Params("link")
	if token == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "School not found"})
	}

	school, err := findActiveSchoolByLink(token)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "School not found"})
	}

	resp := fiber.Map{
		"school": fiber.Map{
			"id":             school.ID,
			"name":           school.Name,
			"npsn":           school.NPSN,
			"address":        school.Address,
			"is_maintenance": school.IsMaintenance,
		},
	}

	// Surface the current open period, if any, so the form can offer programs
	var period models.RegistrationPeriod
	if err := database.DB.
		Where("school_id = ? AND is_open = ? AND ended_at IS NULL", school.ID, true).
		Order("created_at DESC").
		First(&period).Error; err == nil {
		period.School = *school
		resp["active_period"] = utils.ToPeriodPublicDTO(period)
	}

	return c.JSON(resp)
}

// findActiveSchoolByLink matches the token exactly or as the trailing segment
// of a legacy full-URL link.
func findActiveSchoolByLink(token string) (*models.School, error) {
	var school models.School
	err := database.DB.
		Where("status = ? AND (registration_link = ? OR registration_link LIKE ?)",
			models.SchoolStatusActive, token, "%/"+token).
		First(&school).Error
	if err != nil {
		return nil, err
	}
	if !utils.MatchesRegistrationLink(school.RegistrationLink, token) {
		return nil, fiber.ErrNotFound
	}
	return &school, nil
}
