package controllers

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"yuksekolah_go/config"
	"yuksekolah_go/database"
	"yuksekolah_go/middleware"
	"yuksekolah_go/models"
	"yuksekolah_go/services"
	"yuksekolah_go/services/mailer"
	notifsvc "yuksekolah_go/services/notifications"
	"yuksekolah_go/storage"
	"yuksekolah_go/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type RegistrationController struct{}

const (
	generatedStudentPasswordLength = 8
	resetPasswordLength            = 10
)

// SubmitRegistrationRequest is the public enrollment form body. Exactly one
// of period_link / school_link selects the intake mode.
type SubmitRegistrationRequest struct {
	PeriodLink string                 `json:"period_link"`
	SchoolLink string                 `json:"school_link"`
	FormData   map[string]interface{} `json:"form_data"`
}

func formString(form map[string]interface{}, key string) string {
	if v, ok := form[key]; ok {
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

const (
	intakeModePeriod = "period"
	intakeModeSchool = "school"
)

// intakeMode picks the submission mode from the two link fields. Exactly one
// of them must be set.
func intakeMode(periodLink, schoolLink string) (string, bool) {
	switch {
	case periodLink != "" && schoolLink == "":
		return intakeModePeriod, true
	case schoolLink != "" && periodLink == "":
		return intakeModeSchool, true
	}
	return "", false
}

// validateSubmissionForm checks the required enrollment form fields and
// returns field errors in the 422 response shape.
func validateSubmissionForm(form map[string]interface{}) map[string][]string {
	errs := map[string][]string{}
	if formString(form, "name") == "" {
		errs["name"] = append(errs["name"], "This field is required")
	}
	if email := formString(form, "email"); email == "" || !strings.Contains(email, "@") {
		errs["email"] = append(errs["email"], "Must be a valid email address")
	}
	if formString(form, "phone") == "" {
		errs["phone"] = append(errs["phone"], "This field is required")
	}
	if formString(form, "program") == "" {
		errs["program"] = append(errs["program"], "This field is required")
	}
	return errs
}

// periodGate rejects submissions the period cannot accept. Ended periods stay
// closed permanently. The quota check here is advisory; the conditional
// increment at commit time is authoritative.
func periodGate(p *models.RegistrationPeriod, program string) *fiber.Error {
	if !p.School.IsActive() {
		return fiber.NewError(fiber.StatusNotFound, "Registration period not found")
	}
	if p.IsEnded() || !p.IsOpen {
		return fiber.NewError(fiber.StatusBadRequest, "Registration period is closed")
	}
	if p.Quota != nil && p.RegisteredCount >= *p.Quota {
		return fiber.NewError(fiber.StatusBadRequest, "Registration quota has been reached")
	}
	if !p.HasProgram(program) {
		return fiber.NewError(fiber.StatusBadRequest, "Program is not offered in this period")
	}
	return nil
}

// Submit handles the public enrollment form, via a period link or a legacy
// per-school link. A valid bearer token lets an existing student reuse their
// account; otherwise a student account is created with a random password.
func (rc *RegistrationController) Submit(c *fiber.Ctx) error {
	var req SubmitRegistrationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	mode, ok := intakeMode(req.PeriodLink, req.SchoolLink)
	if !ok {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"errors": fiber.Map{"period_link": []string{"Provide exactly one of period_link or school_link"}},
		})
	}

	if errs := validateSubmissionForm(req.FormData); len(errs) > 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"errors": errs})
	}
	name := formString(req.FormData, "name")
	email := formString(req.FormData, "email")
	program := formString(req.FormData, "program")

	settings := services.NewSettingsService()
	if !settings.RegistrationAllowed() || settings.MaintenanceMode() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Registration is currently disabled"})
	}

	var (
		school       *models.School
		period       *models.RegistrationPeriod
		academicYear string
	)

	if mode == intakeModePeriod {
		var p models.RegistrationPeriod
		err := database.DB.
			Preload("School").
			Where("registration_link = ? OR registration_link LIKE ?", req.PeriodLink, "%/"+req.PeriodLink).
			First(&p).Error
		if err != nil || !utils.MatchesRegistrationLink(p.RegistrationLink, req.PeriodLink) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Registration period not found"})
		}
		if fe := periodGate(&p, program); fe != nil {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}
		period = &p
		school = &p.School
		academicYear = p.AcademicYear
	} else {
		s, err := findActiveSchoolByLink(req.SchoolLink)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "School not found"})
		}
		school = s
		academicYear = utils.DefaultAcademicYear(time.Now())
	}

	if school.IsMaintenance {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "School is under maintenance"})
	}

	currentUser, _ := c.Locals("user").(*models.User)

	formData, err := json.Marshal(req.FormData)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid form data"})
	}

	var (
		student       models.User
		plainPassword string
		registration  models.Registration
	)

	tx := database.DB.Begin()
	if tx.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process registration"})
	}
	defer tx.Rollback()

	// Resolve or create the student account
	var existing models.User
	if err := tx.Where("email = ?", email).First(&existing).Error; err == nil {
		if currentUser == nil || currentUser.ID != existing.ID {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Email is already registered. Please log in to continue.",
				"code":  "EMAIL_EXISTS",
			})
		}
		student = existing
	} else {
		plainPassword, err = utils.RandomPassword(generatedStudentPasswordLength)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process registration"})
		}
		hashed, err := utils.HashPassword(plainPassword)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process registration"})
		}
		student = models.User{
			Name:     utils.SanitizeString(name),
			Email:    email,
			Password: hashed,
			Role:     models.RoleStudent,
			IsActive: true,
		}
		if err := tx.Create(&student).Error; err != nil {
			// The unique index also sees soft-deleted and concurrently created rows
			if utils.IsDuplicateEntry(err) {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{
					"error": "Email is already registered. Please log in to continue.",
					"code":  "EMAIL_EXISTS",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create student account"})
		}
	}

	// One registration per student per school per period
	dupQuery := tx.Where("student_id = ? AND school_id = ?", student.ID, school.ID)
	if period != nil {
		dupQuery = dupQuery.Where("period_id = ?", period.ID)
	} else {
		dupQuery = dupQuery.Where("period_id IS NULL")
	}
	var duplicate models.Registration
	if err := dupQuery.First(&duplicate).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":           "You have already registered",
			"registration_id": duplicate.ID,
		})
	}

	registration = models.Registration{
		StudentID:    student.ID,
		SchoolID:     school.ID,
		Program:      program,
		AcademicYear: academicYear,
		Status:       models.RegistrationStatusSubmitted,
		FormData:     models.JSON(formData),
	}
	if period != nil {
		registration.PeriodID = &period.ID
	}
	if err := tx.Create(&registration).Error; err != nil {
		// Unique index also guards the period flow against concurrent submits
		if utils.IsDuplicateEntry(err) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "You have already registered"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create registration"})
	}

	if period != nil {
		// Conditional increment closes the quota race: zero rows means another
		// submission took the last slot after our pre-check.
		result := tx.Model(&models.RegistrationPeriod{}).
			Where("id = ? AND (quota IS NULL OR registered_count < quota)", period.ID).
			Update("registered_count", gorm.Expr("registered_count + 1"))
		if result.Error != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update quota"})
		}
		if result.RowsAffected == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Registration quota has been reached"})
		}
	}

	if err := tx.Commit().Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process registration"})
	}

	mailer.New().Send(mailer.StudentRegistered(&student, school, plainPassword))
	go func(schoolID uint, studentName, programName string) {
		if err := notifsvc.NewService().NotifySchoolAdmins(
			schoolID,
			"Pendaftaran baru",
			fmt.Sprintf("%s mendaftar untuk program %s.", studentName, programName),
			"info",
		); err != nil {
			logrus.WithError(err).Warn("Failed to notify school admins of new registration")
		}
	}(school.ID, student.Name, program)

	middleware.LogActivity(c, "CREATE", "registrations", registration.ID, fiber.Map{
		"school_id": school.ID,
		"program":   program,
	})

	resp := fiber.Map{
		"message":         "Registration submitted successfully",
		"registration_id": registration.ID,
	}
	if plainPassword != "" {
		resp["account"] = fiber.Map{
			"email":    student.Email,
			"password": plainPassword,
		}
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Index lists registrations: school admins see their school, students see
// their own. Super admins use the schools overview instead.
func (rc *RegistrationController) Index(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	switch {
	case user.IsSchoolAdmin() && user.SchoolID != nil:
		perPage := 20
		query := database.DB.Model(&models.Registration{}).Where("school_id = ?", *user.SchoolID)
		if periodID := c.QueryInt("period_id", 0); periodID > 0 {
			query = query.Where("period_id = ?", periodID)
		}
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}

		var total int64
		query.Count(&total)

		var registrations []models.Registration
		if err := query.
			Preload("Student").
			Preload("Period").
			Preload("Files").
			Order("created_at DESC").
			Offset((page - 1) * perPage).
			Limit(perPage).
			Find(&registrations).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch registrations"})
		}

		return c.JSON(fiber.Map{
			"registrations": registrations,
			"pagination":    fiber.Map{"page": page, "per_page": perPage, "total": total},
		})

	case user.IsStudent():
		perPage := 10
		var total int64
		database.DB.Model(&models.Registration{}).Where("student_id = ?", user.ID).Count(&total)

		var registrations []models.Registration
		if err := database.DB.
			Preload("School").
			Preload("Period").
			Preload("Files").
			Where("student_id = ?", user.ID).
			Order("created_at DESC").
			Offset((page - 1) * perPage).
			Limit(perPage).
			Find(&registrations).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch registrations"})
		}

		return c.JSON(fiber.Map{
			"registrations": registrations,
			"pagination":    fiber.Map{"page": page, "per_page": perPage, "total": total},
		})
	}

	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Insufficient permissions"})
}

// ownRegistration loads a registration belonging to the admin's school.
func ownRegistration(c *fiber.Ctx) (*models.Registration, *models.User, error) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return nil, nil, fiber.NewError(fiber.StatusUnauthorized, "User not found")
	}
	if !user.IsSchoolAdmin() || user.SchoolID == nil {
		return nil, nil, fiber.NewError(fiber.StatusForbidden, "Insufficient permissions")
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return nil, nil, fiber.NewError(fiber.StatusBadRequest, "Invalid registration ID")
	}

	var registration models.Registration
	if err := database.DB.Preload("Student").First(&registration, id).Error; err != nil {
		return nil, nil, fiber.NewError(fiber.StatusNotFound, "Registration not found")
	}
	if registration.SchoolID != *user.SchoolID {
		return nil, nil, fiber.NewError(fiber.StatusForbidden, "Insufficient permissions")
	}
	return &registration, user, nil
}

// UpdateStatusRequest verifies or rejects a registration.
type UpdateStatusRequest struct {
	Status     string `json:"status" validate:"required,oneof=verified rejected"`
	AdminNotes string `json:"admin_notes" validate:"omitempty,max=1000"`
}

// UpdateStatus verifies or rejects a registration and stamps the decision
// into form_data.
func (rc *RegistrationController) UpdateStatus(c *fiber.Ctx) error {
	registration, user, err := ownRegistration(c)
	if err != nil {
		return err
	}

	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if errs := utils.ValidateStruct(req); errs != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"errors": errs})
	}

	formData := map[string]interface{}{}
	if !registration.FormData.IsNull() {
		if err := json.Unmarshal(registration.FormData, &formData); err != nil {
			formData = map[string]interface{}{}
		}
	}
	formData["admin_notes"] = req.AdminNotes
	formData["verified_at"] = time.Now().Format(time.RFC3339)
	formData["verified_by"] = user.Name

	merged, err := json.Marshal(formData)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update registration"})
	}

	if err := database.DB.Model(registration).Updates(map[string]interface{}{
		"status":    req.Status,
		"form_data": models.JSON(merged),
	}).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update registration"})
	}
	registration.Status = req.Status
	registration.FormData = models.JSON(merged)

	middleware.LogActivity(c, "UPDATE", "registrations", registration.ID, fiber.Map{
		"action": "status_change",
		"status": req.Status,
	})

	return c.JSON(fiber.Map{
		"message":      "Registration status updated",
		"registration": registration,
	})
}

// UploadFile stores one enrollment document on S3 and records its metadata.
// Allowed for the owning student and the school's admins.
func (rc *RegistrationController) UploadFile(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid registration ID"})
	}

	var registration models.Registration
	if err := database.DB.First(&registration, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Registration not found"})
	}

	isOwner := user.IsStudent() && registration.StudentID == user.ID
	isAdmin := user.IsSchoolAdmin() && user.SchoolID != nil && registration.SchoolID == *user.SchoolID
	if !isOwner && !isAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Insufficient permissions"})
	}

	fileType := c.FormValue("file_type")
	if !utils.IsValidFileType(fileType, models.RegistrationFileTypes) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid file type"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "File is required"})
	}
	if fileHeader.Size > config.AppConfig.MaxFileSize {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "File exceeds the maximum allowed size"})
	}
	allowedExts := strings.Split(config.AppConfig.AllowedExtensions, ",")
	if !utils.IsValidFileExtension(fileHeader.Filename, allowedExts) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "File extension is not allowed"})
	}

	storageService, err := storage.NewStorageService()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Storage is not configured"})
	}
	fileURL, err := storageService.UploadRegistrationFile(fileHeader, registration.ID, fileType)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to upload file"})
	}

	record := models.RegistrationFile{
		RegistrationID: registration.ID,
		FileType:       fileType,
		FilePath:       fileURL,
		OriginalName:   fileHeader.Filename,
	}
	if err := database.DB.Create(&record).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save file record"})
	}

	middleware.LogActivity(c, "CREATE", "registration_files", record.ID, fiber.Map{
		"registration_id": registration.ID,
		"file_type":       fileType,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "File uploaded successfully",
		"file":    record,
	})
}

// ResetStudentPassword issues a new random password for the student behind a
// registration (school admin, own school).
func (rc *RegistrationController) ResetStudentPassword(c *fiber.Ctx) error {
	registration, _, err := ownRegistration(c)
	if err != nil {
		return err
	}

	var student models.User
	if err := database.DB.First(&student, registration.StudentID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Student not found"})
	}

	newPassword, err := utils.RandomPassword(resetPasswordLength)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate password"})
	}
	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to hash password"})
	}
	if err := database.DB.Model(&student).Update("password", hashed).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to reset password"})
	}

	mailer.New().Send(mailer.PasswordReset(&student, newPassword))

	middleware.LogActivity(c, "UPDATE", "users", student.ID, fiber.Map{"action": "password_reset_by_school_admin"})

	return c.JSON(fiber.Map{
		"message":  "Password reset successfully",
		"email":    student.Email,
		"password": newPassword,
	})
}

// Export streams the school's registrations as an .xlsx workbook.
func (rc *RegistrationController) Export(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}
	if !user.IsSchoolAdmin() || user.SchoolID == nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Insufficient permissions"})
	}

	query := database.DB.
		Preload("Student").
		Preload("Period").
		Where("school_id = ?", *user.SchoolID)
	if periodID := c.QueryInt("period_id", 0); periodID > 0 {
		query = query.Where("period_id = ?", periodID)
	}

	var registrations []models.Registration
	if err := query.Order("created_at ASC").Find(&registrations).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch registrations"})
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Registrations"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"ID", "Student Name", "Email", "Phone", "Program", "Academic Year", "Period", "Status", "Submitted At"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, reg := range registrations {
		phone := ""
		if !reg.FormData.IsNull() {
			var form map[string]interface{}
			if err := json.Unmarshal(reg.FormData, &form); err == nil {
				phone = formString(form, "phone")
			}
		}
		periodName := ""
		if reg.Period != nil {
			periodName = reg.Period.Name
		}
		values := []interface{}{
			reg.ID,
			reg.Student.Name,
			reg.Student.Email,
			phone,
			reg.Program,
			reg.AcademicYear,
			periodName,
			reg.Status,
			reg.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate export"})
	}

	middleware.LogActivity(c, "EXPORT", "registrations", 0, fiber.Map{"count": len(registrations)})

	filename := fmt.Sprintf("registrations_%s.xlsx", time.Now().Format("20060102"))
	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	return c.Send(buf.Bytes())
}
