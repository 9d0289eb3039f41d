package controllers

import (
	"time"

	"yuksekolah_go/database"
	"yuksekolah_go/middleware"
	"yuksekolah_go/models"
	"yuksekolah_go/utils"

	"github.com/gofiber/fiber/v2"
)

type DashboardController struct{}

// SchoolStats returns the school admin dashboard: totals by status, today's
// count, last-7-days daily buckets and the most recent registrations.
func (dc *DashboardController) SchoolStats(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}
	if !user.IsSchoolAdmin() || user.SchoolID == nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Insufficient permissions"})
	}
	schoolID := *user.SchoolID

	var school models.School
	if err := database.DB.First(&school, schoolID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "School not found"})
	}

	counts := fiber.Map{}
	var total int64
	database.DB.Model(&models.Registration{}).Where("school_id = ?", schoolID).Count(&total)
	counts["total"] = total
	for _, status := range []string{
		models.RegistrationStatusSubmitted,
		models.RegistrationStatusVerified,
		models.RegistrationStatusRejected,
	} {
		var n int64
		database.DB.Model(&models.Registration{}).
			Where("school_id = ? AND status = ?", schoolID, status).
			Count(&n)
		counts[status] = n
	}

	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var today int64
	database.DB.Model(&models.Registration{}).
		Where("school_id = ? AND created_at >= ?", schoolID, startOfDay).
		Count(&today)

	// Daily buckets for the last 7 days, oldest first
	type dayBucket struct {
		Date  string `json:"date"`
		Count int64  `json:"count"`
	}
	buckets := make([]dayBucket, 0, 7)
	for i := 6; i >= 0; i-- {
		dayStart := startOfDay.AddDate(0, 0, -i)
		dayEnd := dayStart.AddDate(0, 0, 1)
		var n int64
		database.DB.Model(&models.Registration{}).
			Where("school_id = ? AND created_at >= ? AND created_at < ?", schoolID, dayStart, dayEnd).
			Count(&n)
		buckets = append(buckets, dayBucket{Date: dayStart.Format("2006-01-02"), Count: n})
	}

	var recent []models.Registration
	database.DB.
		Preload("Student").
		Preload("Period").
		Where("school_id = ?", schoolID).
		Order("created_at DESC").
		Limit(10).
		Find(&recent)

	return c.JSON(fiber.Map{
		"school":               utils.ToSchoolDTO(school),
		"registration_counts":  counts,
		"today_count":          today,
		"daily_buckets":        buckets,
		"recent_registrations": recent,
	})
}

// StudentDashboard returns the student's latest registration with its school.
func (dc *DashboardController) StudentDashboard(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}
	if !user.IsStudent() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Insufficient permissions"})
	}

	var registration models.Registration
	err = database.DB.
		Preload("School").
		Preload("Period").
		Preload("Files").
		Where("student_id = ?", user.ID).
		Order("created_at DESC").
		First(&registration).Error
	if err != nil {
		return c.JSON(fiber.Map{"registration": nil})
	}

	return c.JSON(fiber.Map{"registration": registration})
}

// SuperAdminStats returns platform-wide counts and the pending verification
// queue for the super admin dashboard.
func (dc *DashboardController) SuperAdminStats(c *fiber.Ctx) error {
	schoolCounts := fiber.Map{}
	var totalSchools int64
	database.DB.Model(&models.School{}).Count(&totalSchools)
	schoolCounts["total"] = totalSchools
	for _, status := range []string{
		models.SchoolStatusPending,
		models.SchoolStatusActive,
		models.SchoolStatusInactive,
	} {
		var n int64
		database.DB.Model(&models.School{}).Where("status = ?", status).Count(&n)
		schoolCounts[status] = n
	}

	var totalRegistrations, totalStudents int64
	database.DB.Model(&models.Registration{}).Count(&totalRegistrations)
	database.DB.Model(&models.User{}).Where("role = ?", models.RoleStudent).Count(&totalStudents)

	var pending []models.School
	database.DB.
		Where("status = ?", models.SchoolStatusPending).
		Order("created_at DESC").
		Limit(5).
		Find(&pending)

	type pendingSchool struct {
		utils.SchoolDTO
		Admin *utils.UserShort `json:"admin,omitempty"`
	}
	pendingItems := make([]pendingSchool, 0, len(pending))
	for _, school := range pending {
		item := pendingSchool{SchoolDTO: utils.ToSchoolDTO(school)}
		if admin, err := firstSchoolAdmin(school.ID); err == nil && admin != nil {
			short := utils.ToUserShort(*admin)
			item.Admin = &short
		}
		pendingItems = append(pendingItems, item)
	}

	return c.JSON(fiber.Map{
		"school_counts":       schoolCounts,
		"total_registrations": totalRegistrations,
		"total_students":      totalStudents,
		"pending_schools":     pendingItems,
	})
}
