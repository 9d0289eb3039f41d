package controllers

import (
	"yuksekolah_go/database"
	"yuksekolah_go/models"
	"yuksekolah_go/services"

	"github.com/gofiber/fiber/v2"
)

// LogController exposes the activity log and its S3 archives (super admin).
type LogController struct{}

// Index lists activity logs with optional user/action/resource filters.
func (lc *LogController) Index(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	perPage := c.QueryInt("per_page", 50)
	if perPage < 1 || perPage > 200 {
		perPage = 50
	}

	query := database.DB.Model(&models.ActivityLog{})
	if userID := c.QueryInt("user_id", 0); userID > 0 {
		query = query.Where("user_id = ?", userID)
	}
	if action := c.Query("action"); action != "" {
		query = query.Where("action = ?", action)
	}
	if resource := c.Query("resource"); resource != "" {
		query = query.Where("resource = ?", resource)
	}

	var total int64
	query.Count(&total)

	var logs []models.ActivityLog
	if err := query.
		Preload("User").
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&logs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch logs"})
	}

	return c.JSON(fiber.Map{
		"logs": logs,
		"pagination": fiber.Map{
			"page":     page,
			"per_page": perPage,
			"total":    total,
		},
	})
}

// Archives lists the archived log files stored on S3.
func (lc *LogController) Archives(c *fiber.Ctx) error {
	archives, err := services.NewLogArchiveService().GetArchivedLogs()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch archives"})
	}
	return c.JSON(fiber.Map{"archives": archives})
}

// DownloadArchive streams one archive ZIP from S3.
func (lc *LogController) DownloadArchive(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid archive ID"})
	}

	reader, fileName, err := services.NewLogArchiveService().DownloadArchivedLogs(uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Archive not found"})
	}
	defer reader.Close()

	c.Set("Content-Type", "application/zip")
	c.Set("Content-Disposition", `attachment; filename="`+fileName+`"`)
	return c.SendStream(reader)
}
