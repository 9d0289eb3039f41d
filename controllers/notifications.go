package controllers

import (
	"yuksekolah_go/database"
	"yuksekolah_go/middleware"
	"yuksekolah_go/models"
	notifsvc "yuksekolah_go/services/notifications"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type NotificationController struct{}

// Index lists the caller's notifications, unread first.
func (nc *NotificationController) Index(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	perPage := c.QueryInt("per_page", 20)
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	query := database.DB.Model(&models.Notification{}).Where("user_id = ?", user.ID)
	if c.Query("unread") == "true" {
		query = query.Where("`read` = ?", false)
	}

	var total int64
	query.Count(&total)

	var notifications []models.Notification
	if err := query.
		Order("`read` ASC, created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&notifications).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch notifications"})
	}

	var unread int64
	database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND `read` = ?", user.ID, false).
		Count(&unread)

	return c.JSON(fiber.Map{
		"notifications": notifications,
		"unread_count":  unread,
		"pagination": fiber.Map{
			"page":     page,
			"per_page": perPage,
			"total":    total,
		},
	})
}

// MarkRead marks one of the caller's notifications as read.
func (nc *NotificationController) MarkRead(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid notification ID"})
	}

	if err := notifsvc.NewService().MarkRead(user.ID, uint(id)); err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Notification not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update notification"})
	}

	return c.JSON(fiber.Map{"message": "Notification marked as read"})
}

// MarkAllRead marks every unread notification of the caller as read.
func (nc *NotificationController) MarkAllRead(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	count, err := notifsvc.NewService().MarkAllRead(user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update notifications"})
	}

	return c.JSON(fiber.Map{
		"message":     "All notifications marked as read",
		"marked_read": count,
	})
}
