package controllers

import (
	"yuksekolah_go/database"
	"yuksekolah_go/middleware"
	"yuksekolah_go/models"
	"yuksekolah_go/services/mailer"
	"yuksekolah_go/utils"

	"github.com/gofiber/fiber/v2"
)

type UserController struct{}

// Index lists users with optional role and search filters (super admin).
func (uc *UserController) Index(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	perPage := c.QueryInt("per_page", 20)
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	query := database.DB.Model(&models.User{})
	if role := c.Query("role"); role != "" {
		if !utils.IsValidRole(role) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid role"})
		}
		query = query.Where("role = ?", role)
	}
	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("name LIKE ? OR email LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to count users"})
	}

	var users []models.User
	if err := query.
		Preload("School").
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&users).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch users"})
	}

	return c.JSON(fiber.Map{
		"users": users,
		"pagination": fiber.Map{
			"page":     page,
			"per_page": perPage,
			"total":    total,
		},
	})
}

// UpdateUserRequest edits a user account (super admin).
type UpdateUserRequest struct {
	Name     string `json:"name" validate:"omitempty,min=3,max=255"`
	Email    string `json:"email" validate:"omitempty,email"`
	Role     string `json:"role" validate:"omitempty,oneof=super_admin school_admin student"`
	SchoolID *uint  `json:"school_id"`
}

// Update edits a user account (super admin only).
func (uc *UserController) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if errs := utils.ValidateStruct(req); errs != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"errors": errs})
	}

	var user models.User
	if err := database.DB.First(&user, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = utils.SanitizeString(req.Name)
	}
	if req.Email != "" && req.Email != user.Email {
		var count int64
		database.DB.Model(&models.User{}).Where("email = ? AND id != ?", req.Email, user.ID).Count(&count)
		if count > 0 {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Email already exists"})
		}
		updates["email"] = req.Email
	}
	if req.Role != "" {
		updates["role"] = req.Role
	}
	if req.SchoolID != nil {
		var count int64
		database.DB.Model(&models.School{}).Where("id = ?", *req.SchoolID).Count(&count)
		if count == 0 {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "School not found"})
		}
		updates["school_id"] = req.SchoolID
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&user).Updates(updates).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update user"})
		}
		database.DB.Preload("School").First(&user, user.ID)
	}

	middleware.LogActivity(c, "UPDATE", "users", user.ID, fiber.Map{"fields": len(updates)})

	return c.JSON(fiber.Map{
		"message": "User updated successfully",
		"user":    user,
	})
}

// Destroy permanently removes a user (super admin only). A hard delete frees
// the email's unique index slot for future signups. Self-deletion is blocked.
func (uc *UserController) Destroy(c *fiber.Ctx) error {
	currentUser, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}
	if uint(id) == currentUser.ID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "You cannot delete your own account"})
	}

	var user models.User
	if err := database.DB.First(&user, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	if err := database.DB.Unscoped().Delete(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete user"})
	}

	// Kill any outstanding sessions
	if _, err := middleware.RevokeAllTokens(user.ID); err == nil {
		middleware.LogActivity(c, "DELETE", "users", user.ID, fiber.Map{"sessions_revoked": true})
	} else {
		middleware.LogActivity(c, "DELETE", "users", user.ID, nil)
	}

	return c.JSON(fiber.Map{"message": "User deleted successfully"})
}

// ToggleBlock flips is_active. Blocked users cannot log in and their tokens
// stop passing the auth middleware immediately.
func (uc *UserController) ToggleBlock(c *fiber.Ctx) error {
	currentUser, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}
	if uint(id) == currentUser.ID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "You cannot block your own account"})
	}

	var user models.User
	if err := database.DB.First(&user, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	newState := !user.IsActive
	if err := database.DB.Model(&user).Update("is_active", newState).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update user"})
	}
	user.IsActive = newState

	action := "block"
	if newState {
		action = "unblock"
	}
	middleware.LogActivity(c, "UPDATE", "users", user.ID, fiber.Map{"action": action})

	return c.JSON(fiber.Map{
		"message": "User " + action + "ed successfully",
		"user":    utils.ToUserShort(user),
	})
}

// ResetPassword issues a new random password for any user (super admin).
func (uc *UserController) ResetPassword(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var user models.User
	if err := database.DB.First(&user, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	newPassword, err := utils.RandomPassword(resetPasswordLength)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate password"})
	}
	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to hash password"})
	}
	if err := database.DB.Model(&user).Update("password", hashed).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to reset password"})
	}

	mailer.New().Send(mailer.PasswordReset(&user, newPassword))

	middleware.LogActivity(c, "UPDATE", "users", user.ID, fiber.Map{"action": "password_reset_by_super_admin"})

	return c.JSON(fiber.Map{
		"message":  "Password reset successfully",
		"email":    user.Email,
		"password": newPassword,
	})
}
