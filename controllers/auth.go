package controllers

import (
	"errors"
	"time"

	"yuksekolah_go/config"
	"yuksekolah_go/database"
	"yuksekolah_go/middleware"
	"yuksekolah_go/models"
	"yuksekolah_go/services/mailer"
	notifsvc "yuksekolah_go/services/notifications"
	"yuksekolah_go/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type AuthController struct{}

const registrationLinkLength = 32

// RegisterSchoolRequest is the public school signup body.
type RegisterSchoolRequest struct {
	SchoolName           string `json:"school_name" validate:"required,min=3,max=255"`
	SchoolEmail          string `json:"school_email" validate:"required,email"`
	SchoolPhone          string `json:"school_phone" validate:"required,min=8,max=20"`
	SchoolAddress        string `json:"school_address" validate:"required,min=10,max=500"`
	NPSN                 string `json:"npsn" validate:"omitempty,max=20"`
	AdminName            string `json:"admin_name" validate:"required,min=3,max=255"`
	AdminEmail           string `json:"admin_email" validate:"required,email"`
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

// RegisterSchool creates a pending school together with its first admin
// account. The school stays invisible to students until a super admin
// verifies it.
func (ac *AuthController) RegisterSchool(c *fiber.Ctx) error {
	var req RegisterSchoolRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if errs := utils.ValidateStruct(req); errs != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"errors": errs})
	}

	// Uniqueness of both emails before opening the transaction
	var count int64
	database.DB.Model(&models.School{}).Where("email = ?", req.SchoolEmail).Count(&count)
	if count > 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"errors": fiber.Map{"school_email": []string{"Email is already registered"}},
		})
	}
	database.DB.Model(&models.User{}).Where("email = ?", req.AdminEmail).Count(&count)
	if count > 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"errors": fiber.Map{"admin_email": []string{"Email is already registered"}},
		})
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to hash password"})
	}

	link, err := utils.RandomToken(registrationLinkLength)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate registration link"})
	}

	school := models.School{
		Name:             utils.SanitizeString(req.SchoolName),
		Email:            req.SchoolEmail,
		Phone:            req.SchoolPhone,
		Address:          utils.SanitizeString(req.SchoolAddress),
		NPSN:             req.NPSN,
		Status:           models.SchoolStatusPending,
		RegistrationLink: link,
	}
	admin := models.User{
		Name:     utils.SanitizeString(req.AdminName),
		Email:    req.AdminEmail,
		Password: hashedPassword,
		Role:     models.RoleSchoolAdmin,
		IsActive: true,
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&school).Error; err != nil {
			return err
		}
		admin.SchoolID = &school.ID
		return tx.Create(&admin).Error
	})
	if err != nil {
		// Unique index catches emails the pre-check missed (races, deleted rows)
		if utils.IsDuplicateEntry(err) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Email is already registered"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to register school"})
	}

	mailer.New().Send(mailer.SchoolRegistered(&school, &admin))
	go func() {
		if err := notifsvc.NewService().NotifySuperAdmins(
			"Pendaftaran sekolah baru",
			"Sekolah "+school.Name+" mendaftar dan menunggu verifikasi.",
			"info",
		); err != nil {
			logrus.WithError(err).Warn("Failed to notify super admins of school signup")
		}
	}()

	middleware.LogActivity(c, "CREATE", "schools", school.ID, fiber.Map{
		"school_name": school.Name,
		"admin_email": admin.Email,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "School registered successfully. Please wait for verification.",
		"school":  utils.ToSchoolShort(school),
		"admin":   utils.ToUserShort(admin),
	})
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login authenticates a user and returns a JWT token
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if errs := utils.ValidateStruct(req); errs != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"errors": errs})
	}

	// Same error for unknown email and wrong password
	var user models.User
	if err := database.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid credentials"})
	}
	if fe := loginGate(&user, req.Password); fe != nil {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}

	if user.SchoolID != nil {
		database.DB.Preload("School").First(&user, user.ID)
	}

	// A school admin cannot use the dashboard until the school is verified
	if user.IsSchoolAdmin() {
		if user.School == nil || !user.School.IsActive() {
			status := models.SchoolStatusPending
			if user.School != nil {
				status = user.School.Status
			}
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":         "School is not active",
				"school_status": status,
			})
		}
	}

	token, err := middleware.GenerateToken(&user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate token"})
	}

	middleware.LogActivity(c, "LOGIN", "auth", user.ID, fiber.Map{
		"email": user.Email,
		"role":  user.Role,
	})

	return c.JSON(fiber.Map{
		"message":    "Login successful",
		"token":      token,
		"token_type": "Bearer",
		"expires_in": int64(config.AppConfig.JWTExpiresIn.Seconds()),
		"user":       user,
	})
}

// Me returns the current user's profile with the school preloaded.
func (ac *AuthController) Me(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	if user.SchoolID != nil {
		database.DB.Preload("School").First(user, user.ID)
	}

	claims, _ := middleware.GetCurrentClaims(c)
	resp := fiber.Map{"user": user}
	if claims != nil {
		resp["abilities"] = claims.Abilities
	}
	return c.JSON(resp)
}

// Logout revokes the current token until it would have expired.
func (ac *AuthController) Logout(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing user claims"})
	}

	expiresAt := time.Now().Add(config.AppConfig.JWTExpiresIn)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := middleware.BlacklistToken(claims.ID, expiresAt); err != nil {
		// Redis down: logout still succeeds, the token simply ages out
		logrus.WithError(err).Warn("Failed to blacklist token on logout")
	}

	middleware.LogActivity(c, "LOGOUT", "auth", claims.UserID, fiber.Map{"email": claims.Email})

	return c.JSON(fiber.Map{
		"message":        "Logged out successfully",
		"tokens_revoked": 1,
	})
}

// LogoutAll revokes every outstanding token of the current user.
func (ac *AuthController) LogoutAll(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing user claims"})
	}

	count, err := middleware.RevokeAllTokens(claims.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to revoke tokens"})
	}

	middleware.LogActivity(c, "LOGOUT", "auth", claims.UserID, fiber.Map{
		"scope":          "all",
		"tokens_revoked": count,
	})

	return c.JSON(fiber.Map{
		"message":        "All sessions revoked",
		"tokens_revoked": count,
	})
}

// ChangePasswordRequest is the authenticated password change body.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// ChangePassword allows users to change their own password
func (ac *AuthController) ChangePassword(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if errs := utils.ValidateStruct(req); errs != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"errors": errs})
	}

	if err := utils.CheckPassword(req.CurrentPassword, user.Password); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Current password is incorrect"})
	}

	hashedPassword, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to hash password"})
	}

	if err := database.DB.Model(user).Update("password", hashedPassword).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update password"})
	}

	middleware.LogActivity(c, "UPDATE", "users", user.ID, fiber.Map{"action": "password_change"})

	return c.JSON(fiber.Map{"message": "Password changed successfully"})
}

// loginGate checks the account state, then the password. The blocked check
// comes first so the response never varies with the password's correctness.
func loginGate(user *models.User, password string) *fiber.Error {
	if !user.IsActive {
		return fiber.NewError(fiber.StatusForbidden, "Account is blocked")
	}
	if err := utils.CheckPassword(password, user.Password); err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid credentials")
	}
	return nil
}

// firstSchoolAdmin returns the earliest-created active admin of a school.
func firstSchoolAdmin(schoolID uint) (*models.User, error) {
	var admin models.User
	err := database.DB.
		Where("school_id = ? AND role = ?", schoolID, models.RoleSchoolAdmin).
		Order("created_at ASC").
		First(&admin).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &admin, nil
}
