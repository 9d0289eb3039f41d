package routes

import (
	"yuksekolah_go/controllers"
	"yuksekolah_go/middleware"

	"github.com/gofiber/fiber/v2"
)

// SetupRoutes registers the public and authenticated API route groups.
func SetupRoutes(app *fiber.App) {
	authController := &controllers.AuthController{}
	schoolController := &controllers.SchoolController{}
	periodController := &controllers.PeriodController{}
	registrationController := &controllers.RegistrationController{}
	dashboardController := &controllers.DashboardController{}
	userController := &controllers.UserController{}
	settingsController := &controllers.SettingsController{}
	notificationController := &controllers.NotificationController{}
	logController := &controllers.LogController{}

	api := app.Group("/api")

	// Public routes
	api.Post("/register-school", authController.RegisterSchool)
	api.Post("/login", authController.Login)
	api.Get("/school-by-link/:link", schoolController.GetByLink)
	api.Get("/period-by-link/:link", periodController.GetByLink)
	// A bearer token is optional here: logged-in students reuse their account
	api.Post("/submit-registration", middleware.OptionalJWTMiddleware(), registrationController.Submit)

	// Authenticated routes
	protected := api.Group("", middleware.JWTMiddleware())
	protected.Get("/me", authController.Me)
	protected.Post("/logout", authController.Logout)
	protected.Post("/logout-all", authController.LogoutAll)
	protected.Put("/profile/password", authController.ChangePassword)

	// Schools
	schools := protected.Group("/schools")
	schools.Get("", middleware.RequireSuperAdmin(), schoolController.Index)
	schools.Get("/:id", schoolController.Show)
	schools.Post("/:id/verify", middleware.RequireSuperAdmin(), schoolController.Verify)
	schools.Post("/:id/reject", middleware.RequireSuperAdmin(), schoolController.Reject)
	schools.Put("/:id", middleware.RequireSchoolAdmin(), schoolController.Update)
	schools.Post("/:id/regenerate-link", middleware.RequireSchoolAdmin(), schoolController.RegenerateLink)

	// Registration periods (school admin)
	periods := protected.Group("/periods", middleware.RequireSchoolAdmin())
	periods.Get("", periodController.Index)
	periods.Post("", periodController.Store)
	periods.Put("/:id", periodController.Update)
	periods.Delete("/:id", periodController.Destroy)
	periods.Post("/:id/toggle-status", periodController.ToggleStatus)
	periods.Post("/:id/end", periodController.End)
	periods.Post("/:id/regenerate-link", periodController.RegenerateLink)

	// Registrations
	registrations := protected.Group("/registrations")
	registrations.Get("", registrationController.Index)
	registrations.Get("/export", middleware.RequireSchoolAdmin(), registrationController.Export)
	registrations.Post("/:id/status", middleware.RequireSchoolAdmin(), registrationController.UpdateStatus)
	registrations.Post("/:id/upload", registrationController.UploadFile)
	registrations.Post("/:id/reset-password", middleware.RequireSchoolAdmin(), registrationController.ResetStudentPassword)

	// Dashboards
	dashboard := protected.Group("/dashboard")
	dashboard.Get("/school-stats", middleware.RequireSchoolAdmin(), dashboardController.SchoolStats)
	dashboard.Get("/student", dashboardController.StudentDashboard)
	dashboard.Get("/super-admin", middleware.RequireSuperAdmin(), dashboardController.SuperAdminStats)

	// User management (super admin)
	users := protected.Group("/users", middleware.RequireSuperAdmin())
	users.Get("", userController.Index)
	users.Put("/:id", userController.Update)
	users.Delete("/:id", userController.Destroy)
	users.Post("/:id/toggle-block", userController.ToggleBlock)
	users.Post("/:id/reset-password", userController.ResetPassword)

	// Settings
	settings := protected.Group("/settings")
	settings.Get("", middleware.RequireSuperAdmin(), settingsController.GetSystemSettings)
	settings.Post("", middleware.RequireSuperAdmin(), settingsController.UpdateSystemSettings)
	settings.Get("/school", middleware.RequireSchoolAdmin(), settingsController.GetSchoolSettings)
	settings.Post("/school/maintenance", middleware.RequireSchoolAdmin(), settingsController.ToggleSchoolMaintenance)

	// Notifications
	notifications := protected.Group("/notifications")
	notifications.Get("", notificationController.Index)
	notifications.Patch("/:id/read", notificationController.MarkRead)
	notifications.Patch("/mark-all-read", notificationController.MarkAllRead)

	// Activity logs and archives (super admin)
	logs := protected.Group("/logs", middleware.RequireSuperAdmin())
	logs.Get("", logController.Index)
	logs.Get("/archives", logController.Archives)
	logs.Get("/archives/:id/download", logController.DownloadArchive)
}
