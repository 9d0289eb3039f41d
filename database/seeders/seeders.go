package seeders

import (
	"log"
	"os"

	"yuksekolah_go/database"
	"yuksekolah_go/models"
	"yuksekolah_go/utils"
)

// SeedAll runs all seeders
func SeedAll() {
	log.Println("Starting database seeding...")

	SeedSuperAdmin()
	SeedSystemSettings()

	log.Println("Database seeding completed successfully!")
}

// SeedSuperAdmin creates the platform operator account if none exists.
// Credentials come from SUPER_ADMIN_EMAIL / SUPER_ADMIN_PASSWORD.
func SeedSuperAdmin() {
	var count int64
	database.DB.Model(&models.User{}).Where("role = ?", models.RoleSuperAdmin).Count(&count)
	if count > 0 {
		log.Println("Super admin already seeded, skipping...")
		return
	}

	email := os.Getenv("SUPER_ADMIN_EMAIL")
	if email == "" {
		email = "admin@yuksekolah.id"
	}
	password := os.Getenv("SUPER_ADMIN_PASSWORD")
	if password == "" {
		generated, err := utils.RandomPassword(12)
		if err != nil {
			log.Printf("Error generating super admin password: %v", err)
			return
		}
		password = generated
		log.Printf("Generated super admin password: %s (change it after first login)", password)
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		log.Printf("Error hashing super admin password: %v", err)
		return
	}

	admin := models.User{
		Name:     "Super Admin",
		Email:    email,
		Password: hashed,
		Role:     models.RoleSuperAdmin,
		IsActive: true,
	}
	if err := database.DB.Create(&admin).Error; err != nil {
		log.Printf("Error seeding super admin: %v", err)
		return
	}

	log.Printf("Super admin seeded successfully (%s)", email)
}

// SeedSystemSettings inserts the default global settings rows.
func SeedSystemSettings() {
	defaults := map[string]string{
		"maintenance_mode":   "false",
		"allow_registration": "true",
	}

	for key, value := range defaults {
		var count int64
		database.DB.Model(&models.SystemSetting{}).Where("`key` = ?", key).Count(&count)
		if count > 0 {
			continue
		}
		if err := database.DB.Create(&models.SystemSetting{Key: key, Value: value}).Error; err != nil {
			log.Printf("Error seeding setting %s: %v", key, err)
		}
	}

	log.Println("System settings seeded successfully")
}
