package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"yuksekolah_go/database"
	"yuksekolah_go/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// System setting keys
const (
	SettingMaintenanceMode   = "maintenance_mode"
	SettingAllowRegistration = "allow_registration"
)

// legacySettingsFile is the flat JSON file the previous stack persisted global
// settings in. Imported once into system_settings, then ignored.
const legacySettingsFile = "storage/settings.json"

var settingDefaults = map[string]string{
	SettingMaintenanceMode:   "false",
	SettingAllowRegistration: "true",
}

// ErrSettingsValidation indicates a user-facing validation error while updating settings
var ErrSettingsValidation = errors.New("settings validation error")

// SettingsService manages global system settings stored as key/value rows.
type SettingsService struct{}

// NewSettingsService creates a new service instance
func NewSettingsService() *SettingsService {
	return &SettingsService{}
}

// SystemSettingsDTO is the response shape for global settings.
type SystemSettingsDTO struct {
	MaintenanceMode   bool `json:"maintenance_mode"`
	AllowRegistration bool `json:"allow_registration"`
}

// UpdateSystemSettingsInput describes the fields a super admin may change.
type UpdateSystemSettingsInput struct {
	MaintenanceMode   *bool `json:"maintenance_mode"`
	AllowRegistration *bool `json:"allow_registration"`
}

// Get returns the value for a key, falling back to the in-code default when
// no row exists.
func (s *SettingsService) Get(key string) (string, error) {
	var setting models.SystemSetting
	err := database.DB.Where("`key` = ?", key).First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if def, ok := settingDefaults[key]; ok {
				return def, nil
			}
			return "", nil
		}
		return "", err
	}
	return setting.Value, nil
}

// GetBool reads a boolean setting. Unparseable values fall back to the default.
func (s *SettingsService) GetBool(key string) (bool, error) {
	raw, err := s.Get(key)
	if err != nil {
		return false, err
	}
	parsed, perr := strconv.ParseBool(strings.TrimSpace(raw))
	if perr != nil {
		def := settingDefaults[key]
		parsed, _ = strconv.ParseBool(def)
	}
	return parsed, nil
}

// Set upserts a key/value row.
func (s *SettingsService) Set(key, value string) error {
	setting := models.SystemSetting{Key: key, Value: value}
	return database.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
}

// GetSystemSettings returns the full global settings response.
func (s *SettingsService) GetSystemSettings() (*SystemSettingsDTO, error) {
	maintenance, err := s.GetBool(SettingMaintenanceMode)
	if err != nil {
		return nil, err
	}
	allowReg, err := s.GetBool(SettingAllowRegistration)
	if err != nil {
		return nil, err
	}
	return &SystemSettingsDTO{
		MaintenanceMode:   maintenance,
		AllowRegistration: allowReg,
	}, nil
}

// UpdateSystemSettings applies the requested changes and returns the new state.
func (s *SettingsService) UpdateSystemSettings(input UpdateSystemSettingsInput) (*SystemSettingsDTO, error) {
	if input.MaintenanceMode == nil && input.AllowRegistration == nil {
		return nil, fmt.Errorf("%w: no settings provided", ErrSettingsValidation)
	}
	if input.MaintenanceMode != nil {
		if err := s.Set(SettingMaintenanceMode, strconv.FormatBool(*input.MaintenanceMode)); err != nil {
			return nil, err
		}
	}
	if input.AllowRegistration != nil {
		if err := s.Set(SettingAllowRegistration, strconv.FormatBool(*input.AllowRegistration)); err != nil {
			return nil, err
		}
	}
	return s.GetSystemSettings()
}

// RegistrationAllowed reports whether public submissions are globally enabled.
// Errors fail open so a broken settings table never blocks intake.
func (s *SettingsService) RegistrationAllowed() bool {
	allowed, err := s.GetBool(SettingAllowRegistration)
	if err != nil {
		logrus.WithError(err).Warn("Failed to read allow_registration setting")
		return true
	}
	return allowed
}

// MaintenanceMode reports whether the whole platform is in maintenance.
func (s *SettingsService) MaintenanceMode() bool {
	maintenance, err := s.GetBool(SettingMaintenanceMode)
	if err != nil {
		logrus.WithError(err).Warn("Failed to read maintenance_mode setting")
		return false
	}
	return maintenance
}

// ImportLegacySettings performs a one-time import from the old flat JSON file.
// Existing rows are never overwritten; missing file is not an error.
func (s *SettingsService) ImportLegacySettings() error {
	data, err := os.ReadFile(legacySettingsFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var legacy map[string]interface{}
	if err := json.Unmarshal(data, &legacy); err != nil {
		return fmt.Errorf("failed to parse legacy settings file: %w", err)
	}

	imported := 0
	for key := range settingDefaults {
		raw, ok := legacy[key]
		if !ok {
			continue
		}
		var count int64
		if err := database.DB.Model(&models.SystemSetting{}).Where("`key` = ?", key).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		value := fmt.Sprintf("%v", raw)
		if err := database.DB.Create(&models.SystemSetting{Key: key, Value: value}).Error; err != nil {
			return err
		}
		imported++
	}

	if imported > 0 {
		logrus.WithField("imported", imported).Info("Imported legacy settings.json into system_settings")
	}
	return nil
}
