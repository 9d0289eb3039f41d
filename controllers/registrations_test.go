package controllers

import (
	"testing"
	"time"

	"yuksekolah_go/models"

	"github.com/gofiber/fiber/v2"
)

func TestIntakeMode(t *testing.T) {
	tests := []struct {
		name       string
		periodLink string
		schoolLink string
		wantMode   string
		wantOK     bool
	}{
		{"period link only", "tok123", "", intakeModePeriod, true},
		{"school link only", "", "tok456", intakeModeSchool, true},
		{"both links", "tok123", "tok456", "", false},
		{"neither link", "", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, ok := intakeMode(tt.periodLink, tt.schoolLink)
			if mode != tt.wantMode || ok != tt.wantOK {
				t.Errorf("intakeMode(%q, %q) = (%q, %v), want (%q, %v)",
					tt.periodLink, tt.schoolLink, mode, ok, tt.wantMode, tt.wantOK)
			}
		})
	}
}

func TestValidateSubmissionForm(t *testing.T) {
	valid := map[string]interface{}{
		"name":    "Budi Santoso",
		"email":   "budi@mail.id",
		"phone":   "081234567890",
		"program": "IPA",
	}
	if errs := validateSubmissionForm(valid); len(errs) != 0 {
		t.Errorf("valid form rejected: %v", errs)
	}

	errs := validateSubmissionForm(map[string]interface{}{"email": "not-an-email"})
	for _, field := range []string{"name", "email", "phone", "program"} {
		if len(errs[field]) == 0 {
			t.Errorf("expected an error for field %q, got %v", field, errs)
		}
	}
}

func TestPeriodGate(t *testing.T) {
	quota := 2
	now := time.Now()

	base := func() *models.RegistrationPeriod {
		return &models.RegistrationPeriod{
			IsOpen:   true,
			Programs: models.StringList{"IPA", "IPS"},
			School:   models.School{Status: models.SchoolStatusActive},
		}
	}

	tests := []struct {
		name     string
		mutate   func(*models.RegistrationPeriod)
		program  string
		wantCode int
	}{
		{"open period accepts", nil, "IPA", 0},
		{"inactive school hides the period", func(p *models.RegistrationPeriod) {
			p.School.Status = models.SchoolStatusPending
		}, "IPA", fiber.StatusNotFound},
		{"closed period", func(p *models.RegistrationPeriod) {
			p.IsOpen = false
		}, "IPA", fiber.StatusBadRequest},
		{"ended period stays closed even with is_open set", func(p *models.RegistrationPeriod) {
			p.EndedAt = &now
		}, "IPA", fiber.StatusBadRequest},
		{"quota reached", func(p *models.RegistrationPeriod) {
			p.Quota = &quota
			p.RegisteredCount = 2
		}, "IPA", fiber.StatusBadRequest},
		{"program not offered", nil, "Bahasa", fiber.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base()
			if tt.mutate != nil {
				tt.mutate(p)
			}
			fe := periodGate(p, tt.program)
			if tt.wantCode == 0 {
				if fe != nil {
					t.Errorf("periodGate returned %d %q, want nil", fe.Code, fe.Message)
				}
				return
			}
			if fe == nil || fe.Code != tt.wantCode {
				t.Errorf("periodGate = %v, want status %d", fe, tt.wantCode)
			}
		})
	}
}
