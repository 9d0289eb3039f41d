package utils

import (
	"testing"
	"time"

	"yuksekolah_go/models"
)

func TestToSchoolDTOVerifiedFlag(t *testing.T) {
	school := models.School{Name: "SMA Negeri 1", Status: models.SchoolStatusPending}
	if dto := ToSchoolDTO(school); dto.IsVerified {
		t.Error("unverified school must have IsVerified=false")
	}

	now := time.Now()
	school.Status = models.SchoolStatusActive
	school.VerifiedAt = &now
	dto := ToSchoolDTO(school)
	if !dto.IsVerified {
		t.Error("verified school must have IsVerified=true")
	}
	if dto.Status != models.SchoolStatusActive {
		t.Errorf("status = %q, want active", dto.Status)
	}
}

func TestToPeriodPublicDTO(t *testing.T) {
	quota := 100
	period := models.RegistrationPeriod{
		Name:            "Gelombang 1",
		AcademicYear:    "2026/2027",
		IsOpen:          true,
		Quota:           &quota,
		RegisteredCount: 40,
		Programs:        models.StringList{"IPA", "IPS"},
		School:          models.School{Name: "SMA Negeri 1", Status: models.SchoolStatusActive},
	}

	dto := ToPeriodPublicDTO(period)
	if dto.RemainingQuota == nil || *dto.RemainingQuota != 60 {
		t.Errorf("remaining quota = %v, want 60", dto.RemainingQuota)
	}
	if !dto.CanRegister {
		t.Error("open period under quota must allow registration")
	}
	if len(dto.Programs) != 2 {
		t.Errorf("programs = %v, want 2 entries", dto.Programs)
	}
	if dto.School.Name != "SMA Negeri 1" {
		t.Errorf("school name = %q", dto.School.Name)
	}
}

func TestToPeriodPublicDTOUnlimitedQuota(t *testing.T) {
	period := models.RegistrationPeriod{
		IsOpen:          true,
		RegisteredCount: 9999,
		Programs:        models.StringList{"IPA"},
	}
	dto := ToPeriodPublicDTO(period)
	if dto.RemainingQuota != nil {
		t.Errorf("unlimited quota must serialize as null, got %v", *dto.RemainingQuota)
	}
	if !dto.CanRegister {
		t.Error("open unlimited period must allow registration")
	}
}
