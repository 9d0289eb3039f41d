package utils

import (
	"time"

	"yuksekolah_go/models"
)

// Compact representations used across APIs

type SchoolShort struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Status string `json:"status,omitempty"`
	NPSN   string `json:"npsn,omitempty"`
}

type UserShort struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role,omitempty"`
	SchoolID *uint  `json:"school_id,omitempty"`
}

type SchoolDTO struct {
	ID               uint       `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	Phone            string     `json:"phone,omitempty"`
	Address          string     `json:"address,omitempty"`
	NPSN             string     `json:"npsn,omitempty"`
	Status           string     `json:"status"`
	RegistrationLink string     `json:"registration_link,omitempty"`
	IsVerified       bool       `json:"is_verified"`
	VerifiedAt       *time.Time `json:"verified_at,omitempty"`
	IsMaintenance    bool       `json:"is_maintenance"`
	CreatedAt        time.Time  `json:"created_at"`
}

type PeriodPublicDTO struct {
	ID              uint        `json:"id"`
	Name            string      `json:"name"`
	AcademicYear    string      `json:"academic_year"`
	IsOpen          bool        `json:"is_open"`
	Programs        []string    `json:"programs"`
	Quota           *int        `json:"quota"`
	RegisteredCount int         `json:"registered_count"`
	RemainingQuota  *int        `json:"remaining_quota"`
	CanRegister     bool        `json:"can_register"`
	EndedAt         *time.Time  `json:"ended_at,omitempty"`
	School          SchoolShort `json:"school"`
}

// ToSchoolShort maps a school to its compact form.
func ToSchoolShort(s models.School) SchoolShort {
	return SchoolShort{
		ID:     s.ID,
		Name:   s.Name,
		Email:  s.Email,
		Status: s.Status,
		NPSN:   s.NPSN,
	}
}

// ToUserShort maps a user to its compact form.
func ToUserShort(u models.User) UserShort {
	return UserShort{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Role:     u.Role,
		SchoolID: u.SchoolID,
	}
}

// ToSchoolDTO maps a school to its full API representation.
func ToSchoolDTO(s models.School) SchoolDTO {
	return SchoolDTO{
		ID:               s.ID,
		Name:             s.Name,
		Email:            s.Email,
		Phone:            s.Phone,
		Address:          s.Address,
		NPSN:             s.NPSN,
		Status:           s.Status,
		RegistrationLink: s.RegistrationLink,
		IsVerified:       s.VerifiedAt != nil,
		VerifiedAt:       s.VerifiedAt,
		IsMaintenance:    s.IsMaintenance,
		CreatedAt:        s.CreatedAt,
	}
}

// ToPeriodPublicDTO maps a period (with School preloaded) to the public
// response used by the registration form.
func ToPeriodPublicDTO(p models.RegistrationPeriod) PeriodPublicDTO {
	return PeriodPublicDTO{
		ID:              p.ID,
		Name:            p.Name,
		AcademicYear:    p.AcademicYear,
		IsOpen:          p.IsOpen,
		Programs:        []string(p.Programs),
		Quota:           p.Quota,
		RegisteredCount: p.RegisteredCount,
		RemainingQuota:  p.RemainingQuota(),
		CanRegister:     p.CanAcceptRegistration(),
		EndedAt:         p.EndedAt,
		School:          ToSchoolShort(p.School),
	}
}
