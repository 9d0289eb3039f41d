package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSON field type for GORM
type JSON []byte

func (j JSON) Value() (driver.Value, error) {
	if j.IsNull() {
		return nil, nil
	}
	return string(j), nil
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	s, ok := value.([]byte)
	if !ok {
		return nil
	}
	*j = append((*j)[0:0], s...)
	return nil
}

func (j JSON) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *JSON) UnmarshalJSON(data []byte) error {
	if j == nil {
		return nil
	}
	*j = append((*j)[0:0], data...)
	return nil
}

func (j JSON) IsNull() bool {
	return len(j) == 0 || string(j) == "null"
}

// StringList is a []string stored as a JSON column
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			b = []byte(s)
		} else {
			return nil
		}
	}
	return json.Unmarshal(b, (*[]string)(l))
}

// Contains reports whether the list holds the given entry.
func (l StringList) Contains(entry string) bool {
	for _, item := range l {
		if item == entry {
			return true
		}
	}
	return false
}

// School statuses
const (
	SchoolStatusPending  = "pending"
	SchoolStatusActive   = "active"
	SchoolStatusInactive = "inactive"
)

// User roles
const (
	RoleSuperAdmin  = "super_admin"
	RoleSchoolAdmin = "school_admin"
	RoleStudent     = "student"
)

// Registration statuses
const (
	RegistrationStatusDraft     = "draft"
	RegistrationStatusSubmitted = "submitted"
	RegistrationStatusVerified  = "verified"
	RegistrationStatusRejected  = "rejected"
)

// School model
type School struct {
	BaseModel
	Name             string     `json:"name" gorm:"size:255;not null"`
	Email            string     `json:"email" gorm:"size:255;not null;uniqueIndex"`
	Phone            string     `json:"phone" gorm:"size:20"`
	Address          string     `json:"address" gorm:"size:500"`
	NPSN             string     `json:"npsn" gorm:"size:20"`
	Status           string     `json:"status" gorm:"size:50;not null;default:'pending';type:enum('pending','active','inactive')"` // pending, active, inactive
	VerifiedAt       *time.Time `json:"verified_at"`
	RegistrationLink string     `json:"registration_link" gorm:"size:255;uniqueIndex"`
	IsMaintenance    bool       `json:"is_maintenance" gorm:"default:false"`

	// Relationships
	Users         []User               `json:"users,omitempty" gorm:"foreignKey:SchoolID"`
	Periods       []RegistrationPeriod `json:"periods,omitempty" gorm:"foreignKey:SchoolID"`
	Registrations []Registration       `json:"registrations,omitempty" gorm:"foreignKey:SchoolID"`
}

// IsActive reports whether the school accepts public traffic.
func (s *School) IsActive() bool {
	return s.Status == SchoolStatusActive
}

// User model
type User struct {
	BaseModel
	Name     string `json:"name" gorm:"size:255;not null"`
	Email    string `json:"email" gorm:"size:255;not null;uniqueIndex"`
	Password string `json:"-" gorm:"size:255;not null"`
	Role     string `json:"role" gorm:"size:50;not null;default:'student';type:enum('super_admin','school_admin','student')"` // super_admin, school_admin, student
	SchoolID *uint  `json:"school_id"`
	IsActive bool   `json:"is_active" gorm:"default:true"`

	// Relationships
	School        *School        `json:"school,omitempty" gorm:"foreignKey:SchoolID"`
	Registrations []Registration `json:"registrations,omitempty" gorm:"foreignKey:StudentID"`
}

func (u *User) IsSuperAdmin() bool  { return u.Role == RoleSuperAdmin }
func (u *User) IsSchoolAdmin() bool { return u.Role == RoleSchoolAdmin }
func (u *User) IsStudent() bool     { return u.Role == RoleStudent }

// RegistrationPeriod model
type RegistrationPeriod struct {
	BaseModel
	SchoolID         uint       `json:"school_id" gorm:"not null;index"`
	Name             string     `json:"name" gorm:"size:255;not null"`
	AcademicYear     string     `json:"academic_year" gorm:"size:20;not null"`
	IsOpen           bool       `json:"is_open"`
	Quota            *int       `json:"quota"` // null = unlimited
	RegisteredCount  int        `json:"registered_count" gorm:"default:0"`
	RegistrationLink string     `json:"registration_link" gorm:"size:255;not null;uniqueIndex"`
	Programs         StringList `json:"programs" gorm:"type:json"`
	EndedAt          *time.Time `json:"ended_at"` // terminal once set

	// Relationships
	School        School         `json:"school,omitempty" gorm:"foreignKey:SchoolID"`
	Registrations []Registration `json:"registrations,omitempty" gorm:"foreignKey:PeriodID"`
}

// IsEnded reports whether the period has been permanently closed.
func (p *RegistrationPeriod) IsEnded() bool {
	return p.EndedAt != nil
}

// CanAcceptRegistration reports whether new submissions are currently allowed.
func (p *RegistrationPeriod) CanAcceptRegistration() bool {
	if !p.IsOpen || p.IsEnded() {
		return false
	}
	if p.Quota != nil && p.RegisteredCount >= *p.Quota {
		return false
	}
	return true
}

// RemainingQuota returns the number of open slots, or nil when unlimited.
func (p *RegistrationPeriod) RemainingQuota() *int {
	if p.Quota == nil {
		return nil
	}
	remaining := *p.Quota - p.RegisteredCount
	if remaining < 0 {
		remaining = 0
	}
	return &remaining
}

// HasProgram reports whether the program is offered in this period.
func (p *RegistrationPeriod) HasProgram(program string) bool {
	return p.Programs.Contains(program)
}

// Registration model
type Registration struct {
	BaseModel
	StudentID    uint   `json:"student_id" gorm:"not null;uniqueIndex:idx_student_school_period,priority:1"`
	SchoolID     uint   `json:"school_id" gorm:"not null;uniqueIndex:idx_student_school_period,priority:2"`
	PeriodID     *uint  `json:"period_id" gorm:"uniqueIndex:idx_student_school_period,priority:3"`
	Program      string `json:"program" gorm:"size:100;not null"`
	AcademicYear string `json:"academic_year" gorm:"size:20;not null"`
	Status       string `json:"status" gorm:"size:50;not null;default:'draft';type:enum('draft','submitted','verified','rejected')"` // draft, submitted, verified, rejected
	FormData     JSON   `json:"form_data" gorm:"type:json"`

	// Relationships
	Student User                `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	School  School              `json:"school,omitempty" gorm:"foreignKey:SchoolID"`
	Period  *RegistrationPeriod `json:"period,omitempty" gorm:"foreignKey:PeriodID"`
	Files   []RegistrationFile  `json:"files,omitempty" gorm:"foreignKey:RegistrationID"`
}

// RegistrationFileTypes are the accepted document kinds for an enrollment.
var RegistrationFileTypes = []string{
	"photo", "ijazah", "kartu_keluarga", "akta_lahir", "transkrip_nilai", "sertifikat_prestasi", "other",
}

// RegistrationFile model
type RegistrationFile struct {
	BaseModel
	RegistrationID uint   `json:"registration_id" gorm:"not null;index"`
	FileType       string `json:"file_type" gorm:"size:50;not null;type:enum('photo','ijazah','kartu_keluarga','akta_lahir','transkrip_nilai','sertifikat_prestasi','other')"`
	FilePath       string `json:"file_path" gorm:"size:500;not null"`
	OriginalName   string `json:"original_name" gorm:"size:255;not null"`

	// Relationships
	Registration Registration `json:"registration,omitempty" gorm:"foreignKey:RegistrationID"`
}

// SystemSetting is a key/value row replacing the legacy flat settings.json
type SystemSetting struct {
	BaseModel
	Key   string `json:"key" gorm:"size:100;not null;uniqueIndex"`
	Value string `json:"value" gorm:"size:500"`
}

// Log model for activity tracking. UserID is NULL for anonymous actions
// (public signup, public enrollment submits).
type ActivityLog struct {
	BaseModel
	UserID     *uint  `json:"user_id"`
	Action     string `json:"action" gorm:"size:100;not null"`
	Resource   string `json:"resource" gorm:"size:100;not null"`
	ResourceID uint   `json:"resource_id"`
	Details    JSON   `json:"details" gorm:"type:json"`
	IPAddress  string `json:"ip_address" gorm:"size:45"`
	UserAgent  string `json:"user_agent" gorm:"size:500"`

	// Relationships
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// Notification model (in-app; frontend polls)
type Notification struct {
	BaseModel
	UserID  uint       `json:"user_id" gorm:"not null;index"`
	Title   string     `json:"title" gorm:"size:255;not null"`
	Message string     `json:"message" gorm:"type:text;not null"`
	Type    string     `json:"type" gorm:"size:50;not null;type:enum('info','warning','error','success')"` // info, warning, error, success
	Read    bool       `json:"read" gorm:"default:false"`
	ReadAt  *time.Time `json:"read_at"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// LogArchive model for tracking archived logs
type LogArchive struct {
	BaseModel
	FileName    string    `json:"file_name" gorm:"size:255;not null"`
	S3Key       string    `json:"s3_key" gorm:"size:500;not null"`
	StartDate   time.Time `json:"start_date" gorm:"not null"`
	EndDate     time.Time `json:"end_date" gorm:"not null"`
	RecordCount int       `json:"record_count" gorm:"not null"`
	FileSize    int64     `json:"file_size" gorm:"not null"`
	Status      string    `json:"status" gorm:"size:50;not null;default:'pending';type:enum('pending','completed','failed')"` // pending, completed, failed
	Error       string    `json:"error" gorm:"type:text"`
}
