package models

import (
	"sync"
	"testing"
	"time"

	"gorm.io/gorm/schema"
)

func TestJSONValueAndScan(t *testing.T) {
	j := JSON(`{"name":"Budi"}`)
	v, err := j.Value()
	if err != nil {
		t.Fatalf("Value returned error: %v", err)
	}
	if v != `{"name":"Budi"}` {
		t.Errorf("Value = %v", v)
	}

	var scanned JSON
	if err := scanned.Scan([]byte(`{"x":1}`)); err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if string(scanned) != `{"x":1}` {
		t.Errorf("Scan result = %s", scanned)
	}

	var nullJSON JSON
	if err := nullJSON.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) returned error: %v", err)
	}
	if !nullJSON.IsNull() {
		t.Error("scanning nil must produce a null JSON")
	}

	if v, _ := nullJSON.Value(); v != nil {
		t.Errorf("null JSON Value = %v, want nil", v)
	}
}

func TestStringListContains(t *testing.T) {
	list := StringList{"IPA", "IPS", "Bahasa"}
	if !list.Contains("IPA") {
		t.Error("expected Contains(IPA) = true")
	}
	if list.Contains("ipa") {
		t.Error("Contains must be case sensitive")
	}
	if (StringList{}).Contains("IPA") {
		t.Error("empty list must not contain anything")
	}
}

func TestStringListScan(t *testing.T) {
	var list StringList
	if err := list.Scan([]byte(`["IPA","IPS"]`)); err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if len(list) != 2 || list[0] != "IPA" {
		t.Errorf("Scan result = %v", list)
	}
}

func TestSchoolIsActive(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{SchoolStatusActive, true},
		{SchoolStatusPending, false},
		{SchoolStatusInactive, false},
	}
	for _, tt := range tests {
		s := School{Status: tt.status}
		if got := s.IsActive(); got != tt.want {
			t.Errorf("IsActive() with status %q = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestUserRoleHelpers(t *testing.T) {
	u := User{Role: RoleSchoolAdmin}
	if !u.IsSchoolAdmin() || u.IsSuperAdmin() || u.IsStudent() {
		t.Error("role helpers disagree for school_admin")
	}
}

func TestPeriodCanAcceptRegistration(t *testing.T) {
	quota10 := 10
	now := time.Now()

	tests := []struct {
		name   string
		period RegistrationPeriod
		want   bool
	}{
		{"open unlimited", RegistrationPeriod{IsOpen: true}, true},
		{"open under quota", RegistrationPeriod{IsOpen: true, Quota: &quota10, RegisteredCount: 9}, true},
		{"quota reached", RegistrationPeriod{IsOpen: true, Quota: &quota10, RegisteredCount: 10}, false},
		{"closed", RegistrationPeriod{IsOpen: false}, false},
		{"ended", RegistrationPeriod{IsOpen: true, EndedAt: &now}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.period.CanAcceptRegistration(); got != tt.want {
				t.Errorf("CanAcceptRegistration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPeriodRemainingQuota(t *testing.T) {
	quota := 50

	p := RegistrationPeriod{Quota: &quota, RegisteredCount: 20}
	if got := p.RemainingQuota(); got == nil || *got != 30 {
		t.Errorf("RemainingQuota() = %v, want 30", got)
	}

	p.RegisteredCount = 60
	if got := p.RemainingQuota(); got == nil || *got != 0 {
		t.Errorf("oversubscribed RemainingQuota() = %v, want 0", got)
	}

	unlimited := RegistrationPeriod{RegisteredCount: 100}
	if got := unlimited.RemainingQuota(); got != nil {
		t.Errorf("unlimited RemainingQuota() = %v, want nil", *got)
	}
}

func TestPeriodHasProgram(t *testing.T) {
	p := RegistrationPeriod{Programs: StringList{"IPA", "IPS"}}
	if !p.HasProgram("IPS") {
		t.Error("expected HasProgram(IPS) = true")
	}
	if p.HasProgram("Bahasa") {
		t.Error("expected HasProgram(Bahasa) = false")
	}
}

func TestPeriodIsOpenColumnHasNoDefault(t *testing.T) {
	s, err := schema.Parse(&RegistrationPeriod{}, &sync.Map{}, schema.NamingStrategy{})
	if err != nil {
		t.Fatalf("schema parse: %v", err)
	}
	field := s.LookUpField("IsOpen")
	if field == nil {
		t.Fatal("is_open field not found")
	}
	if field.HasDefaultValue {
		t.Error("is_open must not declare a column default; a period created closed would be stored open")
	}
}

func TestActivityLogUserIDIsNullable(t *testing.T) {
	s, err := schema.Parse(&ActivityLog{}, &sync.Map{}, schema.NamingStrategy{})
	if err != nil {
		t.Fatalf("schema parse: %v", err)
	}
	field := s.LookUpField("UserID")
	if field == nil {
		t.Fatal("user_id field not found")
	}
	if field.NotNull {
		t.Error("user_id must be nullable for anonymous audit rows")
	}
}

func TestPeriodIsEnded(t *testing.T) {
	p := RegistrationPeriod{}
	if p.IsEnded() {
		t.Error("period without ended_at must not be ended")
	}
	now := time.Now()
	p.EndedAt = &now
	if !p.IsEnded() {
		t.Error("period with ended_at must be ended")
	}
}
