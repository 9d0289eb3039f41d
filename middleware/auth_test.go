package middleware

import (
	"testing"
	"time"

	"yuksekolah_go/config"
	"yuksekolah_go/models"
)

func setTestConfig(t *testing.T) {
	t.Helper()
	old := config.AppConfig
	config.AppConfig = &config.Config{
		JWTSecret:    "test-secret-for-auth-tests",
		JWTExpiresIn: time.Hour,
	}
	t.Cleanup(func() { config.AppConfig = old })
}

func TestAbilitiesForRole(t *testing.T) {
	tests := []struct {
		role string
		want []string
	}{
		{models.RoleSuperAdmin, []string{"schools:manage", "users:manage", "registrations:view-all", "system:configure"}},
		{models.RoleSchoolAdmin, []string{"registrations:manage", "school:view", "school:update", "students:manage"}},
		{models.RoleStudent, []string{"registration:view-own", "profile:manage", "documents:upload"}},
		{"unknown", nil},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			got := AbilitiesForRole(tt.role)
			if len(got) != len(tt.want) {
				t.Fatalf("AbilitiesForRole(%q) = %v, want %v", tt.role, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ability[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestGenerateAndParseToken(t *testing.T) {
	setTestConfig(t)

	schoolID := uint(7)
	user := &models.User{
		BaseModel: models.BaseModel{ID: 42},
		Email:     "admin@sekolah.id",
		Role:      models.RoleSchoolAdmin,
		SchoolID:  &schoolID,
	}

	token, err := GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}

	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken returned error: %v", err)
	}

	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
	if claims.Email != "admin@sekolah.id" {
		t.Errorf("Email = %q", claims.Email)
	}
	if claims.Role != models.RoleSchoolAdmin {
		t.Errorf("Role = %q", claims.Role)
	}
	if claims.SchoolID == nil || *claims.SchoolID != 7 {
		t.Errorf("SchoolID = %v, want 7", claims.SchoolID)
	}
	if claims.ID == "" {
		t.Error("token must carry a unique ID (jti)")
	}
	if len(claims.Abilities) == 0 {
		t.Error("token must carry role abilities")
	}
	if claims.ExpiresAt == nil || time.Until(claims.ExpiresAt.Time) <= 0 {
		t.Error("token must have a future expiry")
	}
}

func TestParseTokenRejectsTampered(t *testing.T) {
	setTestConfig(t)

	user := &models.User{BaseModel: models.BaseModel{ID: 1}, Email: "a@b.c", Role: models.RoleStudent}
	token, err := GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}

	if _, err := ParseToken(token + "x"); err == nil {
		t.Error("tampered token must not parse")
	}

	config.AppConfig.JWTSecret = "a-different-secret-entirely"
	if _, err := ParseToken(token); err == nil {
		t.Error("token signed with another secret must not parse")
	}
}

func TestTokenIDsAreUnique(t *testing.T) {
	setTestConfig(t)

	user := &models.User{BaseModel: models.BaseModel{ID: 1}, Email: "a@b.c", Role: models.RoleStudent}
	t1, err := GenerateToken(user)
	if err != nil {
		t.Fatal(err)
	}
	t2, err := GenerateToken(user)
	if err != nil {
		t.Fatal(err)
	}

	c1, _ := ParseToken(t1)
	c2, _ := ParseToken(t2)
	if c1.ID == c2.ID {
		t.Error("two tokens must not share a jti")
	}
}
