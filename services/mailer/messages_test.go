package mailer

import (
	"strings"
	"testing"

	"yuksekolah_go/config"
	"yuksekolah_go/models"
)

func setTestConfig(t *testing.T) {
	t.Helper()
	old := config.AppConfig
	config.AppConfig = &config.Config{FrontendURL: "https://yuksekolah.id"}
	t.Cleanup(func() { config.AppConfig = old })
}

func TestRegistrationURL(t *testing.T) {
	setTestConfig(t)

	tests := []struct {
		stored string
		want   string
	}{
		{"abc123", "https://yuksekolah.id/register/abc123"},
		{"https://old.example.com/register/xyz", "https://old.example.com/register/xyz"},
	}
	for _, tt := range tests {
		if got := RegistrationURL(tt.stored); got != tt.want {
			t.Errorf("RegistrationURL(%q) = %q, want %q", tt.stored, got, tt.want)
		}
	}
}

func TestSchoolVerifiedMessage(t *testing.T) {
	setTestConfig(t)

	school := &models.School{Name: "SMA Negeri 1", RegistrationLink: "tok123"}
	admin := &models.User{Name: "Ibu Sari", Email: "sari@sekolah.id"}

	msg := SchoolVerified(school, admin)
	if msg.ToEmail != "sari@sekolah.id" {
		t.Errorf("ToEmail = %q", msg.ToEmail)
	}
	if !strings.Contains(msg.TextContent, "https://yuksekolah.id/register/tok123") {
		t.Error("verified email must contain the public registration URL")
	}
	if !strings.Contains(msg.TextContent, "https://yuksekolah.id/login") {
		t.Error("verified email must contain the login URL")
	}
	if !strings.Contains(msg.TextContent, school.Name) {
		t.Error("verified email must greet the school by name")
	}
}

func TestStudentRegisteredMessage(t *testing.T) {
	setTestConfig(t)

	student := &models.User{Name: "Budi", Email: "budi@mail.id"}
	school := &models.School{Name: "SMA Negeri 1"}

	withPassword := StudentRegistered(student, school, "rahasia99")
	if !strings.Contains(withPassword.TextContent, "rahasia99") {
		t.Error("new-account email must include the generated password")
	}
	if !strings.Contains(withPassword.TextContent, "budi@mail.id") {
		t.Error("new-account email must include the login email")
	}

	withoutPassword := StudentRegistered(student, school, "")
	if strings.Contains(withoutPassword.TextContent, "Password :") {
		t.Error("returning-student email must not include credentials")
	}
	if !strings.Contains(withoutPassword.TextContent, school.Name) {
		t.Error("email must mention the school name")
	}
}

func TestSchoolRejectedMessage(t *testing.T) {
	setTestConfig(t)

	school := &models.School{Name: "SMA Swasta X"}
	admin := &models.User{Name: "Pak Andi", Email: "andi@x.id"}

	msg := SchoolRejected(school, admin, "Dokumen NPSN tidak valid")
	if !strings.Contains(msg.TextContent, "Dokumen NPSN tidak valid") {
		t.Error("rejection email must carry the reason")
	}
}

func TestNewReturnsConsoleMailerWithoutAPIKey(t *testing.T) {
	setTestConfig(t)

	if _, ok := New().(*consoleMailer); !ok {
		t.Error("expected console mailer when no SendGrid API key is configured")
	}

	config.AppConfig.SendgridAPIKey = "SG.test"
	if _, ok := New().(*sendgridMailer); !ok {
		t.Error("expected SendGrid mailer when an API key is configured")
	}
}

func TestTextToHTMLEscapes(t *testing.T) {
	html := textToHTML("a<b\n\nc&d")
	if strings.Contains(html, "<b") {
		t.Error("HTML body must escape angle brackets")
	}
	if !strings.Contains(html, "</p><p>") {
		t.Error("paragraph breaks must become <p> boundaries")
	}
}
