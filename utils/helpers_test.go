package utils

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("secret-password")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if hash == "secret-password" {
		t.Fatal("hash must not equal the plaintext password")
	}
	if err := CheckPassword("secret-password", hash); err != nil {
		t.Errorf("CheckPassword rejected the correct password: %v", err)
	}
	if err := CheckPassword("wrong-password", hash); err == nil {
		t.Error("CheckPassword accepted a wrong password")
	}
}

func TestRandomToken(t *testing.T) {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	token, err := RandomToken(32)
	if err != nil {
		t.Fatalf("RandomToken returned error: %v", err)
	}
	if len(token) != 32 {
		t.Fatalf("expected 32 chars, got %d", len(token))
	}
	for _, r := range token {
		if !strings.ContainsRune(alphabet, r) {
			t.Fatalf("token contains unexpected character %q", r)
		}
	}

	other, err := RandomToken(32)
	if err != nil {
		t.Fatalf("RandomToken returned error: %v", err)
	}
	if token == other {
		t.Error("two generated tokens should not collide")
	}
}

func TestDefaultAcademicYear(t *testing.T) {
	tests := []struct {
		now  time.Time
		want string
	}{
		{time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), "2025/2026"},
		{time.Date(2025, 12, 31, 23, 59, 0, 0, time.UTC), "2025/2026"},
		{time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC), "2030/2031"},
	}
	for _, tt := range tests {
		if got := DefaultAcademicYear(tt.now); got != tt.want {
			t.Errorf("DefaultAcademicYear(%v) = %q, want %q", tt.now, got, tt.want)
		}
	}
}

func TestIsValidRole(t *testing.T) {
	tests := []struct {
		role string
		want bool
	}{
		{"super_admin", true},
		{"school_admin", true},
		{"student", true},
		{"admin", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsValidRole(tt.role); got != tt.want {
			t.Errorf("IsValidRole(%q) = %v, want %v", tt.role, got, tt.want)
		}
	}
}

func TestIsValidRegistrationStatus(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{"verified", true},
		{"rejected", true},
		{"submitted", false},
		{"draft", false},
	}
	for _, tt := range tests {
		if got := IsValidRegistrationStatus(tt.status); got != tt.want {
			t.Errorf("IsValidRegistrationStatus(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestIsValidFileExtension(t *testing.T) {
	allowed := []string{"jpg", "jpeg", "png", "webp", "pdf"}

	tests := []struct {
		filename string
		want     bool
	}{
		{"photo.jpg", true},
		{"photo.JPG", true},
		{"ijazah.pdf", true},
		{"archive.zip", false},
		{"noextension", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsValidFileExtension(tt.filename, allowed); got != tt.want {
			t.Errorf("IsValidFileExtension(%q) = %v, want %v", tt.filename, got, tt.want)
		}
	}
}

func TestMatchesRegistrationLink(t *testing.T) {
	tests := []struct {
		name   string
		stored string
		token  string
		want   bool
	}{
		{"exact token", "abc123XYZ", "abc123XYZ", true},
		{"legacy full url", "https://yuksekolah.id/register/abc123XYZ", "abc123XYZ", true},
		{"different token", "abc123XYZ", "def456", false},
		{"suffix without slash", "xxabc123XYZ", "abc123XYZ", false},
		{"empty stored", "", "abc123XYZ", false},
		{"empty token", "abc123XYZ", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchesRegistrationLink(tt.stored, tt.token); got != tt.want {
				t.Errorf("MatchesRegistrationLink(%q, %q) = %v, want %v", tt.stored, tt.token, got, tt.want)
			}
		})
	}
}

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  SMA Negeri 1  ", "SMA Negeri 1"},
		{"with\x00null", "withnull"},
		{"clean", "clean"},
	}
	for _, tt := range tests {
		if got := SanitizeString(tt.in); got != tt.want {
			t.Errorf("SanitizeString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsDuplicateEntry(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"mysql unique violation", errors.New("Error 1062 (23000): Duplicate entry 'budi@mail.id' for key 'users.idx_users_email'"), true},
		{"other error", errors.New("connection refused"), false},
		{"nil error", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDuplicateEntry(tt.err); got != tt.want {
				t.Errorf("IsDuplicateEntry(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
