package controllers

import (
	"testing"

	"yuksekolah_go/models"
	"yuksekolah_go/utils"

	"github.com/gofiber/fiber/v2"
)

func TestLoginGate(t *testing.T) {
	hashed, err := utils.HashPassword("correct-horse-9")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	tests := []struct {
		name     string
		active   bool
		password string
		wantCode int
		wantMsg  string
	}{
		{"active account, correct password", true, "correct-horse-9", 0, ""},
		{"active account, wrong password", true, "wrong", fiber.StatusUnauthorized, "Invalid credentials"},
		{"blocked account, correct password", false, "correct-horse-9", fiber.StatusForbidden, "Account is blocked"},
		{"blocked account, wrong password", false, "wrong", fiber.StatusForbidden, "Account is blocked"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := &models.User{Password: hashed, IsActive: tt.active}
			fe := loginGate(user, tt.password)
			if tt.wantCode == 0 {
				if fe != nil {
					t.Errorf("loginGate returned %d %q, want nil", fe.Code, fe.Message)
				}
				return
			}
			if fe == nil || fe.Code != tt.wantCode || fe.Message != tt.wantMsg {
				t.Errorf("loginGate = %v, want %d %q", fe, tt.wantCode, tt.wantMsg)
			}
		})
	}
}
