package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// CheckPassword compares a password with its hash
func CheckPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// GenerateRandomString generates a random hex string of specified length
func GenerateRandomString(length int) (string, error) {
	bytes := make([]byte, length/2)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// RandomToken generates an alphanumeric token of the given length,
// matching the format of legacy registration links.
func RandomToken(length int) (string, error) {
	b := make([]byte, length)
	max := big.NewInt(int64(len(alphanumeric)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = alphanumeric[n.Int64()]
	}
	return string(b), nil
}

// RandomPassword generates a throwaway alphanumeric password for
// auto-created student accounts and admin resets.
func RandomPassword(length int) (string, error) {
	return RandomToken(length)
}

// DefaultAcademicYear returns the "YYYY/YYYY+1" string used when a
// registration arrives through a legacy school link with no period.
func DefaultAcademicYear(now time.Time) string {
	return fmt.Sprintf("%d/%d", now.Year(), now.Year()+1)
}

// IsValidRole checks if a role is valid
func IsValidRole(role string) bool {
	validRoles := []string{"super_admin", "school_admin", "student"}
	for _, validRole := range validRoles {
		if role == validRole {
			return true
		}
	}
	return false
}

// IsValidRegistrationStatus checks whether a status transition target is accepted
func IsValidRegistrationStatus(status string) bool {
	validStatuses := []string{"verified", "rejected"}
	for _, validStatus := range validStatuses {
		if status == validStatus {
			return true
		}
	}
	return false
}

// IsValidFileType checks whether the uploaded document kind is accepted
func IsValidFileType(fileType string, allowed []string) bool {
	for _, t := range allowed {
		if fileType == t {
			return true
		}
	}
	return false
}

// IsValidFileExtension checks if file extension is allowed
func IsValidFileExtension(filename string, allowedExtensions []string) bool {
	if filename == "" {
		return false
	}

	parts := strings.Split(filename, ".")
	if len(parts) < 2 {
		return false
	}

	ext := strings.ToLower(parts[len(parts)-1])

	for _, allowedExt := range allowedExtensions {
		if ext == strings.ToLower(allowedExt) {
			return true
		}
	}
	return false
}

// MatchesRegistrationLink reports whether a stored link column value matches
// an incoming token. Old rows stored the full frontend URL, so a trailing
// "/<token>" segment also counts.
func MatchesRegistrationLink(stored, token string) bool {
	if stored == "" || token == "" {
		return false
	}
	return stored == token || strings.HasSuffix(stored, "/"+token)
}

// IsDuplicateEntry reports whether err is a MySQL unique key violation.
func IsDuplicateEntry(err error) bool {
	return err != nil && strings.Contains(err.Error(), "Duplicate entry")
}

// SanitizeString removes dangerous characters from string
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")
	input = strings.TrimSpace(input)
	return input
}
