package middleware

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"yuksekolah_go/config"
	"yuksekolah_go/database"
	"yuksekolah_go/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

type Claims struct {
	UserID    uint     `json:"user_id"`
	Email     string   `json:"email"`
	Role      string   `json:"role"`
	SchoolID  *uint    `json:"school_id,omitempty"`
	Abilities []string `json:"abilities"`
	jwt.RegisteredClaims
}

// AbilitiesForRole returns the token ability strings granted to a role.
func AbilitiesForRole(role string) []string {
	switch role {
	case models.RoleSuperAdmin:
		return []string{"schools:manage", "users:manage", "registrations:view-all", "system:configure"}
	case models.RoleSchoolAdmin:
		return []string{"registrations:manage", "school:view", "school:update", "students:manage"}
	case models.RoleStudent:
		return []string{"registration:view-own", "profile:manage", "documents:upload"}
	default:
		return nil
	}
}

// GenerateToken creates a new JWT token for a user and records its ID in
// Redis so logout-all can revoke every outstanding token.
func GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	jti := uuid.New().String()
	claims := &Claims{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		SchoolID:  user.SchoolID,
		Abilities: AbilitiesForRole(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(now.Add(config.AppConfig.JWTExpiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(config.AppConfig.JWTSecret))
	if err != nil {
		return "", err
	}

	trackToken(user.ID, jti, config.AppConfig.JWTExpiresIn)
	return signed, nil
}

// trackToken adds the token ID to the user's active set (best-effort).
func trackToken(userID uint, jti string, ttl time.Duration) {
	rc := database.GetRedisClient()
	if rc == nil {
		return
	}
	ctx := context.Background()
	key := activeTokensKey(userID)
	if err := rc.SAdd(ctx, key, jti).Err(); err == nil {
		rc.Expire(ctx, key, ttl)
	}
}

func activeTokensKey(userID uint) string {
	return "tokens:user:" + strconv.FormatUint(uint64(userID), 10)
}

func blacklistKey(jti string) string {
	return "blacklist:jwt:" + jti
}

func revokedBeforeKey(userID uint) string {
	return "revoked_before:user:" + strconv.FormatUint(uint64(userID), 10)
}

// BlacklistToken revokes a single token by ID until it would have expired.
func BlacklistToken(jti string, expiresAt time.Time) error {
	rc := database.GetRedisClient()
	if rc == nil {
		return fmt.Errorf("redis not available")
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return rc.Set(context.Background(), blacklistKey(jti), "1", ttl).Err()
}

// RevokeAllTokens blacklists every tracked token for the user and records an
// issued-before cutoff for tokens issued on other instances. Returns the
// number of tokens revoked.
func RevokeAllTokens(userID uint) (int, error) {
	rc := database.GetRedisClient()
	if rc == nil {
		return 0, fmt.Errorf("redis not available")
	}
	ctx := context.Background()
	ttl := config.AppConfig.JWTExpiresIn

	jtis, err := rc.SMembers(ctx, activeTokensKey(userID)).Result()
	if err != nil {
		return 0, err
	}
	for _, jti := range jtis {
		rc.Set(ctx, blacklistKey(jti), "1", ttl)
	}
	rc.Del(ctx, activeTokensKey(userID))

	// Cutoff catches tokens that were never tracked (e.g. issued while Redis was down).
	if err := rc.Set(ctx, revokedBeforeKey(userID), time.Now().Unix(), ttl).Err(); err != nil {
		return len(jtis), err
	}
	return len(jtis), nil
}

// isTokenRevoked checks the blacklist and the user-level cutoff.
func isTokenRevoked(claims *Claims) bool {
	rc := database.GetRedisClient()
	if rc == nil {
		return false
	}
	ctx := context.Background()

	if exists, err := rc.Exists(ctx, blacklistKey(claims.ID)).Result(); err == nil && exists > 0 {
		return true
	}

	cutoffStr, err := rc.Get(ctx, revokedBeforeKey(claims.UserID)).Result()
	if err != nil {
		return false
	}
	cutoff, err := strconv.ParseInt(cutoffStr, 10, 64)
	if err != nil {
		return false
	}
	return claims.IssuedAt != nil && claims.IssuedAt.Unix() <= cutoff
}

// JWTMiddleware validates JWT tokens
func JWTMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authorization header",
			})
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}

		claims, err := ParseToken(tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		if isTokenRevoked(claims) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Token revoked",
			})
		}

		// Verify user still exists and is not blocked
		var user models.User
		if err := database.DB.Where("id = ? AND is_active = ?", claims.UserID, true).First(&user).Error; err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "User not found or blocked",
			})
		}

		c.Locals("user", &user)
		c.Locals("claims", claims)

		return c.Next()
	}
}

// OptionalJWTMiddleware resolves the current user when a valid bearer token
// is present but lets anonymous requests through. Used by the public
// registration submission endpoint.
func OptionalJWTMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Next()
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return c.Next()
		}
		claims, err := ParseToken(tokenString)
		if err != nil || isTokenRevoked(claims) {
			return c.Next()
		}
		var user models.User
		if err := database.DB.Where("id = ? AND is_active = ?", claims.UserID, true).First(&user).Error; err != nil {
			return c.Next()
		}
		c.Locals("user", &user)
		c.Locals("claims", claims)
		return c.Next()
	}
}

// ParseToken validates a signed token string and returns its claims.
func ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(config.AppConfig.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// RequireRole middleware checks if user has required role
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals("claims").(*Claims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing user claims",
			})
		}

		for _, role := range roles {
			if claims.Role == role {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient permissions",
		})
	}
}

// RequireSuperAdmin middleware allows only the platform operator
func RequireSuperAdmin() fiber.Handler {
	return RequireRole(models.RoleSuperAdmin)
}

// RequireSchoolAdmin middleware allows only school administrators
func RequireSchoolAdmin() fiber.Handler {
	return RequireRole(models.RoleSchoolAdmin)
}

// GetCurrentUser returns the current authenticated user
func GetCurrentUser(c *fiber.Ctx) (*models.User, error) {
	user, ok := c.Locals("user").(*models.User)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "User not found in context")
	}
	return user, nil
}

// GetCurrentClaims returns the current JWT claims
func GetCurrentClaims(c *fiber.Ctx) (*Claims, error) {
	claims, ok := c.Locals("claims").(*Claims)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Claims not found in context")
	}
	return claims, nil
}
