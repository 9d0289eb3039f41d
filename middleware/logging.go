package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"yuksekolah_go/database"
	"yuksekolah_go/models"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// LoggerMiddleware logs HTTP requests
func LoggerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start)
		status := c.Response().StatusCode()

		logrus.WithFields(logrus.Fields{
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"duration":   duration.String(),
			"ip":         c.IP(),
			"user_agent": c.Get("User-Agent"),
		}).Info("HTTP Request")

		return err
	}
}

// LogActivity records an audit row for a mutation. Rows are cached in Redis
// first (24-hour TTL) and flushed to the database by the log maintenance
// scheduler; when Redis is unavailable they are written directly.
func LogActivity(c *fiber.Ctx, action, resource string, resourceID uint, details interface{}) {
	user, _ := GetCurrentUser(c)
	activityLog := newActivityLog(user, action, resource, resourceID, details, c.IP(), c.Get("User-Agent"))

	go func(al models.ActivityLog) {
		defer func() {
			if r := recover(); r != nil {
				logrus.WithField("panic", r).Error("panic recovered in LogActivity goroutine")
			}
		}()

		if err := cacheActivityLog(al); err != nil {
			logrus.WithError(err).Warn("Failed to cache activity log, saving directly to database")
			if database.DB == nil {
				logrus.Error("database.DB is nil; cannot save activity log to database")
				return
			}
			if dbErr := database.DB.Create(&al).Error; dbErr != nil {
				logrus.WithError(dbErr).Error("Failed to save activity log to database")
			}
		}
	}(activityLog)
}

// newActivityLog builds an audit row. A nil user records the action as
// anonymous with a NULL user_id, keeping the activity_logs FK satisfied.
func newActivityLog(user *models.User, action, resource string, resourceID uint, details interface{}, ip, userAgent string) models.ActivityLog {
	var userID *uint
	if user != nil {
		id := user.ID
		userID = &id
	}

	var detailsJSON models.JSON
	if details != nil {
		if detailsBytes, err := json.Marshal(details); err == nil {
			detailsJSON = detailsBytes
		}
	}

	entry := models.ActivityLog{
		UserID:     userID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Details:    detailsJSON,
		IPAddress:  ip,
		UserAgent:  userAgent,
	}
	entry.CreatedAt = time.Now()
	return entry
}

// cacheActivityLog stores an activity log in Redis with 24-hour TTL
func cacheActivityLog(log models.ActivityLog) error {
	redisClient := database.GetRedisClient()
	if redisClient == nil {
		return fmt.Errorf("redis client is nil")
	}
	ctx := context.Background()

	logData, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("failed to marshal log: %v", err)
	}

	uid := uint(0)
	if log.UserID != nil {
		uid = *log.UserID
	}
	cacheKey := fmt.Sprintf("log:%d:%s:%d", uid, log.Action, time.Now().UnixNano())

	if err := redisClient.Set(ctx, cacheKey, logData, 24*time.Hour).Err(); err != nil {
		return fmt.Errorf("failed to cache log: %v", err)
	}

	// Sorted set makes batch flushing by age cheap
	if err := redisClient.ZAdd(ctx, "logs:queue", &redis.Z{
		Score:  float64(time.Now().Unix()),
		Member: cacheKey,
	}).Err(); err != nil {
		logrus.WithError(err).Error("Failed to add log to processing queue")
	}

	return nil
}

// LogActivityMiddleware automatically logs CRUD operations
func LogActivityMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Skip logging for GET requests and auth endpoints
		if c.Method() == "GET" || strings.Contains(c.Path(), "/login") || strings.Contains(c.Path(), "/logout") {
			return c.Next()
		}

		err := c.Next()

		var action string
		switch c.Method() {
		case "POST":
			action = "CREATE"
		case "PUT", "PATCH":
			action = "UPDATE"
		case "DELETE":
			action = "DELETE"
		default:
			return err
		}

		pathParts := strings.Split(strings.Trim(c.Path(), "/"), "/")
		var resource string
		if len(pathParts) >= 2 {
			resource = pathParts[1] // assumes /api/resource format
		}

		var resourceID uint
		if id := c.Params("id"); id != "" {
			if parsedID, parseErr := strconv.ParseUint(id, 10, 32); parseErr == nil {
				resourceID = uint(parsedID)
			}
		}

		// Log only if request was successful
		if c.Response().StatusCode() < 400 {
			LogActivity(c, action, resource, resourceID, nil)
		}

		return err
	}
}
