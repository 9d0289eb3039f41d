package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"yuksekolah_go/config"
	"yuksekolah_go/database"
	"yuksekolah_go/models"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// queuedNotification is the minimal payload stored in Redis. One payload can
// fan out to many users. The DB row is the source of truth; if Redis is down
// we fall back to a direct insert.
type queuedNotification struct {
	UserIDs   []uint    `json:"user_ids"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

const redisListKey = "notifications:queue"

// Service creates in-app notifications, optionally through a Redis queue.
type Service struct {
	db       *gorm.DB
	redis    *redis.Client
	useRedis bool
}

func NewService() *Service {
	return &Service{
		db:       database.GetDB(),
		redis:    database.GetRedisClient(),
		useRedis: config.AppConfig != nil && config.AppConfig.UseRedisNotifications && database.GetRedisClient() != nil,
	}
}

// Notify fans one notification out to the given users. With Redis enabled the
// payload is queued and persisted by the worker; otherwise rows are inserted
// directly.
func (s *Service) Notify(userIDs []uint, title, message, typ string) error {
	if len(userIDs) == 0 {
		return nil
	}
	if typ == "" {
		typ = "info"
	}

	if s.useRedis {
		item := queuedNotification{
			UserIDs:   userIDs,
			Title:     title,
			Message:   message,
			Type:      typ,
			CreatedAt: time.Now(),
		}
		payload, err := json.Marshal(item)
		if err == nil {
			if err := s.redis.LPush(context.Background(), redisListKey, payload).Err(); err == nil {
				return nil
			}
			logrus.Warn("Redis enqueue failed, falling back to direct insert")
		}
	}

	return s.insert(userIDs, title, message, typ)
}

func (s *Service) insert(userIDs []uint, title, message, typ string) error {
	rows := make([]models.Notification, 0, len(userIDs))
	for _, id := range userIDs {
		rows = append(rows, models.Notification{
			UserID:  id,
			Title:   title,
			Message: message,
			Type:    typ,
		})
	}
	return s.db.Create(&rows).Error
}

// NotifySchoolAdmins sends a notification to every active admin of a school.
func (s *Service) NotifySchoolAdmins(schoolID uint, title, message, typ string) error {
	var ids []uint
	err := s.db.Model(&models.User{}).
		Where("school_id = ? AND role = ? AND is_active = ?", schoolID, models.RoleSchoolAdmin, true).
		Pluck("id", &ids).Error
	if err != nil {
		return err
	}
	return s.Notify(ids, title, message, typ)
}

// NotifySuperAdmins sends a notification to every active super admin.
func (s *Service) NotifySuperAdmins(title, message, typ string) error {
	var ids []uint
	err := s.db.Model(&models.User{}).
		Where("role = ? AND is_active = ?", models.RoleSuperAdmin, true).
		Pluck("id", &ids).Error
	if err != nil {
		return err
	}
	return s.Notify(ids, title, message, typ)
}

// MarkRead marks one notification as read, scoped to its owner.
func (s *Service) MarkRead(userID, notificationID uint) error {
	now := time.Now()
	result := s.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Updates(map[string]interface{}{"read": true, "read_at": &now})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkAllRead marks every unread notification of a user as read and returns
// the number of rows touched.
func (s *Service) MarkAllRead(userID uint) (int64, error) {
	now := time.Now()
	result := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND `read` = ?", userID, false).
		Updates(map[string]interface{}{"read": true, "read_at": &now})
	return result.RowsAffected, result.Error
}

// StartWorker drains the Redis queue into the database. Returns immediately
// when Redis notifications are disabled.
func (s *Service) StartWorker(ctx context.Context) {
	if !s.useRedis {
		return
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			res, err := s.redis.BRPop(ctx, 5*time.Second, redisListKey).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
					continue
				}
				logrus.WithError(err).Warn("notification worker BRPOP failed")
				time.Sleep(2 * time.Second)
				continue
			}
			if len(res) < 2 {
				continue
			}

			var item queuedNotification
			if err := json.Unmarshal([]byte(res[1]), &item); err != nil {
				logrus.WithError(err).Warn("dropping malformed queued notification")
				continue
			}
			if err := s.insert(item.UserIDs, item.Title, item.Message, item.Type); err != nil {
				logrus.WithError(err).Error("failed to persist queued notification")
			}
		}
	}()
}
