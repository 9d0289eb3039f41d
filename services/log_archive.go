package services

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"yuksekolah_go/config"
	"yuksekolah_go/database"
	"yuksekolah_go/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// LogArchiveService flushes Redis-cached activity logs to the database and
// archives old rows to S3 as zipped JSON+CSV.
type LogArchiveService struct {
	redisClient *redis.Client
	awsConfig   aws.Config
}

// ArchivedLog is the exported representation stored inside archives
type ArchivedLog struct {
	ID         uint           `json:"id"`
	UserID     *uint          `json:"user_id"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	ResourceID uint           `json:"resource_id"`
	Details    map[string]any `json:"details"`
	IPAddress  string         `json:"ip_address"`
	UserAgent  string         `json:"user_agent"`
	CreatedAt  time.Time      `json:"created_at"`
	UserName   string         `json:"user_name,omitempty"`
	UserRole   string         `json:"user_role,omitempty"`
}

// NewLogArchiveService creates a new service instance
func NewLogArchiveService() *LogArchiveService {
	cfg, err := awscfg.LoadDefaultConfig(context.Background(), awscfg.WithRegion(config.AppConfig.AWSRegion))
	if err != nil {
		logrus.WithError(err).Warn("Failed to load AWS config; S3 operations will fail until configured")
	}

	return &LogArchiveService{
		redisClient: database.GetRedisClient(),
		awsConfig:   cfg,
	}
}

// FlushCachedLogsToDatabase moves logs older than 24h from the Redis
// write-behind cache into the activity_logs table.
func (las *LogArchiveService) FlushCachedLogsToDatabase() error {
	if las.redisClient == nil {
		return fmt.Errorf("redis client not available")
	}

	ctx := context.Background()
	cutoffTime := time.Now().Add(-24 * time.Hour)

	expiredLogs, err := las.redisClient.ZRangeByScore(ctx, "logs:queue", &redis.ZRangeBy{
		Min: "0",
		Max: fmt.Sprintf("%d", cutoffTime.Unix()),
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to get expired logs: %v", err)
	}

	var processedCount, errorCount int

	for _, logKey := range expiredLogs {
		logData, err := las.redisClient.Get(ctx, logKey).Result()
		if err != nil {
			if err != redis.Nil {
				logrus.WithError(err).Errorf("Failed to get log data for key: %s", logKey)
				errorCount++
			}
			continue
		}

		var activityLog models.ActivityLog
		if err := json.Unmarshal([]byte(logData), &activityLog); err != nil {
			logrus.WithError(err).Errorf("Failed to unmarshal log data for key: %s", logKey)
			errorCount++
			continue
		}

		if err := database.DB.Create(&activityLog).Error; err != nil {
			logrus.WithError(err).Error("Failed to save cached log to database")
			errorCount++
			continue
		}

		pipeline := las.redisClient.Pipeline()
		pipeline.Del(ctx, logKey)
		pipeline.ZRem(ctx, "logs:queue", logKey)
		if _, err := pipeline.Exec(ctx); err != nil {
			logrus.WithError(err).Errorf("Failed to remove log from cache: %s", logKey)
		}

		processedCount++
	}

	if processedCount > 0 || errorCount > 0 {
		logrus.Infof("Flushed %d logs to database, %d errors", processedCount, errorCount)
	}
	return nil
}

// ArchiveOldLogs archives logs older than daysOld to S3 and deletes them.
func (las *LogArchiveService) ArchiveOldLogs(daysOld int) error {
	if daysOld < 7 {
		return fmt.Errorf("minimum archive age is 7 days for safety")
	}

	cutoffDate := time.Now().AddDate(0, 0, -daysOld)

	batchSize := 1000
	var allLogs []ArchivedLog

	for offset := 0; ; offset += batchSize {
		var logs []models.ActivityLog
		err := database.DB.
			Preload("User").
			Where("created_at < ?", cutoffDate).
			Limit(batchSize).
			Offset(offset).
			Find(&logs).Error
		if err != nil {
			return fmt.Errorf("failed to fetch logs for archiving: %v", err)
		}
		if len(logs) == 0 {
			break
		}

		for _, entry := range logs {
			archived := ArchivedLog{
				ID:         entry.ID,
				UserID:     entry.UserID,
				Action:     entry.Action,
				Resource:   entry.Resource,
				ResourceID: entry.ResourceID,
				IPAddress:  entry.IPAddress,
				UserAgent:  entry.UserAgent,
				CreatedAt:  entry.CreatedAt,
			}

			if len(entry.Details) > 0 {
				var details map[string]any
				if err := json.Unmarshal(entry.Details, &details); err == nil {
					archived.Details = details
				}
			}

			if entry.User != nil && entry.User.ID > 0 {
				archived.UserName = entry.User.Name
				archived.UserRole = entry.User.Role
			}

			allLogs = append(allLogs, archived)
		}
	}

	if len(allLogs) == 0 {
		return nil
	}
	logrus.Infof("Archiving %d logs older than %s", len(allLogs), cutoffDate.Format("2006-01-02"))

	archiveFileName := fmt.Sprintf("activity_logs_%s.zip", cutoffDate.Format("2006-01-02"))
	zipBuffer, err := las.createZipArchive(allLogs, archiveFileName)
	if err != nil {
		return fmt.Errorf("failed to create ZIP archive: %v", err)
	}

	s3Key := fmt.Sprintf("logs/archived/%d/%02d/%s",
		cutoffDate.Year(),
		cutoffDate.Month(),
		archiveFileName)

	if err := las.uploadToS3(s3Key, zipBuffer); err != nil {
		return fmt.Errorf("failed to upload archive to S3: %v", err)
	}

	result := database.DB.Where("created_at < ?", cutoffDate).Delete(&models.ActivityLog{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete archived logs from database: %v", result.Error)
	}

	logrus.Infof("Archived %d logs to s3://%s, deleted %d rows", len(allLogs), s3Key, result.RowsAffected)

	archiveMetadata := models.LogArchive{
		FileName:    archiveFileName,
		S3Key:       s3Key,
		StartDate:   allLogs[0].CreatedAt,
		EndDate:     cutoffDate,
		RecordCount: len(allLogs),
		FileSize:    int64(zipBuffer.Len()),
		Status:      "completed",
	}
	if err := database.DB.Create(&archiveMetadata).Error; err != nil {
		logrus.WithError(err).Error("Failed to save archive metadata")
	}

	return nil
}

// createZipArchive creates a ZIP file containing the logs as JSON and CSV
func (las *LogArchiveService) createZipArchive(logs []ArchivedLog, fileName string) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	zipWriter := zip.NewWriter(buf)

	logsFile, err := zipWriter.Create("activity_logs.json")
	if err != nil {
		return nil, fmt.Errorf("failed to create logs file in ZIP: %v", err)
	}

	encoder := json.NewEncoder(logsFile)
	encoder.SetIndent("", "  ")
	logData := map[string]any{
		"export_date":    time.Now().UTC(),
		"record_count":   len(logs),
		"format_version": "1.0",
		"logs":           logs,
	}
	if err := encoder.Encode(logData); err != nil {
		return nil, fmt.Errorf("failed to encode logs to JSON: %v", err)
	}

	metadataFile, err := zipWriter.Create("metadata.json")
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata file in ZIP: %v", err)
	}
	metadata := map[string]any{
		"file_name":    fileName,
		"created_at":   time.Now().UTC(),
		"record_count": len(logs),
		"date_range": map[string]any{
			"start": logs[0].CreatedAt,
			"end":   logs[len(logs)-1].CreatedAt,
		},
		"schema_version": "1.0",
		"description":    "Yuksekolah Activity Logs Archive",
	}
	if err := json.NewEncoder(metadataFile).Encode(metadata); err != nil {
		return nil, fmt.Errorf("failed to encode metadata to JSON: %v", err)
	}

	csvFile, err := zipWriter.Create("activity_logs.csv")
	if err != nil {
		return nil, fmt.Errorf("failed to create CSV file in ZIP: %v", err)
	}

	csvHeader := "ID,User ID,Name,Role,Action,Resource,Resource ID,IP Address,User Agent,Created At,Details\n"
	csvFile.Write([]byte(csvHeader))

	for _, entry := range logs {
		details := ""
		if entry.Details != nil {
			if detailsBytes, err := json.Marshal(entry.Details); err == nil {
				details = strings.ReplaceAll(string(detailsBytes), "\"", "\"\"")
			}
		}
		userID := ""
		if entry.UserID != nil {
			userID = fmt.Sprintf("%d", *entry.UserID)
		}
		csvLine := fmt.Sprintf("%d,%s,%s,%s,%s,%s,%d,%s,%s,%s,\"%s\"\n",
			entry.ID,
			userID,
			entry.UserName,
			entry.UserRole,
			entry.Action,
			entry.Resource,
			entry.ResourceID,
			entry.IPAddress,
			entry.UserAgent,
			entry.CreatedAt.Format("2006-01-02 15:04:05"),
			details,
		)
		csvFile.Write([]byte(csvLine))
	}

	if err := zipWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close ZIP writer: %v", err)
	}

	return buf, nil
}

// uploadToS3 uploads data to the archive bucket
func (las *LogArchiveService) uploadToS3(key string, data *bytes.Buffer) error {
	if las.awsConfig.Region == "" {
		return fmt.Errorf("AWS not configured")
	}

	s3Client := s3.NewFromConfig(las.awsConfig)
	bucketName := config.AppConfig.S3BucketName

	_, err := s3Client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket:      &bucketName,
		Key:         &key,
		Body:        bytes.NewReader(data.Bytes()),
		ContentType: aws.String("application/zip"),
	})
	return err
}

// downloadFromS3 downloads a key from the archive bucket
func (las *LogArchiveService) downloadFromS3(key string) (io.ReadCloser, error) {
	if las.awsConfig.Region == "" {
		return nil, fmt.Errorf("AWS not configured")
	}

	s3Client := s3.NewFromConfig(las.awsConfig)
	bucketName := config.AppConfig.S3BucketName

	result, err := s3Client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: &bucketName,
		Key:    &key,
	})
	if err != nil {
		return nil, err
	}
	return result.Body, nil
}

// GetArchivedLogs retrieves the list of archived log files
func (las *LogArchiveService) GetArchivedLogs() ([]models.LogArchive, error) {
	var archives []models.LogArchive
	if err := database.DB.Order("created_at DESC").Find(&archives).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve archived logs: %v", err)
	}
	return archives, nil
}

// DownloadArchivedLogs downloads a specific archive from S3
func (las *LogArchiveService) DownloadArchivedLogs(archiveID uint) (io.ReadCloser, string, error) {
	var archive models.LogArchive
	if err := database.DB.First(&archive, archiveID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, "", fmt.Errorf("archive not found")
		}
		return nil, "", fmt.Errorf("failed to retrieve archive: %v", err)
	}

	reader, err := las.downloadFromS3(archive.S3Key)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download archive from S3: %v", err)
	}
	return reader, archive.FileName, nil
}

// StartLogMaintenanceScheduler registers the flush and archive cron jobs:
// hourly cache flush, nightly archive of logs older than 30 days.
func (las *LogArchiveService) StartLogMaintenanceScheduler() *cron.Cron {
	c := cron.New()

	if _, err := c.AddFunc("@hourly", func() {
		if err := las.FlushCachedLogsToDatabase(); err != nil {
			logrus.WithError(err).Warn("scheduled FlushCachedLogsToDatabase failed")
		}
	}); err != nil {
		logrus.WithError(err).Error("Failed to register log flush job")
	}

	if _, err := c.AddFunc("0 3 * * *", func() {
		if err := las.ArchiveOldLogs(30); err != nil {
			logrus.WithError(err).Warn("scheduled ArchiveOldLogs failed")
		}
	}); err != nil {
		logrus.WithError(err).Error("Failed to register log archive job")
	}

	c.Start()

	// Catch up once at boot so a restart never loses cached entries.
	go func() {
		if err := las.FlushCachedLogsToDatabase(); err != nil {
			logrus.WithError(err).Warn("initial FlushCachedLogsToDatabase failed")
		}
	}()

	return c
}
