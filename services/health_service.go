package services

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"yuksekolah_go/config"
	"yuksekolah_go/database"
)

const (
	statusOK       = "ok"
	statusDegraded = "degraded"
	statusCritical = "critical"

	probeUp       = "up"
	probeDown     = "down"
	probeDisabled = "disabled"

	defaultServiceName  = "Yuksekolah API"
	defaultVersion      = "1.0.0"
	defaultProbeTimeout = 1500 * time.Millisecond
)

// HealthService probes the platform's dependencies and summarizes the state
// of the registration pipeline for the /health endpoint.
type HealthService struct {
	serviceName string
	version     string
	startTime   time.Time
	timeout     time.Duration
}

// HealthReport is the /health response body.
type HealthReport struct {
	Status        string        `json:"status"`
	Service       string        `json:"service"`
	Version       string        `json:"version"`
	Environment   string        `json:"environment"`
	Time          time.Time     `json:"time"`
	UptimeSeconds float64       `json:"uptime_seconds"`
	UptimeHuman   string        `json:"uptime_human"`
	Probes        []ProbeResult `json:"probes"`
	Platform      PlatformState `json:"platform"`
	Runtime       RuntimeInfo   `json:"runtime"`
}

// ProbeResult captures one dependency check.
type ProbeResult struct {
	Name      string                 `json:"name"`
	Status    string                 `json:"status"`
	LatencyMs int64                  `json:"latency_ms"`
	Error     string                 `json:"error,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// PlatformState reports the intake gates and background queue depths.
type PlatformState struct {
	RegistrationAllowed   bool   `json:"registration_allowed"`
	MaintenanceMode       bool   `json:"maintenance_mode"`
	UseRedisNotifications bool   `json:"use_redis_notifications"`
	PendingActivityLogs   *int64 `json:"pending_activity_logs,omitempty"`
	PendingNotifications  *int64 `json:"pending_notifications,omitempty"`
}

// RuntimeInfo captures Go runtime diagnostics.
type RuntimeInfo struct {
	GoVersion      string `json:"go_version"`
	Goroutines     int    `json:"goroutines"`
	HeapAllocBytes uint64 `json:"heap_alloc_bytes"`
	SysBytes       uint64 `json:"sys_bytes"`
	NumGC          uint32 `json:"num_gc"`
}

// NewHealthService creates a health service with sensible defaults.
func NewHealthService(serviceName, version string) *HealthService {
	if strings.TrimSpace(serviceName) == "" {
		serviceName = defaultServiceName
	}
	if strings.TrimSpace(version) == "" {
		version = defaultVersion
	}
	return &HealthService{
		serviceName: serviceName,
		version:     version,
		startTime:   time.Now(),
		timeout:     defaultProbeTimeout,
	}
}

// GetHealthReport runs all probes and assembles the report.
func (s *HealthService) GetHealthReport() HealthReport {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	uptime := time.Since(s.startTime)
	if uptime < 0 {
		uptime = 0
	}

	report := HealthReport{
		Status:        statusOK,
		Service:       s.serviceName,
		Version:       s.version,
		Environment:   currentEnvironment(),
		Time:          time.Now().UTC(),
		UptimeSeconds: uptime.Seconds(),
		UptimeHuman:   formatUptime(uptime),
	}

	dbProbe := s.probeDatabase(ctx)
	report.Probes = append(report.Probes, dbProbe)
	if dbProbe.Status == probeDown {
		report.Status = worstStatus(report.Status, statusCritical)
	}

	redisProbe, queues := s.probeRedis(ctx)
	report.Probes = append(report.Probes, redisProbe)
	if redisProbe.Status == probeDown {
		report.Status = worstStatus(report.Status, statusDegraded)
	}

	report.Platform = s.platformState(queues)
	report.Runtime = collectRuntimeInfo()
	return report
}

// HTTPStatusForOverall maps the overall status to an HTTP status code. Only
// a dead database makes the service unavailable; Redis is best effort.
func (s *HealthService) HTTPStatusForOverall(status string) int {
	if status == statusCritical {
		return 503
	}
	return 200
}

func (s *HealthService) probeDatabase(ctx context.Context) ProbeResult {
	probe := ProbeResult{Name: "mysql"}

	if database.DB == nil {
		probe.Status = probeDown
		probe.Error = "database connection not initialised"
		return probe
	}
	sqlDB, err := database.DB.DB()
	if err != nil {
		probe.Status = probeDown
		probe.Error = fmt.Sprintf("sql DB handle error: %v", err)
		return probe
	}

	pingCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	start := time.Now()
	err = sqlDB.PingContext(pingCtx)
	probe.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		probe.Status = probeDown
		probe.Error = err.Error()
		return probe
	}

	stats := sqlDB.Stats()
	probe.Status = probeUp
	probe.Details = map[string]interface{}{
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
		"idle":             stats.Idle,
		"wait_count":       stats.WaitCount,
	}
	return probe
}

// queueDepths holds the Redis queue sizes feeding the platform state.
type queueDepths struct {
	activityLogs  *int64
	notifications *int64
}

func (s *HealthService) probeRedis(ctx context.Context) (ProbeResult, queueDepths) {
	probe := ProbeResult{Name: "redis"}
	var depths queueDepths

	client := database.GetRedisClient()
	if client == nil {
		probe.Status = probeDisabled
		return probe, depths
	}

	pingCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	start := time.Now()
	err := client.Ping(pingCtx).Err()
	probe.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		probe.Status = probeDown
		probe.Error = err.Error()
		return probe, depths
	}

	probe.Status = probeUp
	probe.Details = map[string]interface{}{"address": client.Options().Addr}

	// The write-behind audit queue and the notification fan-out queue; a
	// growing backlog means the flush cron or the worker has stalled.
	if n, err := client.ZCard(ctx, "logs:queue").Result(); err == nil {
		depths.activityLogs = &n
		probe.Details["pending_activity_logs"] = n
	}
	if n, err := client.LLen(ctx, "notifications:queue").Result(); err == nil {
		depths.notifications = &n
		probe.Details["pending_notifications"] = n
	}
	return probe, depths
}

func (s *HealthService) platformState(queues queueDepths) PlatformState {
	settings := NewSettingsService()
	state := PlatformState{
		RegistrationAllowed:  settings.RegistrationAllowed(),
		MaintenanceMode:      settings.MaintenanceMode(),
		PendingActivityLogs:  queues.activityLogs,
		PendingNotifications: queues.notifications,
	}
	if config.AppConfig != nil {
		state.UseRedisNotifications = config.AppConfig.UseRedisNotifications
	}
	return state
}

func collectRuntimeInfo() RuntimeInfo {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	return RuntimeInfo{
		GoVersion:      runtime.Version(),
		Goroutines:     runtime.NumGoroutine(),
		HeapAllocBytes: mem.HeapAlloc,
		SysBytes:       mem.Sys,
		NumGC:          mem.NumGC,
	}
}

func currentEnvironment() string {
	if config.AppConfig == nil {
		return "unknown"
	}
	if env := strings.TrimSpace(config.AppConfig.AppEnv); env != "" {
		return env
	}
	return "unknown"
}

func worstStatus(current, candidate string) string {
	rank := func(s string) int {
		switch s {
		case statusCritical:
			return 2
		case statusDegraded:
			return 1
		default:
			return 0
		}
	}
	if rank(candidate) > rank(current) {
		return candidate
	}
	return current
}

func formatUptime(d time.Duration) string {
	d = d.Round(time.Second)
	if d <= 0 {
		return "0s"
	}

	var parts []string
	if days := d / (24 * time.Hour); days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
		d -= days * 24 * time.Hour
	}
	if hours := d / time.Hour; hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
		d -= hours * time.Hour
	}
	if minutes := d / time.Minute; minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
		d -= minutes * time.Minute
	}
	if seconds := d / time.Second; seconds > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%ds", seconds))
	}
	return strings.Join(parts, " ")
}
