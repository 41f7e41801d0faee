// Package job contains the cron-scheduled maintenance tasks of the web
// server.
package job

import (
	"user-center/config"
	"user-center/logger"
	"user-center/web/service"
)

// ActivityCleanupJob purges activity logs past the configured retention.
type ActivityCleanupJob struct {
	activityService *service.ActivityService
}

func NewActivityCleanupJob() *ActivityCleanupJob {
	return &ActivityCleanupJob{activityService: service.NewActivityService()}
}

// Run removes activity logs older than the retention window.
func (j *ActivityCleanupJob) Run() {
	logger.Debug("activity cleanup job started")

	retentionDays := config.GetActivityRetentionDays()
	if retentionDays <= 0 {
		retentionDays = 90
	}

	removed, err := j.activityService.CleanOld(retentionDays)
	if err != nil {
		logger.Warning("failed to clean old activity logs:", err)
		return
	}
	logger.Debugf("activity cleanup completed: removed=%d, retention=%d days", removed, retentionDays)
}
