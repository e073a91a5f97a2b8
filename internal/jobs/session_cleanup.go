package jobs

import (
	"context"
	"fmt"
	"time"

	"barbershop_backend/internal/config"
	"barbershop_backend/internal/platform/metrics"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SessionPurger deletes sessions that expired longer ago than olderThan.
// auth.SessionService satisfies it.
type SessionPurger interface {
	PurgeStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

// SessionCleanupJob periodically removes stale sessions.
type SessionCleanupJob struct {
	sessions      SessionPurger
	collector     *metrics.Collector
	logger        *zap.Logger
	cfg           *config.Config
	cronScheduler *cron.Cron
}

// NewSessionCleanupJob creates a new SessionCleanupJob.
func NewSessionCleanupJob(
	sessions SessionPurger,
	collector *metrics.Collector,
	logger *zap.Logger,
	cfg *config.Config,
) *SessionCleanupJob {
	scheduler := cron.New(cron.WithLogger(NewCronLogger(logger.Named("cron"))))

	return &SessionCleanupJob{
		sessions:      sessions,
		collector:     collector,
		logger:        logger.Named("SessionCleanupJob"),
		cfg:           cfg,
		cronScheduler: scheduler,
	}
}

// SetupAndStart schedules and starts the cron job.
func (j *SessionCleanupJob) SetupAndStart() error {
	jobSpec := j.cfg.SessionCleanupSchedule // e.g. "@daily", "30 3 * * *"
	if jobSpec == "" {
		j.logger.Warn("Session cleanup schedule not defined (SESSION_CLEANUP_SCHEDULE). Job will not run.")
		return nil
	}

	jobID, err := j.cronScheduler.AddFunc(jobSpec, j.runJob)
	if err != nil {
		j.logger.Error("Failed to schedule session cleanup job", zap.String("spec", jobSpec), zap.Error(err))
		return err
	}

	j.logger.Info("Session cleanup job scheduled", zap.String("spec", jobSpec), zap.Any("jobID", jobID))
	j.cronScheduler.Start()
	return nil
}

// RunOnce purges stale sessions a single time. Used by the scheduler and
// by the purge-sessions command.
func (j *SessionCleanupJob) RunOnce(ctx context.Context) (int64, error) {
	purged, err := j.sessions.PurgeStale(ctx, j.cfg.SessionPurgeAfter)
	if err != nil {
		return 0, err
	}
	j.collector.RecordSessionsPurged(purged)
	return purged, nil
}

func (j *SessionCleanupJob) runJob() {
	j.logger.Info("Starting session cleanup run...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	purged, err := j.RunOnce(ctx)
	if err != nil {
		j.logger.Error("Session cleanup run failed", zap.Error(err))
		return
	}
	j.logger.Info("Session cleanup run completed", zap.Int64("sessions_purged", purged))
}

// Stop gracefully stops the cron scheduler.
func (j *SessionCleanupJob) Stop() {
	if j.cronScheduler == nil {
		return
	}
	j.logger.Info("Stopping session cleanup scheduler...")
	stopCtx := j.cronScheduler.Stop()
	select {
	case <-stopCtx.Done():
		j.logger.Info("Session cleanup scheduler stopped.")
	case <-time.After(10 * time.Second):
		j.logger.Warn("Session cleanup scheduler stop timed out.")
	}
}

// cronLogger adapts zap.Logger to the cron.Logger interface.
type cronLogger struct {
	zl *zap.Logger
}

// NewCronLogger creates a new cronLogger.
func NewCronLogger(zl *zap.Logger) cron.Logger {
	return &cronLogger{zl: zl}
}

func (cl *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	cl.zl.Debug(msg, fieldsFromKeysAndValues(keysAndValues)...)
}

func (cl *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := fieldsFromKeysAndValues(keysAndValues)
	fields = append(fields, zap.Error(err))
	cl.zl.Error(msg, fields...)
}

func fieldsFromKeysAndValues(keysAndValues []interface{}) []zap.Field {
	fields := make([]zap.Field, 0, (len(keysAndValues)+1)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		key := fmt.Sprintf("%v", keysAndValues[i])
		if i+1 < len(keysAndValues) {
			fields = append(fields, zap.Any(key, keysAndValues[i+1]))
		} else {
			fields = append(fields, zap.Any(key, "MISSING_VALUE"))
		}
	}
	return fields
}
