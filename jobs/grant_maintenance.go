package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/brandforge/backoffice/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// GrantMaintenance implements the grant store maintenance tasks.
type GrantMaintenance struct {
	logger    *slog.Logger
	pool      *pgxpool.Pool
	retention time.Duration
	Metrics   *jobmetrics.Metrics
}

// NewGrantMaintenance constructs the maintenance task handlers.
func NewGrantMaintenance(logger *slog.Logger, pool *pgxpool.Pool, retention time.Duration, metrics *jobmetrics.Metrics) *GrantMaintenance {
	return &GrantMaintenance{logger: logger, pool: pool, retention: retention, Metrics: metrics}
}

func (m *GrantMaintenance) metrics() *jobmetrics.Metrics {
	if m.Metrics != nil {
		return m.Metrics
	}
	return defaultJobMetrics
}

// HandleIntegrityScan reports active grants whose subject has been deleted.
// Grants are not cascaded when a staff member or group is soft-deleted, so
// orphans are expected; the scan keeps their volume visible.
func (m *GrantMaintenance) HandleIntegrityScan(ctx context.Context, t *asynq.Task) error {
	tracker := m.metrics().Track("grant_integrity_scan")
	var orphanedStaff, orphanedGroup int
	err := m.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM grants g
		WHERE g.subject_kind = 'staff' AND g.deleted_at IS NULL
		  AND NOT EXISTS (SELECT 1 FROM staff s WHERE s.id = g.subject_id AND s.deleted_at IS NULL)`).
		Scan(&orphanedStaff)
	if err != nil {
		return tracker.End(err)
	}
	err = m.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM grants g
		WHERE g.subject_kind = 'group' AND g.deleted_at IS NULL
		  AND NOT EXISTS (SELECT 1 FROM groups gr WHERE gr.id = g.subject_id AND gr.deleted_at IS NULL)`).
		Scan(&orphanedGroup)
	if err != nil {
		return tracker.End(err)
	}
	m.metrics().AddOrphans("staff", orphanedStaff)
	m.metrics().AddOrphans("group", orphanedGroup)
	m.logger.Info("grant integrity scan complete",
		"orphaned_staff_grants", orphanedStaff,
		"orphaned_group_grants", orphanedGroup)
	return tracker.End(nil)
}

// HandleTombstoneSweep hard-deletes grants revoked longer ago than the
// retention window.
func (m *GrantMaintenance) HandleTombstoneSweep(ctx context.Context, t *asynq.Task) error {
	tracker := m.metrics().Track("grant_tombstone_sweep")
	retention := m.retention
	if len(t.Payload()) > 0 {
		var payload TombstoneSweepPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if payload.Retention > 0 {
			retention = payload.Retention
		}
	}
	horizon := time.Now().Add(-retention)
	tag, err := m.pool.Exec(ctx, `DELETE FROM grants WHERE deleted_at IS NOT NULL AND deleted_at < $1`, horizon)
	if err != nil {
		return tracker.End(err)
	}
	m.metrics().AddPurged(tag.RowsAffected())
	m.logger.Info("grant tombstone sweep complete",
		"purged", tag.RowsAffected(), "horizon", horizon)
	return tracker.End(nil)
}
