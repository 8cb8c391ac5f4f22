package health

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/xid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makersmarket/lifecycle/internal/domain"
	"github.com/makersmarket/lifecycle/internal/storage/memory"
)

type monitorFixture struct {
	monitor   *Monitor
	files     *memory.FileRepository
	summaries *memory.UsageSummaryRepository
	oplog     *memory.OperationLog
	reports   *memory.ReportRepository
	alerts    *memory.AlertRepository
}

func newMonitorFixture(t *testing.T) *monitorFixture {
	t.Helper()

	f := &monitorFixture{
		files:     memory.NewFileRepository(),
		summaries: memory.NewUsageSummaryRepository(),
		oplog:     memory.NewOperationLog(),
		reports:   memory.NewReportRepository(),
		alerts:    memory.NewAlertRepository(),
	}
	f.monitor = NewMonitor(MonitorDependencies{
		FileRepository:         f.files,
		UsageSummaryRepository: f.summaries,
		OperationLogRepository: f.oplog,
		ReportRepository:       f.reports,
		AlertRepository:        f.alerts,
	})
	return f
}

func alertsOfType(alerts []*domain.StorageAlert, alertType domain.AlertType) []*domain.StorageAlert {
	var out []*domain.StorageAlert
	for _, alert := range alerts {
		if alert.Type == alertType {
			out = append(out, alert)
		}
	}
	return out
}

func TestCheck_QuotaThresholds(t *testing.T) {
	f := newMonitorFixture(t)
	ctx := context.Background()

	const quota = 1000

	// 82% used, 96% used, 50% used, and one user with no quota configured.
	require.NoError(t, f.summaries.Increment(ctx, "warning-user", 10, 820))
	require.NoError(t, f.summaries.Increment(ctx, "critical-user", 10, 960))
	require.NoError(t, f.summaries.Increment(ctx, "healthy-user", 10, 500))
	require.NoError(t, f.summaries.Increment(ctx, "unlimited-user", 10, 990))
	require.NoError(t, f.summaries.SetQuota(ctx, "warning-user", quota))
	require.NoError(t, f.summaries.SetQuota(ctx, "critical-user", quota))
	require.NoError(t, f.summaries.SetQuota(ctx, "healthy-user", quota))

	raised, err := f.monitor.Check(ctx)
	require.NoError(t, err)

	quotaAlerts := alertsOfType(raised, domain.AlertTypeQuota)
	require.Len(t, quotaAlerts, 2)

	byUser := make(map[string]*domain.StorageAlert)
	for _, alert := range quotaAlerts {
		require.Len(t, alert.ResourceIDs, 1)
		byUser[alert.ResourceIDs[0]] = alert
	}
	assert.Equal(t, domain.SeverityHigh, byUser["warning-user"].Severity)
	assert.Equal(t, domain.SeverityCritical, byUser["critical-user"].Severity)
}

func TestCheck_ErrorRateThreshold(t *testing.T) {
	f := newMonitorFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 12; i++ {
		require.NoError(t, f.oplog.Append(ctx, &domain.OperationLogEntry{
			ID:        xid.New().String(),
			Operation: "delete",
			Success:   false,
			Timestamp: now.Add(-time.Duration(i) * time.Minute),
		}))
	}
	// Failures outside the 24h window never count.
	require.NoError(t, f.oplog.Append(ctx, &domain.OperationLogEntry{
		ID:        xid.New().String(),
		Operation: "delete",
		Success:   false,
		Timestamp: now.Add(-48 * time.Hour),
	}))

	raised, err := f.monitor.Check(ctx)
	require.NoError(t, err)

	perfAlerts := alertsOfType(raised, domain.AlertTypePerformance)
	require.Len(t, perfAlerts, 1)
	assert.Equal(t, domain.SeverityHigh, perfAlerts[0].Severity)
	assert.Contains(t, perfAlerts[0].Description, "12 failed")
	assert.Contains(t, perfAlerts[0].ResourceIDs, "delete")
}

func TestCheck_ErrorRateBelowThreshold(t *testing.T) {
	f := newMonitorFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, f.oplog.Append(ctx, &domain.OperationLogEntry{
			ID:        fmt.Sprintf("op-%d", i),
			Operation: "upload",
			Success:   false,
			Timestamp: time.Now().UTC(),
		}))
	}

	raised, err := f.monitor.Check(ctx)
	require.NoError(t, err)
	assert.Empty(t, alertsOfType(raised, domain.AlertTypePerformance))
}

func TestCheck_PublicPersonalFiles(t *testing.T) {
	f := newMonitorFixture(t)
	ctx := context.Background()

	require.NoError(t, f.files.Save(ctx, &domain.FileRecord{
		Path:           "users/alice/id-scan.jpg",
		OwnerID:        "alice",
		OwnerType:      domain.OwnerTypeUser,
		Kind:           domain.FileKindIdentityDocument,
		Classification: domain.ClassificationPersonal,
		Public:         true,
		CreatedAt:      time.Now().UTC(),
	}))
	require.NoError(t, f.files.Save(ctx, &domain.FileRecord{
		Path:           "users/alice/listing.jpg",
		OwnerID:        "alice",
		OwnerType:      domain.OwnerTypeUser,
		Kind:           domain.FileKindMarketingAsset,
		Classification: domain.ClassificationPublic,
		Public:         true,
		CreatedAt:      time.Now().UTC(),
	}))

	raised, err := f.monitor.Check(ctx)
	require.NoError(t, err)

	secAlerts := alertsOfType(raised, domain.AlertTypeSecurity)
	require.Len(t, secAlerts, 1)
	assert.Equal(t, domain.SeverityCritical, secAlerts[0].Severity)
	assert.Equal(t, []string{"users/alice/id-scan.jpg"}, secAlerts[0].ResourceIDs)
}

func TestCheck_UnresolvedCriticalViolations(t *testing.T) {
	f := newMonitorFixture(t)
	ctx := context.Background()

	require.NoError(t, f.reports.Create(ctx, &domain.ComplianceReport{
		ID:    "report-1",
		Scope: domain.ReportScopeGlobal,
		Violations: []domain.Violation{
			{
				Kind:     domain.ViolationRetentionExpired,
				Severity: domain.SeverityCritical,
				Paths:    []string{"docs/expired-a.pdf"},
			},
			{
				Kind:     domain.ViolationMissingClassification,
				Severity: domain.SeverityMedium,
				Paths:    []string{"docs/unclassified.pdf"},
			},
		},
		GeneratedAt: time.Now().UTC(),
	}))

	raised, err := f.monitor.Check(ctx)
	require.NoError(t, err)

	complianceAlerts := alertsOfType(raised, domain.AlertTypeCompliance)
	require.Len(t, complianceAlerts, 1)
	assert.Equal(t, domain.SeverityCritical, complianceAlerts[0].Severity)
	assert.Equal(t, []string{"docs/expired-a.pdf"}, complianceAlerts[0].ResourceIDs)
}

func TestCheck_AlertsArePersisted(t *testing.T) {
	f := newMonitorFixture(t)
	ctx := context.Background()

	require.NoError(t, f.summaries.Increment(ctx, "critical-user", 1, 990))
	require.NoError(t, f.summaries.SetQuota(ctx, "critical-user", 1000))

	raised, err := f.monitor.Check(ctx)
	require.NoError(t, err)
	require.Len(t, raised, 1)

	stored, err := f.alerts.Get(ctx, raised[0].ID)
	require.NoError(t, err)
	assert.False(t, stored.Resolved())
	assert.NotEmpty(t, stored.Recommendations)

	unresolved := false
	found, err := f.alerts.Find(ctx, domain.AlertFilter{Resolved: &unresolved})
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestCheck_HealthySystemRaisesNothing(t *testing.T) {
	f := newMonitorFixture(t)

	raised, err := f.monitor.Check(context.Background())
	require.NoError(t, err)
	assert.Empty(t, raised)
}
