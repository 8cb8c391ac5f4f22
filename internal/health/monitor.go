// Package health evaluates threshold rules over usage counters, operation
// logs, file metadata, and compliance reports, and persists alerts for
// anything that trips.
package health

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog/log"

	"github.com/makersmarket/lifecycle/internal/domain"
	"github.com/makersmarket/lifecycle/internal/metrics"
)

const (
	// The 80% quota band is a warning; the Severity scale has no warning
	// level, so it is reported as SeverityHigh and 95% as SeverityCritical.
	quotaWarningRatio  = 0.80
	quotaCriticalRatio = 0.95

	// errorWindow bounds the operation-log scan; defaultErrorThreshold is the
	// failure count inside that window that trips a performance alert.
	errorWindow           = 24 * time.Hour
	defaultErrorThreshold = 10
)

type Monitor struct {
	files          domain.FileRepository
	summaries      domain.UsageSummaryRepository
	oplog          domain.OperationLogRepository
	reports        domain.ReportRepository
	alerts         domain.AlertRepository
	errorThreshold int
	now            func() time.Time
}

type MonitorDependencies struct {
	FileRepository         domain.FileRepository
	UsageSummaryRepository domain.UsageSummaryRepository
	OperationLogRepository domain.OperationLogRepository
	ReportRepository       domain.ReportRepository
	AlertRepository        domain.AlertRepository

	// ErrorThreshold overrides the default 24h failure count when positive.
	ErrorThreshold int
}

func NewMonitor(deps MonitorDependencies) *Monitor {
	threshold := deps.ErrorThreshold
	if threshold <= 0 {
		threshold = defaultErrorThreshold
	}

	return &Monitor{
		files:          deps.FileRepository,
		summaries:      deps.UsageSummaryRepository,
		oplog:          deps.OperationLogRepository,
		reports:        deps.ReportRepository,
		alerts:         deps.AlertRepository,
		errorThreshold: threshold,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Check runs every threshold rule once and persists an alert per finding. A
// failing rule never suppresses the remaining rules; rule errors are collected
// and returned after everything has run.
func (m *Monitor) Check(ctx context.Context) ([]*domain.StorageAlert, error) {
	var (
		raised []*domain.StorageAlert
		errs   []string
	)

	rules := []struct {
		name string
		run  func(context.Context) ([]*domain.StorageAlert, error)
	}{
		{"quota", m.checkQuotas},
		{"error_rate", m.checkErrorRate},
		{"public_personal", m.checkPublicPersonalFiles},
		{"compliance", m.checkComplianceViolations},
	}

	for _, rule := range rules {
		alerts, err := rule.run(ctx)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", rule.name, err))
			continue
		}
		raised = append(raised, alerts...)
	}

	for _, alert := range raised {
		if err := m.alerts.Create(ctx, alert); err != nil {
			return raised, fmt.Errorf("failed to persist %s alert: %w", alert.Type, err)
		}
		metrics.AlertsRaised.WithLabelValues(string(alert.Type), string(alert.Severity)).Inc()
		log.Warn().
			Str("alert_id", alert.ID).
			Str("type", string(alert.Type)).
			Str("severity", string(alert.Severity)).
			Msg(alert.Description)
	}

	if len(errs) > 0 {
		return raised, fmt.Errorf("health check finished with rule failures: %s", strings.Join(errs, "; "))
	}
	return raised, nil
}

func (m *Monitor) newAlert(alertType domain.AlertType, severity domain.Severity, description string, resourceIDs []string, recommendations []string) *domain.StorageAlert {
	return &domain.StorageAlert{
		ID:              xid.New().String(),
		Type:            alertType,
		Severity:        severity,
		Description:     description,
		ResourceIDs:     resourceIDs,
		Recommendations: recommendations,
		CreatedAt:       m.now(),
	}
}

// checkQuotas alerts per user at 80% usage (warning) and 95% (critical).
// Users with no configured quota are skipped.
func (m *Monitor) checkQuotas(ctx context.Context) ([]*domain.StorageAlert, error) {
	summaries, err := m.summaries.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list usage summaries: %w", err)
	}

	var alerts []*domain.StorageAlert
	for _, summary := range summaries {
		if summary.QuotaBytes <= 0 {
			continue
		}
		ratio := float64(summary.SizeInBytes) / float64(summary.QuotaBytes)
		if ratio < quotaWarningRatio {
			continue
		}

		severity := domain.SeverityHigh
		if ratio >= quotaCriticalRatio {
			severity = domain.SeverityCritical
		}
		alerts = append(alerts, m.newAlert(
			domain.AlertTypeQuota,
			severity,
			fmt.Sprintf("user %s is at %.0f%% of storage quota (%d of %d bytes)", summary.UserID, ratio*100, summary.SizeInBytes, summary.QuotaBytes),
			[]string{summary.UserID},
			[]string{"clean up temporary files", "review large uploads", "raise the quota if usage is legitimate"},
		))
	}
	return alerts, nil
}

func (m *Monitor) checkErrorRate(ctx context.Context) ([]*domain.StorageAlert, error) {
	end := m.now()
	entries, err := m.oplog.FindRange(ctx, end.Add(-errorWindow), end)
	if err != nil {
		return nil, fmt.Errorf("failed to read operation log: %w", err)
	}

	failuresByOp := make(map[string]int)
	var total int
	for _, entry := range entries {
		if entry.Success {
			continue
		}
		failuresByOp[entry.Operation]++
		total++
	}
	if total < m.errorThreshold {
		return nil, nil
	}

	ops := make([]string, 0, len(failuresByOp))
	for op := range failuresByOp {
		ops = append(ops, op)
	}
	return []*domain.StorageAlert{m.newAlert(
		domain.AlertTypePerformance,
		domain.SeverityHigh,
		fmt.Sprintf("%d failed storage operations in the last 24h (threshold %d)", total, m.errorThreshold),
		ops,
		[]string{"inspect recent job error lists", "check blob store connectivity"},
	)}, nil
}

// checkPublicPersonalFiles flags personal data that is publicly readable.
// This is always critical regardless of how few files are affected.
func (m *Monitor) checkPublicPersonalFiles(ctx context.Context) ([]*domain.StorageAlert, error) {
	records, err := m.files.Find(ctx, domain.FileFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to scan file metadata: %w", err)
	}

	var paths []string
	for _, record := range records {
		if record.Public && record.Classification == domain.ClassificationPersonal {
			paths = append(paths, record.Path)
		}
	}
	if len(paths) == 0 {
		return nil, nil
	}

	return []*domain.StorageAlert{m.newAlert(
		domain.AlertTypeSecurity,
		domain.SeverityCritical,
		fmt.Sprintf("%d personal files are publicly accessible", len(paths)),
		paths,
		[]string{"revoke public access immediately", "audit how the files were published"},
	)}, nil
}

// checkComplianceViolations surfaces unresolved critical violations from the
// latest global compliance report. No report yet means nothing to alert on.
func (m *Monitor) checkComplianceViolations(ctx context.Context) ([]*domain.StorageAlert, error) {
	report, err := m.reports.Latest(ctx, domain.ReportScopeGlobal, "")
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load latest compliance report: %w", err)
	}

	var paths []string
	for _, violation := range report.Violations {
		if violation.Severity == domain.SeverityCritical {
			paths = append(paths, violation.Paths...)
		}
	}
	if len(paths) == 0 {
		return nil, nil
	}

	return []*domain.StorageAlert{m.newAlert(
		domain.AlertTypeCompliance,
		domain.SeverityCritical,
		fmt.Sprintf("compliance report %s has %d critical violations", report.ID, len(paths)),
		paths,
		[]string{"run the retention enforcement scan", "re-generate the compliance report afterwards"},
	)}, nil
}
