// Package compliance scans file metadata for missing or expired lifecycle
// fields and produces scored reports.
package compliance

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog/log"

	"github.com/makersmarket/lifecycle/internal/domain"
)

type Reporter struct {
	files   domain.FileRepository
	reports domain.ReportRepository
}

type ReporterDependencies struct {
	FileRepository   domain.FileRepository
	ReportRepository domain.ReportRepository
}

func NewReporter(deps ReporterDependencies) *Reporter {
	return &Reporter{
		files:   deps.FileRepository,
		reports: deps.ReportRepository,
	}
}

// Report scans the scope and emits one violation per finding: a missing
// classification is medium, a missing retention basis is high, and an
// already-expired retention period is critical. The compliance score is the
// fraction of files with nothing wrong. The report is persisted before it is
// returned.
func (r *Reporter) Report(ctx context.Context, scope domain.ReportScope, scopeID string) (*domain.ComplianceReport, error) {
	if scope != domain.ReportScopeGlobal && scopeID == "" {
		return nil, &domain.ValidationError{Field: "scopeID", Reason: "required for non-global scope"}
	}

	filter := domain.FileFilter{}
	switch scope {
	case domain.ReportScopeUser:
		filter.OwnerID = scopeID
	case domain.ReportScopeOrganization:
		filter.OrganizationID = scopeID
	}

	records, err := r.files.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s scope: %w", scope, err)
	}

	report := &domain.ComplianceReport{
		ID:          xid.New().String(),
		Scope:       scope,
		ScopeID:     scopeID,
		GeneratedAt: time.Now().UTC(),
	}

	now := time.Now().UTC()
	var compliant int

	for _, record := range records {
		report.TotalFiles++
		switch record.Classification {
		case domain.ClassificationPersonal:
			report.PersonalFiles++
		case domain.ClassificationBusiness:
			report.BusinessFiles++
		}
		if record.Anonymized {
			report.AnonymizedFiles++
		}
		if record.RetainReason != "" {
			report.RetainedFiles++
		}

		violations := checkRecord(record, now)
		report.Violations = append(report.Violations, violations...)
		if len(violations) == 0 {
			compliant++
		}
	}

	if report.TotalFiles > 0 {
		report.Score = float64(compliant) / float64(report.TotalFiles)
	} else {
		report.Score = 1
	}
	report.Recommendations = recommendations(report)

	if err := r.reports.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to persist compliance report: %w", err)
	}

	log.Info().
		Str("report_id", report.ID).
		Str("scope", string(scope)).
		Int("total_files", report.TotalFiles).
		Int("violations", len(report.Violations)).
		Float64("score", report.Score).
		Msg("Compliance report generated")

	return report, nil
}

// checkRecord emits one violation per finding so each can be remediated and
// tracked on its own.
func checkRecord(record *domain.FileRecord, now time.Time) []domain.Violation {
	var violations []domain.Violation

	if record.Classification == "" {
		violations = append(violations, domain.Violation{
			Kind:        domain.ViolationMissingClassification,
			Severity:    domain.SeverityMedium,
			Paths:       []string{record.Path},
			Remediation: fmt.Sprintf("classify %s so its erasure behavior is deterministic", record.Path),
		})
	}
	if record.RetentionBasis == "" {
		violations = append(violations, domain.Violation{
			Kind:        domain.ViolationMissingRetentionBasis,
			Severity:    domain.SeverityHigh,
			Paths:       []string{record.Path},
			Remediation: fmt.Sprintf("assign a retention basis to %s from the policy table", record.Path),
		})
	}
	if record.ExpiresAt != nil && record.ExpiresAt.Before(now) {
		violations = append(violations, domain.Violation{
			Kind:        domain.ViolationRetentionExpired,
			Severity:    domain.SeverityCritical,
			Paths:       []string{record.Path},
			Remediation: fmt.Sprintf("%s is past its retention expiry, run the retention enforcement scan", record.Path),
		})
	}
	return violations
}

func recommendations(report *domain.ComplianceReport) []string {
	counts := make(map[domain.ViolationKind]int)
	for _, violation := range report.Violations {
		counts[violation.Kind]++
	}

	var out []string
	if n := counts[domain.ViolationMissingClassification]; n > 0 {
		out = append(out, fmt.Sprintf("classify %d files to make their erasure behavior deterministic", n))
	}
	if n := counts[domain.ViolationMissingRetentionBasis]; n > 0 {
		out = append(out, fmt.Sprintf("document a retention basis for %d files", n))
	}
	if n := counts[domain.ViolationRetentionExpired]; n > 0 {
		out = append(out, fmt.Sprintf("%d files are retained past expiry and should be cleaned up promptly", n))
	}
	if report.Score < 0.5 {
		out = append(out, "compliance coverage is below 50%, consider classifying at upload time")
	}
	return out
}
