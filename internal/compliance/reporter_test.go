package compliance

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makersmarket/lifecycle/internal/domain"
	"github.com/makersmarket/lifecycle/internal/storage/memory"
)

func newTestReporter(t *testing.T) (*Reporter, *memory.FileRepository, *memory.ReportRepository) {
	t.Helper()

	files := memory.NewFileRepository()
	reports := memory.NewReportRepository()
	reporter := NewReporter(ReporterDependencies{
		FileRepository:   files,
		ReportRepository: reports,
	})
	return reporter, files, reports
}

func seedFile(t *testing.T, files *memory.FileRepository, record *domain.FileRecord) {
	t.Helper()

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC().Add(-24 * time.Hour)
	}
	require.NoError(t, files.Save(context.Background(), record))
}

func TestReport_UnclassifiedFiles(t *testing.T) {
	reporter, files, _ := newTestReporter(t)
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		seedFile(t, files, &domain.FileRecord{
			Path:           fmt.Sprintf("uploads/unclassified-%03d.bin", i),
			OwnerID:        "user-1",
			OwnerType:      domain.OwnerTypeUser,
			Kind:           domain.FileKindOther,
			RetentionBasis: domain.RetentionBasisLegitimateInterest,
		})
	}
	for i := 0; i < 40; i++ {
		seedFile(t, files, &domain.FileRecord{
			Path:           fmt.Sprintf("uploads/classified-%03d.bin", i),
			OwnerID:        "user-1",
			OwnerType:      domain.OwnerTypeUser,
			Kind:           domain.FileKindProjectFile,
			Classification: domain.ClassificationBusiness,
			RetentionBasis: domain.RetentionBasisContract,
		})
	}

	report, err := reporter.Report(ctx, domain.ReportScopeGlobal, "")
	require.NoError(t, err)

	assert.Equal(t, 100, report.TotalFiles)
	assert.Len(t, report.Violations, 60)
	for _, violation := range report.Violations {
		assert.Equal(t, domain.ViolationMissingClassification, violation.Kind)
		assert.Equal(t, domain.SeverityMedium, violation.Severity)
		assert.Len(t, violation.Paths, 1)
	}
	assert.InDelta(t, 0.4, report.Score, 1e-9)
	assert.NotEmpty(t, report.Recommendations)
}

func TestReport_SeverityPerViolationKind(t *testing.T) {
	reporter, files, _ := newTestReporter(t)
	ctx := context.Background()

	expired := time.Now().UTC().Add(-time.Hour)
	seedFile(t, files, &domain.FileRecord{
		Path:           "docs/no-basis.pdf",
		OwnerID:        "user-1",
		OwnerType:      domain.OwnerTypeUser,
		Kind:           domain.FileKindProjectFile,
		Classification: domain.ClassificationBusiness,
	})
	seedFile(t, files, &domain.FileRecord{
		Path:           "docs/expired.pdf",
		OwnerID:        "user-1",
		OwnerType:      domain.OwnerTypeUser,
		Kind:           domain.FileKindProjectFile,
		Classification: domain.ClassificationBusiness,
		RetentionBasis: domain.RetentionBasisContract,
		ExpiresAt:      &expired,
	})
	seedFile(t, files, &domain.FileRecord{
		Path:           "docs/clean.pdf",
		OwnerID:        "user-1",
		OwnerType:      domain.OwnerTypeUser,
		Kind:           domain.FileKindProjectFile,
		Classification: domain.ClassificationBusiness,
		RetentionBasis: domain.RetentionBasisContract,
	})

	report, err := reporter.Report(ctx, domain.ReportScopeGlobal, "")
	require.NoError(t, err)

	severityByKind := make(map[domain.ViolationKind]domain.Severity)
	for _, violation := range report.Violations {
		severityByKind[violation.Kind] = violation.Severity
	}

	assert.Equal(t, domain.SeverityHigh, severityByKind[domain.ViolationMissingRetentionBasis])
	assert.Equal(t, domain.SeverityCritical, severityByKind[domain.ViolationRetentionExpired])
	assert.InDelta(t, 1.0/3.0, report.Score, 1e-9)
}

func TestReport_ScopeFiltering(t *testing.T) {
	reporter, files, _ := newTestReporter(t)
	ctx := context.Background()

	seedFile(t, files, &domain.FileRecord{
		Path:      "users/alice/notes.txt",
		OwnerID:   "alice",
		OwnerType: domain.OwnerTypeUser,
		Kind:      domain.FileKindProjectFile,
	})
	seedFile(t, files, &domain.FileRecord{
		Path:           "orgs/acme/report.pdf",
		OwnerID:        "bob",
		OwnerType:      domain.OwnerTypeUser,
		OrganizationID: "acme",
		Kind:           domain.FileKindProjectFile,
	})

	userReport, err := reporter.Report(ctx, domain.ReportScopeUser, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, userReport.TotalFiles)

	orgReport, err := reporter.Report(ctx, domain.ReportScopeOrganization, "acme")
	require.NoError(t, err)
	assert.Equal(t, 1, orgReport.TotalFiles)
}

func TestReport_RequiresScopeID(t *testing.T) {
	reporter, _, _ := newTestReporter(t)

	_, err := reporter.Report(context.Background(), domain.ReportScopeUser, "")
	require.Error(t, err)

	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "scopeID", validationErr.Field)
}

func TestReport_EmptyScopeIsFullyCompliant(t *testing.T) {
	reporter, _, reports := newTestReporter(t)
	ctx := context.Background()

	report, err := reporter.Report(ctx, domain.ReportScopeGlobal, "")
	require.NoError(t, err)

	assert.Equal(t, 0, report.TotalFiles)
	assert.Empty(t, report.Violations)
	assert.Equal(t, 1.0, report.Score)

	latest, err := reports.Latest(ctx, domain.ReportScopeGlobal, "")
	require.NoError(t, err)
	assert.Equal(t, report.ID, latest.ID)
}

func TestReport_CountsAnonymizedAndRetained(t *testing.T) {
	reporter, files, _ := newTestReporter(t)
	ctx := context.Background()

	seedFile(t, files, &domain.FileRecord{
		Path:           "docs/anon.pdf",
		OwnerID:        domain.PlatformOwnerID,
		OwnerType:      domain.OwnerTypePlatform,
		Kind:           domain.FileKindProjectFile,
		Classification: domain.ClassificationBusiness,
		RetentionBasis: domain.RetentionBasisLegalObligation,
		Anonymized:     true,
		RetainReason:   "legal_compliance_requirement",
	})

	report, err := reporter.Report(ctx, domain.ReportScopeGlobal, "")
	require.NoError(t, err)

	assert.Equal(t, 1, report.AnonymizedFiles)
	assert.Equal(t, 1, report.RetainedFiles)
	assert.Equal(t, 1, report.BusinessFiles)
	assert.Empty(t, report.Violations)
}
