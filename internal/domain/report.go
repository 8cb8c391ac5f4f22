package domain

import "time"

type ReportScope string

const (
	ReportScopeUser         ReportScope = "user"
	ReportScopeOrganization ReportScope = "organization"
	ReportScopeGlobal       ReportScope = "global"
)

type ViolationKind string

const (
	ViolationMissingClassification ViolationKind = "missing_classification"
	ViolationMissingRetentionBasis ViolationKind = "missing_retention_basis"
	ViolationRetentionExpired      ViolationKind = "retention_expired"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Violation is one compliance finding. It is a data condition, never an error
// value; violations are reported, not thrown.
type Violation struct {
	Kind        ViolationKind `bson:"kind" json:"kind"`
	Severity    Severity      `bson:"severity" json:"severity"`
	Paths       []string      `bson:"paths" json:"paths"`
	Remediation string        `bson:"remediation" json:"remediation"`
}

// ComplianceReport is a scored snapshot of how complete the lifecycle metadata
// is for a scope.
type ComplianceReport struct {
	ID              string      `bson:"id" json:"id"`
	Scope           ReportScope `bson:"scope" json:"scope"`
	ScopeID         string      `bson:"scope_id,omitempty" json:"scope_id,omitempty"`
	TotalFiles      int         `bson:"total_files" json:"total_files"`
	PersonalFiles   int         `bson:"personal_files" json:"personal_files"`
	BusinessFiles   int         `bson:"business_files" json:"business_files"`
	RetainedFiles   int         `bson:"retained_files" json:"retained_files"`
	AnonymizedFiles int         `bson:"anonymized_files" json:"anonymized_files"`
	Violations      []Violation `bson:"violations" json:"violations"`
	Recommendations []string    `bson:"recommendations" json:"recommendations"`
	Score           float64     `bson:"score" json:"score"`
	GeneratedAt     time.Time   `bson:"generated_at" json:"generated_at"`
}
