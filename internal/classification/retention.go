package classification

import (
	"time"

	"github.com/makersmarket/lifecycle/internal/domain"
)

const (
	RetentionPeriodContract = 10 * 365 * 24 * time.Hour
	RetentionPeriodInvoice  = 7 * 365 * 24 * time.Hour
	RetentionPeriodDefault  = 7 * 365 * 24 * time.Hour
	RetentionPeriodTemp     = 24 * time.Hour
)

const (
	RetainReasonContract = "contract_legal_requirement"
	RetainReasonInvoice  = "tax_legal_requirement"
	RetainReasonLegal    = "legal_compliance_requirement"
)

// RetentionPolicy is one row of the retention policy table.
type RetentionPolicy struct {
	Basis  domain.RetentionBasis
	Period time.Duration
	Reason string
}

// LegalHold reports whether a record must be retained for legal reasons
// regardless of its classification bucket, and if so under which policy.
// Contracts, invoices, and legal documents always carry a hold; any other
// record with an explicit legal-obligation basis does too.
func LegalHold(record *domain.FileRecord) (RetentionPolicy, bool) {
	switch record.Kind {
	case domain.FileKindContract, domain.FileKindLegalDocument:
		return RetentionPolicy{
			Basis:  domain.RetentionBasisLegalObligation,
			Period: RetentionPeriodContract,
			Reason: RetainReasonContract,
		}, true
	case domain.FileKindInvoice:
		return RetentionPolicy{
			Basis:  domain.RetentionBasisLegalObligation,
			Period: RetentionPeriodInvoice,
			Reason: RetainReasonInvoice,
		}, true
	}

	if record.RetentionBasis == domain.RetentionBasisLegalObligation {
		return RetentionPolicy{
			Basis:  domain.RetentionBasisLegalObligation,
			Period: RetentionPeriodDefault,
			Reason: RetainReasonLegal,
		}, true
	}

	return RetentionPolicy{}, false
}

// RetentionPolicyFor returns the baseline retention policy for a
// classification and kind. It backs the scheduler's retention-enforcement
// scan; legal holds from LegalHold take precedence over it.
func RetentionPolicyFor(class domain.Classification, kind domain.FileKind) RetentionPolicy {
	if policy, ok := LegalHold(&domain.FileRecord{Kind: kind}); ok {
		return policy
	}

	if kind == domain.FileKindTempUpload {
		return RetentionPolicy{
			Basis:  domain.RetentionBasisConsent,
			Period: RetentionPeriodTemp,
			Reason: "temporary_upload",
		}
	}

	switch class {
	case domain.ClassificationPersonal:
		return RetentionPolicy{
			Basis:  domain.RetentionBasisConsent,
			Period: 2 * 365 * 24 * time.Hour,
			Reason: "active_account",
		}
	case domain.ClassificationShared:
		return RetentionPolicy{
			Basis:  domain.RetentionBasisContract,
			Period: 3 * 365 * 24 * time.Hour,
			Reason: "project_delivery",
		}
	case domain.ClassificationPublic:
		return RetentionPolicy{
			Basis:  domain.RetentionBasisLegitimateInterest,
			Period: 5 * 365 * 24 * time.Hour,
			Reason: "published_content",
		}
	default:
		return RetentionPolicy{
			Basis:  domain.RetentionBasisLegitimateInterest,
			Period: RetentionPeriodDefault,
			Reason: "business_record",
		}
	}
}
