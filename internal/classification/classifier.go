// Package classification maps stored files to lifecycle classifications and
// retention policies. Classification decides a file's fate on user erasure,
// so the mapping is an exhaustive switch over the closed kind set rather than
// membership lists: a new kind that nobody classified fails loudly in review,
// not quietly at erasure time.
package classification

import "github.com/makersmarket/lifecycle/internal/domain"

// Classify returns the lifecycle classification for a record. A record that
// already carries an explicit classification keeps it. Unknown kinds fall back
// to Business, which preserves rather than deletes.
func Classify(record *domain.FileRecord) domain.Classification {
	if record.Classification != "" {
		return record.Classification
	}
	return classifyKind(record.Kind)
}

func classifyKind(kind domain.FileKind) domain.Classification {
	switch kind {
	case domain.FileKindAvatar, domain.FileKindIdentityDocument, domain.FileKindCertificate:
		return domain.ClassificationPersonal
	case domain.FileKindPortfolioMedia, domain.FileKindCaseStudy, domain.FileKindContract,
		domain.FileKindInvoice, domain.FileKindLegalDocument:
		return domain.ClassificationBusiness
	case domain.FileKindProjectFile, domain.FileKindChatAttachment:
		return domain.ClassificationShared
	case domain.FileKindMarketingAsset, domain.FileKindBlogMedia, domain.FileKindLogo:
		return domain.ClassificationPublic
	case domain.FileKindTempUpload, domain.FileKindOther:
		return domain.ClassificationBusiness
	default:
		return domain.ClassificationBusiness
	}
}
