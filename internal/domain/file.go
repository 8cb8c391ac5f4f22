package domain

import "time"

// Classification determines a file's fate when its owner leaves the platform.
type Classification string

const (
	ClassificationPersonal Classification = "personal"
	ClassificationBusiness Classification = "business"
	ClassificationShared   Classification = "shared"
	ClassificationPublic   Classification = "public"
)

// FileKind is the closed set of file kinds the marketplace stores. Classification
// and retention rules switch exhaustively over this set so that adding a kind
// without deciding its lifecycle is a compile-time error, not a silent default.
type FileKind string

const (
	FileKindAvatar           FileKind = "avatar"
	FileKindIdentityDocument FileKind = "identity_document"
	FileKindCertificate      FileKind = "certificate"
	FileKindPortfolioMedia   FileKind = "portfolio_media"
	FileKindCaseStudy        FileKind = "case_study"
	FileKindContract         FileKind = "contract"
	FileKindInvoice          FileKind = "invoice"
	FileKindLegalDocument    FileKind = "legal_document"
	FileKindProjectFile      FileKind = "project_file"
	FileKindChatAttachment   FileKind = "chat_attachment"
	FileKindMarketingAsset   FileKind = "marketing_asset"
	FileKindBlogMedia        FileKind = "blog_media"
	FileKindLogo             FileKind = "logo"
	FileKindTempUpload       FileKind = "temp_upload"
	FileKindOther            FileKind = "other"
)

// AllFileKinds lists every known kind, in a stable order.
var AllFileKinds = []FileKind{
	FileKindAvatar,
	FileKindIdentityDocument,
	FileKindCertificate,
	FileKindPortfolioMedia,
	FileKindCaseStudy,
	FileKindContract,
	FileKindInvoice,
	FileKindLegalDocument,
	FileKindProjectFile,
	FileKindChatAttachment,
	FileKindMarketingAsset,
	FileKindBlogMedia,
	FileKindLogo,
	FileKindTempUpload,
	FileKindOther,
}

// RetentionBasis is the legal or business justification under which a file is kept.
type RetentionBasis string

const (
	RetentionBasisLegalObligation    RetentionBasis = "legal_obligation"
	RetentionBasisLegitimateInterest RetentionBasis = "legitimate_interest"
	RetentionBasisConsent            RetentionBasis = "consent"
	RetentionBasisContract           RetentionBasis = "contract"
)

// AccessTier is the access-frequency storage class used for cost modeling.
type AccessTier string

const (
	AccessTierHot  AccessTier = "hot"
	AccessTierWarm AccessTier = "warm"
	AccessTierCold AccessTier = "cold"
)

type OwnerType string

const (
	OwnerTypeUser         OwnerType = "user"
	OwnerTypeOrganization OwnerType = "organization"
	OwnerTypePlatform     OwnerType = "platform"
)

// PlatformOwnerID is the sentinel owner that receives anonymized business files
// when the exiting user has no organization.
const PlatformOwnerID = "platform"

// FileRecord is the metadata document for one stored blob. Blob content is
// immutable once written; only metadata mutates, and only through the upload
// path or the deletion executor.
type FileRecord struct {
	ID             string          `bson:"id" json:"id"`
	Path           string          `bson:"path" json:"path"`
	OwnerID        string          `bson:"owner_id" json:"owner_id"`
	OwnerType      OwnerType       `bson:"owner_type" json:"owner_type"`
	OrganizationID string          `bson:"organization_id,omitempty" json:"organization_id,omitempty"`
	UploaderToken  string          `bson:"uploader_token" json:"uploader_token"`
	RelatedEntity  string          `bson:"related_entity,omitempty" json:"related_entity,omitempty"`
	Kind           FileKind        `bson:"kind" json:"kind"`
	SizeInBytes    int64           `bson:"size_in_bytes" json:"size_in_bytes"`
	ContentType    string          `bson:"content_type" json:"content_type"`
	Classification Classification  `bson:"classification,omitempty" json:"classification,omitempty"`
	RetentionBasis RetentionBasis  `bson:"retention_basis,omitempty" json:"retention_basis,omitempty"`
	Public         bool            `bson:"public" json:"public"`
	AccessTier     AccessTier      `bson:"access_tier" json:"access_tier"`
	Temporary      bool            `bson:"temporary" json:"temporary"`
	Anonymized     bool            `bson:"anonymized" json:"anonymized"`
	AnonymizedAt   *time.Time      `bson:"anonymized_at,omitempty" json:"anonymized_at,omitempty"`
	TransferReason string          `bson:"transfer_reason,omitempty" json:"transfer_reason,omitempty"`
	RetainReason   string          `bson:"retain_reason,omitempty" json:"retain_reason,omitempty"`
	ExpiresAt      *time.Time      `bson:"expires_at,omitempty" json:"expires_at,omitempty"`
	CreatedAt      time.Time       `bson:"created_at" json:"created_at"`
	LastAccessedAt time.Time       `bson:"last_accessed_at" json:"last_accessed_at"`
	Tags           []string        `bson:"tags,omitempty" json:"tags,omitempty"`
	Description    string          `bson:"description,omitempty" json:"description,omitempty"`
}

// HasLegalHold reports whether the record may not be hard-deleted before its
// retention period has run out.
func (f *FileRecord) HasLegalHold(now time.Time) bool {
	if f.RetentionBasis != RetentionBasisLegalObligation {
		return false
	}
	if f.ExpiresAt == nil {
		return true
	}
	return now.Before(*f.ExpiresAt)
}
