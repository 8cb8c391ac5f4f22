package classification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makersmarket/lifecycle/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		record   domain.FileRecord
		expected domain.Classification
	}{
		{
			name:     "avatar is personal",
			record:   domain.FileRecord{Kind: domain.FileKindAvatar},
			expected: domain.ClassificationPersonal,
		},
		{
			name:     "identity document is personal",
			record:   domain.FileRecord{Kind: domain.FileKindIdentityDocument},
			expected: domain.ClassificationPersonal,
		},
		{
			name:     "certificate is personal",
			record:   domain.FileRecord{Kind: domain.FileKindCertificate},
			expected: domain.ClassificationPersonal,
		},
		{
			name:     "portfolio media is business",
			record:   domain.FileRecord{Kind: domain.FileKindPortfolioMedia},
			expected: domain.ClassificationBusiness,
		},
		{
			name:     "contract is business",
			record:   domain.FileRecord{Kind: domain.FileKindContract},
			expected: domain.ClassificationBusiness,
		},
		{
			name:     "invoice is business",
			record:   domain.FileRecord{Kind: domain.FileKindInvoice},
			expected: domain.ClassificationBusiness,
		},
		{
			name:     "project file is shared",
			record:   domain.FileRecord{Kind: domain.FileKindProjectFile},
			expected: domain.ClassificationShared,
		},
		{
			name:     "chat attachment is shared",
			record:   domain.FileRecord{Kind: domain.FileKindChatAttachment},
			expected: domain.ClassificationShared,
		},
		{
			name:     "logo is public",
			record:   domain.FileRecord{Kind: domain.FileKindLogo},
			expected: domain.ClassificationPublic,
		},
		{
			name:     "unknown kind defaults to business",
			record:   domain.FileRecord{Kind: domain.FileKind("unheard_of")},
			expected: domain.ClassificationBusiness,
		},
		{
			name: "explicit classification wins over kind",
			record: domain.FileRecord{
				Kind:           domain.FileKindAvatar,
				Classification: domain.ClassificationShared,
			},
			expected: domain.ClassificationShared,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(&tt.record))
		})
	}
}

func TestClassifyIsIdempotent(t *testing.T) {
	record := domain.FileRecord{Kind: domain.FileKindPortfolioMedia}

	first := Classify(&record)
	record.Classification = first

	assert.Equal(t, first, Classify(&record))
}

func TestClassifyIsTotalOverKindEnumeration(t *testing.T) {
	for _, kind := range domain.AllFileKinds {
		record := domain.FileRecord{Kind: kind}
		assert.NotEmpty(t, Classify(&record), "kind %s has no classification", kind)
	}
}

func TestLegalHold(t *testing.T) {
	contract := domain.FileRecord{Kind: domain.FileKindContract}
	policy, held := LegalHold(&contract)
	require.True(t, held)
	assert.Equal(t, domain.RetentionBasisLegalObligation, policy.Basis)
	assert.Equal(t, RetentionPeriodContract, policy.Period)
	assert.Equal(t, RetainReasonContract, policy.Reason)

	invoice := domain.FileRecord{Kind: domain.FileKindInvoice}
	policy, held = LegalHold(&invoice)
	require.True(t, held)
	assert.Equal(t, RetentionPeriodInvoice, policy.Period)

	explicit := domain.FileRecord{
		Kind:           domain.FileKindOther,
		RetentionBasis: domain.RetentionBasisLegalObligation,
	}
	policy, held = LegalHold(&explicit)
	require.True(t, held)
	assert.Equal(t, RetentionPeriodDefault, policy.Period)

	avatar := domain.FileRecord{Kind: domain.FileKindAvatar}
	_, held = LegalHold(&avatar)
	assert.False(t, held)
}

func TestRetentionPolicyFor(t *testing.T) {
	policy := RetentionPolicyFor(domain.ClassificationBusiness, domain.FileKindContract)
	assert.Equal(t, RetentionPeriodContract, policy.Period)

	policy = RetentionPolicyFor(domain.ClassificationBusiness, domain.FileKindTempUpload)
	assert.Equal(t, RetentionPeriodTemp, policy.Period)

	policy = RetentionPolicyFor(domain.ClassificationPersonal, domain.FileKindAvatar)
	assert.Equal(t, 2*365*24*time.Hour, policy.Period)
	assert.Equal(t, domain.RetentionBasisConsent, policy.Basis)
}
