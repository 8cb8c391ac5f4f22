package executor

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/makersmarket/lifecycle/internal/domain"
)

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?[0-9][0-9()\-\s]{6,}[0-9]`)
	namePattern  = regexp.MustCompile(`\b[A-Z][a-z]+\s+[A-Z][a-z]+\b`)
)

// personalTagPrefixes mark tags that identify a person rather than the
// business record. They are dropped during anonymization.
var personalTagPrefixes = []string{"user:", "name:", "email:", "phone:", "contact:"}

const redactedPlaceholder = "[redacted]"

// anonymizeRecord strips personal identifiers from a record in place while
// preserving the business fields (kind, size, path, non-personal tags). The
// uploader identity is replaced with a random token, which is irreversible:
// nothing derivable from the original id is kept. Keyed pseudonymization
// would additionally preserve cross-record linkage, but needs a managed key;
// a random token is the safe choice without one.
func anonymizeRecord(record *domain.FileRecord, newOwnerID string, newOwnerType domain.OwnerType, now time.Time) {
	record.OwnerID = newOwnerID
	record.OwnerType = newOwnerType
	record.UploaderToken = "anon-" + uuid.NewString()
	record.Description = scrubText(record.Description)
	record.Tags = stripPersonalTags(record.Tags)
	record.Anonymized = true
	record.AnonymizedAt = &now
}

// scrubText removes email addresses, phone numbers, and capitalized
// first-plus-last-name pairs from free text.
func scrubText(text string) string {
	if text == "" {
		return ""
	}
	text = emailPattern.ReplaceAllString(text, redactedPlaceholder)
	text = phonePattern.ReplaceAllString(text, redactedPlaceholder)
	text = namePattern.ReplaceAllString(text, redactedPlaceholder)
	return text
}

func stripPersonalTags(tags []string) []string {
	var kept []string
	for _, tag := range tags {
		if isPersonalTag(tag) {
			continue
		}
		kept = append(kept, tag)
	}
	return kept
}

func isPersonalTag(tag string) bool {
	lower := strings.ToLower(tag)
	for _, prefix := range personalTagPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}
