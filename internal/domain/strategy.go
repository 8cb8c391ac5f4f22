package domain

import "time"

// TransferReasonBusinessContinuity is recorded on shared files moved to a new
// owner when the original uploader leaves.
const TransferReasonBusinessContinuity = "business_continuity"

// AnonymizeTarget is one file scheduled for anonymization, together with the
// owner that takes over the business record.
type AnonymizeTarget struct {
	Path         string    `bson:"path" json:"path"`
	NewOwnerID   string    `bson:"new_owner_id" json:"new_owner_id"`
	NewOwnerType OwnerType `bson:"new_owner_type" json:"new_owner_type"`
}

// TransferTarget is one shared file scheduled for ownership transfer.
type TransferTarget struct {
	Path         string    `bson:"path" json:"path"`
	NewOwnerID   string    `bson:"new_owner_id" json:"new_owner_id"`
	NewOwnerType OwnerType `bson:"new_owner_type" json:"new_owner_type"`
	Reason       string    `bson:"reason" json:"reason"`
}

// RetainTarget is one file kept under a legal or business retention duty.
type RetainTarget struct {
	Path   string         `bson:"path" json:"path"`
	Reason string         `bson:"reason" json:"reason"`
	Basis  RetentionBasis `bson:"basis" json:"basis"`
	Period time.Duration  `bson:"period" json:"period"`
}

// DeletionStrategy is the per-user erasure plan. The four lists are disjoint
// and together cover every file owned by the user, except public assets, which
// never belonged to the user's deletable surface and are left untouched.
type DeletionStrategy struct {
	UserID    string            `bson:"user_id" json:"user_id"`
	PlannedAt time.Time         `bson:"planned_at" json:"planned_at"`
	Delete    []string          `bson:"delete" json:"delete"`
	Anonymize []AnonymizeTarget `bson:"anonymize" json:"anonymize"`
	Transfer  []TransferTarget  `bson:"transfer" json:"transfer"`
	Retain    []RetainTarget    `bson:"retain" json:"retain"`
}

// TotalFiles is the number of files the strategy will touch.
func (s *DeletionStrategy) TotalFiles() int {
	return len(s.Delete) + len(s.Anonymize) + len(s.Transfer) + len(s.Retain)
}

// Paths returns every path in the strategy, across all four lists.
func (s *DeletionStrategy) Paths() []string {
	paths := make([]string, 0, s.TotalFiles())
	paths = append(paths, s.Delete...)
	for _, t := range s.Anonymize {
		paths = append(paths, t.Path)
	}
	for _, t := range s.Transfer {
		paths = append(paths, t.Path)
	}
	for _, t := range s.Retain {
		paths = append(paths, t.Path)
	}
	return paths
}
