package domain

import "time"

type AlertType string

const (
	AlertTypeQuota       AlertType = "quota"
	AlertTypePerformance AlertType = "performance"
	AlertTypeCompliance  AlertType = "compliance"
	AlertTypeSecurity    AlertType = "security"
)

// StorageAlert is a persisted health finding. Alerts carry the affected
// resource ids so they can be actioned without re-running the scan.
type StorageAlert struct {
	ID              string     `bson:"id" json:"id"`
	Type            AlertType  `bson:"type" json:"type"`
	Severity        Severity   `bson:"severity" json:"severity"`
	Description     string     `bson:"description" json:"description"`
	ResourceIDs     []string   `bson:"resource_ids" json:"resource_ids"`
	Recommendations []string   `bson:"recommendations,omitempty" json:"recommendations,omitempty"`
	CreatedAt       time.Time  `bson:"created_at" json:"created_at"`
	ResolvedAt      *time.Time `bson:"resolved_at,omitempty" json:"resolved_at,omitempty"`
}

// Resolved reports whether the alert has been closed.
func (a *StorageAlert) Resolved() bool {
	return a.ResolvedAt != nil
}
