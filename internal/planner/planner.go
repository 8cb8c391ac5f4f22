// Package planner builds per-user deletion strategies for right-to-erasure
// requests.
package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/makersmarket/lifecycle/internal/classification"
	"github.com/makersmarket/lifecycle/internal/domain"
)

type Planner struct {
	files domain.FileRepository
}

type PlannerDependencies struct {
	FileRepository domain.FileRepository
}

func NewPlanner(deps PlannerDependencies) *Planner {
	return &Planner{
		files: deps.FileRepository,
	}
}

// Plan partitions the user's full file set into delete, anonymize, transfer,
// and retain lists. Public files are deliberately excluded: they never
// belonged to the user's deletable surface. Every other file lands in exactly
// one list. Re-planning after a partial execution simply finds the smaller
// remaining set, which makes plan-then-execute retriable.
func (p *Planner) Plan(ctx context.Context, userID string) (*domain.DeletionStrategy, error) {
	if userID == "" {
		return nil, &domain.ValidationError{Field: "userID", Reason: "must not be empty"}
	}

	records, err := p.files.Find(ctx, domain.FileFilter{OwnerID: userID})
	if err != nil {
		return nil, fmt.Errorf("failed to load files for user %s: %w", userID, err)
	}

	strategy := &domain.DeletionStrategy{
		UserID:    userID,
		PlannedAt: time.Now().UTC(),
	}

	for _, record := range records {
		p.place(strategy, record)
	}

	log.Info().
		Str("user_id", userID).
		Int("delete", len(strategy.Delete)).
		Int("anonymize", len(strategy.Anonymize)).
		Int("transfer", len(strategy.Transfer)).
		Int("retain", len(strategy.Retain)).
		Msg("Planned deletion strategy")

	return strategy, nil
}

func (p *Planner) place(strategy *domain.DeletionStrategy, record *domain.FileRecord) {
	// Legal holds win over every classification bucket.
	if policy, held := classification.LegalHold(record); held {
		strategy.Retain = append(strategy.Retain, domain.RetainTarget{
			Path:   record.Path,
			Reason: policy.Reason,
			Basis:  policy.Basis,
			Period: policy.Period,
		})
		return
	}

	switch classification.Classify(record) {
	case domain.ClassificationPersonal:
		strategy.Delete = append(strategy.Delete, record.Path)
	case domain.ClassificationBusiness:
		ownerID, ownerType := p.successor(record)
		strategy.Anonymize = append(strategy.Anonymize, domain.AnonymizeTarget{
			Path:         record.Path,
			NewOwnerID:   ownerID,
			NewOwnerType: ownerType,
		})
	case domain.ClassificationShared:
		ownerID, ownerType := p.sharedSuccessor(record)
		strategy.Transfer = append(strategy.Transfer, domain.TransferTarget{
			Path:         record.Path,
			NewOwnerID:   ownerID,
			NewOwnerType: ownerType,
			Reason:       domain.TransferReasonBusinessContinuity,
		})
	case domain.ClassificationPublic:
		// Left untouched. Public assets are platform content, not part of the
		// user's deletable surface, so they appear in no list at all.
	}
}

// successor picks the owner that takes over an anonymized business record:
// the user's organization when there is one, else the platform sentinel.
func (p *Planner) successor(record *domain.FileRecord) (string, domain.OwnerType) {
	if record.OrganizationID != "" {
		return record.OrganizationID, domain.OwnerTypeOrganization
	}
	return domain.PlatformOwnerID, domain.OwnerTypePlatform
}

// sharedSuccessor resolves the new owner of a shared file: the related entity
// when the record names one, else the organization, else the platform.
func (p *Planner) sharedSuccessor(record *domain.FileRecord) (string, domain.OwnerType) {
	if record.RelatedEntity != "" {
		return record.RelatedEntity, domain.OwnerTypeUser
	}
	return p.successor(record)
}
