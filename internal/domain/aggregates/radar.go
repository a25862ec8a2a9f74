package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"
	types "github.com/yungbote/project-radar/internal/domain"
)

var RadarEditionAggregateContract = Contract{
	Name:             "Radar.EditionAggregate",
	OpPrefix:         "Radar.Edition",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns the draft->live->archived transitions, the single-live invariant and write-once renderings.",
}

// RadarEditionAggregate owns edition lifecycle invariants.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeInvalidCutoff, CodeAdvanceConflict, CodeConflict, CodeRetryable, CodeInternal.
// Publish never returns CodeConflict: any lost race is CodeAdvanceConflict.
type RadarEditionAggregate interface {
	Aggregate

	// CreateDraft inserts a new draft edition without a cutoff. A taken slug is a
	// CodeConflict.
	CreateDraft(ctx context.Context, in CreateDraftInput) (*types.RadarEdition, error)

	// Publish persists the rendering, archives the current live edition and makes
	// the target live in one transaction.
	Publish(ctx context.Context, in PublishEditionInput) (PublishEditionResult, error)

	// UpdateSummary edits the summary of a draft or live edition.
	UpdateSummary(ctx context.Context, editionID uuid.UUID, summary string) (*types.RadarEdition, error)

	// DeleteDraft removes an edition that never went live.
	DeleteDraft(ctx context.Context, editionID uuid.UUID) error
}

type CreateDraftInput struct {
	Year    int
	Release int
	Summary string
}

type PublishEditionInput struct {
	EditionID   uuid.UUID
	CutoffDate  time.Time
	Rendering   *types.RadarRendering
	PublishedAt time.Time
}

type PublishEditionResult struct {
	Edition         *types.RadarEdition
	Rendering       *types.RadarRendering
	ArchivedEdition *types.RadarEdition
}

var FactLogAggregateContract = Contract{
	Name:             "Radar.FactLogAggregate",
	OpPrefix:         "Radar.FactLog",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns per-project append order of classification and score facts.",
}

// FactLogAggregate appends immutable facts. Seq is assigned inside the write
// transaction so that per-project append order equals commit order.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeUnknownProject, CodeConflict, CodeRetryable, CodeInternal.
type FactLogAggregate interface {
	Aggregate

	AppendClassification(ctx context.Context, fact *types.ClassificationFact) (*types.ClassificationFact, error)
	AppendScore(ctx context.Context, fact *types.ScoreFact) (*types.ScoreFact, error)
}
