package radar

import (
	"time"

	"github.com/google/uuid"
)

// ClassificationFact assigns a taxonomy term to a project from EffectiveDate on.
// Rows are append-only.
type ClassificationFact struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID     uuid.UUID `gorm:"type:uuid;column:project_id;not null;uniqueIndex:idx_classification_fact_project_seq,priority:1;index:idx_classification_fact_asof,priority:1" json:"project_id"`
	Term          string    `gorm:"column:term;not null" json:"term"`
	ClassifiedBy  string    `gorm:"column:classified_by" json:"classified_by,omitempty"`
	ChangeSummary string    `gorm:"column:change_summary" json:"change_summary,omitempty"`
	EffectiveDate time.Time `gorm:"column:effective_date;not null;index:idx_classification_fact_asof,priority:2" json:"effective_date"`
	Seq           int64     `gorm:"column:seq;not null;uniqueIndex:idx_classification_fact_project_seq,priority:2" json:"seq"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
}

func (ClassificationFact) TableName() string { return "classification_fact" }

func (f *ClassificationFact) FactDate() time.Time { return f.EffectiveDate }
func (f *ClassificationFact) FactSeq() int64      { return f.Seq }
func (f *ClassificationFact) SetSeq(seq int64)    { f.Seq = seq }

// ScoreFact records manufacturing (MRL) and technology (TRL) readiness levels.
type ScoreFact struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID   uuid.UUID `gorm:"type:uuid;column:project_id;not null;uniqueIndex:idx_score_fact_project_seq,priority:1;index:idx_score_fact_asof,priority:1" json:"project_id"`
	MRL         int       `gorm:"column:mrl;not null" json:"mrl"`
	TRL         int       `gorm:"column:trl;not null" json:"trl"`
	ScoredBy    string    `gorm:"column:scored_by" json:"scored_by,omitempty"`
	Description string    `gorm:"column:description" json:"description,omitempty"`
	ScoringDate time.Time `gorm:"column:scoring_date;not null;index:idx_score_fact_asof,priority:2" json:"scoring_date"`
	Seq         int64     `gorm:"column:seq;not null;uniqueIndex:idx_score_fact_project_seq,priority:2" json:"seq"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

func (ScoreFact) TableName() string { return "score_fact" }

func (f *ScoreFact) FactDate() time.Time { return f.ScoringDate }
func (f *ScoreFact) FactSeq() int64      { return f.Seq }
func (f *ScoreFact) SetSeq(seq int64)    { f.Seq = seq }
