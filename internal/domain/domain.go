package domain

import (
	"github.com/yungbote/project-radar/internal/domain/radar"
)

const (
	EditionStatusDraft    = radar.EditionStatusDraft
	EditionStatusLive     = radar.EditionStatusLive
	EditionStatusArchived = radar.EditionStatusArchived

	UnplacedUnclassified = radar.UnplacedUnclassified
	UnplacedUnscored     = radar.UnplacedUnscored
	UnplacedUnknownTerm  = radar.UnplacedUnknownTerm
	UnplacedOutOfBand    = radar.UnplacedOutOfBand

	SequenceProject = radar.SequenceProject
)

type Project = radar.Project
type ClassificationFact = radar.ClassificationFact
type ScoreFact = radar.ScoreFact
type SequenceCounter = radar.SequenceCounter
type RadarEdition = radar.RadarEdition
type RadarRendering = radar.RadarRendering
type Blip = radar.Blip
type UnplacedProject = radar.UnplacedProject
type AdvisoryLock = radar.AdvisoryLock

// Models lists every persisted entity in migration order.
func Models() []any {
	return []any{
		&SequenceCounter{},
		&Project{},
		&ClassificationFact{},
		&ScoreFact{},
		&RadarEdition{},
		&RadarRendering{},
		&AdvisoryLock{},
	}
}
