package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/project-radar/internal/data/repos/facts"
	"github.com/yungbote/project-radar/internal/data/repos/projects"
	"github.com/yungbote/project-radar/internal/data/repos/radar"
	"github.com/yungbote/project-radar/internal/data/repos/sequence"
	"github.com/yungbote/project-radar/internal/platform/logger"
)

type SequenceRepo = sequence.SequenceRepo

type ProjectRepo = projects.ProjectRepo
type ProjectStats = projects.Stats

type ClassificationRepo = facts.ClassificationRepo
type ScoreRepo = facts.ScoreRepo

type EditionRepo = radar.EditionRepo
type RenderingRepo = radar.RenderingRepo

func NewSequenceRepo(db *gorm.DB, baseLog *logger.Logger) SequenceRepo {
	return sequence.NewSequenceRepo(db, baseLog)
}

func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	return projects.NewProjectRepo(db, baseLog)
}

func NewClassificationRepo(db *gorm.DB, baseLog *logger.Logger) ClassificationRepo {
	return facts.NewClassificationRepo(db, baseLog)
}
func NewScoreRepo(db *gorm.DB, baseLog *logger.Logger) ScoreRepo {
	return facts.NewScoreRepo(db, baseLog)
}

func NewEditionRepo(db *gorm.DB, baseLog *logger.Logger) EditionRepo {
	return radar.NewEditionRepo(db, baseLog)
}
func NewRenderingRepo(db *gorm.DB, baseLog *logger.Logger) RenderingRepo {
	return radar.NewRenderingRepo(db, baseLog)
}

// Set bundles every repository over one database handle.
type Set struct {
	Sequence       SequenceRepo
	Projects       ProjectRepo
	Classification ClassificationRepo
	Score          ScoreRepo
	Editions       EditionRepo
	Renderings     RenderingRepo
}

func NewSet(db *gorm.DB, baseLog *logger.Logger) Set {
	return Set{
		Sequence:       NewSequenceRepo(db, baseLog),
		Projects:       NewProjectRepo(db, baseLog),
		Classification: NewClassificationRepo(db, baseLog),
		Score:          NewScoreRepo(db, baseLog),
		Editions:       NewEditionRepo(db, baseLog),
		Renderings:     NewRenderingRepo(db, baseLog),
	}
}
