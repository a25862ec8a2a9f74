package radar

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	EditionStatusDraft    = "draft"
	EditionStatusLive     = "live"
	EditionStatusArchived = "archived"
)

// RadarEdition is a named, cutoff-dated snapshot of the radar. At most one row
// holds status=live; the database enforces it with a partial unique index.
type RadarEdition struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Slug        string     `gorm:"column:slug;not null;uniqueIndex" json:"slug"`
	Year        int        `gorm:"column:year;not null;index:idx_radar_edition_order,priority:1" json:"year"`
	Release     int        `gorm:"column:release_no;not null;index:idx_radar_edition_order,priority:2" json:"release"`
	CutoffDate  *time.Time `gorm:"column:cutoff_date" json:"cutoff_date,omitempty"`
	Status      string     `gorm:"column:status;not null;index" json:"status"`
	Summary     string     `gorm:"column:summary" json:"summary"`
	PublishedAt *time.Time `gorm:"column:published_at" json:"published_at,omitempty"`
	ArchivedAt  *time.Time `gorm:"column:archived_at" json:"archived_at,omitempty"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
}

func (RadarEdition) TableName() string { return "radar_edition" }

func (e *RadarEdition) IsDraft() bool { return e != nil && e.Status == EditionStatusDraft }

// RadarRendering is the frozen layout and artifact of an edition. Written once,
// when the edition goes live.
type RadarRendering struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	EditionID   uuid.UUID      `gorm:"type:uuid;column:edition_id;not null;uniqueIndex" json:"edition_id"`
	GeneratedAt time.Time      `gorm:"column:generated_at;not null" json:"generated_at"`
	CutoffDate  time.Time      `gorm:"column:cutoff_date;not null" json:"cutoff_date"`
	Blips       datatypes.JSON `gorm:"column:blips" json:"blips"`
	Unplaced    datatypes.JSON `gorm:"column:unplaced" json:"unplaced"`
	Artifact    []byte         `gorm:"column:artifact" json:"-"`
	ContentType string         `gorm:"column:content_type;not null" json:"content_type"`
	Checksum    string         `gorm:"column:checksum;not null" json:"checksum"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
}

func (RadarRendering) TableName() string { return "radar_rendering" }

// Blip is one project's marker. It only exists inside a RadarRendering.
type Blip struct {
	ProjectID  uuid.UUID `json:"project_id"`
	ExternalID int64     `json:"cw_id"`
	Name       string    `json:"name"`
	Term       string    `json:"term"`
	Quadrant   string    `json:"quadrant"`
	Ring       string    `json:"ring"`
	X          float64   `json:"x"`
	Y          float64   `json:"y"`
}

const (
	UnplacedUnclassified = "unclassified"
	UnplacedUnscored     = "unscored"
	UnplacedUnknownTerm  = "unknown_term"
	UnplacedOutOfBand    = "out_of_band"
)

// UnplacedProject is an active project left off the radar at the cutoff.
type UnplacedProject struct {
	ProjectID  uuid.UUID `json:"project_id"`
	ExternalID int64     `json:"cw_id"`
	Name       string    `json:"name"`
	Reason     string    `json:"reason"`
}
