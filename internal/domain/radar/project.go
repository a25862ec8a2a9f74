package radar

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project is a tracked research/innovation project. ExternalID and RCN are
// immutable once assigned.
type Project struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ExternalID      int64          `gorm:"column:external_id;not null;uniqueIndex" json:"cw_id"`
	Name            string         `gorm:"column:name;not null;uniqueIndex" json:"name"`
	RCN             string         `gorm:"column:rcn;not null;uniqueIndex" json:"rcn"`
	Title           string         `gorm:"column:title" json:"title"`
	Teaser          string         `gorm:"column:teaser" json:"teaser,omitempty"`
	Call            string         `gorm:"column:funding_call;index" json:"call,omitempty"`
	Type            string         `gorm:"column:type" json:"type,omitempty"`
	ProjectURL      string         `gorm:"column:project_url" json:"project_url,omitempty"`
	FundingBodyLink string         `gorm:"column:funding_body_link" json:"funding_body_link,omitempty"`
	HubURL          string         `gorm:"column:hub_url" json:"hub_url,omitempty"`
	StartDate       *time.Time     `gorm:"column:start_date;index" json:"start_date,omitempty"`
	EndDate         *time.Time     `gorm:"column:end_date" json:"end_date,omitempty"`
	Budget          float64        `gorm:"column:budget;not null;default:0" json:"budget"`
	CreatedAt       time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Project) TableName() string { return "project" }

// ActiveAt reports whether the project had started by t. Projects without a
// start date are always active.
func (p *Project) ActiveAt(t time.Time) bool {
	if p == nil {
		return false
	}
	return p.StartDate == nil || !p.StartDate.After(t)
}
