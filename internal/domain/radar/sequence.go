package radar

import "time"

// SequenceCounter is a named monotonic counter. Value is only ever changed by
// compare-and-swap.
type SequenceCounter struct {
	Name      string    `gorm:"column:name;primaryKey" json:"name"`
	Value     int64     `gorm:"column:value;not null;default:0" json:"value"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (SequenceCounter) TableName() string { return "sequence_counter" }

const SequenceProject = "project"
