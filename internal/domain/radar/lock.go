package radar

import "time"

// AdvisoryLock backs the database implementation of named leases.
type AdvisoryLock struct {
	Name      string    `gorm:"column:name;primaryKey" json:"name"`
	Token     string    `gorm:"column:token;not null" json:"token"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null;index" json:"expires_at"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (AdvisoryLock) TableName() string { return "advisory_lock" }
