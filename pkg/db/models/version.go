package models

import (
	"time"
)

// DataVersion is the immutable header of one saved dataset snapshot
type DataVersion struct {
	ID            string `gorm:"primaryKey;type:text"`
	VersionNumber int    `gorm:"not null;uniqueIndex"`
	Fingerprint   string `gorm:"type:text;not null"`
	CreatedBy     string `gorm:"type:text;not null"`
	Notes         string `gorm:"type:text"`
	IsPublished   bool   `gorm:"not null;index"`
	RecordCount   int    `gorm:"not null"`

	CreatedAt time.Time

	// Relationships
	Rows []ApprovalRow `gorm:"foreignKey:VersionID;constraint:OnDelete:CASCADE"`
}
